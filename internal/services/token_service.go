package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userauth/internal/config"
	"userauth/internal/models"
)

// ResetTokenTTL is the fixed lifetime of a password-reset token.
const ResetTokenTTL = 15 * time.Minute

var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims is the payload of a session access token.
type AccessClaims struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload of a password-reset token. The OTP lives
// only here and in the outbound mail; nothing is stored server-side.
type ResetClaims struct {
	Email string `json:"email"`
	OTP   int    `json:"otp"`
	jwt.RegisteredClaims
}

type TokenService interface {
	IssueAccessToken(user *models.User) (string, error)
	IssueResetToken(email string, otp int) (string, error)
	VerifyAccessToken(token string) (*AccessClaims, error)
	VerifyResetToken(token string) (*ResetClaims, error)
}

type tokenService struct {
	accessSecret []byte
	resetSecret  []byte
	accessTTL    time.Duration
}

func NewTokenService(cfg *config.AuthConfig) TokenService {
	return &tokenService{
		accessSecret: []byte(cfg.AccessSecret),
		resetSecret:  []byte(cfg.ResetSecret),
		accessTTL:    cfg.AccessTTL(),
	}
}

func (s *tokenService) IssueAccessToken(user *models.User) (string, error) {
	claims := &AccessClaims{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

func (s *tokenService) IssueResetToken(email string, otp int) (string, error) {
	claims := &ResetClaims{
		Email: email,
		OTP:   otp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ResetTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.resetSecret)
}

func (s *tokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *tokenService) VerifyResetToken(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := s.parse(token, claims, s.resetSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// parse fails closed: malformed token, wrong secret, wrong signing
// method family or expiry all come back as ErrInvalidToken.
func (s *tokenService) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
