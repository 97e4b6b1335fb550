package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"userauth/internal/middleware"
	"userauth/internal/models"
	"userauth/internal/services"
)

type AuthHandler struct {
	userService  services.UserService
	authService  services.AuthService
	tokenService services.TokenService
	emailService services.EmailService
	telegram     *services.TelegramService
}

func NewAuthHandler(
	userService services.UserService,
	authService services.AuthService,
	tokenService services.TokenService,
	emailService services.EmailService,
	telegram *services.TelegramService,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		tokenService: tokenService,
		emailService: emailService,
		telegram:     telegram,
	}
}

// notify dispatches mail without awaiting delivery; a failure never
// rolls back or fails the surrounding request.
func (h *AuthHandler) notify(what string, send func() error) {
	go func() {
		if err := send(); err != nil {
			log.Printf("[auth][notify] %s failed: %v", what, err)
		}
	}()
}

// @Summary      Log in
// @Description  Authenticates a user by email and password and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Login credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]interface{}
// @Failure      404    {object}  map[string]interface{}
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userService.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[auth][login] lookup failed for %q: %v", email, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		respondError(c, http.StatusUnauthorized, "Wrong password")
		return
	}

	// device token update is best-effort; login does not depend on it
	if req.DeviceToken != "" {
		if err := h.userService.UpdateDeviceToken(user.ID, req.DeviceToken); err != nil {
			log.Printf("[auth][login] device token update failed for userID=%d: %v", user.ID, err)
		}
	}

	token, err := h.tokenService.IssueAccessToken(user)
	if err != nil {
		log.Printf("[auth][login] sign access token failed for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond(c, http.StatusOK, "Logged successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

// @Summary      Current user
// @Description  Returns the account of the authenticated caller
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorize User")
		return
	}

	user, err := h.userService.GetUserByID(me.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[auth][me] lookup failed for userID=%d: %v", me.ID, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond(c, http.StatusOK, "Data Found", gin.H{"user": user})
}

// @Summary      Change password
// @Description  Replaces the caller's password after verifying the current one
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.ChangePasswordRequest  true  "Current and new password"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /api/v1/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorize User")
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondError(c, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if req.CurrentPassword == req.NewPassword {
		respondError(c, http.StatusBadRequest, "Current Password and New Password should not be same")
		return
	}

	user, err := h.userService.GetUserByID(me.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[auth][change-password] lookup failed for userID=%d: %v", me.ID, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		respondError(c, http.StatusUnauthorized, "Current password is wrong")
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("[auth][change-password] hash failed for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if err := h.userService.UpdatePassword(user.ID, hash); err != nil {
		log.Printf("[auth][change-password] update failed for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	email := user.Email
	h.notify("password-changed mail", func() error {
		return h.emailService.SendPasswordChangedEmail(email)
	})
	h.notify("telegram alert", func() error {
		return h.telegram.NotifyPasswordChanged(email, "change-password")
	})

	respond(c, http.StatusOK, "Password changed successfully", nil)
}

// @Summary      Forgot password
// @Description  Emails a reset link with a one-time code to the account owner
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email is required")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		respondError(c, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.userService.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[auth][forgot-password] lookup failed for %q: %v", email, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	otp, err := services.GenerateOTP()
	if err != nil {
		log.Printf("[auth][forgot-password] otp generation failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := h.tokenService.IssueResetToken(user.Email, otp)
	if err != nil {
		log.Printf("[auth][forgot-password] sign reset token failed for %q: %v", user.Email, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// the OTP travels only inside the mail and the signed token,
	// never in the API response
	resetLink := fmt.Sprintf("http://%s/api/v1/auth/reset-password/%s", c.Request.Host, token)
	to := user.Email
	h.notify("reset mail", func() error {
		return h.emailService.SendPasswordResetEmail(to, resetLink, otp)
	})

	respond(c, http.StatusOK, "Password forgotten successfully", nil)
}

// @Summary      Reset password
// @Description  Sets a new password when the reset token, email and OTP all match
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                       true  "Reset token"
// @Param        body   body      models.ResetPasswordRequest  true  "Email, OTP and new password"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]interface{}
// @Failure      404    {object}  map[string]interface{}
// @Router       /api/v1/auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Password and OTP are required")
		return
	}
	if req.Password == "" || req.OTP == "" {
		respondError(c, http.StatusBadRequest, "Password and OTP are required")
		return
	}

	claims, err := h.tokenService.VerifyResetToken(token)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	otp, err := strconv.Atoi(strings.TrimSpace(req.OTP))
	if err != nil || otp != claims.OTP {
		respondError(c, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if strings.TrimSpace(req.Email) != claims.Email {
		respondError(c, http.StatusBadRequest, "Invalid email")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth][reset-password] hash failed for %q: %v", claims.Email, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := h.userService.ResetPasswordByEmail(claims.Email, hash)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[auth][reset-password] update failed for %q: %v", claims.Email, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	email := user.Email
	h.notify("reset-confirmation mail", func() error {
		return h.emailService.SendPasswordChangedEmail(email)
	})
	h.notify("telegram alert", func() error {
		return h.telegram.NotifyPasswordChanged(email, "reset-password")
	})

	respond(c, http.StatusOK, "Password reset successfully", gin.H{"user": user})
}
