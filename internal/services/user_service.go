package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"userauth/internal/models"
	"userauth/internal/repositories"
)

var ErrUserNotFound = errors.New("user not found")

type UserService interface {
	CreateUserWithPassword(user *models.User, plainPassword string) error
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id int) error
	ListUsers(limit, offset int) ([]*models.User, error)
	GetUserCount() (int, error)
	UpdatePassword(userID int, passwordHash string) error
	ResetPasswordByEmail(email, passwordHash string) (*models.User, error)
	UpdateDeviceToken(userID int, deviceToken string) error
	UpdateImage(userID int, image string) error
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) CreateUserWithPassword(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}

	hashedPassword, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if err := s.repo.Create(user); err != nil {
		return err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
			// warn but do not fail creation
			log.Printf("CreateUserWithPassword: warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return nil
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	u, err := s.repo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	u, err := s.repo.GetByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int) error {
	return s.repo.Delete(id)
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}

func (s *userService) GetUserCount() (int, error) {
	return s.repo.GetCount()
}

func (s *userService) UpdatePassword(userID int, passwordHash string) error {
	return s.repo.UpdatePassword(userID, passwordHash)
}

// ResetPasswordByEmail performs the reset flow's find-and-update and
// returns the updated record.
func (s *userService) ResetPasswordByEmail(email, passwordHash string) (*models.User, error) {
	u, err := s.repo.UpdatePasswordByEmail(email, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *userService) UpdateDeviceToken(userID int, deviceToken string) error {
	return s.repo.UpdateDeviceToken(userID, deviceToken)
}

func (s *userService) UpdateImage(userID int, image string) error {
	return s.repo.UpdateImage(userID, image)
}
