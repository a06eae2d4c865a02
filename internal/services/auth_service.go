package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

var (
	ErrInvalidCredentials   = apierrors.Authorization("invalid email or password")
	ErrPasswordTooShort     = apierrors.Validation(fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	ErrUserNotFound         = apierrors.NotFound("user not found")
	ErrUserInactive         = apierrors.Authorization("account is disabled")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		log:      log,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
// Unknown emails, wrong passwords and disabled accounts look the same to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeFailure("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Info("login refused for inactive user", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves an active user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := retryRead(ctx, func() error {
		var err error
		user, err = s.userRepo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure("find user", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// HashPassword validates the length and bcrypt-hashes a password.
func HashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}
