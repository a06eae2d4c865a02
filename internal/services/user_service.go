package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

var (
	ErrEmailTaken        = apierrors.Conflict("email already exists")
	ErrInvalidEmail      = apierrors.Validation("email is invalid")
	ErrFullNameRequired  = apierrors.Validation("full name is required")
	ErrInvalidRole       = apierrors.Validation("unknown role")
	ErrUserForbidden     = apierrors.Authorization("you cannot manage this user")
	ErrCannotToggleSelf  = apierrors.Validation("you cannot deactivate your own account")
	ErrSupervisorLimited = apierrors.Authorization("supervisors can only change name and password of their staff")
)

// UserService handles user administration.
type UserService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, log: log}
}

// CreateUserInput represents a new account created by the general manager
type CreateUserInput struct {
	Email        string
	Password     string
	FullName     string
	Role         models.Role
	Department   models.Department
	SupervisorID *string
}

// UpdateUserInput represents a partial update; nil fields are left alone
type UpdateUserInput struct {
	FullName     *string
	Password     *string
	Role         *models.Role
	Department   *models.Department
	SupervisorID *string
}

// List returns the users actor manages: everyone for the general manager,
// the department's staff for supervisors.
func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	filter, err := s.managedFilter(actor)
	if err != nil {
		return nil, err
	}

	var users []models.User
	err = retryRead(ctx, func() error {
		var err error
		users, err = s.userRepo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, storeFailure("list users", err)
	}
	return users, nil
}

// EligibleStaff lists the active staff a supervisor can forward to.
func (s *UserService) EligibleStaff(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !actor.Role.Supervises() {
		return nil, ErrUserForbidden
	}
	dept := actor.Department
	users, err := s.userRepo.List(ctx, repository.UserFilter{
		Roles:      []models.Role{models.RoleStaff},
		Department: &dept,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, storeFailure("list staff", err)
	}
	return users, nil
}

// Get returns a user actor may see
func (s *UserService) Get(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != actor.ID && !manages(actor, user) {
		return nil, ErrUserForbidden
	}
	return user, nil
}

// Create adds a user. Only the general manager can create accounts.
func (s *UserService) Create(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if !isGeneralManager(actor) {
		return nil, ErrGeneralManagerOnly
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if !input.Department.Valid() {
		return nil, ErrInvalidDepartment
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeFailure("check email", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		FullName:     fullName,
		Role:         input.Role,
		Department:   input.Department,
		SupervisorID: input.SupervisorID,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeFailure("create user", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)), zap.String("by", actor.ID))
	return user, nil
}

// Update changes a user. Supervisors may only rename their staff or reset passwords.
func (s *UserService) Update(ctx context.Context, actor *models.User, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !manages(actor, user) {
		return nil, ErrUserForbidden
	}
	if !isGeneralManager(actor) && (input.Role != nil || input.Department != nil || input.SupervisorID != nil) {
		return nil, ErrSupervisorLimited
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, ErrFullNameRequired
		}
		user.FullName = name
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Department != nil {
		if !input.Department.Valid() {
			return nil, ErrInvalidDepartment
		}
		user.Department = *input.Department
	}
	if input.SupervisorID != nil {
		if *input.SupervisorID == "" {
			user.SupervisorID = nil
		} else {
			user.SupervisorID = input.SupervisorID
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeFailure("update user", err)
	}
	return user, nil
}

// ToggleActive flips is_active on a managed user
func (s *UserService) ToggleActive(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	if actor.ID == id {
		return nil, ErrCannotToggleSelf
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !manages(actor, user) {
		return nil, ErrUserForbidden
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeFailure("update user", err)
	}

	s.log.Info("user active flag changed",
		zap.String("user_id", user.ID),
		zap.Bool("is_active", user.IsActive),
		zap.String("by", actor.ID),
	)
	return user, nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure("find user", err)
	}
	return user, nil
}

func (s *UserService) managedFilter(actor *models.User) (repository.UserFilter, error) {
	switch {
	case isGeneralManager(actor):
		return repository.UserFilter{}, nil
	case actor.Role.Supervises():
		dept := actor.Department
		return repository.UserFilter{Roles: []models.Role{models.RoleStaff}, Department: &dept}, nil
	default:
		return repository.UserFilter{}, ErrUserForbidden
	}
}

// manages reports whether actor administers target.
func manages(actor, target *models.User) bool {
	if isGeneralManager(actor) {
		return true
	}
	return actor.Role.Supervises() &&
		target.Role == models.RoleStaff &&
		target.Department == actor.Department
}
