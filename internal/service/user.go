package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// UserAdminRepository defines user storage needed for account management
type UserAdminRepository interface {
	UserRepository
	List(ctx context.Context, opts repository.ListOptions) ([]*model.User, error)
	Update(ctx context.Context, id int64, upd model.UserUpdate) error
	Delete(ctx context.Context, id int64) error
}

// UserService manages staff accounts
type UserService struct {
	userRepo UserAdminRepository
}

// UserServiceConfig holds configuration for the user service
type UserServiceConfig struct {
	UserRepo UserAdminRepository
}

// NewUserService creates a new user service
func NewUserService(cfg UserServiceConfig) *UserService {
	return &UserService{userRepo: cfg.UserRepo}
}

// List returns staff accounts
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]*model.User, error) {
	return s.userRepo.List(ctx, opts)
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update applies a partial update to an account
func (s *UserService) Update(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" {
			return nil, model.NewValidationError("username", "must not be empty")
		}
		upd.Username = &name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if !isValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		upd.Email = &email
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.userRepo.Update(ctx, id, upd); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(err, ErrUsernameExists)
	}
	return s.Get(ctx, id)
}

// Delete removes an account. Callers cannot remove themselves.
func (s *UserService) Delete(ctx context.Context, caller *model.CallerIdentity, id int64) error {
	if caller != nil && caller.SubjectID == id {
		return ErrCannotDeleteSelf
	}
	return deleteError(s.userRepo.Delete(ctx, id), ErrUserNotFound)
}
