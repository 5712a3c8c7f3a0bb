// Package users implements management of platform accounts: farmers,
// agricultural experts and administrators.
package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidRole is returned when a request carries an unknown role
var ErrInvalidRole = errors.New("invalid role")

// Service defines user management operations
type Service interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

// NewService creates a new users service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the role, hashes the password and stores the account.
func (s *service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if !ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, &User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: string(hash),
	})
}

func (s *service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	if req.Role != nil && !ValidRole(*req.Role) {
		return nil, ErrInvalidRole
	}
	return s.repo.Update(ctx, id, req)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
