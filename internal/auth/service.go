// Package auth implements password authentication and the per-request
// session guard. Login verifies credentials against the users table and
// issues a signed, time-bounded token; the guard validates that token on
// every protected request. No session state is held server-side, so a
// token stays valid until its natural expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mkulima/internal/token"
	"mkulima/internal/users"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike, so a caller cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// PublicUser is the subset of the account returned to the client on
// login.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the issued token and the public user fields.
type LoginResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// Service defines the authentication service interface
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type service struct {
	repo  users.Repository
	codec *token.Codec
}

// NewService creates an authenticator backed by the given user store and
// token codec.
func NewService(repo users.Repository, codec *token.Codec) Service {
	return &service{repo: repo, codec: codec}
}

// Login validates the email/password pair and issues a session token.
// The bcrypt comparison is the one expensive step; callers should treat
// Login as a coarse blocking operation.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.codec.Issue(u.ID, u.Name, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token: tok,
		User: PublicUser{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		},
	}, nil
}
