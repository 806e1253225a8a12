// Package account registers customers and vendors and logs them in.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Session is the token and identity returned after registration or login.
type Session struct {
	Token string
	User  models.User
}

// Service owns registration and login.
type Service struct {
	store  storage.UserStore
	tokens *auth.TokenManager
}

// NewService constructs the service.
func NewService(store storage.UserStore, tokens *auth.TokenManager) *Service {
	return &Service{store: store, tokens: tokens}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with the given role and issues a session.
func (s *Service) Register(ctx context.Context, username, email, password string, role models.Role) (Session, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return Session{}, &ValidationError{Message: "Please provide username, email, and password"}
	}
	if !strings.Contains(email, "@") || !utf8.ValidString(password) {
		return Session{}, &ValidationError{Message: "Please provide a valid email and password"}
	}
	if len(password) > auth.MaxPasswordBytes {
		return Session{}, &ValidationError{Message: "Password must be at most 72 bytes"}
	}
	if !role.Valid() {
		return Session{}, &ValidationError{Message: "unknown account role"}
	}

	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.store.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(created)
}

// ensureAvailable runs the two pre-insert existence checks. The unique
// constraints in the store still catch a concurrent duplicate.
func (s *Service) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return &storage.ConflictError{Field: "email"}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return &storage.ConflictError{Field: "username"}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("lookup username: %w", err)
	}
	return nil
}

// Login checks credentials. With vendorOnly set, customer accounts are rejected
// exactly like a wrong password.
func (s *Service) Login(ctx context.Context, email, password string, vendorOnly bool) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, &ValidationError{Message: "Please provide email and password"}
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if vendorOnly && user.Role != models.RoleVendor {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *Service) issue(user models.User) (Session, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
