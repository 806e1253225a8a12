// Package memory provides an in-process UserStore for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map guarded by a mutex.
type Store struct {
	mu    sync.Mutex
	users map[string]models.User
	now   func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *Store {
	return &Store{users: make(map[string]models.User), now: time.Now}
}

// Close is a no-op.
func (s *Store) Close() {}

// CreateUser inserts a user, enforcing unique email and username.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.User{}, &storage.ConflictError{Field: "email"}
		}
	}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return models.User{}, &storage.ConflictError{Field: "username"}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = user
	return copyUser(user), nil
}

// FindByID fetches a user by id.
func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return copyUser(user), nil
}

// FindByEmail fetches a user by normalized email.
func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Email == email })
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Username == username })
}

func (s *Store) findBy(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if match(user) {
			return copyUser(user), nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// SetResetCode stores a pending reset code.
func (s *Store) SetResetCode(_ context.Context, userID, code string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.ResetCode = code
	user.ResetCodeExpiry = &expiry
	s.users[userID] = user
	return nil
}

// ConsumeResetCode swaps the password hash and clears the reset pair if code is still live.
func (s *Store) ConsumeResetCode(_ context.Context, userID, code string, now time.Time, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || !user.HasPendingReset() || user.ResetCode != code || !now.Before(*user.ResetCodeExpiry) {
		return storage.ErrResetCodeMismatch
	}
	user.PasswordHash = passwordHash
	user.ResetCode = ""
	user.ResetCodeExpiry = nil
	s.users[userID] = user
	return nil
}

// ClearResetCode drops the reset pair if it still holds code.
func (s *Store) ClearResetCode(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if user.ResetCode == code {
		user.ResetCode = ""
		user.ResetCodeExpiry = nil
		s.users[userID] = user
	}
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func copyUser(u models.User) models.User {
	if u.ResetCodeExpiry != nil {
		expiry := *u.ResetCodeExpiry
		u.ResetCodeExpiry = &expiry
	}
	return u
}
