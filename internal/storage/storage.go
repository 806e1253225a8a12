package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/pawfam/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrResetCodeMismatch is returned when a conditional reset update matched nothing:
// the code was already consumed, replaced, or has expired.
var ErrResetCodeMismatch = errors.New("reset code no longer pending")

// ConflictError names the unique field that rejected a write.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Is lets callers match any conflict with errors.Is(err, ErrAlreadyExists).
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// UserStore captures persistence operations needed by services and middleware.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// SetResetCode stores a pending reset code, replacing any previous one.
	SetResetCode(ctx context.Context, userID, code string, expiry time.Time) error
	// ConsumeResetCode replaces the password hash and clears the reset pair in one
	// conditional write, only if code is still pending and now is before its expiry.
	ConsumeResetCode(ctx context.Context, userID, code string, now time.Time, passwordHash string) error
	// ClearResetCode drops the pending pair if it still holds code.
	ClearResetCode(ctx context.Context, userID, code string) error
	Close()
}
