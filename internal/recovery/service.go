// Package recovery implements the emailed one-time-code password reset.
//
// Per account the flow is a two-state machine: a request moves it to a pending
// reset (replacing any earlier code); a successful verify, an observed expiry,
// or a newer request moves it back. Success ends with a system-generated
// temporary password delivered by email.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/notify"
	"github.com/hongminglow/pawfam/internal/ratelimit"
	"github.com/hongminglow/pawfam/internal/storage"
)

const (
	// CodeAlphabet is the set of symbols a reset code is drawn from.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the number of symbols in a reset code.
	CodeLength = 6
	// DefaultTTL is how long a reset code stays valid.
	DefaultTTL = 10 * time.Minute
)

var (
	ErrMissingEmail  = errors.New("email is required")
	ErrMissingCode   = errors.New("email and code are required")
	ErrNoPendingCode = errors.New("no pending reset code")
	ErrCodeExpired   = errors.New("reset code expired")
	ErrCodeInvalid   = errors.New("reset code invalid")
	ErrRateLimited   = errors.New("too many reset attempts")
	// ErrDelivery wraps mail relay failures.
	ErrDelivery = errors.New("email delivery failed")
)

// GenerateCode returns a fresh reset code.
func GenerateCode() (string, error) {
	return auth.RandomString(CodeAlphabet, CodeLength)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLimiters throttles reset requests and verify attempts per email. Either may be nil.
func WithLimiters(request, verify ratelimit.Limiter) Option {
	return func(s *Service) {
		s.requestLimiter = request
		s.verifyLimiter = verify
	}
}

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service runs the reset request and verify steps.
type Service struct {
	store          storage.UserStore
	mailer         notify.Mailer
	requestLimiter ratelimit.Limiter
	verifyLimiter  ratelimit.Limiter
	ttl            time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewService constructs the service.
func NewService(store storage.UserStore, mailer notify.Mailer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		mailer: mailer,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestReset issues a new code for the account at email and mails it.
// It returns the normalized email on success.
func (s *Service) RequestReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrMissingEmail
	}
	if err := s.throttle(ctx, s.requestLimiter, email); err != nil {
		return "", err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := s.store.SetResetCode(ctx, user.ID, code, s.now().Add(s.ttl)); err != nil {
		return "", fmt.Errorf("store reset code: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return email, nil
}

// VerifyReset checks code against the pending one for email. On a match the
// password is replaced by a temporary one, the code is cleared in the same
// store write, and the temporary password is mailed.
func (s *Service) VerifyReset(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))
	if email == "" || code == "" {
		return ErrMissingCode
	}
	if err := s.throttle(ctx, s.verifyLimiter, email); err != nil {
		return err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.HasPendingReset() {
		return ErrNoPendingCode
	}

	now := s.now()
	if !now.Before(*user.ResetCodeExpiry) {
		if err := s.store.ClearResetCode(ctx, user.ID, user.ResetCode); err != nil {
			s.logger.WarnContext(ctx, "clear expired reset code", "user_id", user.ID, "error", err)
		}
		return ErrCodeExpired
	}
	if !strings.EqualFold(user.ResetCode, code) {
		return ErrCodeInvalid
	}

	password, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.ConsumeResetCode(ctx, user.ID, user.ResetCode, now, hash); err != nil {
		if errors.Is(err, storage.ErrResetCodeMismatch) {
			return ErrNoPendingCode
		}
		return fmt.Errorf("consume reset code: %w", err)
	}

	if err := s.mailer.SendTemporaryPassword(ctx, user.Email, password, user.Username); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (s *Service) throttle(ctx context.Context, l ratelimit.Limiter, key string) error {
	if l == nil {
		return nil
	}
	err := l.Allow(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrRateLimited):
		return ErrRateLimited
	default:
		// Limiter outages fail open.
		s.logger.ErrorContext(ctx, "rate limiter unavailable", "error", err)
		return nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
