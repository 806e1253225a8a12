package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
	"github.com/hongminglow/pawfam/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *auth.TokenManager) {
	t.Helper()
	store := memory.NewUserStore()
	tokens := auth.NewTokenManager("test-secret", "pawfam-test", 7*24*time.Hour)
	return NewService(store, tokens), store, tokens
}

func TestRegister_Customer(t *testing.T) {
	svc, _, tokens := newTestService(t)

	sess, err := svc.Register(context.Background(), "alice", "Alice@X.com ", "pw123456", models.RoleCustomer)
	require.NoError(t, err)

	assert.Equal(t, "alice@x.com", sess.User.Email)
	assert.Equal(t, models.RoleCustomer, sess.User.Role)
	assert.NotEqual(t, "pw123456", sess.User.PasswordHash)
	assert.True(t, auth.CheckPassword(sess.User.PasswordHash, "pw123456"))

	claims, err := tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestRegister_DuplicateEmailAnyCase(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456", models.RoleCustomer)
	require.NoError(t, err)

	for _, email := range []string{"alice@x.com", "ALICE@X.COM", " Alice@x.Com"} {
		_, err := svc.Register(ctx, "someone-else", email, "pw123456", models.RoleVendor)
		var conflict *storage.ConflictError
		require.True(t, errors.As(err, &conflict), "email %q", email)
		assert.Equal(t, "email", conflict.Field)
	}
	assert.Equal(t, 1, store.Len())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456", models.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@x.com", "pw123456", models.RoleCustomer)
	var conflict *storage.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "username", conflict.Field)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, username, email, password string
	}{
		{"missing username", "", "a@x.com", "pw"},
		{"missing email", "a", " ", "pw"},
		{"missing password", "a", "a@x.com", ""},
		{"malformed email", "a", "not-an-email", "pw"},
		{"password over bcrypt limit", "a", "a@x.com", strings.Repeat("a", auth.MaxPasswordBytes+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, models.RoleCustomer)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestRegister_PasswordAtBcryptLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	password := strings.Repeat("a", auth.MaxPasswordBytes)

	_, err := svc.Register(context.Background(), "alice", "alice@x.com", password, models.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice@x.com", password, false)
	assert.NoError(t, err)
}

func TestLogin_UndifferentiatedFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456", models.RoleCustomer)
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice@x.com", "nope", false)
	_, unknown := svc.Login(ctx, "ghost@x.com", "pw123456", false)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknown.Error())

	sess, err := svc.Login(ctx, "ALICE@x.com", "pw123456", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestLogin_VendorPath(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "cust", "cust@x.com", "pw123456", models.RoleCustomer)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "shop", "shop@x.com", "pw123456", models.RoleVendor)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "cust@x.com", "pw123456", true)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.Login(ctx, "shop@x.com", "pw123456", true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleVendor, sess.User.Role)
}
