package recovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/ratelimit"
	"github.com/hongminglow/pawfam/internal/storage"
	"github.com/hongminglow/pawfam/internal/storage/memory"
)

type fakeMailer struct {
	mu        sync.Mutex
	codes     []string
	passwords []string
	err       error
}

func (m *fakeMailer) SendOTP(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return m.err
}

func (m *fakeMailer) SendTemporaryPassword(_ context.Context, _, password, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords = append(m.passwords, password)
	return m.err
}

func (m *fakeMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[len(m.codes)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc    *Service
	store  *memory.Store
	mailer *fakeMailer
	clock  *clock
	user   models.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewUserStore()
	hash, err := auth.HashPassword("original-pw")
	require.NoError(t, err)
	user, err := store.CreateUser(context.Background(), models.User{
		Username: "alice", Email: "alice@x.com", Role: models.RoleCustomer, PasswordHash: hash,
	})
	require.NoError(t, err)

	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	mailer := &fakeMailer{}
	opts = append([]Option{WithClock(c.Now)}, opts...)
	return &fixture{
		svc:    NewService(store, mailer, opts...),
		store:  store,
		mailer: mailer,
		clock:  c,
		user:   user,
	}
}

func TestGenerateCode_Alphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected symbol %q in %q", r, code)
		}
	}
}

func TestRequestReset_StoresCodeWithExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	email, err := f.svc.RequestReset(ctx, " ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", email)

	got, err := f.store.FindByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.True(t, got.HasPendingReset())
	assert.Equal(t, f.mailer.lastCode(), got.ResetCode)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *got.ResetCodeExpiry)
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RequestReset(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.svc.RequestReset(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestRequestReset_MailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("relay down")

	_, err := f.svc.RequestReset(context.Background(), "alice@x.com")
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestVerifyReset_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := f.mailer.lastCode()

	require.NoError(t, f.svc.VerifyReset(ctx, "alice@x.com", strings.ToLower(code)))

	got, err := f.store.FindByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, got.HasPendingReset())
	assert.False(t, auth.CheckPassword(got.PasswordHash, "original-pw"))
	require.Len(t, f.mailer.passwords, 1)
	assert.True(t, auth.CheckPassword(got.PasswordHash, f.mailer.passwords[0]))

	err = f.svc.VerifyReset(ctx, "alice@x.com", code)
	assert.ErrorIs(t, err, ErrNoPendingCode)
}

func TestVerifyReset_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := f.mailer.lastCode()

	f.clock.Advance(10 * time.Minute)
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", code), ErrCodeExpired)

	got, err := f.store.FindByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, got.HasPendingReset(), "expired code is cleared")
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", code), ErrNoPendingCode)
}

func TestVerifyReset_JustBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute - time.Millisecond)
	assert.NoError(t, f.svc.VerifyReset(ctx, "alice@x.com", f.mailer.lastCode()))
}

func TestVerifyReset_InvalidAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", "ABC123"), ErrNoPendingCode)
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "ghost@x.com", "ABC123"), storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", ""), ErrMissingCode)

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	wrong := "000000"
	if f.mailer.lastCode() == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", wrong), ErrCodeInvalid)

	got, err := f.store.FindByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPendingReset(), "a wrong guess leaves the code pending")
}

func TestRequestReset_SupersedesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	first := f.mailer.lastCode()

	var second string
	for {
		_, err = f.svc.RequestReset(ctx, "alice@x.com")
		require.NoError(t, err)
		second = f.mailer.lastCode()
		if second != first {
			break
		}
	}

	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", first), ErrCodeInvalid)
	assert.NoError(t, f.svc.VerifyReset(ctx, "alice@x.com", second))
}

func TestVerifyReset_ConcurrentConsumesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := f.mailer.lastCode()

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.svc.VerifyReset(ctx, "alice@x.com", code)
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrNoPendingCode)
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, f.mailer.passwords, 1)
}

func TestVerifyReset_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLocal(ratelimit.Config{Max: 2, Window: time.Hour})
	f := newFixture(t, WithLimiters(nil, limiter))
	ctx := context.Background()

	_, err := f.svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_ = f.svc.VerifyReset(ctx, "alice@x.com", "ZZZZZZ")
	}
	assert.ErrorIs(t, f.svc.VerifyReset(ctx, "alice@x.com", f.mailer.lastCode()), ErrRateLimited)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) error { return ratelimit.ErrUnavailable }

func TestRequestReset_LimiterOutageFailsOpen(t *testing.T) {
	f := newFixture(t, WithLimiters(brokenLimiter{}, nil))
	_, err := f.svc.RequestReset(context.Background(), "alice@x.com")
	assert.NoError(t, err)
}
