package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	l := NewRedis(client, Config{Prefix: "otp:request", Max: 2, Window: time.Minute})

	require.NoError(t, l.Allow(ctx, "alice@x.com"))
	require.NoError(t, l.Allow(ctx, "alice@x.com"))
	assert.ErrorIs(t, l.Allow(ctx, "alice@x.com"), ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "bob@x.com"), "keys are independent")

	assert.Equal(t, time.Minute, mr.TTL("otp:request:alice@x.com"))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Allow(ctx, "alice@x.com"))
}

func TestRedis_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	l := NewRedis(client, Config{Prefix: "p", Max: 1, Window: time.Minute})
	assert.ErrorIs(t, l.Allow(context.Background(), "k"), ErrUnavailable)
}

func TestLocal_Burst(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(Config{Max: 3, Window: time.Hour})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "k"))
	}
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, "other"))
}

func TestLocal_EvictsIdleBuckets(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal(Config{Max: 1, Window: time.Minute})
	l.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Allow(ctx, fmt.Sprintf("user%d@x.com", i)))
	}
	assert.Equal(t, 1000, l.Len())

	clock = clock.Add(30 * time.Second)
	assert.ErrorIs(t, l.Allow(ctx, "user1@x.com"), ErrRateLimited, "active bucket keeps its state")

	clock = clock.Add(30 * time.Second)
	require.NoError(t, l.Allow(ctx, "fresh@x.com"))
	assert.Equal(t, 2, l.Len(), "only buckets seen within the window survive")
}

func TestLocal_RefillsOverWindow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal(Config{Max: 2, Window: time.Minute})
	l.now = func() time.Time { return clock }

	require.NoError(t, l.Allow(ctx, "k"))
	require.NoError(t, l.Allow(ctx, "k"))
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)

	clock = clock.Add(31 * time.Second)
	assert.NoError(t, l.Allow(ctx, "k"), "one token back after half the window")
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrRateLimited)
}

func TestNew_Selection(t *testing.T) {
	_, client := newTestRedis(t)

	assert.Nil(t, New(client, Config{Max: 0, Window: time.Minute}))
	assert.IsType(t, &Redis{}, New(client, Config{Max: 1, Window: time.Minute}))
	assert.IsType(t, &Local{}, New(nil, Config{Max: 1, Window: time.Minute}))
}
