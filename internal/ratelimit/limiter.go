// Package ratelimit caps how often a keyed action may happen inside a window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited is returned once a key has used its budget for the window.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("rate limiter unavailable")
)

// Limiter allows or rejects one occurrence of the action identified by key.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Config describes a budget of Max events per Window.
type Config struct {
	Prefix string
	Max    int
	Window time.Duration
}

// Redis enforces a fixed-window budget with INCR and EXPIRE so that limits
// hold across server instances.
type Redis struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{redis: client, config: cfg}
}

// Allow records one event for key and rejects it if the window budget is spent.
func (l *Redis) Allow(ctx context.Context, key string) error {
	k := l.config.Prefix + ":" + key
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(l.config.Max) {
		return ErrRateLimited
	}
	return nil
}

// Local is an in-process token bucket per key, used when no Redis is configured.
// Unlike Redis it refills continuously at Max tokens per Window. A bucket idle
// for a full Window is back at capacity, so such buckets are dropped.
type Local struct {
	mu        sync.Mutex
	config    Config
	buckets   map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocal creates an in-memory limiter refilling Max tokens over Window.
func NewLocal(cfg Config) *Local {
	return &Local{config: cfg, buckets: make(map[string]*localBucket), now: time.Now}
}

// Allow takes one token from the bucket for key.
func (l *Local) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.config.Window {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{
			limiter: rate.NewLimiter(rate.Every(l.config.Window/time.Duration(l.config.Max)), l.config.Max),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if !b.limiter.AllowN(now, 1) {
		return ErrRateLimited
	}
	return nil
}

func (l *Local) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.config.Window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Len reports how many keys currently hold a bucket.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// New picks the Redis limiter when client is non-nil and the local one otherwise.
// A non-positive Max disables limiting and returns nil.
func New(client redis.UniversalClient, cfg Config) Limiter {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return nil
	}
	if client != nil {
		return NewRedis(client, cfg)
	}
	return NewLocal(cfg)
}
