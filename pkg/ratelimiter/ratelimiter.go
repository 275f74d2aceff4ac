package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

	// ErrInvalidTokenCount indicates that the requested token count is invalid.
	ErrInvalidTokenCount = errors.New("ratelimiter: invalid token count")

	// ErrStoreUnavailable indicates that the store backend is unavailable.
	ErrStoreUnavailable = errors.New("ratelimiter: store unavailable")
)

// Config defines the token bucket parameters.
type Config struct {
	Capacity       int           // Maximum tokens the bucket can hold (burst limit)
	RefillRate     int           // Number of tokens added per refill interval
	RefillInterval time.Duration // How often tokens are added
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Limit     int       // Bucket capacity
	Remaining int       // Tokens remaining, negative means denied
	ResetAt   time.Time // Time of the next refill
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Store defines the interface for rate limit storage backends.
type Store interface {
	// ConsumeTokens attempts to consume tokens for the key. A negative
	// remaining count means the request should be denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the key.
	Reset(ctx context.Context, key string) error
}

// Bucket implements a token bucket rate limiter over a Store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a token bucket rate limiter.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

// Allow consumes one token for the key.
func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for the key.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}

	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.config)
	if err != nil {
		return nil, err
	}

	return &Result{
		Limit:     b.config.Capacity,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the bucket state for the key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
