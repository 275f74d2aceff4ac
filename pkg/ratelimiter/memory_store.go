package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucketState struct {
	tokens     int
	lastRefill time.Time
}

// MemoryStore implements Store with an in-memory map. Suitable for tests
// and single-instance deployments; multi-instance setups need RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
}

// NewMemoryStore creates an empty in-memory rate limit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucketState)}
}

func (ms *MemoryStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	b, ok := ms.buckets[key]
	if !ok {
		b = &bucketState{tokens: config.Capacity, lastRefill: now}
		ms.buckets[key] = b
	}

	// Cap intervals so a long-idle bucket cannot overflow the counter.
	elapsed := now.Sub(b.lastRefill)
	maxIntervals := int64(config.Capacity/config.RefillRate + 1)
	intervals := int(min(int64(elapsed/config.RefillInterval), maxIntervals))
	if intervals > 0 {
		b.tokens = min(b.tokens+intervals*config.RefillRate, config.Capacity)
		b.lastRefill = now
	}

	b.tokens -= tokens
	return b.tokens, b.lastRefill.Add(config.RefillInterval), nil
}

func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
