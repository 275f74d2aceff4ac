package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript implements the token bucket atomically server-side, so
// concurrent requests across service instances never double-spend tokens.
//
// KEYS[1] bucket key
// ARGV: capacity, refill rate, refill interval (ms), requested, now (ms)
// Returns: {remaining tokens, next refill time (ms)}
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil then
  tokens = capacity
  last_refill = now
end

local intervals = math.floor((now - last_refill) / interval)
if intervals > 0 then
  tokens = math.min(tokens + intervals * rate, capacity)
  last_refill = now
end

tokens = tokens - requested
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill', last_refill)
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity / rate + 1) * interval)

return {tokens, last_refill + interval}
`)

// RedisStore implements Store on Redis, sharing bucket state across
// service instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed rate limit store. Keys are stored
// under the given prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	now := time.Now()
	res, err := consumeScript.Run(ctx, rs.client, []string{rs.key(key)},
		config.Capacity,
		config.RefillRate,
		config.RefillInterval.Milliseconds(),
		tokens,
		now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	return int(res[0]), time.UnixMilli(res[1]), nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key(key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (rs *RedisStore) key(key string) string {
	return rs.prefix + ":" + key
}

var _ Store = (*RedisStore)(nil)
