package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments KEYS[1], arms its expiry on the first hit of a
// window and returns the count with the remaining TTL in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore is a RateStore shared by every instance pointing at the same Redis
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a new RedisStore instance
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Get returns the active window of key
func (s *RedisStore) Get(ctx context.Context, key string) (RateRecord, bool, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return RateRecord{}, false, fmt.Errorf("failed to read rate limit key: %w", err)
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return RateRecord{}, false, nil
	}
	if err != nil {
		return RateRecord{}, false, fmt.Errorf("failed to read rate limit count: %w", err)
	}
	return RateRecord{
		Key:     key,
		Count:   count,
		ResetAt: s.now().Add(ttlCmd.Val()),
	}, true, nil
}

// Increment counts one hit for key
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (RateRecord, error) {
	vals, err := fixedWindowScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return RateRecord{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return RateRecord{}, fmt.Errorf("unexpected rate limit script reply of length %d", len(vals))
	}
	return RateRecord{
		Key:     key,
		Count:   int(vals[0]),
		ResetAt: s.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// Reset deletes key
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
