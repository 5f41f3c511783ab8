package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a Counter backed by redis, for multi-process deployments
// where every replica must see the same counts.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
	prefix string
}

// NewRedisCounter creates a RedisCounter from a redis URL.
func NewRedisCounter(redisURL string, window time.Duration) (*RedisCounter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCounter{
		client: redis.NewClient(opts),
		window: window,
		prefix: "ratelimit:",
	}, nil
}

// Increment implements Counter. The window TTL is set only when the key is
// first created, so the window is fixed rather than sliding.
func (r *RedisCounter) Increment(ctx context.Context, key string) (int64, error) {
	fullKey := r.prefix + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, r.window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Close releases the underlying redis connection.
func (r *RedisCounter) Close() error {
	return r.client.Close()
}

// Compile-time check that RedisCounter implements Counter.
var _ Counter = (*RedisCounter)(nil)
