package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores cache entries in Redis so invalidations are shared
// by every worker process.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an existing Redis client. The caller is expected
// to have pinged the client already; a nil client should be handled by
// passing a nil Backend to NewStore instead.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements Backend.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	return b.client.Del(ctx, keys...).Err()
}
