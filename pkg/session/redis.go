package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Redis-backed Store for multi-process deployments.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	closed atomic.Bool
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*redisStoreConfig)

type redisStoreConfig struct {
	prefix string
}

// WithRedisPrefix sets the key prefix. Default: "storyapp:client:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(c *redisStoreConfig) {
		c.prefix = prefix
	}
}

// NewRedisStore creates a store over an existing client. The store owns
// the client: Close closes it.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	cfg := &redisStoreConfig{
		prefix: "storyapp:client:",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &RedisStore{
		client: client,
		prefix: cfg.prefix,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Save stores data with a TTL derived from expiresAt. An expiry in the
// past deletes the key.
func (r *RedisStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	if r.closed.Load() {
		return ErrStoreClosed{}
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(id)).Err()
	}
	return r.client.Set(ctx, r.key(id), data, ttl).Err()
}

// Load retrieves data. Returns (nil, nil) when the key does not exist.
func (r *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed{}
	}
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a key.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if r.closed.Load() {
		return ErrStoreClosed{}
	}
	return r.client.Del(ctx, r.key(id)).Err()
}

// Touch resets the TTL of a key.
func (r *RedisStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if r.closed.Load() {
		return ErrStoreClosed{}
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(id)).Err()
	}
	return r.client.Expire(ctx, r.key(id), ttl).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.client.Close()
}
