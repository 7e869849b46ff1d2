package thredds

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Store backed by Redis, so several harvesters can share one cache.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// Addr is the Redis server address (host:port)
	Addr string

	// Prefix is prepended to every key (default "thredds:")
	Prefix string

	// TTL expires entries; zero keeps them forever
	TTL time.Duration
}

// OpenRedisCache connects to Redis and checks the connection.
func OpenRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisCache(client, opts), nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, opts RedisOptions) *RedisCache {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "thredds:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: opts.TTL}
}

// Get implements Store.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put implements Store.
func (r *RedisCache) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
