package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/bloomup/internal/logger"
)

// RedisStore shares the cache between machines through a Redis server.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects using a redis:// URL. Keys are stored under prefix.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
	}
	logger.Debug("Connected to redis cache", "addr", opts.Addr, "db", opts.DB)
	return &RedisStore{client: client, prefix: prefix}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", keyName(key), err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", keyName(key), err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", keyName(key), err)
	}
	if n == 0 {
		return ErrMiss
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
