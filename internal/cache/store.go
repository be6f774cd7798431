// Package cache provides the content-addressed stores behind the parse
// and response caches: a durable Redis backend for production and an
// in-memory backend for tests and Redis-less runs.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a plain key-value byte store. A ttl of zero means the entry
// never expires. Implementations must be safe for concurrent use; the
// same key written twice concurrently is not an error since values for a
// key are deterministic given the same input.
//
// Incr atomically adds delta to the integer stored at key, creating the
// key at zero when absent, and returns the new value. It fails when the
// stored value is not an integer. Counters shared across processes must
// go through Incr, never get-then-set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string, delta int64) (int64, error)
	Close() error
}

type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	return s.client.IncrBy(ctx, key, delta).Result()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
