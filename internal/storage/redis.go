package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore suppresses repeated imports of the same listing URL and tracks
// per-URL failure counts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkImported sets a key with a TTL so re-import requests inside the window
// short-circuit.
func (s *RedisStore) MarkImported(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("imported:%s", url)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyImported checks whether a URL was imported within the TTL window.
func (s *RedisStore) IsRecentlyImported(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("imported:%s", url)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// IncrementFailureCount bumps the failed-import counter for a URL.
func (s *RedisStore) IncrementFailureCount(ctx context.Context, url string) (int64, error) {
	key := fmt.Sprintf("import_failed:%s", url)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Expire the counter so it doesn't live forever
	s.client.Expire(ctx, key, 24*time.Hour)
	return count, nil
}
