package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"jira-askbot/internal/common/database"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisStore implements Store on go-redis, namespacing every key with a
// fixed prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(rc *database.RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: rc.GetClient(), prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, s.key(key), ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %s: %w", key, err)
	}
	return nil
}

// ScanPrefix lists keys under prefix using SCAN and returns them sorted,
// without the store namespace.
func (s *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	match := s.key(prefix) + "*"
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return dedupe(keys), nil
}

// SCAN may return a key more than once across iterations.
func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, k := range sorted[1:] {
		if k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}

// DeletePrefix removes every key under prefix and returns how many went.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.ScanPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if err := s.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats counts keys per top-level namespace ("mapping", "jql", ...).
type Stats struct {
	TotalKeys   int            `json:"totalKeys"`
	ByNamespace map[string]int `json:"byNamespace"`
}

func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	keys, err := s.ScanPrefix(ctx, "")
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalKeys: len(keys), ByNamespace: make(map[string]int)}
	for _, k := range keys {
		ns := k
		if i := strings.Index(k, ":"); i >= 0 {
			ns = k[:i]
		}
		stats.ByNamespace[ns]++
	}
	return stats, nil
}
