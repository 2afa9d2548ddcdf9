package lockout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"peopleops/internal/platform/redis"
)

// RedisStore keeps failure counters and lock markers in redis so lockout
// state survives restarts and is shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func lockKey(key string) string { return key + ":locked" }

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr failure count: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("set failure window: %w", err)
		}
	}
	return int(count), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, duration time.Duration) error {
	until := time.Now().Add(duration)
	if err := s.client.Set(ctx, lockKey(key), until.Format(time.RFC3339Nano), duration).Err(); err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

func (s *RedisStore) LockedUntil(ctx context.Context, key string) (time.Time, error) {
	raw, err := s.client.Get(ctx, lockKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get lock: %w", err)
	}
	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse lock expiry: %w", err)
	}
	return until, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("clear lockout keys: %w", err)
	}
	return nil
}

// MemoryStore is the in-process fallback used when redis is not
// configured, and the store tests exercise against.
type MemoryStore struct {
	mu      sync.Mutex
	counts  map[string]int
	windows map[string]time.Time
	locks   map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:  make(map[string]int),
		windows: make(map[string]time.Time),
		locks:   make(map[string]time.Time),
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if expiry, ok := s.windows[key]; !ok || now.After(expiry) {
		s.counts[key] = 0
		s.windows[key] = now.Add(ttl)
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *MemoryStore) Lock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[key] = time.Now().Add(duration)
	return nil
}

func (s *MemoryStore) LockedUntil(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[key], nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
	delete(s.windows, key)
	delete(s.locks, key)
	return nil
}
