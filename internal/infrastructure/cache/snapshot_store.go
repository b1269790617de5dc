// Package cache keeps the latest currency rate snapshot close to the
// settlement service, in Redis when configured and in process otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agencyops/backend/internal/domain/currency"
)

// DefaultSnapshotKey is the Redis key holding the cached snapshot.
const DefaultSnapshotKey = "currency:rate_snapshot"

// SnapshotStore caches one rate snapshot with a TTL. Get returns nil, nil
// on a miss.
type SnapshotStore interface {
	Get(ctx context.Context) (*currency.RateSnapshot, error)
	Set(ctx context.Context, snapshot *currency.RateSnapshot, ttl time.Duration) error
	Close() error
}

// RedisSnapshotStore shares the snapshot between server instances.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore connects to Redis and verifies the connection.
func NewRedisSnapshotStore(ctx context.Context, opts *redis.Options) (*RedisSnapshotStore, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisSnapshotStoreWithClient(client, ""), nil
}

// NewRedisSnapshotStoreWithClient wraps an existing client. An empty key
// uses DefaultSnapshotKey.
func NewRedisSnapshotStoreWithClient(client *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisSnapshotStore{client: client, key: key}
}

func (s *RedisSnapshotStore) Get(ctx context.Context) (*currency.RateSnapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate snapshot: %w", err)
	}
	var snap currency.RateSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode rate snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Set(ctx context.Context, snapshot *currency.RateSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode rate snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

// InMemorySnapshotStore is the single-instance fallback.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshot  *currency.RateSnapshot
	expiresAt time.Time
	now       func() time.Time
}

// NewInMemorySnapshotStore returns an empty store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{now: time.Now}
}

func (s *InMemorySnapshotStore) Get(context.Context) (*currency.RateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil || !s.now().Before(s.expiresAt) {
		return nil, nil
	}
	cp := *s.snapshot
	return &cp, nil
}

func (s *InMemorySnapshotStore) Set(_ context.Context, snapshot *currency.RateSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *InMemorySnapshotStore) Close() error { return nil }

var (
	_ SnapshotStore = (*RedisSnapshotStore)(nil)
	_ SnapshotStore = (*InMemorySnapshotStore)(nil)
)
