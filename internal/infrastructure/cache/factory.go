package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/infrastructure/config"
)

// StoreFactoryOption configures NewSnapshotStore.
type StoreFactoryOption func(*storeFactory)

type storeFactory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report the chosen store.
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *storeFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-process store. Defaults to true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *storeFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSnapshotStore picks Redis when it is enabled and reachable.
func NewSnapshotStore(ctx context.Context, cfg config.RedisConfig, opts ...StoreFactoryOption) (SnapshotStore, error) {
	f := &storeFactory{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("redis disabled, caching rate snapshots in memory")
		return NewInMemorySnapshotStore(), nil
	}

	store, err := NewRedisSnapshotStore(ctx, &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		f.logger.Info("using Redis rate snapshot cache", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for rate snapshot cache but unavailable: %w", err)
	}
	f.logger.Warn("redis unavailable, caching rate snapshots in memory; instances may see different snapshots",
		zap.Error(err),
	)
	return NewInMemorySnapshotStore(), nil
}
