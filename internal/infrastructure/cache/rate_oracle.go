package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/infrastructure/logger"
)

// StaticRateOracle serves operator-configured rates. Each snapshot is stamped
// with the time it was served.
type StaticRateOracle struct {
	rates currency.RateTable
	now   func() time.Time
}

// NewStaticRateOracle parses "FROM_TO" keyed rates.
func NewStaticRateOracle(pairs map[string]string) (*StaticRateOracle, error) {
	rates, err := currency.ParseRateTable(pairs)
	if err != nil {
		return nil, err
	}
	return &StaticRateOracle{rates: rates, now: time.Now}, nil
}

func (o *StaticRateOracle) Snapshot(context.Context) (*currency.RateSnapshot, error) {
	return &currency.RateSnapshot{Rates: o.rates, AsOf: o.now().UTC()}, nil
}

// CachingRateOracle fronts another oracle with a SnapshotStore. Concurrent
// misses share a single upstream fetch.
type CachingRateOracle struct {
	upstream currency.RateOracle
	store    SnapshotStore
	ttl      time.Duration
	group    singleflight.Group
}

// NewCachingRateOracle caches upstream snapshots in store for ttl.
func NewCachingRateOracle(upstream currency.RateOracle, store SnapshotStore, ttl time.Duration) *CachingRateOracle {
	return &CachingRateOracle{upstream: upstream, store: store, ttl: ttl}
}

// Snapshot returns the cached snapshot, fetching upstream on a miss. Cache
// read and write failures are logged and never fail the caller.
func (o *CachingRateOracle) Snapshot(ctx context.Context) (*currency.RateSnapshot, error) {
	log := logger.L(ctx).Named("rate_oracle")

	snap, err := o.store.Get(ctx)
	if err != nil {
		log.Warn("rate snapshot cache read failed", zap.Error(err))
	}
	if snap != nil {
		return snap, nil
	}

	return o.fetch(ctx)
}

// Refresh fetches upstream unconditionally and replaces the cached snapshot.
func (o *CachingRateOracle) Refresh(ctx context.Context) error {
	_, err := o.fetch(ctx)
	return err
}

func (o *CachingRateOracle) fetch(ctx context.Context) (*currency.RateSnapshot, error) {
	log := logger.L(ctx).Named("rate_oracle")
	v, err, shared := o.group.Do("snapshot", func() (any, error) {
		fresh, err := o.upstream.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch rate snapshot: %w", err)
		}
		if fresh == nil {
			return nil, nil
		}
		if err := o.store.Set(ctx, fresh, o.ttl); err != nil {
			log.Warn("rate snapshot cache write failed", zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("rate snapshot fetch shared")
	}
	fresh, _ := v.(*currency.RateSnapshot)
	return fresh, nil
}

var (
	_ currency.RateOracle = (*StaticRateOracle)(nil)
	_ currency.RateOracle = (*CachingRateOracle)(nil)
)
