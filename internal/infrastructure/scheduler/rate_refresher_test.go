package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestDefaultRateRefresherConfig(t *testing.T) {
	cfg := DefaultRateRefresherConfig()

	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestNewRateRefresher(t *testing.T) {
	t.Run("rejects a zero interval", func(t *testing.T) {
		_, err := NewRateRefresher(RateRefresherConfig{}, &countingRefresher{}, zap.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("fills in the default timeout", func(t *testing.T) {
		r, err := NewRateRefresher(RateRefresherConfig{Interval: time.Minute}, &countingRefresher{}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, r.config.Timeout)
	})
}

func TestRateRefresher_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes on start and on every tick", func(t *testing.T) {
		src := &countingRefresher{}
		r, err := NewRateRefresher(RateRefresherConfig{Interval: 10 * time.Millisecond}, src, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, r.Start(ctx))
		assert.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		require.NoError(t, r.Stop(ctx))

		last, lastErr := r.LastRun()
		assert.False(t, last.IsZero())
		assert.NoError(t, lastErr)
	})

	t.Run("second start is rejected", func(t *testing.T) {
		r, err := NewRateRefresher(RateRefresherConfig{Interval: time.Hour}, &countingRefresher{}, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, r.Start(ctx))
		t.Cleanup(func() { _ = r.Stop(ctx) })
		assert.ErrorIs(t, r.Start(ctx), ErrAlreadyRunning)
	})

	t.Run("failures are recorded and the loop keeps going", func(t *testing.T) {
		src := &countingRefresher{err: errors.New("feed offline")}
		r, err := NewRateRefresher(RateRefresherConfig{Interval: 10 * time.Millisecond}, src, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, r.Start(ctx))
		assert.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		require.NoError(t, r.Stop(ctx))

		_, lastErr := r.LastRun()
		assert.ErrorContains(t, lastErr, "feed offline")
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		r, err := NewRateRefresher(RateRefresherConfig{Interval: time.Hour}, &countingRefresher{}, zap.NewNop())
		require.NoError(t, err)
		assert.NoError(t, r.Stop(ctx))
	})
}
