package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher replaces a cached value from its source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RateRefresherConfig holds configuration for the rate refresher
type RateRefresherConfig struct {
	// Interval between refreshes
	Interval time.Duration
	// Timeout bounds a single refresh
	Timeout time.Duration
}

// DefaultRateRefresherConfig returns default rate refresher configuration
func DefaultRateRefresherConfig() RateRefresherConfig {
	return RateRefresherConfig{
		Interval: 10 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

// RateRefresher keeps the rate snapshot cache warm so reconciliation rarely
// pays for an upstream fetch.
type RateRefresher struct {
	config    RateRefresherConfig
	refresher Refresher
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewRateRefresher creates a new rate refresher
func NewRateRefresher(config RateRefresherConfig, refresher Refresher, logger *zap.Logger) (*RateRefresher, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRateRefresherConfig().Timeout
	}
	return &RateRefresher{
		config:    config,
		refresher: refresher,
		logger:    logger.Named("rate_refresher"),
	}, nil
}

// Start refreshes once immediately and then on every interval.
func (r *RateRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Rate refresher started", zap.Duration("interval", r.config.Interval))
	return nil
}

// Stop stops the refresher, waiting for an in-flight refresh up to ctx.
func (r *RateRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Rate refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun reports when the last refresh finished and how it ended.
func (r *RateRefresher) LastRun() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

func (r *RateRefresher) runLoop(ctx context.Context) {
	defer r.wg.Done()

	r.refresh(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *RateRefresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	err := r.refresher.Refresh(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastErr = err
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("Rate snapshot refresh failed", zap.Error(err))
		return
	}
	r.logger.Debug("Rate snapshot refreshed", zap.Duration("elapsed", time.Since(start)))
}
