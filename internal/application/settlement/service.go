// Package settlement orchestrates the partner and supplier settlement
// workflows: it loads records, runs the domain transitions with the acting
// tenant passed explicitly, persists them under optimistic locking and
// publishes the resulting events.
package settlement

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// Repositories groups the record stores the service writes through.
type Repositories struct {
	Transactions referral.TransactionRepository
	Payments     settlement.PaymentRepository
	Dispatches   dispatch.DispatchRepository
	Payouts      dispatch.PayoutRepository
	Rates        dispatch.RateRepository
}

// Service is the settlement application service.
type Service struct {
	transactions referral.TransactionRepository
	payments     settlement.PaymentRepository
	dispatches   dispatch.DispatchRepository
	payouts      dispatch.PayoutRepository
	rates        dispatch.RateRepository

	events       shared.EventPublisher
	oracle       currency.RateOracle
	defaultRates currency.RateTable
	maxRateAge   time.Duration
	metrics      *telemetry.SettlementMetrics
	receipts     ReceiptStorage
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEventPublisher publishes domain events after each successful save.
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithRateOracle supplies snapshots for normalized reconciliation.
func WithRateOracle(o currency.RateOracle) Option {
	return func(s *Service) {
		s.oracle = o
	}
}

// WithDefaultRates sets the fallback used when the snapshot is stale or
// lacks a pair.
func WithDefaultRates(rates currency.RateTable) Option {
	return func(s *Service) {
		s.defaultRates = rates
	}
}

// WithMaxRateAge marks snapshots older than d stale.
func WithMaxRateAge(d time.Duration) Option {
	return func(s *Service) {
		s.maxRateAge = d
	}
}

// WithMetrics records business counters.
func WithMetrics(m *telemetry.SettlementMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithReceiptStorage enables proof-of-payment uploads.
func WithReceiptStorage(store ReceiptStorage) Option {
	return func(s *Service) {
		s.receipts = store
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the service. Events and metrics default to no-ops.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		transactions: repos.Transactions,
		payments:     repos.Payments,
		dispatches:   repos.Dispatches,
		payouts:      repos.Payouts,
		rates:        repos.Rates,
		events:       nopPublisher{},
		defaultRates: currency.RateTable{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		// noop instruments never fail to register
		s.metrics, _ = telemetry.NewSettlementMetrics(noop.NewMeterProvider().Meter(telemetry.TracerName))
	}
	return s
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

// eventSource is an aggregate carrying pending domain events.
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publish hands the aggregate's events to the bus. The write is already
// committed, so a publish failure is logged and swallowed.
func (s *Service) publish(ctx context.Context, agg eventSource) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish domain events", zap.Error(err), zap.Int("count", len(events)))
	}
}

// lostRace replays a transition against the freshly stored record after a
// version conflict, so the loser of a race sees the state-machine error the
// winner's write implies. gone is returned when the record no longer exists.
func lostRace[T any](ctx context.Context, s *Service, op string, cause error,
	reload func() (*T, error), replay func(*T) error, gone error) error {
	if !errors.Is(cause, shared.ErrConcurrencyConflict) {
		return cause
	}
	s.metrics.ConcurrencyConflict(ctx, op)

	fresh, err := reload()
	if err != nil {
		return cause
	}
	if fresh == nil {
		logger.L(ctx).Info("record removed by a concurrent request", zap.String("operation", op))
		return gone
	}
	if err := replay(fresh); err != nil {
		logger.L(ctx).Info("concurrent request changed record state", zap.String("operation", op), zap.Error(err))
		return err
	}
	return cause
}

// rangeBounds turns open range bounds into nil filter bounds.
func rangeBounds(r shared.DateRange) (from, to *time.Time) {
	if !r.From.IsZero() {
		from = &r.From
	}
	if !r.To.IsZero() {
		to = &r.To
	}
	return from, to
}
