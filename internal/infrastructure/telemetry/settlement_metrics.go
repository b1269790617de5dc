package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SettlementMetrics holds the business instruments of the settlement service.
type SettlementMetrics struct {
	transactionsCreated  metric.Int64Counter
	paymentsReported     metric.Int64Counter
	paymentsResolved     metric.Int64Counter
	deletionTransitions  metric.Int64Counter
	concurrencyConflicts metric.Int64Counter
	payoutsCreated       metric.Int64Counter
	staleRatesUsed       metric.Int64Counter
	reconcileDuration    metric.Float64Histogram
}

// NewSettlementMetrics creates the instruments on meter.
func NewSettlementMetrics(meter metric.Meter) (*SettlementMetrics, error) {
	m := &SettlementMetrics{}
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{event}"))
		errs = append(errs, err)
		return c
	}

	m.transactionsCreated = counter("settlement.transactions.created", "Partner transactions recorded")
	m.paymentsReported = counter("settlement.payments.reported", "Partner payments reported by payers")
	m.paymentsResolved = counter("settlement.payments.resolved", "Partner payments confirmed or rejected by payees")
	m.deletionTransitions = counter("settlement.deletion.transitions", "Two-party deletion workflow transitions")
	m.concurrencyConflicts = counter("settlement.concurrency.conflicts", "Writes lost to a concurrent update")
	m.payoutsCreated = counter("settlement.payouts.created", "Agency payouts settling dispatches")
	m.staleRatesUsed = counter("settlement.rates.stale_used", "Normalizations that fell back to default rates")

	h, err := meter.Float64Histogram("settlement.reconcile.duration",
		metric.WithDescription("Time spent building a reconciliation summary"),
		metric.WithUnit("ms"),
	)
	errs = append(errs, err)
	m.reconcileDuration = h

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SettlementMetrics) TransactionCreated(ctx context.Context, currency string) {
	m.transactionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", currency)))
}

func (m *SettlementMetrics) PaymentReported(ctx context.Context, currency string) {
	m.paymentsReported.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", currency)))
}

func (m *SettlementMetrics) PaymentResolved(ctx context.Context, status string) {
	m.paymentsResolved.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *SettlementMetrics) DeletionTransition(ctx context.Context, action string) {
	m.deletionTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *SettlementMetrics) ConcurrencyConflict(ctx context.Context, operation string) {
	m.concurrencyConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *SettlementMetrics) PayoutCreated(ctx context.Context, currency string) {
	m.payoutsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", currency)))
}

// Reconciled records one summary build. stale marks summaries that carry the
// stale rate warning.
func (m *SettlementMetrics) Reconciled(ctx context.Context, elapsed time.Duration, stale bool) {
	m.reconcileDuration.Record(ctx, float64(elapsed.Microseconds())/1000)
	if stale {
		m.staleRatesUsed.Add(ctx, 1)
	}
}
