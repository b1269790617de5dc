package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// Reconcile computes the viewing tenant's net position per currency over the
// range, optionally against a single counterpart. Normalization is opt-in;
// when the rate snapshot is unavailable the configured default rates are
// used and the summary carries a STALE_RATE_USED warning.
func (s *Service) Reconcile(ctx context.Context, q ReconcileQuery) (_ *settlement.ReconciliationSummary, err error) {
	started := s.now()
	ctx, span := telemetry.StartSpan(ctx, "settlement.reconcile",
		attribute.Bool("normalized", q.NormalizeTo != nil))
	defer func() { telemetry.EndSpan(span, err) }()

	// validate before touching storage
	if _, err = settlement.Reconcile(settlement.ReconcileInput{
		ViewingTenantID:     q.ViewingTenantID,
		Range:               q.Range,
		CounterpartTenantID: q.CounterpartTenantID,
		NormalizeTo:         q.NormalizeTo,
	}); err != nil {
		return nil, err
	}

	txs, payments, err := s.loadLedger(ctx, q.ViewingTenantID, q.CounterpartTenantID, q.Range)
	if err != nil {
		return nil, err
	}

	in := settlement.ReconcileInput{
		ViewingTenantID:     q.ViewingTenantID,
		Range:               q.Range,
		CounterpartTenantID: q.CounterpartTenantID,
		Transactions:        txs,
		Payments:            payments,
		NormalizeTo:         q.NormalizeTo,
	}
	if q.NormalizeTo != nil {
		in.Normalizer = currency.NewNormalizer(s.rateSnapshot(ctx),
			currency.WithDefaultRates(s.defaultRates),
			currency.WithMaxAge(s.maxRateAge),
			currency.WithClock(s.now))
	}

	summary, err := settlement.Reconcile(in)
	if err != nil {
		return nil, err
	}

	stale := summary.HasWarning(currency.StaleRateUsed)
	s.metrics.Reconciled(ctx, s.now().Sub(started), stale)
	span.SetAttributes(attribute.Int("positions", len(summary.Positions)), attribute.Bool("stale_rate", stale))
	if stale {
		logger.L(ctx).Warn("reconciliation used default exchange rates",
			zap.String("viewing_tenant_id", q.ViewingTenantID.String()))
	}
	return summary, nil
}

// ListCounterparts returns every tenant the viewer has referrals or payments
// with.
func (s *Service) ListCounterparts(ctx context.Context, viewer uuid.UUID) ([]uuid.UUID, error) {
	txs, payments, err := s.loadLedger(ctx, viewer, nil, shared.DateRange{})
	if err != nil {
		return nil, err
	}
	return settlement.Counterparts(viewer, txs, payments), nil
}

func (s *Service) loadLedger(ctx context.Context, viewer uuid.UUID, counterpart *uuid.UUID,
	r shared.DateRange) ([]referral.PartnerTransaction, []settlement.PartnerPayment, error) {
	from, to := rangeBounds(r)
	txs, err := s.transactions.FindForTenant(ctx, referral.TransactionFilter{
		TenantID:            viewer,
		CounterpartTenantID: counterpart,
		From:                from,
		To:                  to,
	})
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.payments.FindForTenant(ctx, settlement.PaymentFilter{
		TenantID:            viewer,
		CounterpartTenantID: counterpart,
		From:                from,
		To:                  to,
	})
	if err != nil {
		return nil, nil, err
	}
	return txs, payments, nil
}

// rateSnapshot asks the oracle for rates. Failures degrade to a nil
// snapshot, which makes every cross-currency conversion use defaults.
func (s *Service) rateSnapshot(ctx context.Context) *currency.RateSnapshot {
	if s.oracle == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, rateSnapshotTimeout)
	defer cancel()
	snap, err := s.oracle.Snapshot(ctx)
	if err != nil {
		logger.L(ctx).Warn("rate snapshot unavailable, falling back to default rates", zap.Error(err))
		return nil
	}
	return snap
}

const rateSnapshotTimeout = 2 * time.Second
