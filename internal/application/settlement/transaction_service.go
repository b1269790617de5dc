package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// CreateTransaction records a referral with the acting tenant as sender.
func (s *Service) CreateTransaction(ctx context.Context, cmd CreateTransactionCommand) (_ *TransactionView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.create_transaction",
		attribute.String("currency", cmd.Currency.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	tx, err := referral.NewPartnerTransaction(referral.NewTransactionInput{
		SenderTenantID:   cmd.ActorTenantID,
		ReceiverTenantID: cmd.ReceiverTenantID,
		ActivityID:       cmd.ActivityID,
		ReservationID:    cmd.ReservationID,
		GuestCount:       cmd.GuestCount,
		UnitPrice:        cmd.UnitPrice,
		TotalOverride:    cmd.TotalOverride,
		Currency:         cmd.Currency,
		TransactionDate:  cmd.TransactionDate,
		Terms:            cmd.Terms,
		Status:           cmd.Status,
		Notes:            cmd.Notes,
	})
	if err != nil {
		return nil, err
	}
	if err = s.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}

	s.metrics.TransactionCreated(ctx, tx.Currency.String())
	logger.L(ctx).Info("partner transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("receiver_tenant_id", tx.ReceiverTenantID.String()),
		zap.String("total_amount", tx.TotalAmount.String()),
		zap.String("balance_owed", tx.BalanceOwed().String()))
	s.publish(ctx, tx)

	view := NewTransactionView(tx, cmd.ActorTenantID)
	return &view, nil
}

// GetTransaction returns a referral visible to viewer. Records the viewer is
// not a party to are reported as missing.
func (s *Service) GetTransaction(ctx context.Context, viewer, id uuid.UUID) (*TransactionView, error) {
	tx, err := s.loadTransaction(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	view := NewTransactionView(tx, viewer)
	return &view, nil
}

func (s *Service) loadTransaction(ctx context.Context, viewer, id uuid.UUID) (*referral.PartnerTransaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil || !tx.IsParty(viewer) {
		return nil, shared.ErrNotFound
	}
	return tx, nil
}

// ListTransactions lists referrals where the viewer is sender or receiver.
func (s *Service) ListTransactions(ctx context.Context, q TransactionQuery) ([]TransactionView, error) {
	if q.ViewingTenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Viewing tenant is required")
	}
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	filter := referral.TransactionFilter{
		Filter:              q.Page,
		TenantID:            q.ViewingTenantID,
		CounterpartTenantID: q.CounterpartTenantID,
		DeletionPending:     q.DeletionPending,
	}
	filter.From, filter.To = rangeBounds(q.Range)

	txs, err := s.transactions.FindForTenant(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]TransactionView, 0, len(txs))
	for i := range txs {
		views = append(views, NewTransactionView(&txs[i], q.ViewingTenantID))
	}
	return views, nil
}

// ChangeCollectionTerms lets the sender correct how the customer paid.
func (s *Service) ChangeCollectionTerms(ctx context.Context, cmd ChangeTermsCommand) (_ *TransactionView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.change_terms",
		attribute.String("transaction_id", cmd.TransactionID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	tx, err := s.loadTransaction(ctx, cmd.ActorTenantID, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if err = tx.ChangeCollectionTerms(cmd.ActorTenantID, cmd.Terms); err != nil {
		return nil, err
	}
	if err = s.transactions.SaveWithLock(ctx, tx); err != nil {
		return nil, lostRace(ctx, s, "change_terms", err,
			func() (*referral.PartnerTransaction, error) { return s.transactions.FindByID(ctx, tx.ID) },
			func(fresh *referral.PartnerTransaction) error {
				return fresh.ChangeCollectionTerms(cmd.ActorTenantID, cmd.Terms)
			},
			shared.ErrNotFound)
	}

	s.publish(ctx, tx)
	view := NewTransactionView(tx, cmd.ActorTenantID)
	return &view, nil
}

// ComputeBalance previews the balance owed for terms without storing anything.
func (s *Service) ComputeBalance(terms referral.SettlementTerms, total decimal.Decimal) (decimal.Decimal, error) {
	return referral.ComputeBalance(terms, total)
}

// MigrateLegacyNotes moves payment blobs embedded in the notes of the
// tenant's referrals into typed settlement terms. Records that fail are
// reported and left untouched; the run carries on.
func (s *Service) MigrateLegacyNotes(ctx context.Context, tenantID uuid.UUID) (_ *LegacyMigrationReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.migrate_legacy_notes")
	defer func() { telemetry.EndSpan(span, err) }()

	txs, err := s.transactions.FindForTenant(ctx, referral.TransactionFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	report := &LegacyMigrationReport{Failed: map[string]string{}}
	log := logger.L(ctx)
	for i := range txs {
		tx := &txs[i]
		if tx.SenderTenantID != tenantID {
			continue
		}
		report.Scanned++
		migrated, merr := tx.MigrateLegacyNotes(tenantID)
		if merr == nil && migrated {
			merr = s.transactions.SaveWithLock(ctx, tx)
		}
		if merr != nil {
			tx.ClearDomainEvents()
			report.Failed[tx.ID.String()] = merr.Error()
			log.Warn("legacy notes not migrated", zap.String("transaction_id", tx.ID.String()), zap.Error(merr))
			continue
		}
		if migrated {
			s.publish(ctx, tx)
			report.Migrated++
		}
	}
	log.Info("legacy notes migration finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}
