package settlement

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// Deletion actions, used as metric and span labels
const (
	deletionRequest = "request"
	deletionCancel  = "cancel"
	deletionApprove = "approve"
	deletionReject  = "reject"
)

// RequestDeletion opens a deletion request on behalf of one party.
func (s *Service) RequestDeletion(ctx context.Context, actor, id uuid.UUID) (*DeletionOutcome, error) {
	return s.transitionDeletion(ctx, deletionRequest, actor, id, shared.ErrNotFound,
		func(tx *referral.PartnerTransaction) error { return tx.RequestDeletion(actor) })
}

// CancelDeletion withdraws the actor's own pending request.
func (s *Service) CancelDeletion(ctx context.Context, actor, id uuid.UUID) (*DeletionOutcome, error) {
	return s.transitionDeletion(ctx, deletionCancel, actor, id, shared.ErrNotPending,
		func(tx *referral.PartnerTransaction) error { return tx.CancelDeletion(actor) })
}

// RejectDeletion refuses the counterparty's pending request.
func (s *Service) RejectDeletion(ctx context.Context, actor, id uuid.UUID, reason string) (*DeletionOutcome, error) {
	return s.transitionDeletion(ctx, deletionReject, actor, id, shared.ErrNotPending,
		func(tx *referral.PartnerTransaction) error { return tx.RejectDeletion(actor, reason) })
}

func (s *Service) transitionDeletion(ctx context.Context, action string, actor, id uuid.UUID, gone error,
	transition func(*referral.PartnerTransaction) error) (_ *DeletionOutcome, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.deletion."+action,
		attribute.String("transaction_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	tx, err := s.loadTransaction(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = transition(tx); err != nil {
		return nil, err
	}
	if err = s.transactions.SaveWithLock(ctx, tx); err != nil {
		return nil, lostRace(ctx, s, "deletion_"+action, err,
			func() (*referral.PartnerTransaction, error) { return s.transactions.FindByID(ctx, id) },
			transition, gone)
	}

	s.metrics.DeletionTransition(ctx, action)
	logger.L(ctx).Info("deletion request updated",
		zap.String("action", action),
		zap.String("transaction_id", id.String()),
		zap.String("deletion_status", string(tx.DeletionStatus)))
	s.publish(ctx, tx)

	view := NewTransactionView(tx, actor)
	return &DeletionOutcome{Transaction: &view}, nil
}

// ApproveDeletion accepts the counterparty's request and removes the record.
// Of two concurrent approvals only one deletes; the other sees NOT_PENDING.
func (s *Service) ApproveDeletion(ctx context.Context, actor, id uuid.UUID) (_ *DeletionOutcome, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.deletion."+deletionApprove,
		attribute.String("transaction_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	tx, err := s.loadTransaction(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = tx.ApproveDeletion(actor); err != nil {
		return nil, err
	}
	// the transition bumped the version; the stored row still has the old one
	if err = s.transactions.DeleteWithLock(ctx, id, tx.PersistedVersion()); err != nil {
		return nil, lostRace(ctx, s, "deletion_"+deletionApprove, err,
			func() (*referral.PartnerTransaction, error) { return s.transactions.FindByID(ctx, id) },
			func(fresh *referral.PartnerTransaction) error { return fresh.ApproveDeletion(actor) },
			shared.ErrNotPending)
	}

	s.metrics.DeletionTransition(ctx, deletionApprove)
	logger.L(ctx).Info("partner transaction deleted by consensus",
		zap.String("transaction_id", id.String()),
		zap.String("approved_by", actor.String()))
	s.publish(ctx, tx)

	return &DeletionOutcome{Deleted: true}, nil
}
