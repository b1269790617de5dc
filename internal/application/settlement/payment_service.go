package settlement

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// RecordPayment reports a payment sent by the acting tenant. It stays
// pending until the payee confirms or rejects it.
func (s *Service) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (_ *PaymentView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.record_payment",
		attribute.String("currency", cmd.Currency.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	amount, err := valueobject.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	p, err := settlement.NewPartnerPayment(cmd.ActorTenantID, cmd.PayeeTenantID, amount,
		cmd.PaymentDate, cmd.Method, cmd.Reference)
	if err != nil {
		return nil, err
	}
	if err = s.payments.Save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.PaymentReported(ctx, p.Currency.String())
	logger.L(ctx).Info("partner payment reported",
		zap.String("payment_id", p.ID.String()),
		zap.String("payee_tenant_id", p.PayeeTenantID.String()),
		zap.String("amount", p.Amount.String()),
		zap.String("currency", p.Currency.String()))
	s.publish(ctx, p)

	view := NewPaymentView(p, cmd.ActorTenantID)
	return &view, nil
}

// GetPayment returns a payment visible to viewer.
func (s *Service) GetPayment(ctx context.Context, viewer, id uuid.UUID) (*PaymentView, error) {
	p, err := s.loadPayment(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	view := NewPaymentView(p, viewer)
	return &view, nil
}

func (s *Service) loadPayment(ctx context.Context, viewer, id uuid.UUID) (*settlement.PartnerPayment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.DirectionFor(viewer) == settlement.DirectionNone {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// ConfirmPayment is the payee acknowledging receipt.
func (s *Service) ConfirmPayment(ctx context.Context, actor, id uuid.UUID) (*PaymentView, error) {
	return s.resolvePayment(ctx, "confirm", actor, id,
		func(p *settlement.PartnerPayment) error { return p.Confirm(actor) })
}

// RejectPayment is the payee disputing the payment.
func (s *Service) RejectPayment(ctx context.Context, actor, id uuid.UUID, reason string) (*PaymentView, error) {
	return s.resolvePayment(ctx, "reject", actor, id,
		func(p *settlement.PartnerPayment) error { return p.Reject(actor, reason) })
}

func (s *Service) resolvePayment(ctx context.Context, action string, actor, id uuid.UUID,
	transition func(*settlement.PartnerPayment) error) (_ *PaymentView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.payment."+action,
		attribute.String("payment_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	p, err := s.loadPayment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = transition(p); err != nil {
		return nil, err
	}
	if err = s.payments.SaveWithLock(ctx, p); err != nil {
		return nil, lostRace(ctx, s, "payment_"+action, err,
			func() (*settlement.PartnerPayment, error) { return s.payments.FindByID(ctx, id) },
			transition, shared.ErrNotFound)
	}

	s.metrics.PaymentResolved(ctx, string(p.ConfirmationStatus))
	logger.L(ctx).Info("partner payment resolved",
		zap.String("payment_id", id.String()),
		zap.String("confirmation_status", string(p.ConfirmationStatus)))
	s.publish(ctx, p)

	view := NewPaymentView(p, actor)
	return &view, nil
}

// ListPayments lists payments where the viewer is payer or payee.
func (s *Service) ListPayments(ctx context.Context, q PaymentQuery) ([]PaymentView, error) {
	if q.ViewingTenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Viewing tenant is required")
	}
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	filter := settlement.PaymentFilter{
		Filter:              q.Page,
		TenantID:            q.ViewingTenantID,
		CounterpartTenantID: q.CounterpartTenantID,
		Status:              q.Status,
	}
	filter.From, filter.To = rangeBounds(q.Range)

	payments, err := s.payments.FindForTenant(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]PaymentView, 0, len(payments))
	for i := range payments {
		views = append(views, NewPaymentView(&payments[i], q.ViewingTenantID))
	}
	return views, nil
}
