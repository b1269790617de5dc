package settlement

import (
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmationStatus is the state of a partner payment
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationRejected  ConfirmationStatus = "rejected"
)

// IsValid checks if the status is valid
func (s ConfirmationStatus) IsValid() bool {
	switch s {
	case ConfirmationPending, ConfirmationConfirmed, ConfirmationRejected:
		return true
	}
	return false
}

// IsTerminal returns true for confirmed and rejected
func (s ConfirmationStatus) IsTerminal() bool {
	return s == ConfirmationConfirmed || s == ConfirmationRejected
}

// Direction is a payment's direction relative to a viewing tenant
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionNone     Direction = ""
)

// PaymentMethod records how the money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// PartnerPayment is money moved from one tenant to another to settle balances.
// It is owned by the payer and may only be confirmed or rejected by the payee.
type PartnerPayment struct {
	shared.TenantAggregateRoot
	PayerTenantID       uuid.UUID
	PayeeTenantID       uuid.UUID
	Amount              decimal.Decimal
	Currency            valueobject.Currency
	PaymentDate         time.Time
	Method              PaymentMethod
	Reference           string
	ConfirmationStatus  ConfirmationStatus
	ConfirmedByTenantID *uuid.UUID
	ConfirmedAt         *time.Time
	RejectionReason     string
	ReceiptKey          string
}

// NewPartnerPayment records a pending payment reported by the payer
func NewPartnerPayment(payer, payee uuid.UUID, amount valueobject.Money, paymentDate time.Time, method PaymentMethod, reference string) (*PartnerPayment, error) {
	if payer == uuid.Nil || payee == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payer and payee tenants are required")
	}
	if payer == payee {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payer and payee must be different tenants")
	}
	if !amount.Amount().IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment date is required")
	}
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown payment method %q", method)
	}

	p := &PartnerPayment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(payer),
		PayerTenantID:       payer,
		PayeeTenantID:       payee,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		PaymentDate:         paymentDate,
		Method:              method,
		Reference:           strings.TrimSpace(reference),
		ConfirmationStatus:  ConfirmationPending,
	}

	p.AddDomainEvent(NewPaymentEvent(EventTypePaymentReported, p, payer))

	return p, nil
}

// DirectionFor returns outgoing for the payer, incoming for the payee
func (p *PartnerPayment) DirectionFor(viewer uuid.UUID) Direction {
	switch viewer {
	case p.PayerTenantID:
		return DirectionOutgoing
	case p.PayeeTenantID:
		return DirectionIncoming
	}
	return DirectionNone
}

// Counterpart returns the other party relative to viewer
func (p *PartnerPayment) Counterpart(viewer uuid.UUID) uuid.UUID {
	if viewer == p.PayerTenantID {
		return p.PayeeTenantID
	}
	return p.PayerTenantID
}

func (p *PartnerPayment) requirePayee(actorTenantID uuid.UUID) error {
	if actorTenantID != p.PayeeTenantID {
		return shared.NewDomainError(shared.CodeUnauthorized, "Only the receiving tenant can confirm or reject a payment")
	}
	if p.ConfirmationStatus != ConfirmationPending {
		return shared.NewDomainErrorf(shared.CodeNotPending, "Payment is already %s", p.ConfirmationStatus)
	}
	return nil
}

// Confirm acknowledges receipt of the payment
func (p *PartnerPayment) Confirm(actorTenantID uuid.UUID) error {
	if err := p.requirePayee(actorTenantID); err != nil {
		return err
	}

	now := time.Now()
	actor := actorTenantID
	p.ConfirmationStatus = ConfirmationConfirmed
	p.ConfirmedByTenantID = &actor
	p.ConfirmedAt = &now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentEvent(EventTypePaymentConfirmed, p, actorTenantID))

	return nil
}

// Reject refuses the payment. A rejected payment must be re-entered as a new record.
func (p *PartnerPayment) Reject(actorTenantID uuid.UUID, reason string) error {
	if err := p.requirePayee(actorTenantID); err != nil {
		return err
	}

	p.ConfirmationStatus = ConfirmationRejected
	p.RejectionReason = strings.TrimSpace(reason)
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentEvent(EventTypePaymentRejected, p, actorTenantID))

	return nil
}

// ReceiptPrefix is the object-key prefix under which proof of this payment is
// stored.
func (p *PartnerPayment) ReceiptPrefix() string {
	return "receipts/" + p.PayerTenantID.String() + "/" + p.ID.String() + "/"
}

// CanAttachReceipt reports whether actor may upload proof of payment now.
// Only the payer attaches proof, and only while the payee has not decided.
func (p *PartnerPayment) CanAttachReceipt(actorTenantID uuid.UUID) error {
	if actorTenantID != p.PayerTenantID {
		return shared.NewDomainError(shared.CodeUnauthorized, "Only the paying tenant can attach a receipt")
	}
	if p.ConfirmationStatus != ConfirmationPending {
		return shared.NewDomainErrorf(shared.CodeNotPending, "Payment is already %s", p.ConfirmationStatus)
	}
	return nil
}

// AttachReceipt records the object key of an uploaded receipt, replacing any
// earlier one.
func (p *PartnerPayment) AttachReceipt(actorTenantID uuid.UUID, key string) error {
	if err := p.CanAttachReceipt(actorTenantID); err != nil {
		return err
	}
	if !strings.HasPrefix(key, p.ReceiptPrefix()) || len(key) == len(p.ReceiptPrefix()) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Receipt key does not belong to this payment")
	}

	p.ReceiptKey = key
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentEvent(EventTypeReceiptAttached, p, actorTenantID))

	return nil
}
