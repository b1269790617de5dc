package settlement

import (
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePaymentReported  = "PartnerPaymentReported"
	EventTypePaymentConfirmed = "PartnerPaymentConfirmed"
	EventTypePaymentRejected  = "PartnerPaymentRejected"
	EventTypeReceiptAttached  = "PartnerPaymentReceiptAttached"
)

// PaymentEvent is raised on every partner payment transition
type PaymentEvent struct {
	shared.BaseDomainEvent
	PayerTenantID uuid.UUID          `json:"payer_tenant_id"`
	PayeeTenantID uuid.UUID          `json:"payee_tenant_id"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      string             `json:"currency"`
	Status        ConfirmationStatus `json:"status"`
	Reason        string             `json:"reason,omitempty"`
}

// NewPaymentEvent creates a payment event of the given type
func NewPaymentEvent(eventType string, p *PartnerPayment, actor uuid.UUID) *PaymentEvent {
	return &PaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "PartnerPayment", p.ID, actor),
		PayerTenantID:   p.PayerTenantID,
		PayeeTenantID:   p.PayeeTenantID,
		Amount:          p.Amount,
		Currency:        p.Currency.String(),
		Status:          p.ConfirmationStatus,
		Reason:          p.RejectionReason,
	}
}
