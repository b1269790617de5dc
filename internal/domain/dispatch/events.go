package dispatch

import (
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeDispatchCreated = "SupplierDispatchCreated"
	EventTypePayoutCreated   = "AgencyPayoutCreated"
)

// DispatchCreatedEvent is raised when a dispatch is recorded
type DispatchCreatedEvent struct {
	shared.BaseDomainEvent
	AgencyID    uuid.UUID       `json:"agency_id"`
	TotalPayout decimal.Decimal `json:"total_payout"`
	Currency    string          `json:"currency"`
	Itemized    bool            `json:"itemized"`
}

// NewDispatchCreatedEvent creates a new DispatchCreatedEvent
func NewDispatchCreatedEvent(d *SupplierDispatch) *DispatchCreatedEvent {
	return &DispatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDispatchCreated, "SupplierDispatch", d.ID, d.TenantID),
		AgencyID:        d.AgencyID,
		TotalPayout:     d.TotalPayout,
		Currency:        d.Currency.String(),
		Itemized:        d.IsItemized(),
	}
}

// PayoutCreatedEvent is raised when a payout settles dispatches
type PayoutCreatedEvent struct {
	shared.BaseDomainEvent
	AgencyID    uuid.UUID       `json:"agency_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	DispatchIDs []uuid.UUID     `json:"dispatch_ids"`
}

// NewPayoutCreatedEvent creates a new PayoutCreatedEvent
func NewPayoutCreatedEvent(p *AgencyPayout) *PayoutCreatedEvent {
	return &PayoutCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutCreated, "AgencyPayout", p.ID, p.TenantID),
		AgencyID:        p.AgencyID,
		Amount:          p.Amount,
		Currency:        p.Currency.String(),
		DispatchIDs:     p.SelectedDispatchIDs,
	}
}
