package dispatch

import (
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgencyPayout is a settlement payment from a tenant to a supplier agency
type AgencyPayout struct {
	shared.TenantAggregateRoot
	AgencyID            uuid.UUID
	Amount              decimal.Decimal
	Currency            valueobject.Currency
	PaidAt              time.Time
	Method              string
	SelectedDispatchIDs []uuid.UUID
	Notes               string
}

// NewPayoutInput describes a payout. When Dispatches is non-empty the amount
// defaults to the sum of their payouts.
type NewPayoutInput struct {
	TenantID   uuid.UUID
	AgencyID   uuid.UUID
	Amount     *decimal.Decimal
	Currency   valueobject.Currency
	PaidAt     time.Time
	Method     string
	Dispatches []*SupplierDispatch
	Notes      string
}

// NewAgencyPayout creates a payout and marks every selected dispatch settled.
// Nothing is mutated if any dispatch fails validation.
func NewAgencyPayout(in NewPayoutInput) (*AgencyPayout, error) {
	if in.TenantID == uuid.Nil || in.AgencyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant and supplier agency are required")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported currency %q", in.Currency)
	}
	if in.PaidAt.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment date is required")
	}

	seen := make(map[uuid.UUID]struct{}, len(in.Dispatches))
	sum := valueobject.Zero(in.Currency)
	for _, d := range in.Dispatches {
		if _, dup := seen[d.ID]; dup {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Dispatch %s selected twice", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.TenantID != in.TenantID || d.AgencyID != in.AgencyID {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput,
				"Dispatch %s does not belong to this tenant and agency", d.ID)
		}
		if d.IsSettled() {
			return nil, shared.NewDomainErrorf(shared.CodeAlreadySettled,
				"Dispatch %s already belongs to payout %s", d.ID, *d.PayoutID)
		}
		next, err := sum.Add(d.TotalPayoutMoney())
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeCurrencyMismatch, err.Error())
		}
		sum = next
	}

	amount := sum.Amount()
	if in.Amount != nil {
		amount = *in.Amount
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payout amount must be positive")
	}

	p := &AgencyPayout{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.TenantID),
		AgencyID:            in.AgencyID,
		Amount:              amount,
		Currency:            in.Currency,
		PaidAt:              in.PaidAt,
		Method:              strings.TrimSpace(in.Method),
		SelectedDispatchIDs: make([]uuid.UUID, 0, len(in.Dispatches)),
		Notes:               strings.TrimSpace(in.Notes),
	}
	for _, d := range in.Dispatches {
		if err := d.MarkSettled(p.ID); err != nil {
			return nil, err
		}
		p.SelectedDispatchIDs = append(p.SelectedDispatchIDs, d.ID)
	}

	p.AddDomainEvent(NewPayoutCreatedEvent(p))

	return p, nil
}
