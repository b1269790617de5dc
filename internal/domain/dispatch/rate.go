package dispatch

import (
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgencyActivityRate is a dated unit payout for one supplier agency,
// scoped to an activity or general when ActivityID is nil
type AgencyActivityRate struct {
	shared.TenantAggregateRoot
	AgencyID   uuid.UUID
	ActivityID *uuid.UUID
	UnitPayout decimal.Decimal
	Currency   valueobject.Currency
	ValidFrom  time.Time
	ValidTo    *time.Time
}

// NewAgencyActivityRate validates and creates a rate
func NewAgencyActivityRate(tenantID, agencyID uuid.UUID, activityID *uuid.UUID, unitPayout decimal.Decimal,
	currency valueobject.Currency, validFrom time.Time, validTo *time.Time) (*AgencyActivityRate, error) {
	if tenantID == uuid.Nil || agencyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant and supplier agency are required")
	}
	if unitPayout.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit payout cannot be negative")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported currency %q", currency)
	}
	if validFrom.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Valid-from date is required")
	}
	if validTo != nil && validTo.Before(validFrom) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Valid-to must not be before valid-from")
	}
	return &AgencyActivityRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AgencyID:            agencyID,
		ActivityID:          activityID,
		UnitPayout:          unitPayout,
		Currency:            currency,
		ValidFrom:           validFrom,
		ValidTo:             validTo,
	}, nil
}

// IsGeneral reports whether the rate applies to every activity of the agency
func (r *AgencyActivityRate) IsGeneral() bool {
	return r.ActivityID == nil
}

// ValidOn reports whether date falls inside [ValidFrom, ValidTo]
func (r *AgencyActivityRate) ValidOn(date time.Time) bool {
	if date.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo == nil || !date.After(*r.ValidTo)
}

// narrowerThan orders candidates: bounded windows beat open-ended ones,
// shorter beats longer, then the most recently started wins.
func (r *AgencyActivityRate) narrowerThan(other *AgencyActivityRate) bool {
	switch {
	case r.ValidTo != nil && other.ValidTo == nil:
		return true
	case r.ValidTo == nil && other.ValidTo != nil:
		return false
	case r.ValidTo != nil && other.ValidTo != nil:
		rw, ow := r.ValidTo.Sub(r.ValidFrom), other.ValidTo.Sub(other.ValidFrom)
		if rw != ow {
			return rw < ow
		}
	}
	if !r.ValidFrom.Equal(other.ValidFrom) {
		return r.ValidFrom.After(other.ValidFrom)
	}
	return r.CreatedAt.After(other.CreatedAt)
}

// SelectRate picks the current rate for an agency and activity on date:
// activity-scoped beats general, then the narrowest valid window.
// Returns nil when nothing applies.
func SelectRate(rates []AgencyActivityRate, agencyID, activityID uuid.UUID, date time.Time) *AgencyActivityRate {
	var best *AgencyActivityRate
	for i := range rates {
		r := &rates[i]
		if r.AgencyID != agencyID || !r.ValidOn(date) {
			continue
		}
		if r.ActivityID != nil && *r.ActivityID != activityID {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		if best.IsGeneral() != r.IsGeneral() {
			if !r.IsGeneral() {
				best = r
			}
			continue
		}
		if r.narrowerThan(best) {
			best = r
		}
	}
	return best
}
