package dispatch

import (
	"context"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DispatchFilter defines filtering options for dispatch queries
type DispatchFilter struct {
	shared.Filter
	AgencyID      *uuid.UUID
	From          *time.Time
	To            *time.Time
	UnsettledOnly bool
}

// DispatchRepository persists dispatches together with their items
type DispatchRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SupplierDispatch, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]SupplierDispatch, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter DispatchFilter) ([]SupplierDispatch, error)
	Save(ctx context.Context, d *SupplierDispatch) error
	SaveWithLock(ctx context.Context, d *SupplierDispatch) error
}

// PayoutRepository persists payouts
type PayoutRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AgencyPayout, error)
	FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]AgencyPayout, error)
	// SaveSettlement stores the payout and the settled dispatches atomically,
	// each dispatch guarded by its version
	SaveSettlement(ctx context.Context, payout *AgencyPayout, dispatches []*SupplierDispatch) error
}

// RateRepository persists agency activity rates
type RateRepository interface {
	FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]AgencyActivityRate, error)
	Save(ctx context.Context, rate *AgencyActivityRate) error
}
