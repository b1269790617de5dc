package referral

import (
	"context"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionFilter defines filtering options for partner transaction queries
type TransactionFilter struct {
	shared.Filter
	// TenantID restricts results to records where the tenant is sender or receiver
	TenantID uuid.UUID
	// CounterpartTenantID restricts results to one partner
	CounterpartTenantID *uuid.UUID
	From                *time.Time
	To                  *time.Time
	DeletionPending     bool
}

// TransactionRepository persists partner transactions
type TransactionRepository interface {
	// FindByID returns nil, nil when the record does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PartnerTransaction, error)
	FindForTenant(ctx context.Context, filter TransactionFilter) ([]PartnerTransaction, error)
	Save(ctx context.Context, tx *PartnerTransaction) error
	// SaveWithLock updates the record only if the stored version is tx.PersistedVersion()
	SaveWithLock(ctx context.Context, tx *PartnerTransaction) error
	// DeleteWithLock removes the record only if the stored version is expectedVersion
	DeleteWithLock(ctx context.Context, id uuid.UUID, expectedVersion int) error
}
