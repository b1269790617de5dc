package settlement

import (
	"context"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentFilter defines filtering options for partner payment queries
type PaymentFilter struct {
	shared.Filter
	// TenantID restricts results to payments where the tenant is payer or payee
	TenantID            uuid.UUID
	CounterpartTenantID *uuid.UUID
	Status              *ConfirmationStatus
	From                *time.Time
	To                  *time.Time
}

// PaymentRepository persists partner payments
type PaymentRepository interface {
	// FindByID returns nil, nil when the record does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PartnerPayment, error)
	FindForTenant(ctx context.Context, filter PaymentFilter) ([]PartnerPayment, error)
	Save(ctx context.Context, p *PartnerPayment) error
	SaveWithLock(ctx context.Context, p *PartnerPayment) error
}
