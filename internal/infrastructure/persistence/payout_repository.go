package persistence

import (
	"context"
	"errors"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPayoutRepository implements dispatch.PayoutRepository.
type GormPayoutRepository struct {
	db *gorm.DB
}

func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

func (r *GormPayoutRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*dispatch.AgencyPayout, error) {
	var m models.AgencyPayoutModel
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormPayoutRepository) FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]dispatch.AgencyPayout, error) {
	var rows []models.AgencyPayoutModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND agency_id = ?", tenantID, agencyID).
		Order("paid_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]dispatch.AgencyPayout, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SaveSettlement inserts the payout and links every dispatch to it. A
// dispatch whose version moved rolls the whole payout back with
// CONCURRENCY_CONFLICT.
func (r *GormPayoutRepository) SaveSettlement(ctx context.Context, payout *dispatch.AgencyPayout, dispatches []*dispatch.SupplierDispatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.AgencyPayoutModelFromDomain(payout)).Error; err != nil {
			return err
		}
		for _, d := range dispatches {
			if err := saveDispatchWithLock(tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ dispatch.PayoutRepository = (*GormPayoutRepository)(nil)
