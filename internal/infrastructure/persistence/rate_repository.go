package persistence

import (
	"context"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRateRepository implements dispatch.RateRepository.
type GormRateRepository struct {
	db *gorm.DB
}

func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindByAgency returns every rate of the agency; selection happens in the
// domain.
func (r *GormRateRepository) FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]dispatch.AgencyActivityRate, error) {
	var rows []models.AgencyActivityRateModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND agency_id = ?", tenantID, agencyID).
		Order("valid_from ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]dispatch.AgencyActivityRate, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormRateRepository) Save(ctx context.Context, rate *dispatch.AgencyActivityRate) error {
	return r.db.WithContext(ctx).Create(models.AgencyActivityRateModelFromDomain(rate)).Error
}

var _ dispatch.RateRepository = (*GormRateRepository)(nil)
