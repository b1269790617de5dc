package persistence

import (
	"context"
	"errors"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDispatchRepository implements dispatch.DispatchRepository.
type GormDispatchRepository struct {
	db *gorm.DB
}

func NewGormDispatchRepository(db *gorm.DB) *GormDispatchRepository {
	return &GormDispatchRepository{db: db}
}

func (r *GormDispatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*dispatch.SupplierDispatch, error) {
	var m models.SupplierDispatchModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDsForTenant silently skips ids owned by other tenants; callers
// compare lengths to detect them.
func (r *GormDispatchRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]dispatch.SupplierDispatch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.SupplierDispatchModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("dispatch_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return dispatchesToDomain(rows), nil
}

func (r *GormDispatchRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, f dispatch.DispatchFilter) ([]dispatch.SupplierDispatch, error) {
	q := r.db.WithContext(ctx).Model(&models.SupplierDispatchModel{}).Preload("Items").
		Where("tenant_id = ?", tenantID)
	if f.AgencyID != nil {
		q = q.Where("agency_id = ?", *f.AgencyID)
	}
	if f.UnsettledOnly {
		q = q.Where("payout_id IS NULL")
	}
	q = applyDateRange(q, "dispatch_date", f.From, f.To)
	q = applyPage(q, f.Filter, dispatchSortFields, "dispatch_date")

	var rows []models.SupplierDispatchModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return dispatchesToDomain(rows), nil
}

// Save inserts the dispatch and its items in one transaction.
func (r *GormDispatchRepository) Save(ctx context.Context, d *dispatch.SupplierDispatch) error {
	m := models.SupplierDispatchModelFromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		if len(m.Items) == 0 {
			return nil
		}
		return tx.Create(&m.Items).Error
	})
}

func (r *GormDispatchRepository) SaveWithLock(ctx context.Context, d *dispatch.SupplierDispatch) error {
	return saveDispatchWithLock(r.db.WithContext(ctx), d)
}

func saveDispatchWithLock(db *gorm.DB, d *dispatch.SupplierDispatch) error {
	m := models.SupplierDispatchModelFromDomain(d)
	result := db.Model(&models.SupplierDispatchModel{}).
		Where("id = ? AND version = ?", d.ID, d.PersistedVersion()).
		Updates(m.MutableColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func dispatchesToDomain(rows []models.SupplierDispatchModel) []dispatch.SupplierDispatch {
	out := make([]dispatch.SupplierDispatch, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ dispatch.DispatchRepository = (*GormDispatchRepository)(nil)
