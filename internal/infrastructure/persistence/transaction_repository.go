package persistence

import (
	"context"
	"errors"

	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements referral.TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.PartnerTransaction, error) {
	var m models.PartnerTransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindForTenant returns transactions where the tenant is either party.
func (r *GormTransactionRepository) FindForTenant(ctx context.Context, f referral.TransactionFilter) ([]referral.PartnerTransaction, error) {
	q := r.db.WithContext(ctx).Model(&models.PartnerTransactionModel{}).
		Where("(tenant_id = ? OR receiver_tenant_id = ?)", f.TenantID, f.TenantID)
	if f.CounterpartTenantID != nil {
		q = q.Where("(tenant_id = ? OR receiver_tenant_id = ?)", *f.CounterpartTenantID, *f.CounterpartTenantID)
	}
	if f.DeletionPending {
		q = q.Where("deletion_status = ?", referral.DeletionStatusPending)
	}
	q = applyDateRange(q, "transaction_date", f.From, f.To)
	q = applyPage(q, f.Filter, transactionSortFields, "transaction_date")

	var rows []models.PartnerTransactionModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]referral.PartnerTransaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormTransactionRepository) Save(ctx context.Context, tx *referral.PartnerTransaction) error {
	return r.db.WithContext(ctx).Create(models.PartnerTransactionModelFromDomain(tx)).Error
}

// SaveWithLock writes the mutable columns only when the stored version is
// tx.PersistedVersion().
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, tx *referral.PartnerTransaction) error {
	m := models.PartnerTransactionModelFromDomain(tx)
	result := r.db.WithContext(ctx).
		Model(&models.PartnerTransactionModel{}).
		Where("id = ? AND version = ?", tx.ID, tx.PersistedVersion()).
		Updates(m.MutableColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteWithLock removes the row only when it is still at expectedVersion.
func (r *GormTransactionRepository) DeleteWithLock(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", id, expectedVersion).
		Delete(&models.PartnerTransactionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ referral.TransactionRepository = (*GormTransactionRepository)(nil)
