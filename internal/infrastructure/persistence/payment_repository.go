package persistence

import (
	"context"
	"errors"

	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements settlement.PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.PartnerPayment, error) {
	var m models.PartnerPaymentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormPaymentRepository) FindForTenant(ctx context.Context, f settlement.PaymentFilter) ([]settlement.PartnerPayment, error) {
	q := r.db.WithContext(ctx).Model(&models.PartnerPaymentModel{}).
		Where("(payer_tenant_id = ? OR payee_tenant_id = ?)", f.TenantID, f.TenantID)
	if f.CounterpartTenantID != nil {
		q = q.Where("(payer_tenant_id = ? OR payee_tenant_id = ?)", *f.CounterpartTenantID, *f.CounterpartTenantID)
	}
	if f.Status != nil {
		q = q.Where("confirmation_status = ?", *f.Status)
	}
	q = applyDateRange(q, "payment_date", f.From, f.To)
	q = applyPage(q, f.Filter, paymentSortFields, "payment_date")

	var rows []models.PartnerPaymentModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]settlement.PartnerPayment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormPaymentRepository) Save(ctx context.Context, p *settlement.PartnerPayment) error {
	return r.db.WithContext(ctx).Create(models.PartnerPaymentModelFromDomain(p)).Error
}

func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *settlement.PartnerPayment) error {
	m := models.PartnerPaymentModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(&models.PartnerPaymentModel{}).
		Where("id = ? AND version = ?", p.ID, p.PersistedVersion()).
		Updates(m.MutableColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ settlement.PaymentRepository = (*GormPaymentRepository)(nil)
