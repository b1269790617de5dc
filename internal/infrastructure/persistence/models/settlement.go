package models

import (
	"time"

	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerPaymentModel is a row of partner_payments. TenantID is the tenant
// that reported the payment, which is always the payer.
type PartnerPaymentModel struct {
	TenantAggregateModel
	PayerTenantID       uuid.UUID                     `gorm:"type:uuid;not null;index"`
	PayeeTenantID       uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	Currency            valueobject.Currency          `gorm:"type:varchar(3);not null"`
	PaymentDate         time.Time                     `gorm:"not null;index"`
	Method              settlement.PaymentMethod      `gorm:"type:varchar(20);not null"`
	Reference           string                        `gorm:"type:varchar(200)"`
	ConfirmationStatus  settlement.ConfirmationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ConfirmedByTenantID *uuid.UUID                    `gorm:"type:uuid"`
	ConfirmedAt         *time.Time
	RejectionReason     string `gorm:"type:text"`
	ReceiptKey          string `gorm:"type:varchar(255);not null;default:''"`
}

func (PartnerPaymentModel) TableName() string {
	return "partner_payments"
}

func (m *PartnerPaymentModel) ToDomain() *settlement.PartnerPayment {
	return &settlement.PartnerPayment{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		PayerTenantID:       m.PayerTenantID,
		PayeeTenantID:       m.PayeeTenantID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		PaymentDate:         m.PaymentDate,
		Method:              m.Method,
		Reference:           m.Reference,
		ConfirmationStatus:  m.ConfirmationStatus,
		ConfirmedByTenantID: m.ConfirmedByTenantID,
		ConfirmedAt:         m.ConfirmedAt,
		RejectionReason:     m.RejectionReason,
		ReceiptKey:          m.ReceiptKey,
	}
}

func (m *PartnerPaymentModel) FromDomain(p *settlement.PartnerPayment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PayerTenantID = p.PayerTenantID
	m.PayeeTenantID = p.PayeeTenantID
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.Reference = p.Reference
	m.ConfirmationStatus = p.ConfirmationStatus
	m.ConfirmedByTenantID = p.ConfirmedByTenantID
	m.ConfirmedAt = p.ConfirmedAt
	m.RejectionReason = p.RejectionReason
	m.ReceiptKey = p.ReceiptKey
}

func PartnerPaymentModelFromDomain(p *settlement.PartnerPayment) *PartnerPaymentModel {
	m := &PartnerPaymentModel{}
	m.FromDomain(p)
	return m
}

// MutableColumns covers the confirmation workflow and the receipt.
func (m *PartnerPaymentModel) MutableColumns() map[string]any {
	return map[string]any{
		"confirmation_status":    m.ConfirmationStatus,
		"confirmed_by_tenant_id": m.ConfirmedByTenantID,
		"confirmed_at":           m.ConfirmedAt,
		"rejection_reason":       m.RejectionReason,
		"receipt_key":            m.ReceiptKey,
		"version":                m.Version,
		"updated_at":             m.UpdatedAt,
	}
}
