package models

import (
	"time"

	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerTransactionModel is a row of partner_transactions. TenantID is the
// sender.
type PartnerTransactionModel struct {
	TenantAggregateModel
	ReceiverTenantID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ActivityID              uuid.UUID                  `gorm:"type:uuid;not null"`
	ReservationID           *uuid.UUID                 `gorm:"type:uuid"`
	GuestCount              int                        `gorm:"not null"`
	UnitPrice               decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	TotalAmount             decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	TotalOverridden         bool                       `gorm:"not null;default:false"`
	Currency                valueobject.Currency       `gorm:"type:varchar(3);not null"`
	TransactionDate         time.Time                  `gorm:"not null;index"`
	PaymentCollectionType   valueobject.CollectionType `gorm:"type:varchar(20);not null;default:'receiver_full'"`
	AmountCollectedBySender decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	Status                  referral.TransactionStatus `gorm:"type:varchar(20);not null"`
	Notes                   string                     `gorm:"type:text"`
	DeletionStatus          referral.DeletionStatus    `gorm:"type:varchar(20);not null;default:''"`
	DeletionRequestedBy     *uuid.UUID                 `gorm:"column:deletion_requested_by_tenant_id;type:uuid"`
	DeletionRejectionReason string                     `gorm:"type:text"`
}

func (PartnerTransactionModel) TableName() string {
	return "partner_transactions"
}

// ToDomain rebuilds the aggregate. Balance owed is derived, not loaded.
func (m *PartnerTransactionModel) ToDomain() *referral.PartnerTransaction {
	return &referral.PartnerTransaction{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		SenderTenantID:      m.TenantID,
		ReceiverTenantID:    m.ReceiverTenantID,
		ActivityID:          m.ActivityID,
		ReservationID:       m.ReservationID,
		GuestCount:          m.GuestCount,
		UnitPrice:           m.UnitPrice,
		TotalAmount:         m.TotalAmount,
		TotalOverridden:     m.TotalOverridden,
		Currency:            m.Currency,
		TransactionDate:     m.TransactionDate,
		Terms: referral.SettlementTerms{
			CollectionType:          m.PaymentCollectionType,
			AmountCollectedBySender: m.AmountCollectedBySender,
		},
		Status:                      m.Status,
		Notes:                       m.Notes,
		DeletionStatus:              m.DeletionStatus,
		DeletionRequestedByTenantID: m.DeletionRequestedBy,
		DeletionRejectionReason:     m.DeletionRejectionReason,
	}
}

func (m *PartnerTransactionModel) FromDomain(tx *referral.PartnerTransaction) {
	m.FromDomainTenantAggregateRoot(tx.TenantAggregateRoot)
	m.TenantID = tx.SenderTenantID
	m.ReceiverTenantID = tx.ReceiverTenantID
	m.ActivityID = tx.ActivityID
	m.ReservationID = tx.ReservationID
	m.GuestCount = tx.GuestCount
	m.UnitPrice = tx.UnitPrice
	m.TotalAmount = tx.TotalAmount
	m.TotalOverridden = tx.TotalOverridden
	m.Currency = tx.Currency
	m.TransactionDate = tx.TransactionDate
	m.PaymentCollectionType = tx.Terms.CollectionType
	m.AmountCollectedBySender = tx.Terms.AmountCollectedBySender
	m.Status = tx.Status
	m.Notes = tx.Notes
	m.DeletionStatus = tx.DeletionStatus
	m.DeletionRequestedBy = tx.DeletionRequestedByTenantID
	m.DeletionRejectionReason = tx.DeletionRejectionReason
}

func PartnerTransactionModelFromDomain(tx *referral.PartnerTransaction) *PartnerTransactionModel {
	m := &PartnerTransactionModel{}
	m.FromDomain(tx)
	return m
}

// MutableColumns lists what SaveWithLock writes back. Parties and identity
// never change after creation.
func (m *PartnerTransactionModel) MutableColumns() map[string]any {
	return map[string]any{
		"guest_count":                     m.GuestCount,
		"unit_price":                      m.UnitPrice,
		"total_amount":                    m.TotalAmount,
		"total_overridden":                m.TotalOverridden,
		"payment_collection_type":         m.PaymentCollectionType,
		"amount_collected_by_sender":      m.AmountCollectedBySender,
		"status":                          m.Status,
		"notes":                           m.Notes,
		"deletion_status":                 m.DeletionStatus,
		"deletion_requested_by_tenant_id": m.DeletionRequestedBy,
		"deletion_rejection_reason":       m.DeletionRejectionReason,
		"version":                         m.Version,
		"updated_at":                      m.UpdatedAt,
	}
}
