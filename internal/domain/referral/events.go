package referral

import (
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePartnerTransaction is the aggregate type for partner transaction events
const AggregateTypePartnerTransaction = "PartnerTransaction"

// Event types
const (
	EventTypeTransactionCreated     = "PartnerTransactionCreated"
	EventTypeCollectionTermsChanged = "PartnerTransactionTermsChanged"
	EventTypeDeletionRequested      = "PartnerTransactionDeletionRequested"
	EventTypeDeletionCancelled      = "PartnerTransactionDeletionCancelled"
	EventTypeDeletionApproved       = "PartnerTransactionDeletionApproved"
	EventTypeDeletionRejected       = "PartnerTransactionDeletionRejected"
)

// TransactionCreatedEvent is raised when a referral is recorded
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	SenderTenantID   uuid.UUID       `json:"sender_tenant_id"`
	ReceiverTenantID uuid.UUID       `json:"receiver_tenant_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	BalanceOwed      decimal.Decimal `json:"balance_owed"`
	Currency         string          `json:"currency"`
	TransactionDate  time.Time       `json:"transaction_date"`
}

// NewTransactionCreatedEvent creates a new TransactionCreatedEvent
func NewTransactionCreatedEvent(tx *PartnerTransaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTransactionCreated, AggregateTypePartnerTransaction, tx.ID, tx.SenderTenantID),
		SenderTenantID:   tx.SenderTenantID,
		ReceiverTenantID: tx.ReceiverTenantID,
		TotalAmount:      tx.TotalAmount,
		BalanceOwed:      tx.BalanceOwed(),
		Currency:         tx.Currency.String(),
		TransactionDate:  tx.TransactionDate,
	}
}

// CollectionTermsChangedEvent is raised when settlement terms are edited
type CollectionTermsChangedEvent struct {
	shared.BaseDomainEvent
	Previous SettlementTerms `json:"previous"`
	Current  SettlementTerms `json:"current"`
}

// NewCollectionTermsChangedEvent creates a new CollectionTermsChangedEvent
func NewCollectionTermsChangedEvent(tx *PartnerTransaction, actor uuid.UUID, previous SettlementTerms) *CollectionTermsChangedEvent {
	return &CollectionTermsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCollectionTermsChanged, AggregateTypePartnerTransaction, tx.ID, actor),
		Previous:        previous,
		Current:         tx.Terms,
	}
}

// DeletionEvent is raised on every deletion-consensus transition
type DeletionEvent struct {
	shared.BaseDomainEvent
	RequestedBy *uuid.UUID     `json:"requested_by,omitempty"`
	Status      DeletionStatus `json:"deletion_status"`
	Reason      string         `json:"reason,omitempty"`
}

// NewDeletionEvent creates a deletion-consensus event of the given type
func NewDeletionEvent(eventType string, tx *PartnerTransaction, actor uuid.UUID, reason string) *DeletionEvent {
	return &DeletionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePartnerTransaction, tx.ID, actor),
		RequestedBy:     tx.DeletionRequestedByTenantID,
		Status:          tx.DeletionStatus,
		Reason:          reason,
	}
}
