package referral

import (
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle of a referral
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusCancelled:
		return true
	}
	return false
}

// CountsTowardBalance reports whether the referral takes part in reconciliation
func (s TransactionStatus) CountsTowardBalance() bool {
	return s != TransactionStatusCancelled
}

// PartnerTransaction is one customer handed from a sender tenant to a receiver tenant.
// The owning tenant (TenantID) is the sender.
type PartnerTransaction struct {
	shared.TenantAggregateRoot
	SenderTenantID   uuid.UUID
	ReceiverTenantID uuid.UUID
	ActivityID       uuid.UUID
	ReservationID    *uuid.UUID
	GuestCount       int
	UnitPrice        decimal.Decimal
	TotalAmount      decimal.Decimal
	TotalOverridden  bool
	Currency         valueobject.Currency
	TransactionDate  time.Time
	Terms            SettlementTerms
	Status           TransactionStatus
	Notes            string

	DeletionStatus              DeletionStatus
	DeletionRequestedByTenantID *uuid.UUID
	DeletionRejectionReason     string
}

// NewTransactionInput holds the commercial terms of a new referral
type NewTransactionInput struct {
	SenderTenantID   uuid.UUID
	ReceiverTenantID uuid.UUID
	ActivityID       uuid.UUID
	ReservationID    *uuid.UUID
	GuestCount       int
	UnitPrice        decimal.Decimal
	TotalOverride    *decimal.Decimal
	Currency         valueobject.Currency
	TransactionDate  time.Time
	Terms            SettlementTerms
	Status           TransactionStatus
	Notes            string
}

// NewPartnerTransaction validates the input and creates a referral record
func NewPartnerTransaction(in NewTransactionInput) (*PartnerTransaction, error) {
	if in.SenderTenantID == uuid.Nil || in.ReceiverTenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Sender and receiver tenants are required")
	}
	if in.SenderTenantID == in.ReceiverTenantID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Sender and receiver must be different tenants")
	}
	if in.ActivityID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Activity is required")
	}
	if in.GuestCount < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Guest count must be at least 1")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit price cannot be negative")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported currency %q", in.Currency)
	}
	if in.TransactionDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Transaction date is required")
	}
	status := in.Status
	if status == "" {
		status = TransactionStatusPending
	}
	if !status.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown transaction status %q", status)
	}

	total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.GuestCount)))
	overridden := false
	if in.TotalOverride != nil {
		if in.TotalOverride.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Total amount cannot be negative")
		}
		total = *in.TotalOverride
		overridden = true
	}
	terms := in.Terms
	if terms.CollectionType == "" {
		terms = DefaultSettlementTerms()
	}
	if err := terms.Validate(total); err != nil {
		return nil, err
	}

	tx := &PartnerTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.SenderTenantID),
		SenderTenantID:      in.SenderTenantID,
		ReceiverTenantID:    in.ReceiverTenantID,
		ActivityID:          in.ActivityID,
		ReservationID:       in.ReservationID,
		GuestCount:          in.GuestCount,
		UnitPrice:           in.UnitPrice,
		TotalAmount:         total,
		TotalOverridden:     overridden,
		Currency:            in.Currency,
		TransactionDate:     in.TransactionDate,
		Terms:               terms,
		Status:              status,
		Notes:               strings.TrimSpace(in.Notes),
		DeletionStatus:      DeletionStatusNone,
	}

	tx.AddDomainEvent(NewTransactionCreatedEvent(tx))

	return tx, nil
}

// BalanceOwed is recomputed from stored terms on every call; it is never persisted
func (tx *PartnerTransaction) BalanceOwed() decimal.Decimal {
	balance, err := ComputeBalance(tx.Terms, tx.TotalAmount)
	if err != nil {
		return decimal.Zero
	}
	return balance
}

// AmountDueToReceiver is what the receiver still has to collect from the customer directly
func (tx *PartnerTransaction) AmountDueToReceiver() decimal.Decimal {
	return tx.TotalAmount.Sub(tx.BalanceOwed())
}

// BalanceOwedMoney returns the balance as Money in the transaction currency
func (tx *PartnerTransaction) BalanceOwedMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(tx.BalanceOwed(), tx.Currency)
	return m
}

// IsParty reports whether tenantID is the sender or the receiver
func (tx *PartnerTransaction) IsParty(tenantID uuid.UUID) bool {
	return tenantID == tx.SenderTenantID || tenantID == tx.ReceiverTenantID
}

// Counterpart returns the other party relative to tenantID
func (tx *PartnerTransaction) Counterpart(tenantID uuid.UUID) uuid.UUID {
	if tenantID == tx.SenderTenantID {
		return tx.ReceiverTenantID
	}
	return tx.SenderTenantID
}

// ChangeCollectionTerms replaces the settlement terms. Only the sender, who
// did the collecting, may edit them, and not while a deletion is pending.
func (tx *PartnerTransaction) ChangeCollectionTerms(actorTenantID uuid.UUID, terms SettlementTerms) error {
	if actorTenantID != tx.SenderTenantID {
		return shared.NewDomainError(shared.CodeUnauthorized, "Only the sending tenant can change collection terms")
	}
	if tx.DeletionStatus == DeletionStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot change collection terms while deletion is pending")
	}
	if err := terms.Validate(tx.TotalAmount); err != nil {
		return err
	}

	previous := tx.Terms
	tx.Terms = terms
	tx.IncrementVersion()

	tx.AddDomainEvent(NewCollectionTermsChangedEvent(tx, actorTenantID, previous))

	return nil
}
