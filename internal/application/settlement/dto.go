package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Partner transactions
// =============================================================================

// CreateTransactionCommand records a referral sent by the acting tenant.
type CreateTransactionCommand struct {
	ActorTenantID    uuid.UUID
	ReceiverTenantID uuid.UUID
	ActivityID       uuid.UUID
	ReservationID    *uuid.UUID
	GuestCount       int
	UnitPrice        decimal.Decimal
	TotalOverride    *decimal.Decimal
	Currency         valueobject.Currency
	TransactionDate  time.Time
	Terms            referral.SettlementTerms
	Status           referral.TransactionStatus
	Notes            string
}

// ChangeTermsCommand replaces the collection terms of a referral.
type ChangeTermsCommand struct {
	ActorTenantID uuid.UUID
	TransactionID uuid.UUID
	Terms         referral.SettlementTerms
}

// TransactionQuery lists referrals visible to the viewing tenant.
type TransactionQuery struct {
	ViewingTenantID     uuid.UUID
	CounterpartTenantID *uuid.UUID
	Range               shared.DateRange
	DeletionPending     bool
	Page                shared.Filter
}

// TransactionView is a referral as seen by one of its parties. Balance is
// always what the sender owes the receiver; Role tells the viewer which
// side they are on.
type TransactionView struct {
	ID                          uuid.UUID                  `json:"id"`
	SenderTenantID              uuid.UUID                  `json:"sender_tenant_id"`
	ReceiverTenantID            uuid.UUID                  `json:"receiver_tenant_id"`
	Role                        string                     `json:"role"`
	ActivityID                  uuid.UUID                  `json:"activity_id"`
	ReservationID               *uuid.UUID                 `json:"reservation_id,omitempty"`
	GuestCount                  int                        `json:"guest_count"`
	UnitPrice                   decimal.Decimal            `json:"unit_price"`
	TotalAmount                 decimal.Decimal            `json:"total_amount"`
	TotalOverridden             bool                       `json:"total_overridden"`
	Currency                    valueobject.Currency       `json:"currency"`
	TransactionDate             time.Time                  `json:"transaction_date"`
	Terms                       referral.SettlementTerms   `json:"terms"`
	BalanceOwed                 decimal.Decimal            `json:"balance_owed"`
	AmountDueToReceiver         decimal.Decimal            `json:"amount_due_to_receiver"`
	Status                      referral.TransactionStatus `json:"status"`
	Notes                       string                     `json:"notes,omitempty"`
	DeletionStatus              referral.DeletionStatus    `json:"deletion_status"`
	DeletionRequestedByTenantID *uuid.UUID                 `json:"deletion_requested_by_tenant_id,omitempty"`
	DeletionRejectionReason     string                     `json:"deletion_rejection_reason,omitempty"`
	Version                     int                        `json:"version"`
}

// Roles relative to the viewing tenant
const (
	RoleSender   = "sender"
	RoleReceiver = "receiver"
)

// NewTransactionView projects tx for viewer.
func NewTransactionView(tx *referral.PartnerTransaction, viewer uuid.UUID) TransactionView {
	role := RoleReceiver
	if viewer == tx.SenderTenantID {
		role = RoleSender
	}
	return TransactionView{
		ID:                          tx.ID,
		SenderTenantID:              tx.SenderTenantID,
		ReceiverTenantID:            tx.ReceiverTenantID,
		Role:                        role,
		ActivityID:                  tx.ActivityID,
		ReservationID:               tx.ReservationID,
		GuestCount:                  tx.GuestCount,
		UnitPrice:                   tx.UnitPrice,
		TotalAmount:                 tx.TotalAmount,
		TotalOverridden:             tx.TotalOverridden,
		Currency:                    tx.Currency,
		TransactionDate:             tx.TransactionDate,
		Terms:                       tx.Terms,
		BalanceOwed:                 tx.BalanceOwed(),
		AmountDueToReceiver:         tx.AmountDueToReceiver(),
		Status:                      tx.Status,
		Notes:                       tx.Notes,
		DeletionStatus:              tx.DeletionStatus,
		DeletionRequestedByTenantID: tx.DeletionRequestedByTenantID,
		DeletionRejectionReason:     tx.DeletionRejectionReason,
		Version:                     tx.Version,
	}
}

// DeletionOutcome reports a deletion-consensus transition. Deleted is true
// only after an approval removed the record, in which case Transaction is
// nil.
type DeletionOutcome struct {
	Transaction *TransactionView `json:"transaction,omitempty"`
	Deleted     bool             `json:"deleted"`
}

// LegacyMigrationReport counts the outcome of moving legacy note blobs into
// typed settlement terms.
type LegacyMigrationReport struct {
	Scanned  int               `json:"scanned"`
	Migrated int               `json:"migrated"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// =============================================================================
// Partner payments
// =============================================================================

// RecordPaymentCommand reports money sent by the acting tenant.
type RecordPaymentCommand struct {
	ActorTenantID uuid.UUID
	PayeeTenantID uuid.UUID
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	PaymentDate   time.Time
	Method        settlement.PaymentMethod
	Reference     string
}

// PaymentQuery lists payments visible to the viewing tenant.
type PaymentQuery struct {
	ViewingTenantID     uuid.UUID
	CounterpartTenantID *uuid.UUID
	Status              *settlement.ConfirmationStatus
	Range               shared.DateRange
	Page                shared.Filter
}

// PaymentView is a payment as seen by one of its parties.
type PaymentView struct {
	ID                  uuid.UUID                     `json:"id"`
	PayerTenantID       uuid.UUID                     `json:"payer_tenant_id"`
	PayeeTenantID       uuid.UUID                     `json:"payee_tenant_id"`
	Direction           settlement.Direction          `json:"direction"`
	Amount              decimal.Decimal               `json:"amount"`
	Currency            valueobject.Currency          `json:"currency"`
	PaymentDate         time.Time                     `json:"payment_date"`
	Method              settlement.PaymentMethod      `json:"method"`
	Reference           string                        `json:"reference,omitempty"`
	ConfirmationStatus  settlement.ConfirmationStatus `json:"confirmation_status"`
	ConfirmedByTenantID *uuid.UUID                    `json:"confirmed_by_tenant_id,omitempty"`
	ConfirmedAt         *time.Time                    `json:"confirmed_at,omitempty"`
	RejectionReason     string                        `json:"rejection_reason,omitempty"`
	HasReceipt          bool                          `json:"has_receipt"`
	Version             int                           `json:"version"`
}

// NewPaymentView projects p for viewer.
func NewPaymentView(p *settlement.PartnerPayment, viewer uuid.UUID) PaymentView {
	return PaymentView{
		ID:                  p.ID,
		PayerTenantID:       p.PayerTenantID,
		PayeeTenantID:       p.PayeeTenantID,
		Direction:           p.DirectionFor(viewer),
		Amount:              p.Amount,
		Currency:            p.Currency,
		PaymentDate:         p.PaymentDate,
		Method:              p.Method,
		Reference:           p.Reference,
		ConfirmationStatus:  p.ConfirmationStatus,
		ConfirmedByTenantID: p.ConfirmedByTenantID,
		ConfirmedAt:         p.ConfirmedAt,
		RejectionReason:     p.RejectionReason,
		HasReceipt:          p.ReceiptKey != "",
		Version:             p.Version,
	}
}

// ReceiptURL is a presigned link to a payment receipt object.
type ReceiptURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// Reconciliation
// =============================================================================

// ReconcileQuery asks for the net position of the viewing tenant.
type ReconcileQuery struct {
	ViewingTenantID     uuid.UUID
	Range               shared.DateRange
	CounterpartTenantID *uuid.UUID
	// NormalizeTo collapses all currencies into one. Nil keeps them apart.
	NormalizeTo *valueobject.Currency
}

// =============================================================================
// Supplier dispatches
// =============================================================================

// CreateDispatchCommand records a customer sent to a supplier agency. A nil
// UnitPayout on a simple dispatch is filled from the current agency rate.
type CreateDispatchCommand struct {
	ActorTenantID           uuid.UUID
	AgencyID                uuid.UUID
	ActivityID              uuid.UUID
	GuestCount              int
	UnitPayout              *decimal.Decimal
	Currency                valueobject.Currency
	SalePrice               *decimal.Decimal
	AdvancePayment          decimal.Decimal
	CollectionType          valueobject.CollectionType
	AmountCollectedBySender decimal.Decimal
	DispatchDate            time.Time
	Items                   []dispatch.ItemInput
	Notes                   string
}

// DispatchQuery lists the acting tenant's dispatches.
type DispatchQuery struct {
	ActorTenantID uuid.UUID
	AgencyID      *uuid.UUID
	Range         shared.DateRange
	UnsettledOnly bool
	Page          shared.Filter
}

// DispatchView is a dispatch with its settlement breakdown.
type DispatchView struct {
	ID                      uuid.UUID                       `json:"id"`
	AgencyID                uuid.UUID                       `json:"agency_id"`
	ActivityID              uuid.UUID                       `json:"activity_id"`
	GuestCount              int                             `json:"guest_count"`
	UnitPayout              decimal.Decimal                 `json:"unit_payout"`
	TotalPayout             decimal.Decimal                 `json:"total_payout"`
	Currency                valueobject.Currency            `json:"currency"`
	SalePrice               *decimal.Decimal                `json:"sale_price,omitempty"`
	AdvancePayment          decimal.Decimal                 `json:"advance_payment"`
	CollectionType          valueobject.CollectionType      `json:"payment_collection_type"`
	AmountCollectedBySender decimal.Decimal                 `json:"amount_collected_by_sender"`
	DispatchDate            time.Time                       `json:"dispatch_date"`
	PayoutID                *uuid.UUID                      `json:"payout_id,omitempty"`
	Items                   []dispatch.SupplierDispatchItem `json:"items,omitempty"`
	Notes                   string                          `json:"notes,omitempty"`
	Settlement              dispatch.SettlementBreakdown    `json:"settlement"`
	Version                 int                             `json:"version"`
}

// NewDispatchView projects d with its breakdown.
func NewDispatchView(d *dispatch.SupplierDispatch, breakdown dispatch.SettlementBreakdown) DispatchView {
	return DispatchView{
		ID:                      d.ID,
		AgencyID:                d.AgencyID,
		ActivityID:              d.ActivityID,
		GuestCount:              d.GuestCount,
		UnitPayout:              d.UnitPayout,
		TotalPayout:             d.TotalPayout,
		Currency:                d.Currency,
		SalePrice:               d.SalePrice,
		AdvancePayment:          d.AdvancePayment,
		CollectionType:          d.CollectionType,
		AmountCollectedBySender: d.AmountCollectedBySender,
		DispatchDate:            d.DispatchDate,
		PayoutID:                d.PayoutID,
		Items:                   d.Items,
		Notes:                   d.Notes,
		Settlement:              breakdown,
		Version:                 d.Version,
	}
}

// CreatePayoutCommand settles a chosen subset of unpaid dispatches. A nil
// Amount pays exactly their total.
type CreatePayoutCommand struct {
	ActorTenantID uuid.UUID
	AgencyID      uuid.UUID
	DispatchIDs   []uuid.UUID
	Amount        *decimal.Decimal
	Currency      valueobject.Currency
	PaidAt        time.Time
	Method        string
	Notes         string
}

// CreateRateCommand adds a dated unit payout for an agency.
type CreateRateCommand struct {
	ActorTenantID uuid.UUID
	AgencyID      uuid.UUID
	ActivityID    *uuid.UUID
	UnitPayout    decimal.Decimal
	Currency      valueobject.Currency
	ValidFrom     time.Time
	ValidTo       *time.Time
}

// RateView is an agency activity rate.
type RateView struct {
	ID         uuid.UUID            `json:"id"`
	AgencyID   uuid.UUID            `json:"agency_id"`
	ActivityID *uuid.UUID           `json:"activity_id,omitempty"`
	UnitPayout decimal.Decimal      `json:"unit_payout"`
	Currency   valueobject.Currency `json:"currency"`
	ValidFrom  time.Time            `json:"valid_from"`
	ValidTo    *time.Time           `json:"valid_to,omitempty"`
}

// NewRateView projects r.
func NewRateView(r *dispatch.AgencyActivityRate) RateView {
	return RateView{
		ID:         r.ID,
		AgencyID:   r.AgencyID,
		ActivityID: r.ActivityID,
		UnitPayout: r.UnitPayout,
		Currency:   r.Currency,
		ValidFrom:  r.ValidFrom,
		ValidTo:    r.ValidTo,
	}
}

// PayoutView is an agency payout with the dispatches it settled.
type PayoutView struct {
	ID          uuid.UUID            `json:"id"`
	AgencyID    uuid.UUID            `json:"agency_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	PaidAt      time.Time            `json:"paid_at"`
	Method      string               `json:"method,omitempty"`
	DispatchIDs []uuid.UUID          `json:"dispatch_ids"`
	Notes       string               `json:"notes,omitempty"`
}

// NewPayoutView projects p.
func NewPayoutView(p *dispatch.AgencyPayout) PayoutView {
	ids := p.SelectedDispatchIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return PayoutView{
		ID:          p.ID,
		AgencyID:    p.AgencyID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		PaidAt:      p.PaidAt,
		Method:      p.Method,
		DispatchIDs: ids,
		Notes:       p.Notes,
	}
}
