package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a DateLayout string. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// =============================================================================
// Partner transactions
// =============================================================================

// TermsRequest carries who collects the customer's money
type TermsRequest struct {
	CollectionType          string          `json:"payment_collection_type" binding:"required,oneof=receiver_full sender_full sender_partial"`
	AmountCollectedBySender decimal.Decimal `json:"amount_collected_by_sender"`
}

// CreateTransactionRequest records a referral sent by the caller
type CreateTransactionRequest struct {
	ReceiverTenantID string           `json:"receiver_tenant_id" binding:"required,uuid"`
	ActivityID       string           `json:"activity_id" binding:"required,uuid"`
	ReservationID    *string          `json:"reservation_id" binding:"omitempty,uuid"`
	GuestCount       int              `json:"guest_count" binding:"required,min=1"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	TotalOverride    *decimal.Decimal `json:"total_amount"`
	Currency         string           `json:"currency" binding:"required,currency"`
	TransactionDate  string           `json:"transaction_date" binding:"required,datetime=2006-01-02"`
	Terms            *TermsRequest    `json:"terms"`
	Status           string           `json:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	Notes            string           `json:"notes" binding:"max=2000"`
}

// ChangeTermsRequest replaces the collection terms of a referral
type ChangeTermsRequest struct {
	TermsRequest
}

// RejectRequest carries an optional reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReceiptUploadRequest names the type of the file the payer will upload
type ReceiptUploadRequest struct {
	ContentType string `json:"content_type" binding:"required,oneof=application/pdf image/jpeg image/png"`
}

// AttachReceiptRequest carries the key returned with the upload URL
type AttachReceiptRequest struct {
	Key string `json:"key" binding:"required,max=255"`
}

// TransactionListQuery filters the referral list
type TransactionListQuery struct {
	ListRequest
	CounterpartTenantID string `form:"counterpart_tenant_id" binding:"omitempty,uuid"`
	From                string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To                  string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	DeletionPending     bool   `form:"deletion_pending"`
}

// =============================================================================
// Partner payments
// =============================================================================

// RecordPaymentRequest reports money sent by the caller
type RecordPaymentRequest struct {
	PayeeTenantID string          `json:"payee_tenant_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"required,currency"`
	PaymentDate   string          `json:"payment_date" binding:"required,datetime=2006-01-02"`
	Method        string          `json:"method" binding:"omitempty,oneof=cash bank_transfer card other"`
	Reference     string          `json:"reference" binding:"max=200"`
}

// PaymentListQuery filters the payment list
type PaymentListQuery struct {
	ListRequest
	CounterpartTenantID string `form:"counterpart_tenant_id" binding:"omitempty,uuid"`
	Status              string `form:"status" binding:"omitempty,oneof=pending confirmed rejected"`
	From                string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To                  string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// Reconciliation
// =============================================================================

// ReconcileQuery selects the window and optional normalization
type ReconcileQuery struct {
	From                string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To                  string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	CounterpartTenantID string `form:"counterpart_tenant_id" binding:"omitempty,uuid"`
	NormalizeTo         string `form:"normalize_to" binding:"omitempty,currency"`
}

// =============================================================================
// Supplier dispatches
// =============================================================================

// DispatchItemRequest is one line of an itemized dispatch
type DispatchItemRequest struct {
	ItemType   string          `json:"item_type" binding:"required,oneof=base observer extra"`
	Quantity   int             `json:"quantity" binding:"required,min=1"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	Currency   string          `json:"currency" binding:"required,currency"`
	Label      string          `json:"label" binding:"max=100"`
}

// CreateDispatchRequest records a customer sent to a supplier agency
type CreateDispatchRequest struct {
	AgencyID                string                `json:"agency_id" binding:"required,uuid"`
	ActivityID              string                `json:"activity_id" binding:"required,uuid"`
	GuestCount              int                   `json:"guest_count" binding:"required,min=1"`
	UnitPayout              *decimal.Decimal      `json:"unit_payout"`
	Currency                string                `json:"currency" binding:"omitempty,currency"`
	SalePrice               *decimal.Decimal      `json:"sale_price"`
	AdvancePayment          decimal.Decimal       `json:"advance_payment"`
	CollectionType          string                `json:"payment_collection_type" binding:"omitempty,oneof=receiver_full sender_full sender_partial"`
	AmountCollectedBySender decimal.Decimal       `json:"amount_collected_by_sender"`
	DispatchDate            string                `json:"dispatch_date" binding:"required,datetime=2006-01-02"`
	Items                   []DispatchItemRequest `json:"items" binding:"omitempty,dive"`
	Notes                   string                `json:"notes" binding:"max=2000"`
}

// DispatchListQuery filters the dispatch list
type DispatchListQuery struct {
	ListRequest
	AgencyID      string `form:"agency_id" binding:"omitempty,uuid"`
	From          string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	UnsettledOnly bool   `form:"unsettled_only"`
}

// CreatePayoutRequest settles a subset of unpaid dispatches
type CreatePayoutRequest struct {
	AgencyID    string           `json:"agency_id" binding:"required,uuid"`
	DispatchIDs []string         `json:"dispatch_ids" binding:"required,min=1,dive,uuid"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency" binding:"required,currency"`
	PaidAt      string           `json:"paid_at" binding:"omitempty,datetime=2006-01-02"`
	Method      string           `json:"method" binding:"max=50"`
	Notes       string           `json:"notes" binding:"max=2000"`
}

// CreateRateRequest adds a dated unit payout for the agency in the path
type CreateRateRequest struct {
	ActivityID *string         `json:"activity_id" binding:"omitempty,uuid"`
	UnitPayout decimal.Decimal `json:"unit_payout"`
	Currency   string          `json:"currency" binding:"required,currency"`
	ValidFrom  string          `json:"valid_from" binding:"required,datetime=2006-01-02"`
	ValidTo    *string         `json:"valid_to" binding:"omitempty,datetime=2006-01-02"`
}

// ResolveRateQuery asks which rate applies on a date
type ResolveRateQuery struct {
	ActivityID string `form:"activity_id" binding:"required,uuid"`
	Date       string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
