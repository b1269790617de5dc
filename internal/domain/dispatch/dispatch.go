// Package dispatch models referrals to external, non-partner supplier
// agencies and the payouts that settle them.
package dispatch

import (
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType is the kind of a dispatch line item
type ItemType string

const (
	ItemTypeBase     ItemType = "base"
	ItemTypeObserver ItemType = "observer"
	ItemTypeExtra    ItemType = "extra"
)

// IsValid checks if the item type is known
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeBase, ItemTypeObserver, ItemTypeExtra:
		return true
	}
	return false
}

// SupplierDispatchItem is one priced line of an itemized dispatch
type SupplierDispatchItem struct {
	ID         uuid.UUID            `json:"id"`
	DispatchID uuid.UUID            `json:"dispatch_id"`
	ItemType   ItemType             `json:"item_type"`
	Quantity   int                  `json:"quantity"`
	UnitAmount decimal.Decimal      `json:"unit_amount"`
	Currency   valueobject.Currency `json:"currency"`
	Label      string               `json:"label,omitempty"`
}

// LineTotal returns quantity x unit amount
func (i SupplierDispatchItem) LineTotal() decimal.Decimal {
	return i.UnitAmount.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SupplierDispatch is one referral from a tenant to an external supplier agency
type SupplierDispatch struct {
	shared.TenantAggregateRoot
	AgencyID                uuid.UUID
	ActivityID              uuid.UUID
	GuestCount              int
	UnitPayout              decimal.Decimal
	TotalPayout             decimal.Decimal
	Currency                valueobject.Currency
	SalePrice               *decimal.Decimal
	AdvancePayment          decimal.Decimal
	CollectionType          valueobject.CollectionType
	AmountCollectedBySender decimal.Decimal
	DispatchDate            time.Time
	PayoutID                *uuid.UUID
	Items                   []SupplierDispatchItem
	Notes                   string
}

// ItemInput describes one line item of a new itemized dispatch
type ItemInput struct {
	ItemType   ItemType
	Quantity   int
	UnitAmount decimal.Decimal
	Currency   valueobject.Currency
	Label      string
}

// NewDispatchInput holds the terms of a new dispatch. When Items is non-empty
// the dispatch is itemized and UnitPayout is ignored.
type NewDispatchInput struct {
	TenantID                uuid.UUID
	AgencyID                uuid.UUID
	ActivityID              uuid.UUID
	GuestCount              int
	UnitPayout              decimal.Decimal
	Currency                valueobject.Currency
	SalePrice               *decimal.Decimal
	AdvancePayment          decimal.Decimal
	CollectionType          valueobject.CollectionType
	AmountCollectedBySender decimal.Decimal
	DispatchDate            time.Time
	Items                   []ItemInput
	Notes                   string
}

// NewSupplierDispatch validates the input and creates a dispatch
func NewSupplierDispatch(in NewDispatchInput) (*SupplierDispatch, error) {
	if in.TenantID == uuid.Nil || in.AgencyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant and supplier agency are required")
	}
	if in.ActivityID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Activity is required")
	}
	if in.GuestCount < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Guest count must be at least 1")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported currency %q", in.Currency)
	}
	if in.DispatchDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Dispatch date is required")
	}
	collectionType := in.CollectionType
	if collectionType == "" {
		collectionType = valueobject.CollectionReceiverFull
	}
	if !collectionType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown payment collection type %q", collectionType)
	}
	if in.SalePrice != nil && in.SalePrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Sale price cannot be negative")
	}
	if in.AdvancePayment.IsNegative() || in.AmountCollectedBySender.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Collected amounts cannot be negative")
	}

	d := &SupplierDispatch{
		TenantAggregateRoot:     shared.NewTenantAggregateRoot(in.TenantID),
		AgencyID:                in.AgencyID,
		ActivityID:              in.ActivityID,
		GuestCount:              in.GuestCount,
		Currency:                in.Currency,
		SalePrice:               in.SalePrice,
		AdvancePayment:          in.AdvancePayment,
		CollectionType:          collectionType,
		AmountCollectedBySender: in.AmountCollectedBySender,
		DispatchDate:            in.DispatchDate,
		Notes:                   strings.TrimSpace(in.Notes),
	}

	if len(in.Items) > 0 {
		if err := d.setItems(in.Items); err != nil {
			return nil, err
		}
	} else {
		if in.UnitPayout.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit payout cannot be negative")
		}
		d.UnitPayout = in.UnitPayout
		d.TotalPayout = in.UnitPayout.Mul(decimal.NewFromInt(int64(in.GuestCount)))
	}

	if _, err := SettleDispatch(d); err != nil {
		return nil, err
	}

	d.AddDomainEvent(NewDispatchCreatedEvent(d))

	return d, nil
}

func (d *SupplierDispatch) setItems(inputs []ItemInput) error {
	items := make([]SupplierDispatchItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		if !in.ItemType.IsValid() {
			return shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown item type %q", in.ItemType)
		}
		if in.Quantity < 1 {
			return shared.NewDomainError(shared.CodeInvalidInput, "Item quantity must be at least 1")
		}
		if in.UnitAmount.IsNegative() {
			return shared.NewDomainError(shared.CodeInvalidInput, "Item unit amount cannot be negative")
		}
		itemCurrency := in.Currency
		if itemCurrency == "" {
			itemCurrency = d.Currency
		}
		if itemCurrency != d.Currency {
			return shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Item currency %s does not match dispatch currency %s", itemCurrency, d.Currency)
		}
		item := SupplierDispatchItem{
			ID:         uuid.New(),
			DispatchID: d.ID,
			ItemType:   in.ItemType,
			Quantity:   in.Quantity,
			UnitAmount: in.UnitAmount,
			Currency:   itemCurrency,
			Label:      strings.TrimSpace(in.Label),
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	d.Items = items
	d.TotalPayout = total
	d.UnitPayout = decimal.Zero
	return nil
}

// IsItemized reports whether the total is authoritative from line items
func (d *SupplierDispatch) IsItemized() bool {
	return len(d.Items) > 0
}

// ItemsTotal sums the line items
func (d *SupplierDispatch) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CheckConsistency verifies the stored total against the line items
func (d *SupplierDispatch) CheckConsistency() error {
	for _, item := range d.Items {
		if item.Currency != d.Currency {
			return shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Item currency %s does not match dispatch currency %s", item.Currency, d.Currency)
		}
	}
	if d.IsItemized() && !d.ItemsTotal().Equal(d.TotalPayout) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Dispatch total %s does not equal item sum %s", d.TotalPayout.String(), d.ItemsTotal().String())
	}
	return nil
}

// IsSettled reports whether the dispatch belongs to a payout
func (d *SupplierDispatch) IsSettled() bool {
	return d.PayoutID != nil
}

// TotalPayoutMoney returns the supplier cost as Money
func (d *SupplierDispatch) TotalPayoutMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(d.TotalPayout, d.Currency)
	return m
}

// MarkSettled attaches the dispatch to a payout
func (d *SupplierDispatch) MarkSettled(payoutID uuid.UUID) error {
	if d.PayoutID != nil {
		return shared.NewDomainErrorf(shared.CodeAlreadySettled,
			"Dispatch %s already belongs to payout %s", d.ID, *d.PayoutID)
	}
	id := payoutID
	d.PayoutID = &id
	d.IncrementVersion()
	return nil
}
