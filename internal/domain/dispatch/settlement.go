package dispatch

import (
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SettlementBreakdown is the cash-flow picture of one dispatch.
// Customer-side figures are only meaningful when CustomerTermsKnown is true.
type SettlementBreakdown struct {
	Currency           valueobject.Currency `json:"currency"`
	CustomerTermsKnown bool                 `json:"customer_terms_known"`
	// CustomerRemaining is sale price minus advance payment
	CustomerRemaining decimal.Decimal `json:"customer_remaining"`
	// SupplierCollects is what the supplier takes from the customer directly
	SupplierCollects decimal.Decimal `json:"supplier_collects"`
	// TenantHolds is what the tenant has collected from the customer
	TenantHolds decimal.Decimal `json:"tenant_holds"`
	// SupplierPayout is the supplier's gross cost
	SupplierPayout decimal.Decimal `json:"supplier_payout"`
	// TenantOwesSupplier and SupplierOwesTenant are the net settlement; at most one is non-zero
	TenantOwesSupplier decimal.Decimal `json:"tenant_owes_supplier"`
	SupplierOwesTenant decimal.Decimal `json:"supplier_owes_tenant"`
	// Profit is nil when the sale price is unknown
	Profit *decimal.Decimal `json:"profit,omitempty"`
}

// SettleDispatch computes who owes whom for a dispatch.
//
//	customerRemaining = salePrice - advance
//	receiver_full:  supplier collects customerRemaining
//	sender_full:    tenant collected everything, supplier collects nothing
//	sender_partial: tenant holds advance + collected, supplier collects the rest
//
// The net between tenant and supplier is payout minus what the supplier collects.
func SettleDispatch(d *SupplierDispatch) (SettlementBreakdown, error) {
	if !d.CollectionType.IsValid() {
		return SettlementBreakdown{}, shared.NewDomainErrorf(shared.CodeInvalidInput,
			"Unknown payment collection type %q", d.CollectionType)
	}
	if err := d.CheckConsistency(); err != nil {
		return SettlementBreakdown{}, err
	}

	b := SettlementBreakdown{
		Currency:           d.Currency,
		SupplierPayout:     d.TotalPayout,
		TenantOwesSupplier: decimal.Zero,
		SupplierOwesTenant: decimal.Zero,
	}

	if d.SalePrice == nil {
		// Without a sale price only the tenant's own side is known.
		b.TenantHolds = d.AdvancePayment
		if d.CollectionType.SenderCollects() {
			b.TenantHolds = b.TenantHolds.Add(d.AmountCollectedBySender)
		}
		return b, nil
	}

	sale := *d.SalePrice
	remaining := sale.Sub(d.AdvancePayment)
	if remaining.IsNegative() {
		return SettlementBreakdown{}, shared.NewDomainError(shared.CodeInvalidInput,
			"Advance payment exceeds the sale price")
	}
	if d.AmountCollectedBySender.GreaterThan(remaining) {
		return SettlementBreakdown{}, shared.NewDomainErrorf(shared.CodeCollectionExceedsDebt,
			"Collected %s exceeds the customer's remaining %s", d.AmountCollectedBySender.String(), remaining.String())
	}

	b.CustomerTermsKnown = true
	b.CustomerRemaining = remaining

	switch d.CollectionType {
	case valueobject.CollectionReceiverFull:
		b.SupplierCollects = remaining
		b.TenantHolds = d.AdvancePayment
	case valueobject.CollectionSenderFull:
		b.SupplierCollects = decimal.Zero
		b.TenantHolds = sale
	case valueobject.CollectionSenderPartial:
		b.SupplierCollects = remaining.Sub(d.AmountCollectedBySender)
		b.TenantHolds = d.AdvancePayment.Add(d.AmountCollectedBySender)
	}

	net := d.TotalPayout.Sub(b.SupplierCollects)
	if net.IsPositive() {
		b.TenantOwesSupplier = net
	} else {
		b.SupplierOwesTenant = net.Neg()
	}

	profit := sale.Sub(d.TotalPayout)
	b.Profit = &profit

	return b, nil
}
