package referral

import (
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SettlementTerms is the typed record of who collected what from the customer
type SettlementTerms struct {
	CollectionType          valueobject.CollectionType `json:"payment_collection_type"`
	AmountCollectedBySender decimal.Decimal            `json:"amount_collected_by_sender"`
}

// DefaultSettlementTerms is used for records that never carried terms
func DefaultSettlementTerms() SettlementTerms {
	return SettlementTerms{CollectionType: valueobject.CollectionReceiverFull, AmountCollectedBySender: decimal.Zero}
}

// Validate checks the terms against the total they are collected against
func (t SettlementTerms) Validate(total decimal.Decimal) error {
	_, err := ComputeBalance(t, total)
	return err
}

// ComputeBalance returns what the sender owes the receiver, always >= 0.
//
//	receiver_full  -> 0
//	sender_full    -> total
//	sender_partial -> amount collected by sender, 0 < x < total
func ComputeBalance(terms SettlementTerms, total decimal.Decimal) (decimal.Decimal, error) {
	if !terms.CollectionType.IsValid() {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInvalidInput,
			"unknown payment collection type %q", terms.CollectionType)
	}
	if total.IsNegative() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidInput, "total amount cannot be negative")
	}
	collected := terms.AmountCollectedBySender
	if collected.IsNegative() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidCollectionAmount,
			"amount collected by sender cannot be negative")
	}
	if collected.GreaterThan(total) {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInvalidCollectionAmount,
			"amount collected by sender (%s) exceeds total amount (%s)", collected.String(), total.String())
	}

	switch terms.CollectionType {
	case valueobject.CollectionSenderFull:
		return total, nil
	case valueobject.CollectionSenderPartial:
		// a partial split must leave something on each side
		if !collected.IsPositive() || collected.Equal(total) {
			return decimal.Zero, shared.NewDomainErrorf(shared.CodeInvalidCollectionAmount,
				"partial collection must be between 0 and the total amount (%s), got %s", total.String(), collected.String())
		}
		return collected, nil
	default:
		return decimal.Zero, nil
	}
}
