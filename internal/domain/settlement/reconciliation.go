// Package settlement holds partner payments and the reconciliation of
// referrals and payments into net positions between tenants.
package settlement

import (
	"sort"

	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoleTotals accumulates referrals where the viewer plays one role
type RoleTotals struct {
	Count       int             `json:"count"`
	Guests      int             `json:"guests"`
	Amount      decimal.Decimal `json:"amount"`
	Collected   decimal.Decimal `json:"collected"`
	BalanceOwed decimal.Decimal `json:"balance_owed"`
}

// PaymentTotals is one view of the payments and the balance left after them
type PaymentTotals struct {
	OutgoingCount    int             `json:"outgoing_count"`
	IncomingCount    int             `json:"incoming_count"`
	TotalOutgoing    decimal.Decimal `json:"total_outgoing_payments"`
	TotalIncoming    decimal.Decimal `json:"total_incoming_payments"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// CurrencyPosition is the net position in a single currency.
// NetBalanceOwed > 0 means the viewer is the net debtor.
type CurrencyPosition struct {
	Currency       valueobject.Currency `json:"currency"`
	Sent           RoleTotals           `json:"sent"`
	Received       RoleTotals           `json:"received"`
	NetBalanceOwed decimal.Decimal      `json:"net_balance_owed"`
	// Confirmed counts only payments the payee confirmed
	Confirmed PaymentTotals `json:"confirmed"`
	// Reported also counts payments still awaiting confirmation
	Reported PaymentTotals `json:"reported"`
}

// ReconciliationSummary is the result of Reconcile
type ReconciliationSummary struct {
	ViewingTenantID     uuid.UUID          `json:"viewing_tenant_id"`
	Range               shared.DateRange   `json:"range"`
	CounterpartTenantID *uuid.UUID         `json:"counterpart_tenant_id,omitempty"`
	Positions           []CurrencyPosition `json:"positions"`
	Normalized          bool               `json:"normalized"`
	Warnings            []currency.Warning `json:"warnings,omitempty"`
}

// Position returns the position for c, or nil when nothing was recorded in it
func (s *ReconciliationSummary) Position(c valueobject.Currency) *CurrencyPosition {
	for i := range s.Positions {
		if s.Positions[i].Currency == c {
			return &s.Positions[i]
		}
	}
	return nil
}

// HasWarning reports whether w was raised
func (s *ReconciliationSummary) HasWarning(w currency.Warning) bool {
	for _, got := range s.Warnings {
		if got == w {
			return true
		}
	}
	return false
}

// ReconcileInput is everything Reconcile reads. The record slices are not modified.
type ReconcileInput struct {
	ViewingTenantID     uuid.UUID
	Range               shared.DateRange
	CounterpartTenantID *uuid.UUID
	Transactions        []referral.PartnerTransaction
	Payments            []PartnerPayment
	// NormalizeTo collapses all currencies into one using Normalizer
	NormalizeTo *valueobject.Currency
	Normalizer  *currency.Normalizer
}

type aggregator struct {
	in        ReconcileInput
	positions map[valueobject.Currency]*CurrencyPosition
	stale     bool
}

// Reconcile aggregates referrals and payments into net positions per currency.
//
//	netBalanceOwed   = sent balance owed - received balance owed
//	remainingBalance = netBalanceOwed - outgoing payments + incoming payments
//
// Cancelled referrals and rejected payments never count.
func Reconcile(in ReconcileInput) (*ReconciliationSummary, error) {
	if in.ViewingTenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Viewing tenant is required")
	}
	if err := in.Range.Validate(); err != nil {
		return nil, err
	}
	if in.NormalizeTo != nil && !in.NormalizeTo.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported currency %q", *in.NormalizeTo)
	}
	if in.NormalizeTo != nil && in.Normalizer == nil {
		in.Normalizer = currency.NewNormalizer(nil)
	}

	a := &aggregator{in: in, positions: make(map[valueobject.Currency]*CurrencyPosition)}

	for i := range in.Transactions {
		if err := a.addTransaction(&in.Transactions[i]); err != nil {
			return nil, err
		}
	}
	for i := range in.Payments {
		if err := a.addPayment(&in.Payments[i]); err != nil {
			return nil, err
		}
	}

	return a.summary(), nil
}

func (a *aggregator) matchesCounterpart(counterpart uuid.UUID) bool {
	return a.in.CounterpartTenantID == nil || *a.in.CounterpartTenantID == counterpart
}

func (a *aggregator) position(c valueobject.Currency) *CurrencyPosition {
	p, ok := a.positions[c]
	if !ok {
		p = &CurrencyPosition{
			Currency:       c,
			Sent:           newRoleTotals(),
			Received:       newRoleTotals(),
			NetBalanceOwed: decimal.Zero,
			Confirmed:      newPaymentTotals(),
			Reported:       newPaymentTotals(),
		}
		a.positions[c] = p
	}
	return p
}

// convert brings an amount into the bucket currency
func (a *aggregator) convert(amount decimal.Decimal, from valueobject.Currency) (decimal.Decimal, valueobject.Currency, error) {
	if a.in.NormalizeTo == nil {
		return amount, from, nil
	}
	m, err := valueobject.NewMoney(amount, from)
	if err != nil {
		return decimal.Zero, "", shared.NewDomainError(shared.CodeCurrencyMismatch, err.Error())
	}
	conv, err := a.in.Normalizer.Convert(m, *a.in.NormalizeTo)
	if err != nil {
		return decimal.Zero, "", err
	}
	if conv.DefaultUsed {
		a.stale = true
	}
	return conv.Result.Amount(), conv.Result.Currency(), nil
}

func (a *aggregator) addTransaction(tx *referral.PartnerTransaction) error {
	viewer := a.in.ViewingTenantID
	if !tx.IsParty(viewer) || !tx.Status.CountsTowardBalance() {
		return nil
	}
	if !a.in.Range.Contains(tx.TransactionDate) || !a.matchesCounterpart(tx.Counterpart(viewer)) {
		return nil
	}

	balance, err := referral.ComputeBalance(tx.Terms, tx.TotalAmount)
	if err != nil {
		return err
	}
	collected := decimal.Zero
	if tx.Terms.CollectionType.SenderCollects() {
		collected = tx.Terms.AmountCollectedBySender
	}

	amount, bucket, err := a.convert(tx.TotalAmount, tx.Currency)
	if err != nil {
		return err
	}
	if collected, _, err = a.convert(collected, tx.Currency); err != nil {
		return err
	}
	if balance, _, err = a.convert(balance, tx.Currency); err != nil {
		return err
	}

	p := a.position(bucket)
	role := &p.Received
	if tx.SenderTenantID == viewer {
		role = &p.Sent
	}
	role.Count++
	role.Guests += tx.GuestCount
	role.Amount = role.Amount.Add(amount)
	role.Collected = role.Collected.Add(collected)
	role.BalanceOwed = role.BalanceOwed.Add(balance)
	return nil
}

func (a *aggregator) addPayment(pm *PartnerPayment) error {
	viewer := a.in.ViewingTenantID
	direction := pm.DirectionFor(viewer)
	if direction == DirectionNone || pm.ConfirmationStatus == ConfirmationRejected {
		return nil
	}
	if !a.in.Range.Contains(pm.PaymentDate) || !a.matchesCounterpart(pm.Counterpart(viewer)) {
		return nil
	}

	amount, bucket, err := a.convert(pm.Amount, pm.Currency)
	if err != nil {
		return err
	}

	p := a.position(bucket)
	p.Reported.add(direction, amount)
	if pm.ConfirmationStatus == ConfirmationConfirmed {
		p.Confirmed.add(direction, amount)
	}
	return nil
}

func (t *PaymentTotals) add(direction Direction, amount decimal.Decimal) {
	if direction == DirectionOutgoing {
		t.OutgoingCount++
		t.TotalOutgoing = t.TotalOutgoing.Add(amount)
		return
	}
	t.IncomingCount++
	t.TotalIncoming = t.TotalIncoming.Add(amount)
}

func (t *PaymentTotals) settle(net decimal.Decimal) {
	t.RemainingBalance = net.Sub(t.TotalOutgoing).Add(t.TotalIncoming)
}

func (a *aggregator) summary() *ReconciliationSummary {
	s := &ReconciliationSummary{
		ViewingTenantID:     a.in.ViewingTenantID,
		Range:               a.in.Range,
		CounterpartTenantID: a.in.CounterpartTenantID,
		Positions:           make([]CurrencyPosition, 0, len(a.positions)),
		Normalized:          a.in.NormalizeTo != nil,
	}
	for _, p := range a.positions {
		p.NetBalanceOwed = p.Sent.BalanceOwed.Sub(p.Received.BalanceOwed)
		p.Confirmed.settle(p.NetBalanceOwed)
		p.Reported.settle(p.NetBalanceOwed)
		s.Positions = append(s.Positions, *p)
	}
	sort.Slice(s.Positions, func(i, j int) bool {
		return currencyRank(s.Positions[i].Currency) < currencyRank(s.Positions[j].Currency)
	})
	if a.stale {
		s.Warnings = append(s.Warnings, currency.StaleRateUsed)
	}
	return s
}

func currencyRank(c valueobject.Currency) int {
	for i, known := range valueobject.SupportedCurrencies {
		if known == c {
			return i
		}
	}
	return len(valueobject.SupportedCurrencies)
}

func newRoleTotals() RoleTotals {
	return RoleTotals{Amount: decimal.Zero, Collected: decimal.Zero, BalanceOwed: decimal.Zero}
}

func newPaymentTotals() PaymentTotals {
	return PaymentTotals{TotalOutgoing: decimal.Zero, TotalIncoming: decimal.Zero, RemainingBalance: decimal.Zero}
}

// Counterparts lists every partner the viewer has referrals or payments with
func Counterparts(viewer uuid.UUID, txs []referral.PartnerTransaction, payments []PartnerPayment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for i := range txs {
		if txs[i].IsParty(viewer) {
			add(txs[i].Counterpart(viewer))
		}
	}
	for i := range payments {
		if payments[i].DirectionFor(viewer) != DirectionNone {
			add(payments[i].Counterpart(viewer))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
