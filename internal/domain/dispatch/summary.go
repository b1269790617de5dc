package dispatch

import (
	"sort"

	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgencyPosition is the per-currency standing with one supplier agency
type AgencyPosition struct {
	Currency       valueobject.Currency `json:"currency"`
	DispatchCount  int                  `json:"dispatch_count"`
	GuestCount     int                  `json:"guest_count"`
	TotalPayout    decimal.Decimal      `json:"total_payout"`
	SettledPayout  decimal.Decimal      `json:"settled_payout"`
	UnsettledCount int                  `json:"unsettled_count"`
	Unsettled      decimal.Decimal      `json:"unsettled"`
	PaidOut        decimal.Decimal      `json:"paid_out"`
	// Profit sums only dispatches whose sale price is known
	Profit         decimal.Decimal `json:"profit"`
	ProfitKnownFor int             `json:"profit_known_for"`
}

// AgencySummary groups positions by currency for one agency
type AgencySummary struct {
	AgencyID  uuid.UUID        `json:"agency_id"`
	Positions []AgencyPosition `json:"positions"`
}

// SummarizeAgency aggregates dispatches and payouts of one agency.
// Currencies are kept apart and never summed together.
func SummarizeAgency(agencyID uuid.UUID, dispatches []SupplierDispatch, payouts []AgencyPayout) AgencySummary {
	byCurrency := make(map[valueobject.Currency]*AgencyPosition)
	get := func(c valueobject.Currency) *AgencyPosition {
		p, ok := byCurrency[c]
		if !ok {
			p = &AgencyPosition{
				Currency:      c,
				TotalPayout:   decimal.Zero,
				SettledPayout: decimal.Zero,
				Unsettled:     decimal.Zero,
				PaidOut:       decimal.Zero,
				Profit:        decimal.Zero,
			}
			byCurrency[c] = p
		}
		return p
	}

	for i := range dispatches {
		d := &dispatches[i]
		if d.AgencyID != agencyID {
			continue
		}
		p := get(d.Currency)
		p.DispatchCount++
		p.GuestCount += d.GuestCount
		p.TotalPayout = p.TotalPayout.Add(d.TotalPayout)
		if d.IsSettled() {
			p.SettledPayout = p.SettledPayout.Add(d.TotalPayout)
		} else {
			p.UnsettledCount++
			p.Unsettled = p.Unsettled.Add(d.TotalPayout)
		}
		if d.SalePrice != nil {
			p.Profit = p.Profit.Add(d.SalePrice.Sub(d.TotalPayout))
			p.ProfitKnownFor++
		}
	}
	for i := range payouts {
		if payouts[i].AgencyID != agencyID {
			continue
		}
		p := get(payouts[i].Currency)
		p.PaidOut = p.PaidOut.Add(payouts[i].Amount)
	}

	summary := AgencySummary{AgencyID: agencyID, Positions: make([]AgencyPosition, 0, len(byCurrency))}
	for _, p := range byCurrency {
		summary.Positions = append(summary.Positions, *p)
	}
	sort.Slice(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].Currency < summary.Positions[j].Currency
	})
	return summary
}
