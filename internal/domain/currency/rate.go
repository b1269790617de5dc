// Package currency converts settlement amounts between TRY, USD and EUR
// using externally supplied rate snapshots.
package currency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RateTable maps from-currency to to-currency to the multiplier
type RateTable map[valueobject.Currency]map[valueobject.Currency]decimal.Decimal

// Lookup returns the direct rate, or the inverse of the reverse rate
func (t RateTable) Lookup(from, to valueobject.Currency) (decimal.Decimal, bool) {
	if row, ok := t[from]; ok {
		if r, ok := row[to]; ok && r.IsPositive() {
			return r, true
		}
	}
	if row, ok := t[to]; ok {
		if r, ok := row[from]; ok && r.IsPositive() {
			return decimal.NewFromInt(1).DivRound(r, 10), true
		}
	}
	return decimal.Zero, false
}

// Set stores a rate, creating the row when needed
func (t RateTable) Set(from, to valueobject.Currency, rate decimal.Decimal) {
	row, ok := t[from]
	if !ok {
		row = make(map[valueobject.Currency]decimal.Decimal)
		t[from] = row
	}
	row[to] = rate
}

// ParseRateTable builds a table from "FROM_TO" keyed decimal strings, the
// shape rates take in configuration.
func ParseRateTable(pairs map[string]string) (RateTable, error) {
	table := RateTable{}
	for key, raw := range pairs {
		fromCode, toCode, ok := strings.Cut(key, "_")
		if !ok {
			return nil, fmt.Errorf("rate key %q must look like USD_TRY", key)
		}
		from, err := valueobject.ParseCurrency(fromCode)
		if err != nil {
			return nil, fmt.Errorf("rate key %q: %w", key, err)
		}
		to, err := valueobject.ParseCurrency(toCode)
		if err != nil {
			return nil, fmt.Errorf("rate key %q: %w", key, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", key, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate %s must be positive", key)
		}
		table.Set(from, to, rate)
	}
	return table, nil
}

// RateSnapshot is a point-in-time table of conversion rates
type RateSnapshot struct {
	Rates RateTable `json:"rates"`
	AsOf  time.Time `json:"as_of"`
	Stale bool      `json:"stale,omitempty"`
}

// IsStale reports whether the snapshot was flagged stale by its source
// or is older than maxAge. A zero maxAge disables the age check.
func (s *RateSnapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	if s == nil {
		return true
	}
	if s.Stale {
		return true
	}
	return maxAge > 0 && now.Sub(s.AsOf) > maxAge
}

// RateOracle supplies rate snapshots. The engine never fetches rates itself.
type RateOracle interface {
	Snapshot(ctx context.Context) (*RateSnapshot, error)
}
