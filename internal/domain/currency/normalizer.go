package currency

import (
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
)

// Warning is a non-fatal condition attached to a computed result
type Warning string

// StaleRateUsed means a conversion used a caller default rate because the
// snapshot was stale, missing, or lacked the pair.
const StaleRateUsed Warning = "STALE_RATE_USED"

// Conversion describes how one amount was converted
type Conversion struct {
	Result      valueobject.Money
	DefaultUsed bool
}

// Normalizer converts amounts with a snapshot, falling back to defaults
type Normalizer struct {
	snapshot *RateSnapshot
	defaults RateTable
	maxAge   time.Duration
	now      func() time.Time
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithDefaultRates sets the fallback rates used when the snapshot cannot serve a pair
func WithDefaultRates(defaults RateTable) NormalizerOption {
	return func(n *Normalizer) {
		n.defaults = defaults
	}
}

// WithMaxAge treats snapshots older than maxAge as stale
func WithMaxAge(maxAge time.Duration) NormalizerOption {
	return func(n *Normalizer) {
		n.maxAge = maxAge
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		n.now = now
	}
}

// NewNormalizer creates a normalizer over a snapshot. snapshot may be nil.
func NewNormalizer(snapshot *RateSnapshot, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		snapshot: snapshot,
		defaults: RateTable{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Convert converts amount into the target currency.
// Identity when currencies match; otherwise snapshot rate, then default rate.
func (n *Normalizer) Convert(amount valueobject.Money, to valueobject.Currency) (Conversion, error) {
	from := amount.Currency()
	if from == to {
		return Conversion{Result: amount}, nil
	}

	if !n.snapshot.IsStale(n.now(), n.maxAge) {
		if rate, ok := n.snapshot.Rates.Lookup(from, to); ok {
			out, err := valueobject.NewMoney(amount.Amount().Mul(rate), to)
			if err != nil {
				return Conversion{}, err
			}
			return Conversion{Result: out}, nil
		}
	}

	rate, ok := n.defaults.Lookup(from, to)
	if !ok {
		return Conversion{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"no rate available to convert %s to %s", from, to)
	}
	out, err := valueobject.NewMoney(amount.Amount().Mul(rate), to)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Result: out, DefaultUsed: true}, nil
}
