package persistence

import (
	"strings"
	"time"

	"github.com/agencyops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Sort whitelists per table. Anything else falls back to the table default.
var (
	transactionSortFields = map[string]bool{
		"transaction_date": true,
		"created_at":       true,
		"total_amount":     true,
		"guest_count":      true,
	}
	paymentSortFields = map[string]bool{
		"payment_date": true,
		"created_at":   true,
		"amount":       true,
	}
	dispatchSortFields = map[string]bool{
		"dispatch_date": true,
		"created_at":    true,
		"total_payout":  true,
	}
)

// ValidateSortOrder normalizes to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, else defaultField.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	if f := strings.TrimSpace(sortField); allowed[f] {
		return f
	}
	return defaultField
}

// applyPage orders the query and, when PageSize is set, limits it.
// A zero PageSize returns every matching row; reconciliation depends on it.
func applyPage(q *gorm.DB, f shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	q = q.Order(field + " " + ValidateSortOrder(f.OrderDir)).Order("id ASC")
	if f.PageSize > 0 {
		q = q.Limit(f.PageSize).Offset(f.Offset())
	}
	return q
}

// applyDateRange restricts column to whole UTC days between from and to.
func applyDateRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", dayStart(*from))
	}
	if to != nil {
		q = q.Where(column+" < ?", dayStart(*to).AddDate(0, 0, 1))
	}
	return q
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
