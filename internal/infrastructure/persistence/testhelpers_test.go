package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory SQLite database. A single connection
// keeps every statement on the same in-memory schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.PartnerTransactionModel{},
		&models.PartnerPaymentModel{},
		&models.SupplierDispatchModel{},
		&models.SupplierDispatchItemModel{},
		&models.AgencyPayoutModel{},
		&models.AgencyActivityRateModel{},
	))
	return db
}

// setupMockDB returns GORM over sqlmock for asserting statement shape.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return db, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(month time.Month, day int) time.Time {
	return time.Date(2026, month, day, 0, 0, 0, 0, time.UTC)
}

func createTestTransaction(t *testing.T, sender, receiver uuid.UUID, total string, terms referral.SettlementTerms, on time.Time) *referral.PartnerTransaction {
	t.Helper()
	amount := dec(total)
	tx, err := referral.NewPartnerTransaction(referral.NewTransactionInput{
		SenderTenantID:   sender,
		ReceiverTenantID: receiver,
		ActivityID:       uuid.New(),
		GuestCount:       2,
		UnitPrice:        amount.Div(decimal.NewFromInt(2)),
		TotalOverride:    &amount,
		Currency:         valueobject.TRY,
		TransactionDate:  on,
		Terms:            terms,
	})
	require.NoError(t, err)
	return tx
}
