package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
)

var testDate = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func createTestTransaction(t *testing.T, sender, receiver uuid.UUID, terms referral.SettlementTerms) *referral.PartnerTransaction {
	t.Helper()
	tx, err := referral.NewPartnerTransaction(referral.NewTransactionInput{
		SenderTenantID:   sender,
		ReceiverTenantID: receiver,
		ActivityID:       uuid.New(),
		GuestCount:       4,
		UnitPrice:        decimal.NewFromInt(250),
		Currency:         valueobject.TRY,
		TransactionDate:  testDate,
		Terms:            terms,
		Status:           referral.TransactionStatusConfirmed,
	})
	require.NoError(t, err)
	tx.ClearDomainEvents()
	return tx
}

func partialTerms(collected int64) referral.SettlementTerms {
	return referral.SettlementTerms{
		CollectionType:          valueobject.CollectionSenderPartial,
		AmountCollectedBySender: decimal.NewFromInt(collected),
	}
}

// =============================================================================
// CreateTransaction
// =============================================================================

func TestService_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	sender, receiver := uuid.New(), uuid.New()

	t.Run("stores referral with derived balance and publishes", func(t *testing.T) {
		publisher := new(MockEventPublisher)
		svc, repos := createTestService(WithEventPublisher(publisher))

		repos.transactions.On("Save", mock.Anything, mock.AnythingOfType("*referral.PartnerTransaction")).Return(nil)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == referral.EventTypeTransactionCreated
		})).Return(nil)

		view, err := svc.CreateTransaction(ctx, CreateTransactionCommand{
			ActorTenantID:    sender,
			ReceiverTenantID: receiver,
			ActivityID:       uuid.New(),
			GuestCount:       4,
			UnitPrice:        decimal.NewFromInt(250),
			Currency:         valueobject.TRY,
			TransactionDate:  testDate,
			Terms:            partialTerms(600),
		})
		require.NoError(t, err)
		assert.Equal(t, RoleSender, view.Role)
		assert.True(t, decimal.NewFromInt(1000).Equal(view.TotalAmount))
		assert.True(t, decimal.NewFromInt(600).Equal(view.BalanceOwed))
		assert.True(t, decimal.NewFromInt(400).Equal(view.AmountDueToReceiver))
		assert.Equal(t, referral.TransactionStatusPending, view.Status)
		repos.assertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("rejects collected amount above total without saving", func(t *testing.T) {
		svc, repos := createTestService()

		_, err := svc.CreateTransaction(ctx, CreateTransactionCommand{
			ActorTenantID:    sender,
			ReceiverTenantID: receiver,
			ActivityID:       uuid.New(),
			GuestCount:       1,
			UnitPrice:        decimal.NewFromInt(100),
			Currency:         valueobject.TRY,
			TransactionDate:  testDate,
			Terms:            partialTerms(150),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidCollectionAmount)
		repos.transactions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		publisher := new(MockEventPublisher)
		svc, repos := createTestService(WithEventPublisher(publisher))

		repos.transactions.On("Save", mock.Anything, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

		view, err := svc.CreateTransaction(ctx, CreateTransactionCommand{
			ActorTenantID:    sender,
			ReceiverTenantID: receiver,
			ActivityID:       uuid.New(),
			GuestCount:       2,
			UnitPrice:        decimal.NewFromInt(50),
			Currency:         valueobject.EUR,
			TransactionDate:  testDate,
		})
		require.NoError(t, err)
		assert.True(t, view.BalanceOwed.IsZero())
	})
}

// =============================================================================
// GetTransaction / ListTransactions
// =============================================================================

func TestService_GetTransaction(t *testing.T) {
	ctx := context.Background()
	sender, receiver := uuid.New(), uuid.New()
	tx := createTestTransaction(t, sender, receiver, partialTerms(300))

	t.Run("receiver sees the same balance", func(t *testing.T) {
		svc, repos := createTestService()
		repos.transactions.On("FindByID", mock.Anything, tx.ID).Return(tx, nil)

		view, err := svc.GetTransaction(ctx, receiver, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, RoleReceiver, view.Role)
		assert.True(t, decimal.NewFromInt(300).Equal(view.BalanceOwed))
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		svc, repos := createTestService()
		repos.transactions.On("FindByID", mock.Anything, tx.ID).Return(tx, nil)

		_, err := svc.GetTransaction(ctx, uuid.New(), tx.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing record gets not found", func(t *testing.T) {
		svc, repos := createTestService()
		id := uuid.New()
		repos.transactions.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := svc.GetTransaction(ctx, sender, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	viewer, partner := uuid.New(), uuid.New()

	t.Run("passes filters through and projects roles", func(t *testing.T) {
		svc, repos := createTestService()
		sent := createTestTransaction(t, viewer, partner, partialTerms(100))
		received := createTestTransaction(t, partner, viewer, referral.DefaultSettlementTerms())

		repos.transactions.On("FindForTenant", mock.Anything, mock.MatchedBy(func(f referral.TransactionFilter) bool {
			return f.TenantID == viewer && f.CounterpartTenantID != nil && *f.CounterpartTenantID == partner &&
				f.From != nil && f.To == nil && f.DeletionPending
		})).Return([]referral.PartnerTransaction{*sent, *received}, nil)

		views, err := svc.ListTransactions(ctx, TransactionQuery{
			ViewingTenantID:     viewer,
			CounterpartTenantID: &partner,
			Range:               shared.DateRange{From: testDate},
			DeletionPending:     true,
		})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, RoleSender, views[0].Role)
		assert.Equal(t, RoleReceiver, views[1].Role)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		svc, _ := createTestService()
		_, err := svc.ListTransactions(ctx, TransactionQuery{
			ViewingTenantID: viewer,
			Range:           shared.DateRange{From: testDate, To: testDate.AddDate(0, 0, -1)},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

// =============================================================================
// ChangeCollectionTerms
// =============================================================================

func TestService_ChangeCollectionTerms(t *testing.T) {
	ctx := context.Background()
	sender, receiver := uuid.New(), uuid.New()

	t.Run("sender changes terms and balance follows", func(t *testing.T) {
		svc, repos := createTestService()
		tx := createTestTransaction(t, sender, receiver, referral.DefaultSettlementTerms())
		repos.transactions.On("FindByID", mock.Anything, tx.ID).Return(tx, nil)
		repos.transactions.On("SaveWithLock", mock.Anything, tx).Return(nil)

		view, err := svc.ChangeCollectionTerms(ctx, ChangeTermsCommand{
			ActorTenantID: sender,
			TransactionID: tx.ID,
			Terms:         referral.SettlementTerms{CollectionType: valueobject.CollectionSenderFull},
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1000).Equal(view.BalanceOwed))
		assert.Equal(t, 2, view.Version)
	})

	t.Run("receiver is not allowed", func(t *testing.T) {
		svc, repos := createTestService()
		tx := createTestTransaction(t, sender, receiver, referral.DefaultSettlementTerms())
		repos.transactions.On("FindByID", mock.Anything, tx.ID).Return(tx, nil)

		_, err := svc.ChangeCollectionTerms(ctx, ChangeTermsCommand{
			ActorTenantID: receiver,
			TransactionID: tx.ID,
			Terms:         partialTerms(10),
		})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		repos.transactions.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("lost race replays against the winner's state", func(t *testing.T) {
		svc, repos := createTestService()
		stale := createTestTransaction(t, sender, receiver, referral.DefaultSettlementTerms())
		fresh := *stale
		require.NoError(t, fresh.RequestDeletion(receiver))

		repos.transactions.On("FindByID", mock.Anything, stale.ID).Return(stale, nil).Once()
		repos.transactions.On("SaveWithLock", mock.Anything, stale).Return(shared.ErrConcurrencyConflict)
		repos.transactions.On("FindByID", mock.Anything, stale.ID).Return(&fresh, nil).Once()

		_, err := svc.ChangeCollectionTerms(ctx, ChangeTermsCommand{
			ActorTenantID: sender,
			TransactionID: stale.ID,
			Terms:         partialTerms(10),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repos.assertExpectations(t)
	})
}

// =============================================================================
// MigrateLegacyNotes
// =============================================================================

func TestService_MigrateLegacyNotes(t *testing.T) {
	ctx := context.Background()
	tenant, partner := uuid.New(), uuid.New()

	withNotes := createTestTransaction(t, tenant, partner, referral.DefaultSettlementTerms())
	withNotes.Notes = `pickup at 9 {"payment_collection_type":"sender_partial","amount_collected_by_sender":"250"}`
	plain := createTestTransaction(t, tenant, partner, referral.DefaultSettlementTerms())
	plain.Notes = "no blob here"
	broken := createTestTransaction(t, tenant, partner, referral.DefaultSettlementTerms())
	broken.Notes = `{"payment_collection_type":"sender_partial","amount_collected_by_sender":"5000"}`
	incoming := createTestTransaction(t, partner, tenant, referral.DefaultSettlementTerms())
	incoming.Notes = `{"payment_collection_type":"sender_full"}`
	deleting := createTestTransaction(t, tenant, partner, referral.DefaultSettlementTerms())
	deleting.Notes = `{"payment_collection_type":"sender_full"}`
	require.NoError(t, deleting.RequestDeletion(partner))
	deleting.ClearDomainEvents()

	publisher := new(MockEventPublisher)
	svc, repos := createTestService(WithEventPublisher(publisher))
	repos.transactions.On("FindForTenant", mock.Anything, referral.TransactionFilter{TenantID: tenant}).
		Return([]referral.PartnerTransaction{*withNotes, *plain, *broken, *incoming, *deleting}, nil)
	repos.transactions.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(tx *referral.PartnerTransaction) bool {
		return tx.ID == withNotes.ID
	})).Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 &&
			events[0].EventType() == referral.EventTypeCollectionTermsChanged &&
			events[0].AggregateID() == withNotes.ID
	})).Return(nil).Once()

	report, err := svc.MigrateLegacyNotes(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 1, report.Migrated)
	assert.Contains(t, report.Failed, broken.ID.String())
	assert.Contains(t, report.Failed, deleting.ID.String())
	repos.assertExpectations(t)
	publisher.AssertExpectations(t)
}
