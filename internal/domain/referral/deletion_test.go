package referral

import (
	"testing"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletion_RequestThenApprove(t *testing.T) {
	tx := createTestTransaction(t, DefaultSettlementTerms())
	tx.ClearDomainEvents()

	require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
	assert.Equal(t, DeletionStatusPending, tx.DeletionStatus)
	require.NotNil(t, tx.DeletionRequestedByTenantID)
	assert.Equal(t, tx.SenderTenantID, *tx.DeletionRequestedByTenantID)

	require.NoError(t, tx.ApproveDeletion(tx.ReceiverTenantID))
	assert.Equal(t, 3, tx.Version)

	events := tx.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeDeletionRequested, events[0].EventType())
	assert.Equal(t, EventTypeDeletionApproved, events[1].EventType())
	assert.Equal(t, tx.ReceiverTenantID, events[1].TenantID())
}

func TestDeletion_RequestTwiceFailsAlreadyPending(t *testing.T) {
	tx := createTestTransaction(t, DefaultSettlementTerms())
	require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))

	err := tx.RequestDeletion(tx.ReceiverTenantID)
	assert.ErrorIs(t, err, shared.ErrAlreadyPending)
	assert.Equal(t, tx.SenderTenantID, *tx.DeletionRequestedByTenantID)
}

func TestDeletion_RequesterCannotApprove(t *testing.T) {
	tx := createTestTransaction(t, DefaultSettlementTerms())
	require.NoError(t, tx.RequestDeletion(tx.ReceiverTenantID))
	version := tx.Version

	err := tx.ApproveDeletion(tx.ReceiverTenantID)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, version, tx.Version)

	err = tx.RejectDeletion(tx.ReceiverTenantID, "no")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, DeletionStatusPending, tx.DeletionStatus)
}

func TestDeletion_ApproveWithoutPendingFailsNotPending(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		assert.ErrorIs(t, tx.ApproveDeletion(tx.ReceiverTenantID), shared.ErrNotPending)
		assert.ErrorIs(t, tx.ApproveDeletion(tx.SenderTenantID), shared.ErrNotPending)
	})

	t.Run("rejected", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
		require.NoError(t, tx.RejectDeletion(tx.ReceiverTenantID, "still valid"))

		assert.ErrorIs(t, tx.ApproveDeletion(tx.ReceiverTenantID), shared.ErrNotPending)
		assert.ErrorIs(t, tx.ApproveDeletion(tx.SenderTenantID), shared.ErrNotPending)
	})
}

func TestDeletion_Cancel(t *testing.T) {
	t.Run("requester cancels", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
		require.NoError(t, tx.CancelDeletion(tx.SenderTenantID))
		assert.Equal(t, DeletionStatusNone, tx.DeletionStatus)
		assert.Nil(t, tx.DeletionRequestedByTenantID)
	})

	t.Run("counterparty cannot cancel", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
		assert.ErrorIs(t, tx.CancelDeletion(tx.ReceiverTenantID), shared.ErrNotRequester)
		assert.Equal(t, DeletionStatusPending, tx.DeletionStatus)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		assert.ErrorIs(t, tx.CancelDeletion(tx.SenderTenantID), shared.ErrNotPending)
		assert.ErrorIs(t, tx.CancelDeletion(tx.ReceiverTenantID), shared.ErrNotPending)
	})

	t.Run("nothing to cancel after a rejection", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
		require.NoError(t, tx.RejectDeletion(tx.ReceiverTenantID, "still owed"))
		assert.ErrorIs(t, tx.CancelDeletion(tx.SenderTenantID), shared.ErrNotPending)
		assert.ErrorIs(t, tx.CancelDeletion(tx.ReceiverTenantID), shared.ErrNotPending)
	})
}

func TestDeletion_RejectThenReRequest(t *testing.T) {
	tx := createTestTransaction(t, DefaultSettlementTerms())
	require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
	require.NoError(t, tx.RejectDeletion(tx.ReceiverTenantID, "  customer showed up  "))

	assert.Equal(t, DeletionStatusRejected, tx.DeletionStatus)
	assert.Equal(t, "customer showed up", tx.DeletionRejectionReason)

	// either party may re-open after a rejection
	require.NoError(t, tx.RequestDeletion(tx.ReceiverTenantID))
	assert.Equal(t, DeletionStatusPending, tx.DeletionStatus)
	assert.Equal(t, tx.ReceiverTenantID, *tx.DeletionRequestedByTenantID)
	assert.Empty(t, tx.DeletionRejectionReason)

	require.NoError(t, tx.ApproveDeletion(tx.SenderTenantID))
}

func TestDeletion_OutsiderIsUnauthorized(t *testing.T) {
	tx := createTestTransaction(t, DefaultSettlementTerms())
	outsider := uuid.New()

	assert.ErrorIs(t, tx.RequestDeletion(outsider), shared.ErrUnauthorized)
	require.NoError(t, tx.RequestDeletion(tx.SenderTenantID))
	assert.ErrorIs(t, tx.ApproveDeletion(outsider), shared.ErrUnauthorized)
	assert.ErrorIs(t, tx.RejectDeletion(outsider, ""), shared.ErrUnauthorized)
	assert.ErrorIs(t, tx.CancelDeletion(outsider), shared.ErrUnauthorized)
}
