package referral

import (
	"testing"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLegacyTerms(t *testing.T) {
	t.Run("snake case blob with surrounding text", func(t *testing.T) {
		res, err := ExtractLegacyTerms(`VIP group {"payment_collection_type":"sender_partial","amount_collected_by_sender":400} pickup 9am`)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, valueobject.CollectionSenderPartial, res.Terms.CollectionType)
		assert.True(t, res.Terms.AmountCollectedBySender.Equal(dec("400")))
		assert.Equal(t, "VIP group pickup 9am", res.Notes)
	})

	t.Run("camel case blob with string amount", func(t *testing.T) {
		res, err := ExtractLegacyTerms(`{"paymentCollectionType":"SENDER_FULL","amountCollectedBySender":"1250.50"}`)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, valueobject.CollectionSenderFull, res.Terms.CollectionType)
		assert.True(t, res.Terms.AmountCollectedBySender.Equal(dec("1250.5")))
		assert.Empty(t, res.Notes)
	})

	t.Run("skips unrelated braces", func(t *testing.T) {
		res, err := ExtractLegacyTerms(`room {A} then {"payment_collection_type":"receiver_full"}`)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, valueobject.CollectionReceiverFull, res.Terms.CollectionType)
		assert.Equal(t, "room {A} then", res.Notes)
	})

	t.Run("line breaks outside the blob are kept", func(t *testing.T) {
		notes := "Pickup 9am\nHotel lobby  {\"payment_collection_type\":\"sender_full\"}\n\nGuests:  2 adults"
		res, err := ExtractLegacyTerms(notes)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, "Pickup 9am\nHotel lobby\n\nGuests:  2 adults", res.Notes)
	})

	t.Run("plain notes are left alone", func(t *testing.T) {
		res, err := ExtractLegacyTerms("just a note")
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, "just a note", res.Notes)
	})

	t.Run("unknown type is an error", func(t *testing.T) {
		_, err := ExtractLegacyTerms(`{"payment_collection_type":"half"}`)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPartnerTransaction_MigrateLegacyNotes(t *testing.T) {
	t.Run("moves blob into terms", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		tx.Notes = `{"payment_collection_type":"sender_partial","amount_collected_by_sender":400}`

		tx.ClearDomainEvents()

		migrated, err := tx.MigrateLegacyNotes(tx.SenderTenantID)
		require.NoError(t, err)
		assert.True(t, migrated)
		assert.True(t, tx.BalanceOwed().Equal(dec("400")))
		assert.Empty(t, tx.Notes)
		assert.Equal(t, 2, tx.Version)

		events := tx.GetDomainEvents()
		require.Len(t, events, 1)
		changed, ok := events[0].(*CollectionTermsChangedEvent)
		require.True(t, ok)
		assert.Equal(t, EventTypeCollectionTermsChanged, changed.EventType())
		assert.Equal(t, valueobject.CollectionReceiverFull, changed.Previous.CollectionType)
		assert.Equal(t, valueobject.CollectionSenderPartial, changed.Current.CollectionType)

		again, err := tx.MigrateLegacyNotes(tx.SenderTenantID)
		require.NoError(t, err)
		assert.False(t, again)
		assert.Len(t, tx.GetDomainEvents(), 1)
	})

	t.Run("refused while deletion is pending", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		notes := `{"payment_collection_type":"sender_full"}`
		tx.Notes = notes
		require.NoError(t, tx.RequestDeletion(tx.ReceiverTenantID))
		tx.ClearDomainEvents()
		version := tx.Version

		migrated, err := tx.MigrateLegacyNotes(tx.SenderTenantID)
		assert.False(t, migrated)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidState, domainErr.Code)

		assert.Equal(t, DefaultSettlementTerms().CollectionType, tx.Terms.CollectionType)
		assert.True(t, tx.Terms.AmountCollectedBySender.IsZero())
		assert.Equal(t, notes, tx.Notes)
		assert.Equal(t, version, tx.Version)
		assert.Empty(t, tx.GetDomainEvents())
	})

	t.Run("blob exceeding total is rejected", func(t *testing.T) {
		tx := createTestTransaction(t, DefaultSettlementTerms())
		tx.Notes = `{"payment_collection_type":"sender_partial","amount_collected_by_sender":4000}`

		_, err := tx.MigrateLegacyNotes(tx.SenderTenantID)
		assert.ErrorIs(t, err, shared.ErrInvalidCollectionAmount)
		assert.Equal(t, valueobject.CollectionReceiverFull, tx.Terms.CollectionType)
	})
}
