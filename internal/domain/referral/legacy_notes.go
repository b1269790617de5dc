package referral

import (
	"encoding/json"
	"strings"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// legacyPaymentBlob is the payment metadata older clients embedded as JSON
// inside the free-text notes. Both key spellings were written over time.
type legacyPaymentBlob struct {
	CollectionType      string           `json:"payment_collection_type"`
	CollectionTypeCamel string           `json:"paymentCollectionType"`
	Collected           *decimal.Decimal `json:"amount_collected_by_sender"`
	CollectedCamel      *decimal.Decimal `json:"amountCollectedBySender"`
}

func (b legacyPaymentBlob) collectionType() string {
	if b.CollectionType != "" {
		return b.CollectionType
	}
	return b.CollectionTypeCamel
}

func (b legacyPaymentBlob) collected() decimal.Decimal {
	switch {
	case b.Collected != nil:
		return *b.Collected
	case b.CollectedCamel != nil:
		return *b.CollectedCamel
	}
	return decimal.Zero
}

// LegacyNotesResult is the outcome of extracting a legacy blob from notes
type LegacyNotesResult struct {
	Terms SettlementTerms
	// Notes is the free text with the blob removed
	Notes string
	Found bool
}

// ExtractLegacyTerms finds the first JSON object in notes that carries a
// payment collection type and converts it into typed settlement terms.
// Notes without a blob come back unchanged with Found=false.
func ExtractLegacyTerms(notes string) (LegacyNotesResult, error) {
	for start := strings.IndexByte(notes, '{'); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(notes[start:]))
		dec.UseNumber()
		var blob legacyPaymentBlob
		if err := dec.Decode(&blob); err == nil && blob.collectionType() != "" {
			end := start + int(dec.InputOffset())
			ct := valueobject.CollectionType(strings.ToLower(strings.TrimSpace(blob.collectionType())))
			if !ct.IsValid() {
				return LegacyNotesResult{}, shared.NewDomainErrorf(shared.CodeInvalidInput,
					"legacy notes carry unknown collection type %q", blob.collectionType())
			}
			return LegacyNotesResult{
				Terms: SettlementTerms{CollectionType: ct, AmountCollectedBySender: blob.collected()},
				Notes: joinAroundBlob(notes[:start], notes[end:]),
				Found: true,
			}, nil
		}
		next := strings.IndexByte(notes[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return LegacyNotesResult{Notes: notes}, nil
}

// joinAroundBlob stitches the text on either side of a removed blob back
// together. Only the spaces touching the blob are dropped; line breaks and
// spacing elsewhere in the notes are kept.
func joinAroundBlob(before, after string) string {
	before = strings.TrimRight(before, " \t")
	after = strings.TrimLeft(after, " \t")
	sep := ""
	if before != "" && after != "" &&
		!strings.HasSuffix(before, "\n") && !strings.HasPrefix(after, "\n") &&
		!strings.HasPrefix(after, "\r\n") {
		sep = " "
	}
	return strings.TrimSpace(before + sep + after)
}

// MigrateLegacyNotes moves a blob found in Notes into Terms, validated
// against the total. Records without a blob are left untouched. The move
// is a terms change, so it is refused while a deletion is pending.
func (tx *PartnerTransaction) MigrateLegacyNotes(actorTenantID uuid.UUID) (bool, error) {
	res, err := ExtractLegacyTerms(tx.Notes)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, nil
	}
	if tx.DeletionStatus == DeletionStatusPending {
		return false, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot migrate legacy notes while deletion is pending")
	}
	if err := res.Terms.Validate(tx.TotalAmount); err != nil {
		return false, err
	}

	previous := tx.Terms
	tx.Terms = res.Terms
	tx.Notes = res.Notes
	tx.IncrementVersion()

	tx.AddDomainEvent(NewCollectionTermsChangedEvent(tx, actorTenantID, previous))

	return true, nil
}
