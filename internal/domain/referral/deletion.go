package referral

import (
	"fmt"
	"strings"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DeletionStatus is the state of the two-party deletion consensus
type DeletionStatus string

const (
	DeletionStatusNone     DeletionStatus = ""
	DeletionStatusPending  DeletionStatus = "pending"
	DeletionStatusRejected DeletionStatus = "rejected"
)

// IsValid checks if the deletion status is known
func (s DeletionStatus) IsValid() bool {
	switch s {
	case DeletionStatusNone, DeletionStatusPending, DeletionStatusRejected:
		return true
	}
	return false
}

// CanRequest reports whether a new deletion request may be opened
func (s DeletionStatus) CanRequest() bool {
	return s == DeletionStatusNone || s == DeletionStatusRejected
}

func (tx *PartnerTransaction) requireParty(actorTenantID uuid.UUID) error {
	if !tx.IsParty(actorTenantID) {
		return shared.NewDomainError(shared.CodeUnauthorized, "Tenant is not a party to this transaction")
	}
	return nil
}

func (tx *PartnerTransaction) requirePending() error {
	if tx.DeletionStatus != DeletionStatusPending {
		return shared.NewDomainError(shared.CodeNotPending,
			fmt.Sprintf("No pending deletion request (status %q)", tx.DeletionStatus))
	}
	return nil
}

func (tx *PartnerTransaction) isRequester(actorTenantID uuid.UUID) bool {
	return tx.DeletionRequestedByTenantID != nil && *tx.DeletionRequestedByTenantID == actorTenantID
}

// RequestDeletion opens a deletion request from either party
func (tx *PartnerTransaction) RequestDeletion(actorTenantID uuid.UUID) error {
	if err := tx.requireParty(actorTenantID); err != nil {
		return err
	}
	if tx.DeletionStatus == DeletionStatusPending {
		return shared.ErrAlreadyPending
	}
	if !tx.DeletionStatus.CanRequest() {
		return shared.NewDomainError(shared.CodeInvalidState, "Deletion cannot be requested in current state")
	}

	requester := actorTenantID
	tx.DeletionStatus = DeletionStatusPending
	tx.DeletionRequestedByTenantID = &requester
	tx.DeletionRejectionReason = ""
	tx.IncrementVersion()

	tx.AddDomainEvent(NewDeletionEvent(EventTypeDeletionRequested, tx, actorTenantID, ""))

	return nil
}

// CancelDeletion withdraws a pending request. Only the requester may cancel.
func (tx *PartnerTransaction) CancelDeletion(actorTenantID uuid.UUID) error {
	if err := tx.requireParty(actorTenantID); err != nil {
		return err
	}
	if err := tx.requirePending(); err != nil {
		return err
	}
	if !tx.isRequester(actorTenantID) {
		return shared.ErrNotRequester
	}

	tx.DeletionStatus = DeletionStatusNone
	tx.DeletionRequestedByTenantID = nil
	tx.IncrementVersion()

	tx.AddDomainEvent(NewDeletionEvent(EventTypeDeletionCancelled, tx, actorTenantID, ""))

	return nil
}

// ApproveDeletion accepts the counterparty's request. The caller must then
// remove the record with a version check.
func (tx *PartnerTransaction) ApproveDeletion(actorTenantID uuid.UUID) error {
	if err := tx.requireParty(actorTenantID); err != nil {
		return err
	}
	if err := tx.requirePending(); err != nil {
		return err
	}
	if tx.isRequester(actorTenantID) {
		return shared.NewDomainError(shared.CodeUnauthorized, "The requesting tenant cannot approve its own deletion request")
	}

	tx.IncrementVersion()

	tx.AddDomainEvent(NewDeletionEvent(EventTypeDeletionApproved, tx, actorTenantID, ""))

	return nil
}

// RejectDeletion refuses the counterparty's request and keeps the record
func (tx *PartnerTransaction) RejectDeletion(actorTenantID uuid.UUID, reason string) error {
	if err := tx.requireParty(actorTenantID); err != nil {
		return err
	}
	if err := tx.requirePending(); err != nil {
		return err
	}
	if tx.isRequester(actorTenantID) {
		return shared.NewDomainError(shared.CodeUnauthorized, "The requesting tenant cannot reject its own deletion request")
	}

	tx.DeletionStatus = DeletionStatusRejected
	tx.DeletionRejectionReason = strings.TrimSpace(reason)
	tx.IncrementVersion()

	tx.AddDomainEvent(NewDeletionEvent(EventTypeDeletionRejected, tx, actorTenantID, tx.DeletionRejectionReason))

	return nil
}
