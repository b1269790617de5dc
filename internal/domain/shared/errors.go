package shared

import "fmt"

// DomainError represents a domain-level error identified by a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so
// errors.Is(err, ErrNotPending) matches any NOT_PENDING error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes
const (
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInvalidState            = "INVALID_STATE"
	CodeInvalidCollectionAmount = "INVALID_COLLECTION_AMOUNT"
	CodeNotPending              = "NOT_PENDING"
	CodeAlreadyPending          = "ALREADY_PENDING"
	CodeNotRequester            = "NOT_REQUESTER"
	CodeCollectionExceedsDebt   = "COLLECTION_EXCEEDS_DEBT"
	CodeCurrencyMismatch        = "CURRENCY_MISMATCH"
	CodeAlreadySettled          = "DISPATCH_ALREADY_SETTLED"
)

// Common domain errors
var (
	ErrNotFound                = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput            = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict     = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized            = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState            = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidCollectionAmount = NewDomainError(CodeInvalidCollectionAmount, "Collected amount is not valid for the collection type")
	ErrNotPending              = NewDomainError(CodeNotPending, "Record is not pending")
	ErrAlreadyPending          = NewDomainError(CodeAlreadyPending, "A deletion request is already pending")
	ErrNotRequester            = NewDomainError(CodeNotRequester, "Only the requesting tenant can cancel the deletion request")
	ErrCollectionExceedsDebt   = NewDomainError(CodeCollectionExceedsDebt, "Collected amount exceeds what the customer owes")
	ErrCurrencyMismatch        = NewDomainError(CodeCurrencyMismatch, "Currencies do not match")
	ErrAlreadySettled          = NewDomainError(CodeAlreadySettled, "Dispatch already belongs to a payout")
)
