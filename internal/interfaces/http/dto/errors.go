package dto

import (
	"net/http"

	"github.com/agencyops/backend/internal/domain/shared"
)

// API error codes, ERR_<DESCRIPTION>
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation covers binding and validator failures; details list
	// the offending fields
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeForbidden means the tenant is authenticated but not a party
	// allowed to act on the record
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotRequester = "ERR_NOT_REQUESTER"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeNotPending          = "ERR_NOT_PENDING"
	ErrCodeAlreadyPending      = "ERR_ALREADY_PENDING"
	ErrCodeAlreadySettled      = "ERR_DISPATCH_ALREADY_SETTLED"

	ErrCodeInvalidState            = "ERR_INVALID_STATE"
	ErrCodeInvalidCollectionAmount = "ERR_INVALID_COLLECTION_AMOUNT"
	ErrCodeCollectionExceedsDebt   = "ERR_COLLECTION_EXCEEDS_DEBT"
	ErrCodeCurrencyMismatch        = "ERR_CURRENCY_MISMATCH"
)

var statusByCode = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotRequester: http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeNotPending:          http.StatusConflict,
	ErrCodeAlreadyPending:      http.StatusConflict,
	ErrCodeAlreadySettled:      http.StatusConflict,

	// business rules the request could not satisfy
	ErrCodeInvalidState:            http.StatusUnprocessableEntity,
	ErrCodeInvalidCollectionAmount: http.StatusUnprocessableEntity,
	ErrCodeCollectionExceedsDebt:   http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:        http.StatusUnprocessableEntity,
}

// domain UNAUTHORIZED is raised for authenticated tenants, hence 403
var codeByDomainCode = map[string]string{
	shared.CodeNotFound:                ErrCodeNotFound,
	shared.CodeInvalidInput:            ErrCodeInvalidInput,
	shared.CodeInvalidState:            ErrCodeInvalidState,
	shared.CodeUnauthorized:            ErrCodeForbidden,
	shared.CodeConcurrencyConflict:     ErrCodeConcurrencyConflict,
	shared.CodeInvalidCollectionAmount: ErrCodeInvalidCollectionAmount,
	shared.CodeCollectionExceedsDebt:   ErrCodeCollectionExceedsDebt,
	shared.CodeCurrencyMismatch:        ErrCodeCurrencyMismatch,
	shared.CodeNotPending:              ErrCodeNotPending,
	shared.CodeAlreadyPending:          ErrCodeAlreadyPending,
	shared.CodeNotRequester:            ErrCodeNotRequester,
	shared.CodeAlreadySettled:          ErrCodeAlreadySettled,
}

// GetHTTPStatus returns the status for an API code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode translates a domain error code into the API code and its
// HTTP status. Unmapped codes surface as internal errors.
func FromDomainCode(domainCode string) (string, int) {
	code, ok := codeByDomainCode[domainCode]
	if !ok {
		return ErrCodeInternal, http.StatusInternalServerError
	}
	return code, GetHTTPStatus(code)
}
