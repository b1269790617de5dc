package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestFromDomainCode(t *testing.T) {
	tests := []struct {
		domain string
		code   string
		status int
	}{
		{shared.CodeNotFound, ErrCodeNotFound, http.StatusNotFound},
		{shared.CodeInvalidInput, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.CodeUnauthorized, ErrCodeForbidden, http.StatusForbidden},
		{shared.CodeNotRequester, ErrCodeNotRequester, http.StatusForbidden},
		{shared.CodeNotPending, ErrCodeNotPending, http.StatusConflict},
		{shared.CodeAlreadyPending, ErrCodeAlreadyPending, http.StatusConflict},
		{shared.CodeAlreadySettled, ErrCodeAlreadySettled, http.StatusConflict},
		{shared.CodeConcurrencyConflict, ErrCodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeInvalidState, ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeInvalidCollectionAmount, ErrCodeInvalidCollectionAmount, http.StatusUnprocessableEntity},
		{shared.CodeCollectionExceedsDebt, ErrCodeCollectionExceedsDebt, http.StatusUnprocessableEntity},
		{shared.CodeCurrencyMismatch, ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			code, status := FromDomainCode(tt.domain)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestDomainCodesHaveStatus(t *testing.T) {
	for domainCode, apiCode := range codeByDomainCode {
		_, ok := statusByCode[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", "req-123-456")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, "req-123-456", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "currency", Message: "currency must be one of TRY, USD, EUR"},
		{Field: "guest_count", Message: "guest_count must be at least 1"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "currency", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotPending, "No deletion request is pending", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotPending, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.NotContains(t, errObj, "details")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 2, 1, 20)

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
}

func TestParseDate(t *testing.T) {
	t.Run("empty is zero", func(t *testing.T) {
		d, err := ParseDate("")
		require.NoError(t, err)
		assert.True(t, d.IsZero())
	})

	t.Run("calendar date in UTC", func(t *testing.T) {
		d, err := ParseDate("2024-05-10")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("rejects timestamps", func(t *testing.T) {
		_, err := ParseDate("2024-05-10T10:00:00Z")
		assert.Error(t, err)
	})
}
