package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
)

// createTestPayment reports a payment from payer to payee and returns its view
func createTestPayment(t *testing.T, s *testServer, payer, payee uuid.UUID, amount string) settlementapp.PaymentView {
	t.Helper()
	w := s.do(t, payer, http.MethodPost, "/payments", map[string]any{
		"payee_tenant_id": payee.String(),
		"amount":          amount,
		"currency":        "TRY",
		"payment_date":    "2026-05-10",
		"method":          "cash",
		"reference":       "receipt 17",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[settlementapp.PaymentView](t, w).Data
}

func TestPaymentHandler_Record(t *testing.T) {
	t.Run("starts pending", func(t *testing.T) {
		s := createTestServer(t)
		payer, payee := uuid.New(), uuid.New()

		view := createTestPayment(t, s, payer, payee, "250")

		assert.Equal(t, payer, view.PayerTenantID)
		assert.Equal(t, payee, view.PayeeTenantID)
		assert.True(t, view.Amount.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, settlement.PaymentMethodCash, view.Method)
		assert.Equal(t, settlement.ConfirmationPending, view.ConfirmationStatus)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		s := createTestServer(t)

		w := s.do(t, uuid.New(), http.MethodPost, "/payments", map[string]any{
			"payee_tenant_id": uuid.New().String(),
			"amount":          "0",
			"currency":        "USD",
			"payment_date":    "2026-05-10",
		})

		requireError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("unknown method fails validation", func(t *testing.T) {
		s := createTestServer(t)

		w := s.do(t, uuid.New(), http.MethodPost, "/payments", map[string]any{
			"payee_tenant_id": uuid.New().String(),
			"amount":          "10",
			"currency":        "USD",
			"payment_date":    "2026-05-10",
			"method":          "cheque",
		})

		requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestPaymentHandler_Confirmation(t *testing.T) {
	t.Run("payee confirms", func(t *testing.T) {
		s := createTestServer(t)
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")

		w := s.do(t, payee, http.MethodPost, "/payments/"+p.ID.String()+"/confirm", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		view := decode[settlementapp.PaymentView](t, w).Data
		assert.Equal(t, settlement.ConfirmationConfirmed, view.ConfirmationStatus)
		require.NotNil(t, view.ConfirmedByTenantID)
		assert.Equal(t, payee, *view.ConfirmedByTenantID)
	})

	t.Run("payer cannot confirm its own payment", func(t *testing.T) {
		s := createTestServer(t)
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")

		w := s.do(t, payer, http.MethodPost, "/payments/"+p.ID.String()+"/confirm", nil)

		requireError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})

	t.Run("resolved payment cannot be resolved again", func(t *testing.T) {
		s := createTestServer(t)
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")
		require.Equal(t, http.StatusOK, s.do(t, payee, http.MethodPost, "/payments/"+p.ID.String()+"/reject", nil).Code)

		w := s.do(t, payee, http.MethodPost, "/payments/"+p.ID.String()+"/confirm", nil)

		requireError(t, w, http.StatusConflict, dto.ErrCodeNotPending)
	})

	t.Run("reject records the reason", func(t *testing.T) {
		s := createTestServer(t)
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")

		w := s.do(t, payee, http.MethodPost, "/payments/"+p.ID.String()+"/reject", map[string]any{"reason": "never arrived"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		view := decode[settlementapp.PaymentView](t, w).Data
		assert.Equal(t, settlement.ConfirmationRejected, view.ConfirmationStatus)
		assert.Equal(t, "never arrived", view.RejectionReason)
	})

	t.Run("outsider sees nothing", func(t *testing.T) {
		s := createTestServer(t)
		p := createTestPayment(t, s, uuid.New(), uuid.New(), "100")

		w := s.do(t, uuid.New(), http.MethodGet, "/payments/"+p.ID.String(), nil)

		requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestPaymentHandler_List(t *testing.T) {
	s := createTestServer(t)
	me, partner := uuid.New(), uuid.New()
	confirmed := createTestPayment(t, s, me, partner, "100")
	createTestPayment(t, s, partner, me, "40")
	require.Equal(t, http.StatusOK, s.do(t, partner, http.MethodPost, "/payments/"+confirmed.ID.String()+"/confirm", nil).Code)

	t.Run("all", func(t *testing.T) {
		w := s.do(t, me, http.MethodGet, "/payments", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]settlementapp.PaymentView](t, w).Data, 2)
	})

	t.Run("by status", func(t *testing.T) {
		w := s.do(t, me, http.MethodGet, "/payments?status=confirmed", nil)
		require.Equal(t, http.StatusOK, w.Code)

		views := decode[[]settlementapp.PaymentView](t, w).Data
		require.Len(t, views, 1)
		assert.Equal(t, confirmed.ID, views[0].ID)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := s.do(t, me, http.MethodGet, "/payments?status=lost", nil)
		requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}
