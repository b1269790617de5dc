package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/infrastructure/storage"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
)

func TestPaymentHandler_Receipts(t *testing.T) {
	t.Run("upload, attach and download", func(t *testing.T) {
		store := storage.NewMemoryReceiptStorage("https://files.test")
		s := createTestServer(t, settlementapp.WithReceiptStorage(store))
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")
		base := "/payments/" + p.ID.String() + "/receipt"

		w := s.do(t, payer, http.MethodPost, base+"/upload-url", map[string]any{"content_type": "application/pdf"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		upload := decode[settlementapp.ReceiptURL](t, w).Data
		assert.True(t, strings.HasSuffix(upload.Key, ".pdf"), upload.Key)
		assert.Contains(t, upload.URL, "https://files.test/upload/")

		w = s.do(t, payer, http.MethodPut, base, map[string]any{"key": upload.Key})
		requireError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)

		store.Put(upload.Key, "application/pdf")
		w = s.do(t, payer, http.MethodPut, base, map[string]any{"key": upload.Key})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decode[settlementapp.PaymentView](t, w).Data.HasReceipt)

		w = s.do(t, payee, http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		download := decode[settlementapp.ReceiptURL](t, w).Data
		assert.Equal(t, upload.Key, download.Key)
		assert.Contains(t, download.URL, "https://files.test/download/")
	})

	t.Run("payee cannot upload", func(t *testing.T) {
		s := createTestServer(t, settlementapp.WithReceiptStorage(storage.NewMemoryReceiptStorage("")))
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")

		w := s.do(t, payee, http.MethodPost, "/payments/"+p.ID.String()+"/receipt/upload-url", map[string]any{"content_type": "image/png"})

		requireError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		s := createTestServer(t, settlementapp.WithReceiptStorage(storage.NewMemoryReceiptStorage("")))
		payer := uuid.New()
		p := createTestPayment(t, s, payer, uuid.New(), "100")

		w := s.do(t, payer, http.MethodPost, "/payments/"+p.ID.String()+"/receipt/upload-url", map[string]any{"content_type": "text/plain"})

		requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("no receipt yet", func(t *testing.T) {
		s := createTestServer(t, settlementapp.WithReceiptStorage(storage.NewMemoryReceiptStorage("")))
		payer, payee := uuid.New(), uuid.New()
		p := createTestPayment(t, s, payer, payee, "100")

		w := s.do(t, payee, http.MethodGet, "/payments/"+p.ID.String()+"/receipt", nil)

		requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("storage disabled", func(t *testing.T) {
		s := createTestServer(t)
		payer := uuid.New()
		p := createTestPayment(t, s, payer, uuid.New(), "100")

		w := s.do(t, payer, http.MethodPost, "/payments/"+p.ID.String()+"/receipt/upload-url", map[string]any{"content_type": "application/pdf"})

		requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)
	})
}
