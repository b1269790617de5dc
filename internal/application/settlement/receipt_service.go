package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// ReceiptStorage hands out presigned URLs for proof-of-payment objects.
// A zero expiresIn selects the store's default.
type ReceiptStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
}

var errReceiptsDisabled = shared.NewDomainError(shared.CodeInvalidState, "Receipt storage is not configured")

// allowedReceiptTypes maps accepted content types to object-key extensions.
var allowedReceiptTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// RequestReceiptUpload issues a presigned upload for proof of a pending
// payment. The payer uploads to the URL and then calls AttachReceipt.
func (s *Service) RequestReceiptUpload(ctx context.Context, actor, id uuid.UUID, contentType string) (_ *ReceiptURL, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.payment.receipt_upload",
		attribute.String("payment_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.receipts == nil {
		return nil, errReceiptsDisabled
	}
	ext, ok := allowedReceiptTypes[contentType]
	if !ok {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unsupported receipt type %q", contentType)
	}
	p, err := s.loadPayment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = p.CanAttachReceipt(actor); err != nil {
		return nil, err
	}

	key := p.ReceiptPrefix() + uuid.NewString() + ext
	url, expiresAt, err := s.receipts.GenerateUploadURL(ctx, key, contentType, 0)
	if err != nil {
		return nil, err
	}
	return &ReceiptURL{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

// AttachReceipt links an uploaded object to the payment once it exists in
// storage.
func (s *Service) AttachReceipt(ctx context.Context, actor, id uuid.UUID, key string) (_ *PaymentView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.payment.receipt_attach",
		attribute.String("payment_id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.receipts == nil {
		return nil, errReceiptsDisabled
	}
	p, err := s.loadPayment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	transition := func(p *settlement.PartnerPayment) error { return p.AttachReceipt(actor, key) }
	if err = transition(p); err != nil {
		return nil, err
	}
	exists, err := s.receipts.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receipt has not been uploaded")
	}
	if err = s.payments.SaveWithLock(ctx, p); err != nil {
		return nil, lostRace(ctx, s, "payment_receipt", err,
			func() (*settlement.PartnerPayment, error) { return s.payments.FindByID(ctx, id) },
			transition, shared.ErrNotFound)
	}

	logger.L(ctx).Info("payment receipt attached",
		zap.String("payment_id", id.String()),
		zap.String("receipt_key", key))
	s.publish(ctx, p)

	view := NewPaymentView(p, actor)
	return &view, nil
}

// ReceiptDownload issues a presigned download of the payment's receipt to
// either party.
func (s *Service) ReceiptDownload(ctx context.Context, viewer, id uuid.UUID) (*ReceiptURL, error) {
	if s.receipts == nil {
		return nil, errReceiptsDisabled
	}
	p, err := s.loadPayment(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if p.ReceiptKey == "" {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Payment has no receipt")
	}
	url, expiresAt, err := s.receipts.GenerateDownloadURL(ctx, p.ReceiptKey, 0)
	if err != nil {
		return nil, err
	}
	return &ReceiptURL{Key: p.ReceiptKey, URL: url, ExpiresAt: expiresAt}, nil
}
