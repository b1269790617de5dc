package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
	"github.com/agencyops/backend/internal/interfaces/http/router"
)

// PaymentHandler serves partner payments and their confirmation
type PaymentHandler struct {
	BaseHandler
	service *settlementapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *settlementapp.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("payments", "/payments")
	g.POST("", h.Record)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/reject", h.Reject)
	g.POST("/:id/receipt/upload-url", h.ReceiptUploadURL)
	g.PUT("/:id/receipt", h.AttachReceipt)
	g.GET("/:id/receipt", h.ReceiptDownloadURL)
	g.RegisterRoutes(rg)
}

// Record godoc
// @Summary      Report money sent to a partner
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body dto.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=settlementapp.PaymentView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	date, err := dto.ParseDate(req.PaymentDate)
	if err != nil {
		h.InvalidDate(c, "payment_date")
		return
	}

	view, err := h.service.RecordPayment(c.Request.Context(), settlementapp.RecordPaymentCommand{
		ActorTenantID: tenantID,
		PayeeTenantID: uuid.MustParse(req.PayeeTenantID),
		Amount:        req.Amount,
		Currency:      valueobject.Currency(req.Currency),
		PaymentDate:   date,
		Method:        settlement.PaymentMethod(req.Method),
		Reference:     req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Get godoc
// @Summary      Get a payment the caller sent or received
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetPayment(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// List godoc
// @Summary      List payments sent or received by the caller
// @Tags         payments
// @Produce      json
// @Param        counterpart_tenant_id query string false "Partner tenant"
// @Param        status query string false "pending, confirmed or rejected"
// @Param        from query string false "First day, YYYY-MM-DD"
// @Param        to query string false "Last day, YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=[]settlementapp.PaymentView}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q dto.PaymentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	r, field, err := dateRange(q.From, q.To)
	if err != nil {
		h.InvalidDate(c, field)
		return
	}
	page := pageOf(q.ListRequest)

	query := settlementapp.PaymentQuery{
		ViewingTenantID:     tenantID,
		CounterpartTenantID: optionalID(q.CounterpartTenantID),
		Range:               r,
		Page:                page,
	}
	if q.Status != "" {
		status := settlement.ConfirmationStatus(q.Status)
		query.Status = &status
	}

	views, err := h.service.ListPayments(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, int64(len(views)), page.Page, page.PageSize)
}

// Confirm godoc
// @Summary      Acknowledge receipt of a partner's payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentView}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.ConfirmPayment(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Reject godoc
// @Summary      Dispute a partner's payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body dto.RejectRequest false "Reason"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentView}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/reject [post]
func (h *PaymentHandler) Reject(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	view, err := h.service.RejectPayment(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ReceiptUploadURL godoc
// @Summary      Get a presigned URL for uploading proof of payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body dto.ReceiptUploadRequest true "File type"
// @Success      200 {object} dto.Response{data=settlementapp.ReceiptURL}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/receipt/upload-url [post]
func (h *PaymentHandler) ReceiptUploadURL(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	receipt, err := h.service.RequestReceiptUpload(c.Request.Context(), tenantID, id, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// AttachReceipt godoc
// @Summary      Attach an uploaded receipt to a pending payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body dto.AttachReceiptRequest true "Uploaded object key"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/receipt [put]
func (h *PaymentHandler) AttachReceipt(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AttachReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	view, err := h.service.AttachReceipt(c.Request.Context(), tenantID, id, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ReceiptDownloadURL godoc
// @Summary      Get a presigned URL for a payment's receipt
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=settlementapp.ReceiptURL}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/receipt [get]
func (h *PaymentHandler) ReceiptDownloadURL(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.service.ReceiptDownload(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}
