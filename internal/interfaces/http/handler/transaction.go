package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
	"github.com/agencyops/backend/internal/interfaces/http/router"
)

// TransactionHandler serves partner referrals and their deletion consensus
type TransactionHandler struct {
	BaseHandler
	service *settlementapp.Service
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service *settlementapp.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("transactions", "/transactions")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/balance-preview", h.PreviewBalance)
	g.POST("/legacy-notes/migrate", h.MigrateLegacyNotes)
	g.GET("/:id", h.Get)
	g.PUT("/:id/terms", h.ChangeTerms)

	deletion := g.Group("deletion", "/:id/deletion-request")
	deletion.POST("", h.RequestDeletion)
	deletion.DELETE("", h.CancelDeletion)
	deletion.POST("/approve", h.ApproveDeletion)
	deletion.POST("/reject", h.RejectDeletion)

	g.RegisterRoutes(rg)
}

func termsOf(req *dto.TermsRequest) referral.SettlementTerms {
	if req == nil {
		return referral.DefaultSettlementTerms()
	}
	return referral.SettlementTerms{
		CollectionType:          valueobject.CollectionType(req.CollectionType),
		AmountCollectedBySender: req.AmountCollectedBySender,
	}
}

// Create godoc
// @Summary      Record a referral sent to a partner
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateTransactionRequest true "Referral"
// @Success      201 {object} dto.Response{data=settlementapp.TransactionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	date, err := dto.ParseDate(req.TransactionDate)
	if err != nil {
		h.InvalidDate(c, "transaction_date")
		return
	}

	cmd := settlementapp.CreateTransactionCommand{
		ActorTenantID:    tenantID,
		ReceiverTenantID: uuid.MustParse(req.ReceiverTenantID),
		ActivityID:       uuid.MustParse(req.ActivityID),
		GuestCount:       req.GuestCount,
		UnitPrice:        req.UnitPrice,
		TotalOverride:    req.TotalOverride,
		Currency:         valueobject.Currency(req.Currency),
		TransactionDate:  date,
		Terms:            termsOf(req.Terms),
		Status:           referral.TransactionStatus(req.Status),
		Notes:            req.Notes,
	}
	if req.ReservationID != nil {
		cmd.ReservationID = optionalID(*req.ReservationID)
	}

	view, err := h.service.CreateTransaction(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Get godoc
// @Summary      Get a referral the caller is party to
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} dto.Response{data=settlementapp.TransactionView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// List godoc
// @Summary      List referrals sent or received by the caller
// @Tags         transactions
// @Produce      json
// @Param        counterpart_tenant_id query string false "Partner tenant"
// @Param        from query string false "First day, YYYY-MM-DD"
// @Param        to query string false "Last day, YYYY-MM-DD"
// @Param        deletion_pending query bool false "Only records awaiting a deletion decision"
// @Success      200 {object} dto.Response{data=[]settlementapp.TransactionView}
// @Security     BearerAuth
// @Router       /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q dto.TransactionListQuery
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

	views, err := h.service.ListTransactions(c.Request.Context(), settlementapp.TransactionQuery{
		ViewingTenantID:     tenantID,
		CounterpartTenantID: optionalID(q.CounterpartTenantID),
		Range:               r,
		DeletionPending:     q.DeletionPending,
		Page:                page,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, int64(len(views)), page.Page, page.PageSize)
}

// ChangeTerms godoc
// @Summary      Change who collected the customer's money
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Param        request body dto.ChangeTermsRequest true "New terms"
// @Success      200 {object} dto.Response{data=settlementapp.TransactionView}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/{id}/terms [put]
func (h *TransactionHandler) ChangeTerms(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	view, err := h.service.ChangeCollectionTerms(c.Request.Context(), settlementapp.ChangeTermsCommand{
		ActorTenantID: tenantID,
		TransactionID: id,
		Terms:         termsOf(&req.TermsRequest),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// balancePreviewRequest asks what the sender would owe under terms
type balancePreviewRequest struct {
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Terms       dto.TermsRequest `json:"terms"`
}

// PreviewBalance godoc
// @Summary      Compute the balance owed for terms without storing anything
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/balance-preview [post]
func (h *TransactionHandler) PreviewBalance(c *gin.Context) {
	if _, ok := h.tenant(c); !ok {
		return
	}
	var req balancePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	balance, err := h.service.ComputeBalance(termsOf(&req.Terms), req.TotalAmount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"balance_owed":           balance,
		"amount_due_to_receiver": req.TotalAmount.Sub(balance),
	})
}

// MigrateLegacyNotes godoc
// @Summary      Move payment details embedded in notes into typed terms
// @Tags         transactions
// @Produce      json
// @Success      200 {object} dto.Response{data=settlementapp.LegacyMigrationReport}
// @Security     BearerAuth
// @Router       /transactions/legacy-notes/migrate [post]
func (h *TransactionHandler) MigrateLegacyNotes(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	report, err := h.service.MigrateLegacyNotes(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RequestDeletion godoc
// @Summary      Ask the partner to agree to deleting a referral
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} dto.Response{data=settlementapp.DeletionOutcome}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/{id}/deletion-request [post]
func (h *TransactionHandler) RequestDeletion(c *gin.Context) {
	h.deletion(c, h.service.RequestDeletion)
}

// CancelDeletion godoc
// @Summary      Withdraw the caller's own deletion request
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} dto.Response{data=settlementapp.DeletionOutcome}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/{id}/deletion-request [delete]
func (h *TransactionHandler) CancelDeletion(c *gin.Context) {
	h.deletion(c, h.service.CancelDeletion)
}

// ApproveDeletion godoc
// @Summary      Agree to the partner's deletion request; the referral is removed
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} dto.Response{data=settlementapp.DeletionOutcome}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /transactions/{id}/deletion-request/approve [post]
func (h *TransactionHandler) ApproveDeletion(c *gin.Context) {
	h.deletion(c, h.service.ApproveDeletion)
}

// RejectDeletion godoc
// @Summary      Refuse the partner's deletion request
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Param        request body dto.RejectRequest false "Reason"
// @Success      200 {object} dto.Response{data=settlementapp.DeletionOutcome}
// @Security     BearerAuth
// @Router       /transactions/{id}/deletion-request/reject [post]
func (h *TransactionHandler) RejectDeletion(c *gin.Context) {
	var req dto.RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	h.deletion(c, func(ctx context.Context, actor, id uuid.UUID) (*settlementapp.DeletionOutcome, error) {
		return h.service.RejectDeletion(ctx, actor, id, req.Reason)
	})
}

type deletionTransition func(ctx context.Context, actor, id uuid.UUID) (*settlementapp.DeletionOutcome, error)

func (h *TransactionHandler) deletion(c *gin.Context, transition deletionTransition) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	outcome, err := transition(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}
