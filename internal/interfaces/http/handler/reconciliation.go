package handler

import (
	"github.com/gin-gonic/gin"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
	"github.com/agencyops/backend/internal/interfaces/http/router"
)

// ReconciliationHandler serves net positions between partners
type ReconciliationHandler struct {
	BaseHandler
	service *settlementapp.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *settlementapp.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("reconciliation", "/reconciliation")
	g.GET("", h.Reconcile)
	g.GET("/counterparts", h.Counterparts)
	g.RegisterRoutes(rg)
}

// Reconcile godoc
// @Summary      Net position per currency, optionally against one partner
// @Tags         reconciliation
// @Produce      json
// @Param        from query string false "First day, YYYY-MM-DD"
// @Param        to query string false "Last day, YYYY-MM-DD"
// @Param        counterpart_tenant_id query string false "Partner tenant"
// @Param        normalize_to query string false "Also express positions in this currency"
// @Success      200 {object} dto.Response{data=settlement.ReconciliationSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reconciliation [get]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q dto.ReconcileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	r, field, err := dateRange(q.From, q.To)
	if err != nil {
		h.InvalidDate(c, field)
		return
	}

	query := settlementapp.ReconcileQuery{
		ViewingTenantID:     tenantID,
		Range:               r,
		CounterpartTenantID: optionalID(q.CounterpartTenantID),
	}
	if q.NormalizeTo != "" {
		target := valueobject.Currency(q.NormalizeTo)
		query.NormalizeTo = &target
	}

	summary, err := h.service.Reconcile(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Counterparts godoc
// @Summary      Tenants the caller has referrals or payments with
// @Tags         reconciliation
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Security     BearerAuth
// @Router       /reconciliation/counterparts [get]
func (h *ReconciliationHandler) Counterparts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	ids, err := h.service.ListCounterparts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ids)
}
