package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
	"github.com/agencyops/backend/internal/interfaces/http/router"
)

// DispatchHandler serves supplier dispatches, agency payouts and agency rates
type DispatchHandler struct {
	BaseHandler
	service *settlementapp.Service
	now     func() time.Time
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(service *settlementapp.Service) *DispatchHandler {
	return &DispatchHandler{service: service, now: time.Now}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *DispatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	dispatches := router.NewDomainGroup("dispatches", "/dispatches")
	dispatches.POST("", h.CreateDispatch)
	dispatches.GET("", h.ListDispatches)
	dispatches.GET("/:id", h.GetDispatch)
	dispatches.RegisterRoutes(rg)

	payouts := router.NewDomainGroup("payouts", "/payouts")
	payouts.POST("", h.CreatePayout)
	payouts.GET("/:id", h.GetPayout)
	payouts.RegisterRoutes(rg)

	agencies := router.NewDomainGroup("agencies", "/agencies/:agency_id")
	agencies.POST("/rates", h.CreateRate)
	agencies.GET("/rates", h.ListRates)
	agencies.GET("/rates/resolve", h.ResolveRate)
	agencies.GET("/summary", h.Summary)
	agencies.RegisterRoutes(rg)
}

// CreateDispatch godoc
// @Summary      Record a customer sent to a supplier agency
// @Tags         dispatches
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateDispatchRequest true "Dispatch"
// @Success      201 {object} dto.Response{data=settlementapp.DispatchView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dispatches [post]
func (h *DispatchHandler) CreateDispatch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.CreateDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	date, err := dto.ParseDate(req.DispatchDate)
	if err != nil {
		h.InvalidDate(c, "dispatch_date")
		return
	}

	items := make([]dispatch.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, dispatch.ItemInput{
			ItemType:   dispatch.ItemType(it.ItemType),
			Quantity:   it.Quantity,
			UnitAmount: it.UnitAmount,
			Currency:   valueobject.Currency(it.Currency),
			Label:      it.Label,
		})
	}

	view, err := h.service.CreateDispatch(c.Request.Context(), settlementapp.CreateDispatchCommand{
		ActorTenantID:           tenantID,
		AgencyID:                uuid.MustParse(req.AgencyID),
		ActivityID:              uuid.MustParse(req.ActivityID),
		GuestCount:              req.GuestCount,
		UnitPayout:              req.UnitPayout,
		Currency:                valueobject.Currency(req.Currency),
		SalePrice:               req.SalePrice,
		AdvancePayment:          req.AdvancePayment,
		CollectionType:          valueobject.CollectionType(req.CollectionType),
		AmountCollectedBySender: req.AmountCollectedBySender,
		DispatchDate:            date,
		Items:                   items,
		Notes:                   req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// GetDispatch godoc
// @Summary      Get a dispatch with its settlement breakdown
// @Tags         dispatches
// @Produce      json
// @Param        id path string true "Dispatch ID"
// @Success      200 {object} dto.Response{data=settlementapp.DispatchView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dispatches/{id} [get]
func (h *DispatchHandler) GetDispatch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetDispatch(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ListDispatches godoc
// @Summary      List the caller's dispatches
// @Tags         dispatches
// @Produce      json
// @Param        agency_id query string false "Supplier agency"
// @Param        from query string false "First day, YYYY-MM-DD"
// @Param        to query string false "Last day, YYYY-MM-DD"
// @Param        unsettled_only query bool false "Only dispatches no payout covers yet"
// @Success      200 {object} dto.Response{data=[]settlementapp.DispatchView}
// @Security     BearerAuth
// @Router       /dispatches [get]
func (h *DispatchHandler) ListDispatches(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q dto.DispatchListQuery
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

	views, err := h.service.ListDispatches(c.Request.Context(), settlementapp.DispatchQuery{
		ActorTenantID: tenantID,
		AgencyID:      optionalID(q.AgencyID),
		Range:         r,
		UnsettledOnly: q.UnsettledOnly,
		Page:          page,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, int64(len(views)), page.Page, page.PageSize)
}

// CreatePayout godoc
// @Summary      Pay an agency for selected unsettled dispatches
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Param        request body dto.CreatePayoutRequest true "Payout"
// @Success      201 {object} dto.Response{data=settlementapp.PayoutView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payouts [post]
func (h *DispatchHandler) CreatePayout(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	paidAt, err := dateOr(req.PaidAt, h.now())
	if err != nil {
		h.InvalidDate(c, "paid_at")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.DispatchIDs))
	for _, s := range req.DispatchIDs {
		ids = append(ids, uuid.MustParse(s))
	}

	payout, err := h.service.CreatePayout(c.Request.Context(), settlementapp.CreatePayoutCommand{
		ActorTenantID: tenantID,
		AgencyID:      uuid.MustParse(req.AgencyID),
		DispatchIDs:   ids,
		Amount:        req.Amount,
		Currency:      valueobject.Currency(req.Currency),
		PaidAt:        paidAt,
		Method:        req.Method,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, settlementapp.NewPayoutView(payout))
}

// GetPayout godoc
// @Summary      Get a payout and the dispatches it settled
// @Tags         payouts
// @Produce      json
// @Param        id path string true "Payout ID"
// @Success      200 {object} dto.Response{data=settlementapp.PayoutView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payouts/{id} [get]
func (h *DispatchHandler) GetPayout(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payout, err := h.service.GetPayout(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlementapp.NewPayoutView(payout))
}

// CreateRate godoc
// @Summary      Add a dated unit payout for an agency
// @Tags         agencies
// @Accept       json
// @Produce      json
// @Param        agency_id path string true "Supplier agency"
// @Param        request body dto.CreateRateRequest true "Rate"
// @Success      201 {object} dto.Response{data=settlementapp.RateView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agencies/{agency_id}/rates [post]
func (h *DispatchHandler) CreateRate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	agencyID, ok := h.pathID(c, "agency_id")
	if !ok {
		return
	}
	var req dto.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	validFrom, err := dto.ParseDate(req.ValidFrom)
	if err != nil {
		h.InvalidDate(c, "valid_from")
		return
	}
	cmd := settlementapp.CreateRateCommand{
		ActorTenantID: tenantID,
		AgencyID:      agencyID,
		UnitPayout:    req.UnitPayout,
		Currency:      valueobject.Currency(req.Currency),
		ValidFrom:     validFrom,
	}
	if req.ActivityID != nil {
		cmd.ActivityID = optionalID(*req.ActivityID)
	}
	if req.ValidTo != nil && *req.ValidTo != "" {
		validTo, err := dto.ParseDate(*req.ValidTo)
		if err != nil {
			h.InvalidDate(c, "valid_to")
			return
		}
		cmd.ValidTo = &validTo
	}

	view, err := h.service.CreateRate(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// ListRates godoc
// @Summary      List an agency's rates
// @Tags         agencies
// @Produce      json
// @Param        agency_id path string true "Supplier agency"
// @Success      200 {object} dto.Response{data=[]settlementapp.RateView}
// @Security     BearerAuth
// @Router       /agencies/{agency_id}/rates [get]
func (h *DispatchHandler) ListRates(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	agencyID, ok := h.pathID(c, "agency_id")
	if !ok {
		return
	}
	views, err := h.service.ListRates(c.Request.Context(), tenantID, agencyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// ResolveRate godoc
// @Summary      The rate that applies to an activity on a date
// @Tags         agencies
// @Produce      json
// @Param        agency_id path string true "Supplier agency"
// @Param        activity_id query string true "Activity"
// @Param        date query string false "Day, YYYY-MM-DD; today when omitted"
// @Success      200 {object} dto.Response{data=settlementapp.RateView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agencies/{agency_id}/rates/resolve [get]
func (h *DispatchHandler) ResolveRate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	agencyID, ok := h.pathID(c, "agency_id")
	if !ok {
		return
	}
	var q dto.ResolveRateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	date, err := dateOr(q.Date, h.now())
	if err != nil {
		h.InvalidDate(c, "date")
		return
	}
	view, err := h.service.ResolveRate(c.Request.Context(), tenantID, agencyID, uuid.MustParse(q.ActivityID), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Summary godoc
// @Summary      Dispatched, settled and outstanding payouts per currency
// @Tags         agencies
// @Produce      json
// @Param        agency_id path string true "Supplier agency"
// @Success      200 {object} dto.Response{data=dispatch.AgencySummary}
// @Security     BearerAuth
// @Router       /agencies/{agency_id}/summary [get]
func (h *DispatchHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	agencyID, ok := h.pathID(c, "agency_id")
	if !ok {
		return
	}
	summary, err := h.service.SummarizeSupplier(c.Request.Context(), tenantID, agencyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
