// Package handler exposes the settlement application service over HTTP.
// Every route acts on behalf of the tenant named by the access token.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/interfaces/http/dto"
	"github.com/agencyops/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is the request id header
const RequestIDKey = logger.RequestIDHeader

var errNoTenant = errors.New("tenant not found in context")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the id the logging middleware assigned, falling back
// to the caller's header
func getRequestID(c *gin.Context) string {
	if id := c.Writer.Header().Get(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// getTenantID returns the authenticated tenant
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	id := middleware.GetJWTTenantID(c)
	if id == uuid.Nil {
		return uuid.Nil, errNoTenant
	}
	return id, nil
}

// tenant resolves the acting tenant or writes a 401 and reports false
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	id, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a uuid path parameter or writes a 400 and reports false
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 for a body or query that failed to bind
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// InvalidDate sends a 400 naming the date field that did not parse
func (h *BaseHandler) InvalidDate(c *gin.Context, field string) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", getRequestID(c),
		[]dto.ValidationDetail{{Field: field, Message: "Must be a date formatted as YYYY-MM-DD"}}))
}

// HandleError converts domain errors to their mapped status and anything
// else to a logged 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, status := dto.FromDomainCode(domainErr.Code)
		h.Error(c, status, code, domainErr.Message)
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// pageOf turns a list request into a domain filter with defaults applied
func pageOf(req dto.ListRequest) shared.Filter {
	f := shared.DefaultFilter()
	if req.Page > 0 {
		f.Page = req.Page
	}
	if req.PageSize > 0 {
		f.PageSize = req.PageSize
	}
	return f
}

// dateRange parses optional from/to query values
func dateRange(from, to string) (shared.DateRange, string, error) {
	f, err := dto.ParseDate(from)
	if err != nil {
		return shared.DateRange{}, "from", err
	}
	t, err := dto.ParseDate(to)
	if err != nil {
		return shared.DateRange{}, "to", err
	}
	return shared.DateRange{From: f, To: t}, "", nil
}

// optionalID parses an optional uuid query value that already passed binding
func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// dateOr parses a DateLayout value, falling back to today in UTC when empty
func dateOr(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return dto.ParseDate(s)
}
