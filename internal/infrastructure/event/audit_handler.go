package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
)

// AuditLogHandler writes one structured line per settlement event, giving
// both tenants a trail of who changed a shared record.
type AuditLogHandler struct {
	base *zap.Logger
}

// NewAuditLogHandler logs through base when the request context carries no
// logger.
func NewAuditLogHandler(base *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{base: base.Named("audit")}
}

func (h *AuditLogHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	l := h.base
	if logger.RequestID(ctx) != "" {
		l = logger.L(ctx).Named("audit")
	}
	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.String("actor_tenant_id", e.TenantID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
	}
	l.Info("settlement event", fields...)
	return nil
}

// EventTypes is empty: the audit trail covers every event.
func (h *AuditLogHandler) EventTypes() []string { return nil }

var _ shared.EventHandler = (*AuditLogHandler)(nil)
