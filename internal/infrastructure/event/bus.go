// Package event delivers settlement domain events to in-process handlers
// after the owning record has been saved.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// InMemoryEventBus dispatches events synchronously on the publishing
// goroutine. A failing or panicking handler is logged and never fails the
// publisher: the state change it reports is already committed.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
}

// NewInMemoryEventBus creates a bus with no handlers.
func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   log.Named("event_bus"),
	}
}

// Publish hands each event to its handlers in registration order.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		handlers := b.registry.Handlers(e.EventType())
		if len(handlers) == 0 {
			continue
		}
		ctx, span := telemetry.StartSpan(ctx, "event.publish",
			attribute.String("event.type", e.EventType()),
			attribute.String("event.aggregate_id", e.AggregateID().String()),
		)
		for _, h := range handlers {
			if err := b.dispatch(ctx, h, e); err != nil {
				span.RecordError(err)
				b.loggerFor(ctx).Error("handler failed to process event",
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()),
					zap.Error(err),
				)
			}
		}
		span.End()
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for the types it declares
// when none are given. A handler declaring no types receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}

func (b *InMemoryEventBus) loggerFor(ctx context.Context) *zap.Logger {
	if logger.RequestID(ctx) != "" {
		return logger.L(ctx).Named("event_bus")
	}
	return b.logger
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
