package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	actorTenantKey
)

// WithContext stores l on ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored on ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records the request id and returns a context whose logger
// carries it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithActorTenant records the tenant acting on the request.
func WithActorTenant(ctx context.Context, tenantID string) context.Context {
	ctx = context.WithValue(ctx, actorTenantKey, tenantID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("actor_tenant_id", tenantID)))
}

// RequestID returns the request id stored on ctx.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// ActorTenant returns the acting tenant id stored on ctx.
func ActorTenant(ctx context.Context) string {
	v, _ := ctx.Value(actorTenantKey).(string)
	return v
}

// L returns the context logger with trace_id and span_id attached when ctx
// holds a valid span.
func L(ctx context.Context) *zap.Logger {
	return withTrace(ctx, FromContext(ctx))
}

func withTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
