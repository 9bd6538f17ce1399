package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/guardkit/logger"
)

// CallContext holds observability context for one guarded call: the span
// attributes, the correlation ID, and the instruments to record into.
type CallContext struct {
	ServiceName   string
	GuardName     string
	CorrelationID string
	StartTime     time.Time
	Metrics       *GuardMetrics
}

// NewCallContext creates a call context. The correlation ID is taken from
// ctx, generating one when absent. If metrics is nil, metric recording is
// silently skipped.
func NewCallContext(ctx context.Context, serviceName, guardName string, metrics *GuardMetrics) (context.Context, *CallContext) {
	if logger.CorrelationIDFrom(ctx) == "" {
		ctx = logger.ContextWithCorrelationID(ctx, "")
	}
	return ctx, &CallContext{
		ServiceName:   serviceName,
		GuardName:     guardName,
		CorrelationID: logger.CorrelationIDFrom(ctx),
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

// callContextKey is the context key for CallContext.
type callContextKey struct{}

// WithCallContext stores a CallContext in the context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFrom retrieves the CallContext from context, or nil.
func CallContextFrom(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey{}).(*CallContext); ok {
		return cc
	}
	return nil
}

// StartSpanForCall starts a traced span carrying the guard attributes.
func (cc *CallContext) StartSpanForCall(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanGuardedCall)
	span.SetAttributes(
		attribute.String(AttrServiceName, cc.ServiceName),
		attribute.String(AttrGuardName, cc.GuardName),
		attribute.String(AttrCorrelationID, cc.CorrelationID),
	)
	return ctx, span
}

// EndCall ends the span and records the call into the guard instruments.
func (cc *CallContext) EndCall(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(cc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if cc.Metrics != nil {
		cc.Metrics.RecordCall(ctx, cc.GuardName, status, duration)
	}
}

// Duration returns the elapsed time since the call started.
func (cc *CallContext) Duration() time.Duration {
	return time.Since(cc.StartTime)
}
