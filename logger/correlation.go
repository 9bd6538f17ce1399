package logger

import (
	"context"

	"github.com/google/uuid"
)

// correlationKey is an unexported type for context keys to avoid collisions.
type correlationKey struct{}

// NewCorrelationID generates a fresh correlation ID.
func NewCorrelationID() string {
	return uuid.NewString()
}

// ContextWithCorrelationID stores a correlation ID in the context,
// generating one when id is empty.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewCorrelationID()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom retrieves the correlation ID from context, or "".
func CorrelationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}
