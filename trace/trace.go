// Package trace carries request identifiers through a context so outbound
// gateway calls made on behalf of one check can be correlated in logs.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// traceIDKey is the context key for trace ID values
	traceIDKey contextKey = "trace_id"
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns a trace ID from context if present
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return uuid.NewString()
}

// Ensure returns ctx carrying a trace ID, generating one when absent.
func Ensure(ctx context.Context) (context.Context, string) {
	if traceID, ok := IDFromContext(ctx); ok {
		return ctx, traceID
	}
	traceID := uuid.NewString()
	return WithTraceID(ctx, traceID), traceID
}
