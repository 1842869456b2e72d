package logger

import (
	"context"
	"sync/atomic"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// gatewayCounterKey is the context key for tracking gateway attempts per logical operation
	gatewayCounterKey contextKey = "gateway_attempt_counter"
	// gatewayWaitKey is the context key for tracking total rate-limit wait per logical operation
	gatewayWaitKey contextKey = "gateway_wait_nanos"
)

// WithGatewayCounter creates a new context with a gateway attempt counter and wait time tracker
func WithGatewayCounter(ctx context.Context) context.Context {
	counter := int64(0)
	waited := int64(0)
	ctx = context.WithValue(ctx, gatewayCounterKey, &counter)
	ctx = context.WithValue(ctx, gatewayWaitKey, &waited)
	return ctx
}

// IncrementGatewayCounter increments the gateway attempt counter in the context
func IncrementGatewayCounter(ctx context.Context) {
	if counter, ok := ctx.Value(gatewayCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetGatewayCounter returns the current gateway attempt count from the context
func GetGatewayCounter(ctx context.Context) int64 {
	if counter, ok := ctx.Value(gatewayCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddGatewayWait adds rate-limit wait nanoseconds to the context
func AddGatewayWait(ctx context.Context, nanos int64) {
	if waited, ok := ctx.Value(gatewayWaitKey).(*int64); ok && waited != nil {
		atomic.AddInt64(waited, nanos)
	}
}

// GetGatewayWait returns the accumulated rate-limit wait in nanoseconds from the context
func GetGatewayWait(ctx context.Context) int64 {
	if waited, ok := ctx.Value(gatewayWaitKey).(*int64); ok && waited != nil {
		return atomic.LoadInt64(waited)
	}
	return 0
}
