package http

import (
	"context"
	nethttp "net/http"

	tokentrace "github.com/gatewaycheck/tokencheck/trace"
)

// NewTraceIDInterceptor creates a request interceptor that sends the context's trace ID
// (or a fresh one) under header. An empty header means X-Request-ID.
// All attempts of one call carry the same ID when the caller put one in ctx.
func NewTraceIDInterceptor(header string) RequestInterceptor {
	if header == "" {
		header = tokentrace.HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, tokentrace.EnsureTraceID(ctx))
		}
		return nil
	}
}
