package http

import (
	"context"
	nethttp "net/http"
	"time"
)

// Client defines the gateway client contract.
type Client interface {
	// Do performs req and returns the successful response or a ClientError.
	Do(ctx context.Context, req *Request) (*Response, error)
	// Execute performs req and returns the decoded JSON payload, or nil on any failure.
	Execute(ctx context.Context, req *Request) any
	// ExecuteInto performs req and decodes the JSON payload into out, reporting success.
	ExecuteInto(ctx context.Context, req *Request, out any) bool
	// Check performs req and reports whether it succeeded, ignoring the body.
	Check(ctx context.Context, req *Request) bool
}

// Request describes one logical call. It is never modified by the client;
// retries reuse it with a different wait.
type Request struct {
	// URI is appended to the client's base URL, e.g. "/users/@me".
	URI string
	// Method is one of GET, POST, PUT or DELETE. Empty means GET.
	Method string
	// Body is JSON-encoded and sent when non-nil.
	Body any
	// Token is sent verbatim in the Authorization header when non-empty.
	Token string
	// Delay is waited before the first attempt.
	Delay time.Duration
}

// Response represents a successful HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	// ElapsedTime spans the whole call, rate-limit waits included.
	ElapsedTime time.Duration
	// Attempts is the number of HTTP requests sent for this call.
	Attempts int
	// RateLimitWait is the total time spent waiting out 429 responses.
	RateLimitWait time.Duration
	// CallCount is the client-wide sequence number of this call.
	CallCount int64
}

// RequestInterceptor is called before sending each attempt
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving each attempt's response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the client configuration
type Config struct {
	// BaseURL is prepended to every Request.URI.
	BaseURL string
	// Timeout bounds a single attempt. Zero means no timeout.
	Timeout time.Duration
	// MaxRateLimitRetries caps consecutive 429 retries. Zero means unbounded.
	MaxRateLimitRetries  int
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	// MaxPayloadLogBytes caps the number of body bytes logged at debug level
	MaxPayloadLogBytes int
}
