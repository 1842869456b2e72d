package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatewaycheck/tokencheck/http/internal/tracking"
	"github.com/gatewaycheck/tokencheck/logger"
)

const (
	// DefaultTimeout leaves attempts bounded only by the transport
	DefaultTimeout = 0

	// DefaultMaxRateLimitRetries retries 429 responses without limit
	DefaultMaxRateLimitRetries = 0

	// DefaultMaxPayloadLogBytes caps body bytes written to debug logs
	DefaultMaxPayloadLogBytes = 1024

	tracerName = "tokencheck/gateway-client"

	outcomeSuccess = "success"
)

var allowedMethods = map[string]struct{}{
	nethttp.MethodGet:    {},
	nethttp.MethodPost:   {},
	nethttp.MethodPut:    {},
	nethttp.MethodDelete: {},
}

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	tracer               trace.Tracer
	metrics              *tracking.Metrics
	sleep                func(ctx context.Context, d time.Duration) error
	callCount            int64
}

// NewClient creates a client for baseURL with default configuration
func NewClient(log logger.Logger, baseURL string) Client {
	return NewBuilder(log).WithBaseURL(baseURL).Build()
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config         *Config
	logger         logger.Logger
	httpClient     *nethttp.Client
	transport      nethttp.RoundTripper
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			MaxRateLimitRetries:  DefaultMaxRateLimitRetries,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
		},
		logger: log,
	}
}

// WithBaseURL sets the endpoint every Request.URI is appended to
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = strings.TrimRight(baseURL, "/")
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithMaxRateLimitRetries caps consecutive 429 retries of one call; 0 keeps retrying
func (b *Builder) WithMaxRateLimitRetries(maxRetries int) *Builder {
	if maxRetries >= 0 {
		b.config.MaxRateLimitRetries = maxRetries
	}
	return b
}

// WithHTTPClient uses a custom *http.Client. A zero Timeout inherits the builder timeout.
func (b *Builder) WithHTTPClient(hc *nethttp.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithTransport sets the RoundTripper of the underlying http.Client
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithTraceIDHeader sends a trace ID under header on every attempt. Empty disables it.
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.RequestInterceptors = append(b.config.RequestInterceptors, NewTraceIDInterceptor(header))
	}
	return b
}

// WithMaxPayloadLogBytes caps the body bytes written to debug logs
func (b *Builder) WithMaxPayloadLogBytes(n int) *Builder {
	b.config.MaxPayloadLogBytes = n
	return b
}

// WithTracerProvider sets the tracer provider (default: the global one)
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMeterProvider sets the meter provider (default: the global one)
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.meterProvider = mp
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	var hc *nethttp.Client
	if b.httpClient != nil {
		custom := *b.httpClient
		hc = &custom
		if hc.Timeout == 0 {
			hc.Timeout = b.config.Timeout
		}
	} else {
		hc = &nethttp.Client{Timeout: b.config.Timeout}
	}
	if b.transport != nil {
		hc.Transport = b.transport
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := b.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}

	return &client{
		httpClient:           hc,
		logger:               log,
		config:               b.config,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
		tracer:               tp.Tracer(tracerName),
		metrics:              tracking.New(mp),
		sleep:                waitFor,
	}
}

// Execute performs req and returns the decoded JSON payload, or nil on any failure
func (c *client) Execute(ctx context.Context, req *Request) any {
	resp, err := c.Do(ctx, req)
	if err != nil {
		c.logFailure(req, err)
		return nil
	}

	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		c.logFailure(req, NewDecodeError(err))
		return nil
	}
	return payload
}

// ExecuteInto performs req and decodes the JSON payload into out
func (c *client) ExecuteInto(ctx context.Context, req *Request, out any) bool {
	resp, err := c.Do(ctx, req)
	if err != nil {
		c.logFailure(req, err)
		return false
	}
	if out == nil {
		return true
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		c.logFailure(req, NewDecodeError(err))
		return false
	}
	return true
}

// Check performs req and reports whether it succeeded
func (c *client) Check(ctx context.Context, req *Request) bool {
	if _, err := c.Do(ctx, req); err != nil {
		c.logFailure(req, err)
		return false
	}
	return true
}

// Do performs req, waiting out and re-sending on every 429 response
func (c *client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	method := normalizeMethod(req.Method)
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	ctx, span := c.tracer.Start(ctx, "gateway.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.URI),
		))
	defer span.End()

	resp, err := c.do(ctx, method, req, body, start, callCount)

	outcome := outcomeSuccess
	if err != nil {
		outcome = errorOutcome(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("http.response.status_code", resp.StatusCode),
			attribute.Int("gateway.attempts", resp.Stats.Attempts),
		)
	}
	c.metrics.RecordCall(ctx, method, outcome, time.Since(start))

	return resp, err
}

func (c *client) do(ctx context.Context, method string, req *Request, body []byte, start time.Time, callCount int64) (*Response, error) {
	span := trace.SpanFromContext(ctx)
	url := c.config.BaseURL + req.URI
	wait := req.Delay
	var rateLimitWaited time.Duration

	for attempt := 1; ; attempt++ {
		if wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return nil, NewNetworkError("wait before request interrupted", err)
			}
		}

		httpReq, err := c.buildRequest(ctx, method, url, req.Token, body)
		if err != nil {
			return nil, err
		}

		c.logRequest(method, req.URI, attempt, req.Token != "", body)
		logger.IncrementGatewayCounter(ctx)

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.metrics.RecordAttempt(ctx, method, 0)
			if c.isTimeout(err) {
				return nil, NewTimeoutError("request timeout", c.config.Timeout, err)
			}
			return nil, NewNetworkError("request execution failed", err)
		}
		c.metrics.RecordAttempt(ctx, method, httpResp.StatusCode)

		resp, err := c.buildResponse(ctx, httpReq, httpResp)
		if err != nil {
			return nil, err
		}
		resp.Stats = Stats{
			ElapsedTime:   time.Since(start),
			Attempts:      attempt,
			RateLimitWait: rateLimitWaited,
			CallCount:     callCount,
		}

		if IsSuccessStatus(resp.StatusCode) {
			c.logResponse(resp)
			return resp, nil
		}

		if resp.StatusCode == nethttp.StatusTooManyRequests {
			delay, signal := rateLimitWait(resp.Body, resp.Headers)

			c.metrics.RecordRateLimited(ctx, method, delay)
			logger.AddGatewayWait(ctx, int64(delay))
			span.AddEvent("rate_limited", trace.WithAttributes(
				attribute.Int("gateway.attempt", attempt),
				attribute.Float64("gateway.retry_after", delay.Seconds()),
				attribute.Bool("gateway.global", signal.Global),
			))
			c.logger.Warn().
				Str("method", method).
				Str("uri", req.URI).
				Int("attempt", attempt).
				Dur("retry_after", delay).
				Bool("global", signal.Global).
				Msg("gateway rate limited request")

			if maxRetries := c.config.MaxRateLimitRetries; maxRetries > 0 && attempt > maxRetries {
				return nil, NewRateLimitError(attempt, delay)
			}

			wait = delay
			rateLimitWaited += delay
			continue
		}

		c.logResponse(resp)
		return nil, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if _, ok := allowedMethods[normalizeMethod(req.Method)]; !ok {
		return NewValidationError(fmt.Sprintf("unsupported method %q", req.Method), "method")
	}
	if req.Delay < 0 {
		return NewValidationError("delay cannot be negative", "delay")
	}
	if c.config.BaseURL == "" && req.URI == "" {
		return NewValidationError("URL cannot be empty", "uri")
	}
	return nil
}

func normalizeMethod(method string) string {
	if method == "" {
		return nethttp.MethodGet
	}
	return strings.ToUpper(method)
}

// encodeBody marshals the request body once so every attempt sends identical bytes
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("body is not JSON encodable: %v", err), "body")
	}
	return data, nil
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method, url, token string, body []byte) (*nethttp.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "uri")
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", token)
	}

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads the body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// waitFor blocks for d or until ctx is done
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorOutcome(err error) string {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return "error"
}

// logRequest logs the outgoing attempt. The token itself is never logged.
func (c *client) logRequest(method, uri string, attempt int, hasToken bool, body []byte) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", method).
		Str("uri", uri).
		Int("attempt", attempt).
		Bool("authenticated", hasToken)

	if len(body) > 0 {
		logEvent = logEvent.Bytes("body", c.truncate(body))
	}

	logEvent.Msg("gateway request")
}

// logResponse logs the final response of a call
func (c *client) logResponse(resp *Response) {
	logEvent := c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Int("attempts", resp.Stats.Attempts).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount)

	if len(resp.Body) > 0 {
		logEvent = logEvent.Bytes("body", c.truncate(resp.Body))
	}

	logEvent.Msg("gateway response")
}

// logFailure records why a call collapsed to a nil/false result
func (c *client) logFailure(req *Request, err error) {
	uri := ""
	method := ""
	if req != nil {
		uri = req.URI
		method = normalizeMethod(req.Method)
	}
	c.logger.Warn().
		Err(err).
		Str("error_type", errorOutcome(err)).
		Str("method", method).
		Str("uri", uri).
		Msg("gateway call failed")
}

func (c *client) truncate(body []byte) []byte {
	if limit := c.config.MaxPayloadLogBytes; limit > 0 && len(body) > limit {
		return body[:limit]
	}
	return body
}
