// Package tracking records OpenTelemetry metrics for gateway client calls.
package tracking

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for gateway client instrumentation
	meterName = "tokencheck/gateway-client"

	metricAttempts      = "gateway.client.attempts"
	metricRateLimited   = "gateway.client.rate_limited"
	metricRateLimitWait = "gateway.client.rate_limit.wait"
	metricCallDuration  = "gateway.client.call.duration"

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrOutcome            = "outcome"
)

// Metrics holds the gateway client instruments. A nil instrument is skipped.
type Metrics struct {
	attempts      metric.Int64Counter
	rateLimited   metric.Int64Counter
	rateLimitWait metric.Float64Histogram
	callDuration  metric.Float64Histogram
}

// logMetricError logs a metric initialization error to stderr.
// Metrics failures never break a call.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize gateway metric %s: %v\n", metricName, err)
	}
}

// New creates the instruments from mp.
func New(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(meterName)
	m := &Metrics{}

	var err error
	m.attempts, err = meter.Int64Counter(metricAttempts,
		metric.WithDescription("HTTP requests sent to the gateway, retries included"),
		metric.WithUnit("{request}"))
	logMetricError(metricAttempts, err)

	m.rateLimited, err = meter.Int64Counter(metricRateLimited,
		metric.WithDescription("Gateway responses with status 429"),
		metric.WithUnit("{response}"))
	logMetricError(metricRateLimited, err)

	m.rateLimitWait, err = meter.Float64Histogram(metricRateLimitWait,
		metric.WithDescription("Wait imposed by gateway 429 responses"),
		metric.WithUnit("s"))
	logMetricError(metricRateLimitWait, err)

	m.callDuration, err = meter.Float64Histogram(metricCallDuration,
		metric.WithDescription("Duration of logical gateway calls including rate-limit waits"),
		metric.WithUnit("s"))
	logMetricError(metricCallDuration, err)

	return m
}

// RecordAttempt counts one HTTP request. status is 0 when no response arrived.
func (m *Metrics) RecordAttempt(ctx context.Context, method string, status int) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.Int(attrHTTPResponseStatus, status),
	))
}

// RecordRateLimited counts one 429 and the wait it imposed.
func (m *Metrics) RecordRateLimited(ctx context.Context, method string, wait time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrHTTPRequestMethod, method))
	if m.rateLimited != nil {
		m.rateLimited.Add(ctx, 1, attrs)
	}
	if m.rateLimitWait != nil {
		m.rateLimitWait.Record(ctx, wait.Seconds(), attrs)
	}
}

// RecordCall records the duration and outcome of a logical call.
func (m *Metrics) RecordCall(ctx context.Context, method, outcome string, d time.Duration) {
	if m == nil || m.callDuration == nil {
		return
	}
	m.callDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.String(attrOutcome, outcome),
	))
}
