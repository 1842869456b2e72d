package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		assert.Equal(t, meterName, sm.Scope.Name)
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m := New(mp)
	ctx := context.Background()
	m.RecordAttempt(ctx, "GET", 429)
	m.RecordAttempt(ctx, "GET", 200)
	m.RecordRateLimited(ctx, "GET", 1500*time.Millisecond)
	m.RecordCall(ctx, "GET", "success", 2*time.Second)

	metrics := collect(t, reader)

	attempts, ok := metrics[metricAttempts].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, attempts.DataPoints, 2)
	for _, dp := range attempts.DataPoints {
		assert.Equal(t, int64(1), dp.Value)
		method, _ := dp.Attributes.Value(attribute.Key(attrHTTPRequestMethod))
		assert.Equal(t, "GET", method.AsString())
	}

	limited, ok := metrics[metricRateLimited].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, limited.DataPoints, 1)
	assert.Equal(t, int64(1), limited.DataPoints[0].Value)

	wait, ok := metrics[metricRateLimitWait].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, wait.DataPoints, 1)
	assert.InDelta(t, 1.5, wait.DataPoints[0].Sum, 1e-9)

	calls, ok := metrics[metricCallDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, calls.DataPoints, 1)
	outcome, _ := calls.DataPoints[0].Attributes.Value(attribute.Key(attrOutcome))
	assert.Equal(t, "success", outcome.AsString())
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordAttempt(ctx, "GET", 200)
		m.RecordRateLimited(ctx, "GET", time.Second)
		m.RecordCall(ctx, "GET", "http", time.Second)
	})

	assert.NotPanics(t, func() {
		New(noop.NewMeterProvider()).RecordCall(ctx, "GET", "success", time.Millisecond)
	})
}
