package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obtest "github.com/gatewaycheck/tokencheck/observability/testing"
)

func newTelemetryBuilder(t *testing.T, baseURL string) (*Builder, *obtest.TestTraceProvider, *obtest.TestMeterProvider) {
	t.Helper()

	tp := obtest.NewTestTraceProvider()
	mp := obtest.NewTestMeterProvider()
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	b := NewBuilder(createTestLogger()).
		WithBaseURL(baseURL).
		WithTracerProvider(tp).
		WithMeterProvider(mp)
	return b, tp, mp
}

func TestSpanRecordsRateLimitEvents(t *testing.T) {
	gw := &scriptedGateway{script: []scriptedResponse{rateLimited(1), rateLimited(2), okResponse(`{}`)}}
	server := newIPv4TestServer(t, gw)

	b, tp, mp := newTelemetryBuilder(t, server.URL)
	c, _ := newRecordingClient(t, b)
	require.True(t, c.Check(context.Background(), &Request{URI: testUserURI, Token: testToken}))

	span := obtest.NewSpanCollector(t, tp.Exporter).AssertCount(1).WithName("gateway.request").First()
	obtest.AssertSpanAttribute(t, &span, "http.request.method", "GET")
	obtest.AssertSpanAttribute(t, &span, "url.path", testUserURI)
	obtest.AssertSpanAttribute(t, &span, "http.response.status_code", 200)
	obtest.AssertSpanAttribute(t, &span, "gateway.attempts", 3)
	assert.Equal(t, 2, obtest.EventCount(&span, "rate_limited"))

	rm := mp.Collect(t)
	assert.Equal(t, int64(3), obtest.SumInt64(t, rm, "gateway.client.attempts"))
	assert.Equal(t, int64(2), obtest.SumInt64(t, rm, "gateway.client.rate_limited"))
	assert.Equal(t, uint64(2), obtest.HistogramCount(t, rm, "gateway.client.rate_limit.wait"))
	assert.Equal(t, uint64(1), obtest.HistogramCount(t, rm, "gateway.client.call.duration"))
}

func TestSpanMarksFailure(t *testing.T) {
	gw := &scriptedGateway{script: []scriptedResponse{{status: 403, body: `{"message":"Missing Access"}`}}}
	server := newIPv4TestServer(t, gw)

	b, tp, mp := newTelemetryBuilder(t, server.URL)
	assert.Nil(t, b.Build().Execute(context.Background(), &Request{URI: testUserURI}))

	span := obtest.NewSpanCollector(t, tp.Exporter).AssertCount(1).First()
	obtest.AssertSpanError(t, &span)
	assert.Zero(t, obtest.EventCount(&span, "rate_limited"))

	rm := mp.Collect(t)
	assert.Equal(t, int64(1), obtest.SumInt64(t, rm, "gateway.client.attempts"))
	assert.Zero(t, obtest.SumInt64(t, rm, "gateway.client.rate_limited"))
}
