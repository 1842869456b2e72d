package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/gatewaycheck/tokencheck/logger"
)

// restoreGlobals resets the global providers NewProvider installs
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false, Exporter: "bogus"}, nil)
	require.NoError(t, err)

	_, isNoop := p.(*noopProvider)
	assert.True(t, isNoop)
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "missing service", cfg: Config{Enabled: true}, wantErr: ErrMissingServiceName},
		{name: "bad exporter", cfg: Config{Enabled: true, ServiceName: "svc", Exporter: "zipkin"}, wantErr: ErrInvalidExporter},
		{name: "otlp without endpoint", cfg: Config{Enabled: true, ServiceName: "svc", Exporter: ExporterOTLP}, wantErr: ErrMissingEndpoint},
		{name: "otlp-grpc without endpoint", cfg: Config{Enabled: true, ServiceName: "svc", Exporter: ExporterOTLPGRPC}, wantErr: ErrMissingEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg, logger.Nop())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStdoutProviderExports(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	p, err := NewProvider(Config{
		Enabled:        true,
		ServiceName:    "tokencheck-test",
		ServiceVersion: "v0.0.1",
		Environment:    "development",
		Writer:         &buf,
		MetricInterval: time.Hour,
	}, logger.Nop())
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, p.TracerProvider())
	assert.IsType(t, &sdkmetric.MeterProvider{}, p.MeterProvider())
	assert.Same(t, p.TracerProvider(), otel.GetTracerProvider())

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "gateway.request")
	span.End()

	counter, err := p.MeterProvider().Meter("test").Int64Counter("gateway.client.attempts")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.ForceFlush(context.Background()))
	require.NoError(t, Shutdown(p, time.Second))

	out := buf.String()
	assert.Contains(t, out, "gateway.request")
	assert.Contains(t, out, "gateway.client.attempts")
	assert.Contains(t, out, "tokencheck-test")
}

func TestOTLPProviderCreation(t *testing.T) {
	restoreGlobals(t)

	for _, endpoint := range []string{"127.0.0.1:4318", "http://127.0.0.1:4318"} {
		p, err := NewProvider(Config{
			Enabled:     true,
			ServiceName: "tokencheck-test",
			Exporter:    ExporterOTLP,
			Endpoint:    endpoint,
			Insecure:    true,
		}, logger.Nop())
		require.NoError(t, err, endpoint)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		// nothing listens on the endpoint; only creation is under test
		_ = p.Shutdown(ctx)
		cancel()
	}
}

func TestOTLPGRPCProviderCreation(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(Config{
		Enabled:     true,
		ServiceName: "tokencheck-test",
		Exporter:    ExporterOTLPGRPC,
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
	}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, p.TracerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}

func TestHasScheme(t *testing.T) {
	assert.True(t, hasScheme("https://collector:4318"))
	assert.True(t, hasScheme("http://collector:4318"))
	assert.False(t, hasScheme("collector:4318"))
}
