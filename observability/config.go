package observability

import (
	"fmt"
	"io"
	"time"
)

const (
	// ExporterStdout writes spans and metrics to Config.Writer
	ExporterStdout = "stdout"
	// ExporterOTLP sends spans and metrics over OTLP/HTTP
	ExporterOTLP = "otlp"
	// ExporterOTLPGRPC sends spans and metrics over OTLP/gRPC
	ExporterOTLPGRPC = "otlp-grpc"

	// DefaultMetricInterval is how often metrics are exported
	DefaultMetricInterval = 15 * time.Second
)

// Config holds the provider settings
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter is "stdout", "otlp" or "otlp-grpc". Empty means stdout.
	Exporter string
	// Endpoint is the collector address, "host:port" or a full URL for otlp
	// and "host:port" for otlp-grpc.
	Endpoint string
	// Insecure disables TLS for a "host:port" endpoint.
	Insecure bool

	// Writer receives stdout exports. Nil means os.Stdout.
	Writer io.Writer
	// MetricInterval defaults to DefaultMetricInterval.
	MetricInterval time.Duration
}

// applyDefaults fills unset optional fields
func (c *Config) applyDefaults() {
	if c.Exporter == "" {
		c.Exporter = ExporterStdout
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = DefaultMetricInterval
	}
}

// Validate checks an enabled configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	switch c.Exporter {
	case ExporterStdout:
	case ExporterOTLP, ExporterOTLPGRPC:
		if c.Endpoint == "" {
			return ErrMissingEndpoint
		}
	default:
		return fmt.Errorf("exporter '%s': %w", c.Exporter, ErrInvalidExporter)
	}
	return nil
}
