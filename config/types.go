package config

import (
	"net"
	"strconv"
	"time"
)

// Config represents the overall tokencheck configuration.
// Values are read once at startup and passed explicitly to the components that need them.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	Gateway       GatewayConfig       `koanf:"gateway" json:"gateway" yaml:"gateway"`
	Checker       CheckerConfig       `koanf:"checker" json:"checker" yaml:"checker"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`
	FakeGateway   FakeGatewayConfig   `koanf:"fakegateway" json:"fakegateway" yaml:"fakegateway"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" validate:"oneof=development staging production"`
}

// GatewayConfig holds settings for the rate-limited upstream gateway.
type GatewayConfig struct {
	// URL is the base endpoint every request URI is appended to.
	// Default: https://discord.com/api/v9. Override with GATEWAY_URL.
	URL string `koanf:"url" json:"url" yaml:"url" validate:"required,url"`

	// Timeout bounds a single HTTP attempt. Default: 0 (no timeout beyond the transport's).
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"min=0"`

	// MaxRetries caps consecutive 429 retries of one call. Default: 0 (unbounded).
	MaxRetries int `koanf:"maxretries" json:"maxretries" yaml:"maxretries" validate:"min=0"`

	// TraceHeader enables an X-Request-ID style header on outbound requests when non-empty.
	TraceHeader string `koanf:"traceheader" json:"traceheader" yaml:"traceheader"`
}

// CheckerConfig holds settings for bulk token checks.
type CheckerConfig struct {
	Concurrency int  `koanf:"concurrency" json:"concurrency" yaml:"concurrency" validate:"min=1,max=1000"`
	Billing     bool `koanf:"billing" json:"billing" yaml:"billing"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Exporter string `koanf:"exporter" json:"exporter" yaml:"exporter" validate:"oneof=stdout otlp otlp-grpc"`
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" validate:"required_unless=Exporter stdout"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}

// FakeGatewayConfig holds settings for the local fake gateway used in development.
type FakeGatewayConfig struct {
	Host  string  `koanf:"host" json:"host" yaml:"host" validate:"required"`
	Port  int     `koanf:"port" json:"port" yaml:"port" validate:"min=1,max=65535"`
	Rate  float64 `koanf:"rate" json:"rate" yaml:"rate" validate:"gt=0"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst" validate:"min=1"`
}

// Address returns host:port for the fake gateway listener.
func (c FakeGatewayConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
