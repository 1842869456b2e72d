package observability

import "errors"

// ErrMissingServiceName is returned when observability is enabled but no service name is configured.
var ErrMissingServiceName = errors.New("observability: service name is required when observability is enabled")

// ErrInvalidExporter is returned when the exporter is not "stdout" or "otlp".
var ErrInvalidExporter = errors.New("observability: exporter must be either 'stdout' or 'otlp'")

// ErrMissingEndpoint is returned when the otlp exporter has no endpoint.
var ErrMissingEndpoint = errors.New("observability: endpoint is required for the otlp exporter")
