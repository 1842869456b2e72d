package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultGatewayURL is used when neither config.yaml nor GATEWAY_URL provide one.
const DefaultGatewayURL = "https://discord.com/api/v9"

// DefaultFile is the optional YAML file consulted by Load.
const DefaultFile = "config.yaml"

// envSections lists the top-level keys environment variables may set.
var envSections = []string{"app", "gateway", "checker", "log", "observability", "fakegateway"}

type loadOptions struct {
	file    string
	yaml    []byte
	environ func() []string
}

// LoadOption customises where Load reads configuration from.
type LoadOption func(*loadOptions)

// WithFile sets the YAML file to read. A missing file is not an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithYAML layers an in-memory YAML document over the file configuration.
func WithYAML(doc []byte) LoadOption {
	return func(o *loadOptions) {
		o.yaml = doc
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) LoadOption {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. In-memory YAML (WithYAML)
// 3. YAML configuration file
// 4. Default values (lowest priority)
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{file: DefaultFile, environ: os.Environ}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.file, err)
		}
	}

	if len(o.yaml) > 0 {
		if err := k.Load(rawbytes.Provider(o.yaml), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: transformEnv,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Gateway.URL = strings.TrimRight(cfg.Gateway.URL, "/")

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// transformEnv converts GATEWAY_URL to gateway.url and drops empty variables
// and variables outside known sections.
func transformEnv(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	for _, section := range envSections {
		if strings.HasPrefix(key, section+".") {
			return key, value
		}
	}
	return "", nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "tokencheck",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"gateway.url":         DefaultGatewayURL,
		"gateway.timeout":     "0s",
		"gateway.maxretries":  0,
		"gateway.traceheader": "",

		"checker.concurrency": 10,
		"checker.billing":     true,

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":  false,
		"observability.exporter": "stdout",
		"observability.endpoint": "",

		"fakegateway.host":  "127.0.0.1",
		"fakegateway.port":  8081,
		"fakegateway.rate":  5.0,
		"fakegateway.burst": 5,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
