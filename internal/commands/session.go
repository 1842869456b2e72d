// Package commands implements the tokencheck CLI commands.
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatewaycheck/tokencheck/config"
	"github.com/gatewaycheck/tokencheck/discord"
	gwhttp "github.com/gatewaycheck/tokencheck/http"
	"github.com/gatewaycheck/tokencheck/logger"
	"github.com/gatewaycheck/tokencheck/observability"
)

// GlobalOptions holds flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	GatewayURL string
	LogLevel   string
	Pretty     bool
}

func (o *GlobalOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.ConfigFile, "config", "c", config.DefaultFile, "YAML configuration file")
	flags.StringVar(&o.GatewayURL, "gateway-url", "", "Gateway base URL (overrides GATEWAY_URL)")
	flags.StringVar(&o.LogLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	flags.BoolVar(&o.Pretty, "pretty", false, "Human-readable log output")
}

// session is the wiring shared by the commands
type session struct {
	cfg    *config.Config
	log    logger.Logger
	obs    observability.Provider
	client gwhttp.Client
	api    *discord.API
}

func newSession(cmd *cobra.Command, opts *GlobalOptions) (*session, error) {
	cfg, err := config.Load(config.WithFile(opts.ConfigFile))
	if err != nil {
		return nil, err
	}
	if opts.GatewayURL != "" {
		cfg.Gateway.URL = strings.TrimRight(opts.GatewayURL, "/")
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Pretty {
		cfg.Log.Pretty = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty, logger.DefaultFilterConfig())

	obs, err := observability.NewProvider(observability.Config{
		Enabled:        cfg.Observability.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		Exporter:       cfg.Observability.Exporter,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		Writer:         cmd.ErrOrStderr(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	client := newGatewayClient(cfg, log, obs)
	return &session{
		cfg:    cfg,
		log:    log,
		obs:    obs,
		client: client,
		api:    discord.New(client, log),
	}, nil
}

// newGatewayClient builds the rate-limited client from the gateway settings
func newGatewayClient(cfg *config.Config, log logger.Logger, obs observability.Provider) gwhttp.Client {
	return gwhttp.NewBuilder(log).
		WithBaseURL(cfg.Gateway.URL).
		WithTimeout(cfg.Gateway.Timeout).
		WithMaxRateLimitRetries(cfg.Gateway.MaxRetries).
		WithTraceIDHeader(cfg.Gateway.TraceHeader).
		WithTracerProvider(obs.TracerProvider()).
		WithMeterProvider(obs.MeterProvider()).
		Build()
}

func (r *session) close() {
	if err := observability.Shutdown(r.obs, 0); err != nil {
		r.log.Warn().Err(err).Msg("observability shutdown failed")
	}
}
