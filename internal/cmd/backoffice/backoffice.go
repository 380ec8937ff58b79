// Package backoffice parses backoffice command flags and launches the HTTP
// API runtime.
package backoffice

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	entrypoint "github.com/learnersguild/backoffice/internal/platform/cmd"
	"github.com/learnersguild/backoffice/internal/platform/discovery"
	"github.com/learnersguild/backoffice/internal/platform/logging"
	"github.com/learnersguild/backoffice/internal/services/backoffice/app"
)

// Config holds backoffice command configuration.
type Config struct {
	HTTPPort       int           `env:"BACKOFFICE_HTTP_PORT" envDefault:"8094"`
	HealthPort     int           `env:"BACKOFFICE_HEALTH_PORT" envDefault:"8095"`
	IDMURL         string        `env:"BACKOFFICE_IDM_URL"`
	EchoURL        string        `env:"BACKOFFICE_ECHO_URL"`
	HubspotURL     string        `env:"BACKOFFICE_HUBSPOT_URL"`
	HubspotAPIKey  string        `env:"BACKOFFICE_HUBSPOT_API_KEY"`
	RequestTimeout time.Duration `env:"BACKOFFICE_REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel       string        `env:"BACKOFFICE_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"BACKOFFICE_LOG_FORMAT" envDefault:"json"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.IDMURL = discovery.OrDefaultHTTPBaseURL(cfg.IDMURL, discovery.ServiceIDM)
	cfg.EchoURL = discovery.OrDefaultHTTPBaseURL(cfg.EchoURL, discovery.ServiceEcho)
	cfg.HubspotURL = discovery.OrDefaultHTTPBaseURL(cfg.HubspotURL, discovery.ServiceHubspot)

	fs.IntVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "The backoffice HTTP API port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health endpoint port")
	fs.StringVar(&cfg.IDMURL, "idm-url", cfg.IDMURL, "The identity service base URL")
	fs.StringVar(&cfg.EchoURL, "echo-url", cfg.EchoURL, "The phase service base URL")
	fs.StringVar(&cfg.HubspotURL, "hubspot-url", cfg.HubspotURL, "The HubSpot API base URL")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "The per-request upstream timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")

	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Settings returns the upstream settings shared by every request.
func (c Config) Settings() app.Settings {
	return app.Settings{
		IDMURL:         c.IDMURL,
		EchoURL:        c.EchoURL,
		HubspotURL:     c.HubspotURL,
		HubspotAPIKey:  c.HubspotAPIKey,
		RequestTimeout: c.RequestTimeout,
	}
}

// Run starts the backoffice runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBackoffice, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			HTTPAddr:   ":" + strconv.Itoa(cfg.HTTPPort),
			HealthAddr: ":" + strconv.Itoa(cfg.HealthPort),
			Settings:   cfg.Settings(),
			Logger:     logger,
		})
	})
}
