// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/learnersguild/backoffice/internal/platform/cmd"
	"github.com/learnersguild/backoffice/internal/platform/config"
	"github.com/learnersguild/backoffice/internal/platform/discovery"
	"github.com/learnersguild/backoffice/internal/platform/logging"
	"github.com/learnersguild/backoffice/internal/services/backoffice/app"
	"github.com/learnersguild/backoffice/internal/services/backoffice/credential"
	mcpservice "github.com/learnersguild/backoffice/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	IDMURL         string        `env:"BACKOFFICE_IDM_URL"`
	EchoURL        string        `env:"BACKOFFICE_ECHO_URL"`
	HubspotURL     string        `env:"BACKOFFICE_HUBSPOT_URL"`
	HubspotAPIKey  string        `env:"BACKOFFICE_HUBSPOT_API_KEY"`
	RequestTimeout time.Duration `env:"BACKOFFICE_REQUEST_TIMEOUT" envDefault:"10s"`
	Transport      string        `env:"BACKOFFICE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr       string        `env:"BACKOFFICE_MCP_HTTP_ADDR" envDefault:"localhost:8096"`
	AllowedHosts   []string      `env:"BACKOFFICE_MCP_ALLOWED_HOSTS" envSeparator:","`
	Token          string        `env:"BACKOFFICE_MCP_TOKEN"`
	LogLevel       string        `env:"BACKOFFICE_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"BACKOFFICE_LOG_FORMAT" envDefault:"json"`
}

// ParseConfig parses environment and flags into a Config. A nil environ
// reads the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	var err error
	if environ == nil {
		err = config.ParseEnv(&cfg)
	} else {
		err = config.ParseEnvFrom(&cfg, environ)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.IDMURL = discovery.OrDefaultHTTPBaseURL(cfg.IDMURL, discovery.ServiceIDM)
	cfg.EchoURL = discovery.OrDefaultHTTPBaseURL(cfg.EchoURL, discovery.ServiceEcho)
	cfg.HubspotURL = discovery.OrDefaultHTTPBaseURL(cfg.HubspotURL, discovery.ServiceHubspot)

	fs.StringVar(&cfg.IDMURL, "idm-url", cfg.IDMURL, "identity service base URL")
	fs.StringVar(&cfg.EchoURL, "echo-url", cfg.EchoURL, "phase service base URL")
	fs.StringVar(&cfg.HubspotURL, "hubspot-url", cfg.HubspotURL, "HubSpot API base URL")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "per-request upstream timeout")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter with the configured caller token.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("BACKOFFICE_MCP_TOKEN is required: %w", credential.ErrInvalidCredential)
	}
	cred, err := credential.Parse(cfg.Token, nil)
	if err != nil {
		return fmt.Errorf("mcp token: %w", err)
	}

	factory, err := app.NewFactory(app.Settings{
		IDMURL:         cfg.IDMURL,
		EchoURL:        cfg.EchoURL,
		HubspotURL:     cfg.HubspotURL,
		HubspotAPIKey:  cfg.HubspotAPIKey,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			Transport:    mcpservice.TransportKind(strings.ToLower(strings.TrimSpace(cfg.Transport))),
			HTTPAddr:     cfg.HTTPAddr,
			AllowedHosts: cfg.AllowedHosts,
			Logger:       logger.Named("mcp"),
		}, factory.New(cred))
	})
}
