// Package healthcheck probes the backoffice gRPC health endpoint, for use as
// a container health command.
package healthcheck

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/learnersguild/backoffice/internal/platform/cmd"
	platformgrpc "github.com/learnersguild/backoffice/internal/platform/grpc"
	"github.com/learnersguild/backoffice/internal/platform/timeouts"
	"github.com/learnersguild/backoffice/internal/services/backoffice/app"
)

// Config holds healthcheck command configuration.
type Config struct {
	Addr    string        `env:"BACKOFFICE_HEALTHCHECK_ADDR" envDefault:"localhost:8095"`
	Service string        `env:"BACKOFFICE_HEALTHCHECK_SERVICE"`
	Timeout time.Duration `env:"BACKOFFICE_HEALTHCHECK_TIMEOUT"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Service == "" {
		cfg.Service = app.HealthService
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.HealthDial
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gRPC health endpoint address")
	fs.StringVar(&cfg.Service, "service", cfg.Service, "The service name to check")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "How long to wait for SERVING")

	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run checks the endpoint once and returns nil when it reports SERVING.
func Run(ctx context.Context, cfg Config) error {
	return platformgrpc.CheckHealth(ctx, cfg.Addr, cfg.Service, cfg.Timeout, nil)
}
