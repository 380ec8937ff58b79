// Package main probes the backoffice health endpoint and exits non-zero when
// it is not serving.
package main

import (
	"context"
	"flag"
	"os"

	healthcheckcmd "github.com/learnersguild/backoffice/internal/cmd/healthcheck"
	"github.com/learnersguild/backoffice/internal/platform/config"
)

func main() {
	cfg, err := healthcheckcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := healthcheckcmd.Run(context.Background(), cfg); err != nil {
		config.Exitf("unhealthy: %v", err)
	}
}
