// Package app wires the backoffice upstream clients, HTTP API and health
// endpoint into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	platformgrpc "github.com/learnersguild/backoffice/internal/platform/grpc"
	"github.com/learnersguild/backoffice/internal/platform/timeouts"
	httpapi "github.com/learnersguild/backoffice/internal/services/backoffice/api/http"
	"github.com/learnersguild/backoffice/internal/services/backoffice/credential"
)

// HealthService is the name reported by the gRPC health endpoint.
const HealthService = "backoffice"

// RuntimeConfig controls backoffice server startup.
type RuntimeConfig struct {
	HTTPAddr   string
	HealthAddr string
	Settings   Settings
	Logger     *zap.Logger
}

// UsersFactory adapts the factory to the HTTP API.
func (f *Factory) UsersFactory() httpapi.UsersFactory {
	return func(cred credential.Credential) (httpapi.Users, error) {
		return f.New(cred), nil
	}
}

// Run serves the HTTP API and the gRPC health endpoint until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return fmt.Errorf("http address is required")
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		return fmt.Errorf("health address is required")
	}

	factory, err := NewFactory(cfg.Settings, logger)
	if err != nil {
		return err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on backoffice address %s: %w", cfg.HTTPAddr, err)
	}
	defer func() {
		if closeErr := httpListener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			logger.Warn("close backoffice listener", zap.Error(closeErr))
		}
	}()
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		return fmt.Errorf("listen on health address %s: %w", cfg.HealthAddr, err)
	}

	healthServer := platformgrpc.NewHealthServer(HealthService)
	httpServer := &http.Server{
		Handler:           httpapi.NewHandler(factory.UsersFactory(), httpapi.WithLogger(logger.Named("http"))),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	healthErr := make(chan error, 1)
	go func() {
		healthErr <- healthServer.Serve(healthCtx, healthListener)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(httpListener)
	}()
	healthServer.SetServing(true)

	logger.Info("backoffice server listening",
		zap.String("http_addr", httpListener.Addr().String()),
		zap.String("health_addr", healthListener.Addr().String()),
	)

	var (
		runErr       error
		healthExited bool
	)
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve http: %w", err)
		}
	case err := <-healthErr:
		healthExited = true
		if err != nil {
			runErr = err
		}
	}

	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http: %w", err)
	}
	stopHealth()
	if !healthExited {
		<-healthErr
	}
	return runErr
}
