package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/learnersguild/backoffice/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "backoffice MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for TransportHTTP. Defaults to
	// localhost:8096.
	HTTPAddr string
	// AllowedHosts lists non-loopback Host/Origin values accepted over HTTP.
	AllowedHosts []string
	Logger       *zap.Logger
}

// Server hosts the backoffice MCP tools.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New creates an MCP server exposing the user tools backed by users.
func New(users domain.Users, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.UsersListTool(), domain.UsersListHandler(users))
	mcp.AddTool(mcpServer, domain.LearnersListTool(), domain.LearnersListHandler(users))
	mcp.AddTool(mcpServer, domain.UserGetTool(), domain.UserGetHandler(users))
	return &Server{mcpServer: mcpServer, logger: logger}
}

// Serve runs the server over transport until the session ends or ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context
// cancellation.
func Run(ctx context.Context, cfg Config, users domain.Users) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		server := New(users, cfg.Logger)
		server.logger.Info("serving MCP", zap.String("transport", string(TransportStdio)))
		return server.Serve(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg, New(users, cfg.Logger))
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}
