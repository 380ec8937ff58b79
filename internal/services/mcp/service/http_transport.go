package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/learnersguild/backoffice/internal/platform/discovery"
	"github.com/learnersguild/backoffice/internal/platform/timeouts"
)

const (
	pathMCP       = "/mcp"
	pathMCPHealth = "/mcp/health"
)

// HTTPHandler returns the streamable HTTP handler for the server, guarded
// so only loopback or explicitly allowed hosts reach it.
func (s *Server) HTTPHandler(allowedHosts []string) http.Handler {
	guard := hostGuard{allowed: parseAllowedHosts(allowedHosts)}
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(pathMCP, guard.wrap(streamable))
	mux.Handle(pathMCPHealth, guard.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})))
	return mux
}

// runWithHTTPTransport serves the server over streamable HTTP until ctx ends.
func runWithHTTPTransport(ctx context.Context, cfg Config, server *Server) error {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		httpAddr = net.JoinHostPort("localhost", strconv.Itoa(discovery.DefaultPort(discovery.ServiceMCP)))
	}

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", httpAddr, err)
	}

	httpServer := &http.Server{
		Handler:           server.HTTPHandler(cfg.AllowedHosts),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	server.logger.Info("serving MCP",
		zap.String("transport", string(TransportHTTP)),
		zap.String("addr", listener.Addr().String()),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}

// hostGuard enforces Host and Origin checks to mitigate DNS rebinding.
type hostGuard struct {
	allowed map[string]struct{}
}

func (g hostGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.validate(r); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g hostGuard) validate(r *http.Request) error {
	if r == nil {
		return fmt.Errorf("invalid request")
	}
	if !g.isAllowedHost(r.Host) {
		return fmt.Errorf("invalid host")
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid origin")
	}
	if !g.isAllowedHost(parsed.Host) {
		return fmt.Errorf("invalid origin")
	}
	return nil
}

// isAllowedHost reports whether a Host/Origin value names loopback or an
// allowed host.
func (g hostGuard) isAllowedHost(host string) bool {
	resolved, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolved) {
		return true
	}
	_, ok = g.allowed[strings.ToLower(resolved)]
	return ok
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost strips the port from a Host/Origin header value.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}

	if strings.HasPrefix(host, "[") {
		if splitHost, _, err := net.SplitHostPort(host); err == nil {
			return splitHost, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return host, true
	}
	if strings.Contains(host, ":") {
		splitHost, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return splitHost, true
	}
	return host, true
}
