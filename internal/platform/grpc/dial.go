package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DialStage describes where a probe failed.
type DialStage string

const (
	// DialStageConnect indicates the client could not be created.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the health check failed.
	DialStageHealth DialStage = "health"
)

// DialError wraps probe failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ClientDialOptions returns insecure in-network dial options with OTel
// client instrumentation.
func ClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// CheckHealth connects to addr and waits up to timeout for service to
// report SERVING.
func CheckHealth(ctx context.Context, addr, service string, timeout time.Duration, logf func(string, ...any)) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &DialError{Stage: DialStageConnect, Err: fmt.Errorf("address is required")}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := gogrpc.NewClient(addr, ClientDialOptions()...)
	if err != nil {
		return &DialError{Stage: DialStageConnect, Err: err}
	}
	defer conn.Close()

	if err := WaitForHealth(ctx, conn, service, logf); err != nil {
		return &DialError{Stage: DialStageHealth, Err: err}
	}
	return nil
}
