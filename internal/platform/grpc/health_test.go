package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestHealthServerServesAfterSetServing(t *testing.T) {
	addr, server, stop := startHealthServer(t)
	defer stop()

	server.SetServing(true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := CheckHealth(ctx, addr, "backoffice", time.Second, nil); err != nil {
		t.Fatalf("check health: %v", err)
	}
	if err := CheckHealth(ctx, addr, "", time.Second, nil); err != nil {
		t.Fatalf("check overall health: %v", err)
	}
}

func TestWaitForHealthTransitionsToServing(t *testing.T) {
	addr, server, stop := startHealthServer(t)
	defer stop()

	conn := dialHealthServer(t, addr)
	defer conn.Close()

	go func() {
		time.Sleep(200 * time.Millisecond)
		server.SetServing(true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var logged int
	logf := func(string, ...any) { logged++ }
	if err := WaitForHealth(ctx, conn, "backoffice", logf); err != nil {
		t.Fatalf("wait for health after transition: %v", err)
	}
	if logged == 0 {
		t.Fatal("expected waiting progress to be logged")
	}
}

func TestCheckHealthFailsWhenNotServing(t *testing.T) {
	addr, _, stop := startHealthServer(t)
	defer stop()

	start := time.Now()
	err := CheckHealth(context.Background(), addr, "backoffice", 200*time.Millisecond, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageHealth {
		t.Fatalf("CheckHealth() error = %v, want health stage DialError", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected timeout to bound health check, took %v", elapsed)
	}
}

func TestCheckHealthRequiresAddress(t *testing.T) {
	err := CheckHealth(context.Background(), " ", "backoffice", time.Second, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageConnect {
		t.Fatalf("CheckHealth() error = %v, want connect stage DialError", err)
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected missing connection error")
	}
}

func TestServeStopsWithContext(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := NewHealthServer("backoffice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func startHealthServer(t *testing.T) (string, *HealthServer, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := NewHealthServer("backoffice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()

	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
	return listener.Addr().String(), server, stop
}

func dialHealthServer(t *testing.T, addr string) *gogrpc.ClientConn {
	t.Helper()

	conn, err := gogrpc.NewClient(addr, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	return conn
}
