package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"BACKOFFICE_CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8094"`
	Mode    string `env:"BACKOFFICE_CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("BACKOFFICE_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("BACKOFFICE_CMD_TEST_MODE", "env-mode")

	cfg := testConfig{}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", "", "address")
	fs.StringVar(&cfg.Mode, "mode", "", "mode")
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("address = %q, want flag value", cfg.Address)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("mode = %q, want env value", cfg.Mode)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	if err := ParseConfig(cfg); err == nil {
		t.Fatal("expected nil target error")
	}
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected nil parser error")
	}
}

func TestRunWithTelemetry(t *testing.T) {
	t.Setenv("BACKOFFICE_OTEL_ENDPOINT", "")

	if err := RunWithTelemetry(context.Background(), "", RunOptions{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceBackoffice, RunOptions{}, nil); err == nil {
		t.Fatal("expected missing run function error")
	}

	want := errors.New("stopped")
	called := false
	err := RunWithTelemetry(context.Background(), ServiceBackoffice, RunOptions{}, func(context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected run function to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("RunWithTelemetry() error = %v, want %v", err, want)
	}
}
