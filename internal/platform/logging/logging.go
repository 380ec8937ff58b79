// Package logging builds the structured loggers used by backoffice commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FormatJSON writes one JSON object per entry.
	FormatJSON = "json"
	// FormatConsole writes human-readable entries.
	FormatConsole = "console"
)

// New returns a logger at level using format. Empty values default to info
// and JSON.
func New(level, format string) (*zap.Logger, error) {
	atomicLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		atomicLevel.SetLevel(parsed)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
	cfg.Level = atomicLevel
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Printf adapts logger to printf-style callbacks.
func Printf(logger *zap.Logger) func(string, ...any) {
	if logger == nil {
		return func(string, ...any) {}
	}
	sugar := logger.Sugar()
	return sugar.Infof
}
