// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package logging builds the loggers used by the dagsim CLI.
//
// The engine itself takes any *zap.Logger through its configuration and
// defaults to a no-op logger; this package only decides how a command-line
// invocation renders log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats lists the output formats accepted by [New].
var Formats = []string{"console", "json"}

// New builds a logger writing to stderr at the given level ("debug", "info",
// "warn", "error") and format ("console" for human-readable output, "json"
// for machine-readable structured lines).
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return nil, fmt.Errorf("invalid log format %q (have %v)", format, Formats)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
