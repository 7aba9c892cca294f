/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suparena/tableops/config"
)

// Configure builds a logger from the log section of the configuration,
// writing to os.Stdout.
func Configure(cfg config.Log) zerolog.Logger {
	return New(cfg, os.Stdout)
}

// New builds a logger writing to out. Unknown or empty levels default to info.
func New(cfg config.Log, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "tableops").
		Logger()
}
