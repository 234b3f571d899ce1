// Package logging configures the process-wide zerolog logger and provides
// the Gin middlewares that tag and log every HTTP request.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/config"
)

const (
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Init configures the global logger from config and returns it.
func Init(cfg config.Log) zerolog.Logger {
	logger := New(cfg, os.Stdout)
	log.Logger = logger
	return logger
}

// New builds a logger writing to w.
func New(cfg config.Log, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	format := strings.ToLower(cfg.Format)
	if format == FormatConsole || format == FormatPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "houseprice").Logger()
}
