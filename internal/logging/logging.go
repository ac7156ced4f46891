// Package logging builds the service's slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/aouyang1/go-regress/internal/config"
	"github.com/lmittmann/tint"
)

// New returns a JSON logger, or a colorized human readable logger when the format is text.
func New(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(handler).With(slog.String("service", "regressd")), nil
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
