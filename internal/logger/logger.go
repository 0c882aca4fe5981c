// Package logger builds the zerolog loggers used by the API and the
// notification worker, and carries the per-request correlation ID through
// context so every line of an event's processing can be tied back to the
// publish that caused it.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LoggingConfig mirrors config.LoggingConfig to avoid a circular import.
// Callers populate it from the loaded configuration.
type LoggingConfig struct {
	Level     string
	Output    string // stdout (default) or file
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

type contextKey string

const (
	loggerKey        contextKey = "logger"
	correlationIDKey contextKey = "correlation_id"
)

// NewFromConfig creates a JSON zerolog.Logger. Output "file" writes to a
// rotating log file; anything else writes to stdout. An unknown level
// string falls back to info.
func NewFromConfig(cfg LoggingConfig) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if cfg.Output == "file" {
		writer = newRotatingWriter(cfg)
	}

	return zerolog.New(writer).
		Level(levelOrInfo(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func levelOrInfo(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID stored in the
// context, or "" when none is set.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// FromContext returns the context's logger with the correlation ID (when
// present) attached. Without a stored logger it falls back to an info-level
// stdout logger.
func FromContext(ctx context.Context) zerolog.Logger {
	log, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		log = NewFromConfig(LoggingConfig{Level: "info"})
	}

	if id := CorrelationIDFromContext(ctx); id != "" {
		log = log.With().Str("correlation_id", id).Logger()
	}
	return log
}

// NewCorrelationID generates a UUID correlation ID.
func NewCorrelationID() string {
	return uuid.New().String()
}
