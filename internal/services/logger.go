package services

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campusbridge/webhooks/internal/domain"
)

// ZeroLogger implements domain.Logger on top of zerolog, writing JSON lines
type ZeroLogger struct {
	z zerolog.Logger
}

// NewZeroLogger creates a logger at the given level ("debug", "info", "warn", "error")
func NewZeroLogger(w io.Writer, level string) *ZeroLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &ZeroLogger{z: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// With returns a child logger carrying the given key/value pairs
func (l *ZeroLogger) With(args ...interface{}) domain.Logger {
	return &ZeroLogger{z: l.z.With().Fields(args).Logger()}
}

// Error logs an error message
func (l *ZeroLogger) Error(msg string, err error) {
	l.z.Error().Err(err).Msg(msg)
}

// Warn logs a warning with key/value pairs
func (l *ZeroLogger) Warn(msg string, args ...interface{}) {
	l.z.Warn().Fields(args).Msg(msg)
}

// Info logs an info message
func (l *ZeroLogger) Info(msg string, args ...interface{}) {
	l.z.Info().Fields(args).Msg(msg)
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(msg string, args ...interface{}) {
	l.z.Debug().Fields(args).Msg(msg)
}
