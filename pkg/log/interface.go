// Package log provides structured logging for autoemulate operations.
//
// It defines a minimal, slog-compatible Logger interface with a zerolog
// implementation. Standard attribute keys (see attributes.go) keep trial,
// model and data-shape fields consistent across the comparison engine,
// transforms and emulators, so logs can be filtered per trial or per model.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("compare").With(
//	    log.ModelNameKey, "GaussianProcess",
//	    log.TrialIDKey, trialID,
//	)
//	logger.Info("trial finished", log.ScoreKey, 0.93)
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with Go's log/slog.
// Fields are alternating key-value pairs. With returns a contextual logger
// carrying pre-populated fields.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic conditions that do not stop the run.
	Warn(msg string, fields ...any)

	// Error logs error conditions. If the first field is an error, its stack
	// trace (when attached via pkg/errors) is included.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It enables dependency
// injection and test doubles.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger for a named component.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
