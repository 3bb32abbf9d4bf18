// Package logging configures structured and human-readable loggers for the
// application and provides per-service file loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

// Init initializes the logging system with structured and human-readable loggers.
// It configures JSON output for structured logs and Text output for human-readable logs.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns a discard logger if Init() has not been called.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
func HumanReadable() *slog.Logger {
	if humanReadableLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base.
func ForService(serviceName string) *slog.Logger {
	return Structured().With("service", serviceName)
}

// NewFileLogger creates a new slog.Logger instance configured to write JSON
// logs to the specified file path. It includes a 'service' attribute in all
// logs. It returns the logger, a function to close the underlying log file,
// and an error if setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(fileHandler).With("service", serviceName)

	return logger, logFile.Close, nil
}
