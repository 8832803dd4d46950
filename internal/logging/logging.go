// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       false,
		FilePath:   filepath.Join(home, ".config", "sanket", "logs", "sanket.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
// Console output goes to stderr so scan reports on stdout stay machine readable.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a config level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// WithRun adds a run id and model to the logger context.
func WithRun(logger zerolog.Logger, runID int64, model string) zerolog.Logger {
	return logger.With().Int64("run_id", runID).Str("model", model).Logger()
}

// LogSignal logs a computed signal.
func LogSignal(logger zerolog.Logger, symbol, model, signal string, confidence float64, grade string) {
	logger.Debug().
		Str("event", "signal").
		Str("symbol", symbol).
		Str("model", model).
		Str("signal", signal).
		Float64("confidence", confidence).
		Str("grade", grade).
		Msg("Signal computed")
}

// LogDiagnostic logs a ticker that could not be evaluated.
func LogDiagnostic(logger zerolog.Logger, symbol, kind, detail string) {
	logger.Warn().
		Str("event", "diagnostic").
		Str("symbol", symbol).
		Str("kind", kind).
		Str("detail", detail).
		Msg("Ticker skipped")
}

// LogProgress logs scan progress.
func LogProgress(logger zerolog.Logger, done, total int) {
	logger.Info().
		Str("event", "progress").
		Int("done", done).
		Int("total", total).
		Msgf("Processed %d/%d tickers", done, total)
}

// LogRunSummary logs the outcome of a scan.
func LogRunSummary(logger zerolog.Logger, total, actionable, errors int, duration time.Duration, err error) {
	event := logger.Info().
		Str("event", "run_summary").
		Int("total", total).
		Int("actionable", actionable).
		Int("errors", errors).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Scan ended early")
	} else {
		event.Msg("Scan completed")
	}
}
