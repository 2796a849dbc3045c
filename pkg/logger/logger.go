// Package logger provides structured logging for switchgate
//
// This package wraps Go's standard log/slog package with gateway-specific
// convenience methods and consistent formatting.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with additional convenience methods
type Logger struct {
	*slog.Logger
}

// LoggerConfig defines logger configuration options
type LoggerConfig struct {
	// Level specifies the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Format specifies output format (text, json)
	Format string `yaml:"format"`

	// Output is where records are written (default: stdout)
	Output io.Writer `yaml:"-"`
}

// New creates a new logger with the specified configuration
func New(cfg LoggerConfig) *Logger {
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug

	case "info":
		level = slog.LevelInfo

	case "warn":
		level = slog.LevelWarn

	case "error":
		level = slog.LevelError

	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Default creates a logger with default settings
func Default() *Logger {
	return New(LoggerConfig{Level: "info", Format: "text"})
}

// Discard creates a logger that drops every record.
func Discard() *Logger {
	return New(LoggerConfig{Level: "error", Output: io.Discard})
}

// Gateway-specific convenience methods

// LogStartup logs the gateway start with its backend mapping
func (l *Logger) LogStartup(addr, prefix, backendA, backendB string) {
	l.Info("Gateway starting",
		"addr", addr,
		"prefix", prefix,
		"backend_a", backendA,
		"backend_b", backendB,
	)
}

// LogForward logs a request handed to the forwarding engine
func (l *Logger) LogForward(method, path, backend, target, forwardedPath string) {
	l.Debug("Forwarding request",
		"method", method,
		"path", path,
		"backend", backend,
		"target", target,
		"forwarded_path", forwardedPath,
	)
}

// LogUpstreamFailure logs a failed upstream request
func (l *Logger) LogUpstreamFailure(backend, target string, err error) {
	l.Warn("Upstream failure", "backend", backend, "target", target, "error", err)
}

// LogFlip logs a change of the active backend
func (l *Logger) LogFlip(from, to string, flips uint64) {
	l.Info("Active backend switched", "from", from, "backend", to, "flips", flips)
}

// LogAccess logs a completed HTTP request
func (l *Logger) LogAccess(method, path string, status, bytes int, duration time.Duration, requestID string) {
	l.Info("Request",
		"method", method,
		"path", path,
		"status", status,
		"bytes", bytes,
		"duration", duration,
		"request_id", requestID,
	)
}
