// Package logging sets up diagnostic logging: zap underneath, exposed as
// *slog.Logger so packages depend only on the standard logging interface.
// Diagnostics go to stderr so they never mix with command output on stdout.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldPath      = "path"
	FieldRecords   = "records"
	FieldRejected  = "rejected"
	FieldFormat    = "format"
	FieldVersion   = "version"
	FieldError     = "error"
)

// Component names.
const (
	ComponentSession   = "session"
	ComponentWorkspace = "workspace"
	ComponentImport    = "import"
	ComponentReport    = "report"
)

// Config holds logger configuration.
type Config struct {
	Level       slog.Level
	Output      io.Writer
	Development bool // human-oriented encoder with caller info
}

// DefaultConfig logs warnings and above to stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelWarn, Output: os.Stderr}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// zapLevel converts a slog level to the zap level with the same cut-off.
func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l >= slog.LevelError:
		return zapcore.ErrorLevel
	case l >= slog.LevelWarn:
		return zapcore.WarnLevel
	case l >= slog.LevelInfo:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// NewCore builds the zap core behind New. Output is console-encoded.
func NewCore(cfg Config) zapcore.Core {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	enc := zcfg.EncoderConfig
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(zapLevel(cfg.Level)),
	)
}

// New creates a logger with the given configuration.
func New(cfg Config) *slog.Logger {
	return slog.New(zapslog.NewHandler(NewCore(cfg), zapslog.WithCaller(cfg.Development)))
}

// Component returns a child logger tagged with a component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(FieldComponent, name)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(zapslog.NewHandler(zapcore.NewNopCore()))
}
