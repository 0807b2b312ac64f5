// Package logging builds the zap logger shared by every gcpvm component.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stderr is the log file value that selects console output on stderr.
const Stderr = "-"

// New creates a logger at the given level. Logs are JSON lines appended to
// file, or human-readable console lines on stderr when file is "-" or empty.
//
// The returned close function flushes and releases the file; it is safe to
// call when logging to stderr.
func New(level, file string) (*zap.Logger, func(), error) {
	lvl := ParseLevel(level)

	if file == "" || file == Stderr {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl)
		log := zap.New(core)
		return log, func() { _ = log.Sync() }, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), lvl)
	log := zap.New(core)

	return log, func() {
		_ = log.Sync()
		_ = f.Close()
	}, nil
}

// ParseLevel converts a level name to a zap level.
// Defaults to info if the name is not recognized.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
