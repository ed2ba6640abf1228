// Package logging provides the debug file logger used across breathe.
//
// Operational messages go through the standard log package with a
// "[component]" prefix; the debug logger records the detailed engine trace to
// a file so it never corrupts the terminal UI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a nil-safe wrapper around a zap sugared logger writing to a file.
type Logger struct {
	z    *zap.SugaredLogger
	file *os.File
}

// DefaultPath returns the debug log location under XDG_STATE_HOME.
func DefaultPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "breathe", "debug.log")
}

// New creates a logger appending to path. An empty path returns a no-op logger.
// Parent directories are created as needed.
func New(path string, debug bool) (*Logger, error) {
	if path == "" {
		return Nop(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)
	l := &Logger{z: zap.New(core).Sugar(), file: f}
	l.Infof("=== breathe debug log started at %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *Logger {
	if l == nil || l.z == nil {
		return l
	}
	return &Logger{z: l.z.Named(component), file: l.file}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Errorf(format, args...)
}

// Close flushes and closes the log file.
// Safe to call on a nil or no-op logger. Child loggers share the file, so
// only the root logger should be closed.
func (l *Logger) Close() error {
	if l == nil || l.z == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
