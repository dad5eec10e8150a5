package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/goap-planner/internal/config"
)

// FileName is the log file created under .goap/logs.
const FileName = "goap.log"

// Logger appends JSON lines to .goap/logs/goap.log so users can inspect
// planner runs and server traffic after the process exits. A nil *Logger
// discards everything.
type Logger struct {
	zl *zap.Logger
}

// New creates (or reuses) the log file for the current project directory.
// level is one of debug, info, warn, error; empty means info.
func New(projectDir, level string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.GoapDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(logDir, FileName)
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{zl: zl}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger) *Logger {
	if zl == nil {
		return Nop()
	}
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zl == nil {
		return zap.NewNop()
	}
	return l.zl
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.Zap().With(fields...)}
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	if l == nil || l.zl == nil {
		return nil
	}
	// Sync on a file sink can report EINVAL/ENOTTY for special files; the
	// entries are already written by then.
	_ = l.zl.Sync()
	return nil
}

// Printf writes a single info line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.zl == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.zl.Info(line)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.Zap().Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.Zap().Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.Zap().Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.Zap().Error(msg, fields...) }

func parseLevel(level string) (zapcore.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(level))
	if trimmed == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(trimmed)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}
