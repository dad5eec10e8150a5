package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kingrea/goap-planner/internal/config"
)

func TestNewWritesJSONToProjectLog(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir, "info")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Printf("planned %s\n", "lumberjack")
	logger.Debug("hidden at info level")
	logger.Info("plan finished", zap.Int("steps", 3))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(projectDir, config.GoapDir, "logs", FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"planned lumberjack"`) {
		t.Fatalf("expected printf line, got %s", out)
	}
	if !strings.Contains(out, `"steps":3`) {
		t.Fatalf("expected structured field, got %s", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Fatalf("debug entry leaked at info level: %s", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(t.TempDir(), "chatty"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.Info("ignored")
	logger.With(zap.String("k", "v")).Warn("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close on nil logger returned error: %v", err)
	}
}

func TestFromZapForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With(zap.String("scenario", "lumberjack"))
	logger.Debug("expanding")
	logger.Error("failed", zap.Int("expansions", 7))
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].ContextMap()["scenario"] != "lumberjack" {
		t.Fatalf("expected inherited field, got %v", entries[1].ContextMap())
	}
	if entries[1].ContextMap()["expansions"] != int64(7) {
		t.Fatalf("expected expansions field, got %v", entries[1].ContextMap())
	}
}
