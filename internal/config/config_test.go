package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.MaxExpansions() != DefaultMaxExpansions {
		t.Fatalf("expected default max expansions, got %d", c.MaxExpansions())
	}
	if c.PlannerTimeout() != DefaultPlannerTimeout {
		t.Fatalf("expected default timeout, got %s", c.PlannerTimeout())
	}
	if want := filepath.Join(projectDir, DefaultScenariosDir); c.ScenariosDir() != want {
		t.Fatalf("expected scenarios dir %s, got %s", want, c.ScenariosDir())
	}
	if c.LogLevel() != "info" {
		t.Fatalf("expected info level, got %s", c.LogLevel())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	goapDir := filepath.Join(projectDir, GoapDir)
	if err := os.MkdirAll(goapDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
planner:
  max_expansions: 0
  timeout: 250ms
server:
  enabled: false
  host: " 0.0.0.0 "
  port: 9000
scenarios:
  dir: fixtures/goap
logging:
  level: DEBUG
`)
	if err := os.WriteFile(filepath.Join(goapDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.MaxExpansions() != 0 {
		t.Fatalf("expected unlimited expansions, got %d", c.MaxExpansions())
	}
	if c.PlannerTimeout() != 250*time.Millisecond {
		t.Fatalf("expected 250ms timeout, got %s", c.PlannerTimeout())
	}
	if c.Project.Server.Enabled == nil || *c.Project.Server.Enabled {
		t.Fatalf("expected server to be disabled")
	}
	if c.Project.Server.Host != "0.0.0.0" || c.Project.Server.Port != 9000 {
		t.Fatalf("unexpected server config %+v", c.Project.Server)
	}
	if !strings.HasPrefix(c.ScenariosDir(), projectDir) {
		t.Fatalf("expected scenarios dir to be resolved, got %s", c.ScenariosDir())
	}
	if c.LogLevel() != "debug" {
		t.Fatalf("expected debug level, got %s", c.LogLevel())
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"negative expansions": "planner:\n  max_expansions: -1\n",
		"bad port":            "server:\n  port: 70000\n",
		"bad level":           "logging:\n  level: loud\n",
		"bad yaml":            "planner: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			goapDir := filepath.Join(projectDir, GoapDir)
			if err := os.MkdirAll(goapDir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(goapDir, "config.yaml"), []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewConfig(projectDir); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestInitDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	for _, dir := range []string{"logs", "scenarios"} {
		if info, err := os.Stat(filepath.Join(projectDir, GoapDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir, got %v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default config should load: %v", err)
	}
	if want := filepath.Join(projectDir, GoapDir, "scenarios"); c.ScenariosDir() != want {
		t.Fatalf("expected initialized scenarios dir %s, got %s", want, c.ScenariosDir())
	}
	if c.Project.Server.Enabled == nil || !*c.Project.Server.Enabled {
		t.Fatalf("expected default config to enable the server")
	}
	// A second init leaves an edited config alone.
	path := c.ProjectConfigPath()
	if err := os.WriteFile(path, []byte("version: 1\nlogging:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "warn") {
		t.Fatalf("InitDir overwrote existing config: %s", data)
	}
}

func TestSetPlannerTimeoutPersists(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if err := c.SetPlannerTimeout(0); err == nil {
		t.Fatalf("expected zero timeout to be rejected")
	}
	if err := c.SetPlannerTimeout(3 * time.Second); err != nil {
		t.Fatalf("SetPlannerTimeout returned error: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PlannerTimeout() != 3*time.Second {
		t.Fatalf("expected persisted timeout, got %s", reloaded.PlannerTimeout())
	}
}
