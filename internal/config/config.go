// internal/config/config.go
//
// This package handles configuration and the .goap directory structure.
// Every project that plans with goap gets a .goap/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// GoapDir is the name of the directory we create in each project
	GoapDir = ".goap"

	// DefaultMaxExpansions caps a single planner run; 0 disables the cap.
	DefaultMaxExpansions = 100000
	// DefaultPlannerTimeout bounds a single planner run.
	DefaultPlannerTimeout = 10 * time.Second
	// DefaultHost is the loopback interface the HTTP front end binds to.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the HTTP front end.
	DefaultPort = 8765
	// DefaultScenariosDir is resolved against the project directory. InitDir
	// creates it.
	DefaultScenariosDir = GoapDir + "/scenarios"
	// DefaultLogLevel is used when logging.level is empty.
	DefaultLogLevel = "info"
)

const defaultProjectConfigYAML = `# goap project configuration
version: 1

planner:
  # Upper bound on node expansions per plan call. 0 disables the limit.
  max_expansions: 100000
  # Wall-clock budget per plan call.
  timeout: 10s

# HTTP front end used by 'goap serve'. GOAP_SERVER_* env vars override these.
server:
  enabled: true
  host: 127.0.0.1
  port: 8765

scenarios:
  dir: .goap/scenarios

logging:
  level: info
`

// PlannerConfig bounds each planner run.
type PlannerConfig struct {
	MaxExpansions int           `yaml:"max_expansions"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ServerConfig describes the HTTP front end.
type ServerConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ScenariosConfig locates scenario files.
type ScenariosConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .goap/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Planner   PlannerConfig   `yaml:"planner"`
	Server    ServerConfig    `yaml:"server"`
	Scenarios ScenariosConfig `yaml:"scenarios"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Config holds the runtime configuration for goap.
type Config struct {
	// ProjectDir is the directory where the user ran `goap` from
	ProjectDir string

	// GoapProjectDir is ProjectDir/.goap
	GoapProjectDir string

	Project ProjectConfig
}

// InitDir creates the .goap directory structure in the given project directory.
//
// Structure created:
// .goap/
// ├── config.yaml
// ├── logs/        <- goap.log
// └── scenarios/   <- default scenario directory
func InitDir(projectDir string) error {
	goapDir := filepath.Join(projectDir, GoapDir)
	dirs := []string{
		filepath.Join(goapDir, "logs"),
		filepath.Join(projectDir, filepath.FromSlash(DefaultScenariosDir)),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(goapDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings. A
// missing config file yields the defaults.
func NewConfig(projectDir string) (*Config, error) {
	if strings.TrimSpace(projectDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: resolve working dir: %w", err)
		}
		projectDir = wd
	}
	cfg := &Config{
		ProjectDir:     projectDir,
		GoapProjectDir: filepath.Join(projectDir, GoapDir),
		Project:        defaultProjectConfig(),
	}
	cfg.Project.normalize(projectDir)
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.GoapProjectDir, "logs")
}

// ScenariosDir returns the resolved scenario directory.
func (c *Config) ScenariosDir() string {
	return c.Project.Scenarios.Dir
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.GoapProjectDir, "config.yaml")
}

// MaxExpansions returns the configured expansion cap (0 = unlimited).
func (c *Config) MaxExpansions() int {
	return c.Project.Planner.MaxExpansions
}

// PlannerTimeout returns the per-call planner budget.
func (c *Config) PlannerTimeout() time.Duration {
	return c.Project.Planner.Timeout
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Logging.Level
}

// SetPlannerTimeout updates the planner timeout and persists the value back
// to .goap/config.yaml.
func (c *Config) SetPlannerTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("config: planner timeout must be positive")
	}
	c.Project.Planner.Timeout = timeout
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Planner: PlannerConfig{
			MaxExpansions: DefaultMaxExpansions,
			Timeout:       DefaultPlannerTimeout,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Scenarios: ScenariosConfig{Dir: DefaultScenariosDir},
		Logging:   LoggingConfig{Level: DefaultLogLevel},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Planner.Timeout == 0 {
		pc.Planner.Timeout = DefaultPlannerTimeout
	}
	if strings.TrimSpace(pc.Server.Host) == "" {
		pc.Server.Host = DefaultHost
	}
	if pc.Server.Port == 0 {
		pc.Server.Port = DefaultPort
	}
	if strings.TrimSpace(pc.Scenarios.Dir) == "" {
		pc.Scenarios.Dir = DefaultScenariosDir
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = DefaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Server.Host = strings.TrimSpace(pc.Server.Host)
	pc.Scenarios.Dir = resolvePath(base, pc.Scenarios.Dir)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Planner.MaxExpansions < 0 {
		return fmt.Errorf("planner.max_expansions must be >= 0")
	}
	if pc.Planner.Timeout < 0 {
		return fmt.Errorf("planner.timeout must be positive")
	}
	if pc.Server.Port < 1 || pc.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.GoapProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure goap dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
