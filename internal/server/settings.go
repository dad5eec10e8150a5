package server

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/goap-planner/internal/config"
)

const (
	// DefaultMaxBodyBytes limits scenario payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes. It must outlast PlanTimeout.
	DefaultWriteTimeout = 30 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the HTTP front end.
type Settings struct {
	Enabled       bool
	Host          string
	Port          int
	MaxBodyBytes  int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	PlanTimeout   time.Duration
	MaxExpansions int
}

// SettingsFromConfig builds Settings using the project's .goap config and environment overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Enabled:       true,
		Host:          config.DefaultHost,
		Port:          config.DefaultPort,
		MaxBodyBytes:  DefaultMaxBodyBytes,
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		IdleTimeout:   DefaultIdleTimeout,
		PlanTimeout:   config.DefaultPlannerTimeout,
		MaxExpansions: config.DefaultMaxExpansions,
	}
	if cfg != nil {
		raw := cfg.Project.Server
		if raw.Enabled != nil {
			settings.Enabled = *raw.Enabled
		}
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if cfg.Project.Planner.Timeout > 0 {
			settings.PlanTimeout = cfg.Project.Planner.Timeout
		}
		if cfg.Project.Planner.MaxExpansions >= 0 {
			settings.MaxExpansions = cfg.Project.Planner.MaxExpansions
		}
	}
	settings.applyEnvOverrides()
	settings.normalize()
	return settings
}

func (s *Settings) applyEnvOverrides() {
	if s == nil {
		return
	}
	if value := strings.TrimSpace(os.Getenv("GOAP_SERVER_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			s.Enabled = enabled
		}
	}
	if host := strings.TrimSpace(os.Getenv("GOAP_SERVER_HOST")); host != "" {
		s.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("GOAP_SERVER_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			s.Port = parsed
		}
	}
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = config.DefaultHost
	}
	if !isValidPort(s.Port) {
		s.Port = config.DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.MaxExpansions < 0 {
		s.MaxExpansions = 0
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
