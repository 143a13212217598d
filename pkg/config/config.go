// Package config loads application configuration. Settings come from an
// optional YAML file (TASKHIVE_CONFIG_FILE) overridden by TASKHIVE_*
// environment variables, so containers can ship a baseline file and tweak
// single values per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/taskhive/pkg/observability"
	"github.com/platinummonkey/taskhive/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       storage.Config      `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Invites       InvitesConfig       `yaml:"invites"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`
	AuditEnabled   bool                   `yaml:"audit_enabled"`
}

// InvitesConfig controls the invitation workflow
type InvitesConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// LoadConfig loads configuration from the optional YAML file and the
// environment, then validates it.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("TASKHIVE_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Observability.LogLevel = observability.ParseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Storage: storage.DefaultConfig(),
		Observability: ObservabilityConfig{
			LogLevelName:   "info",
			MetricsEnabled: true,
			AuditEnabled:   true,
		},
		Invites: InvitesConfig{
			TTL:           14 * 24 * time.Hour,
			SweepSchedule: "@hourly",
		},
	}
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("TASKHIVE_HOST", c.Server.Host)
	c.Server.Port = getEnv("TASKHIVE_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("TASKHIVE_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("TASKHIVE_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("TASKHIVE_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("TASKHIVE_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("TASKHIVE_HEALTH_PORT", c.Server.HealthPort)

	c.Storage.URL = getEnv("TASKHIVE_POSTGRES_URL", c.Storage.URL)
	c.Storage.MaxConns = getEnvInt("TASKHIVE_POSTGRES_MAX_CONNS", c.Storage.MaxConns)
	c.Storage.MinConns = getEnvInt("TASKHIVE_POSTGRES_MIN_CONNS", c.Storage.MinConns)
	c.Storage.Timeout = getEnvDuration("TASKHIVE_POSTGRES_TIMEOUT", c.Storage.Timeout)

	c.Observability.LogLevelName = getEnv("TASKHIVE_LOG_LEVEL", c.Observability.LogLevelName)
	c.Observability.MetricsEnabled = getEnvBool("TASKHIVE_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.AuditEnabled = getEnvBool("TASKHIVE_AUDIT_ENABLED", c.Observability.AuditEnabled)

	c.Invites.TTL = getEnvDuration("TASKHIVE_INVITE_TTL", c.Invites.TTL)
	c.Invites.SweepSchedule = getEnv("TASKHIVE_INVITE_SWEEP_SCHEDULE", c.Invites.SweepSchedule)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Storage.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Invites.TTL <= 0 {
		return fmt.Errorf("invite TTL must be positive")
	}
	if c.Invites.SweepSchedule == "" {
		return fmt.Errorf("invite sweep schedule is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
