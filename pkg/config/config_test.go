package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhive/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TASKHIVE_POSTGRES_URL", "postgres://localhost/taskhive_test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Storage.MaxConns)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 14*24*time.Hour, cfg.Invites.TTL)
	assert.Equal(t, "@hourly", cfg.Invites.SweepSchedule)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TASKHIVE_POSTGRES_URL", "postgres://localhost/taskhive_test")
	t.Setenv("TASKHIVE_PORT", "8181")
	t.Setenv("TASKHIVE_LOG_LEVEL", "debug")
	t.Setenv("TASKHIVE_METRICS_ENABLED", "false")
	t.Setenv("TASKHIVE_INVITE_TTL", "72h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 72*time.Hour, cfg.Invites.TTL)
}

func TestLoadConfigYAMLFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9999"
  health_port: "9998"
observability:
  log_level: warn
invites:
  sweep_schedule: "@every 10m"
`), 0o600))

	t.Setenv("TASKHIVE_CONFIG_FILE", path)
	t.Setenv("TASKHIVE_POSTGRES_URL", "postgres://localhost/taskhive_test")
	t.Setenv("TASKHIVE_PORT", "8282") // env wins over file

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8282", cfg.Server.Port)
	assert.Equal(t, "9998", cfg.Server.HealthPort)
	assert.Equal(t, observability.WarnLevel, cfg.Observability.LogLevel)
	assert.Equal(t, "@every 10m", cfg.Invites.SweepSchedule)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("missing postgres url", func(t *testing.T) {
		t.Setenv("TASKHIVE_POSTGRES_URL", "")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres URL")
	})

	t.Run("port collision", func(t *testing.T) {
		t.Setenv("TASKHIVE_POSTGRES_URL", "postgres://localhost/taskhive_test")
		t.Setenv("TASKHIVE_PORT", "9090")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be different")
	})

	t.Run("unreadable config file", func(t *testing.T) {
		t.Setenv("TASKHIVE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadConfig()
		require.Error(t, err)
	})
}
