package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/config"
	"github.com/familieapp/familieapp/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, store.BackendFile, cfg.Store.ResolvedBackend())
	assert.Equal(t, ".data/familie-app-data.json", cfg.Store.FilePath)
	assert.Equal(t, "familie-app-v2:data:v1", cfg.Store.RedisKey)
	assert.Equal(t, "mailto:admin@example.com", cfg.Push.Subject)
	assert.False(t, cfg.Push.Enabled())
	assert.Equal(t, "*/5 * * * *", cfg.Worker.Schedule)
	assert.Empty(t, cfg.CronSecret)

	rc := cfg.ReminderConfig()
	assert.Equal(t, time.Hour, rc.Lead)
	assert.Equal(t, 6*time.Minute, rc.Lookback)
	assert.Equal(t, 6000, rc.Retention)
	assert.Equal(t, 4, rc.Concurrency)
	require.NotNil(t, rc.Location)
	assert.Equal(t, "Europe/Oslo", rc.Location.String())
}

func TestLoad_RedisURLSelectsRedis(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, store.BackendRedis, cfg.Store.ResolvedBackend())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("PUSH_TTL", "30m")
	t.Setenv("REMINDER_LEAD", "15m")
	t.Setenv("REMINDER_CONCURRENCY", "8")
	t.Setenv("REMINDER_TIMEZONE", "UTC")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("WORKER_SCHEDULE", "* * * * *")
	t.Setenv("SWEEP_URL", "http://api:8080/v1/push/reminders")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, store.BackendMemory, cfg.Store.ResolvedBackend())
	assert.True(t, cfg.Push.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Push.TTL)
	assert.Equal(t, "s3cret", cfg.CronSecret)
	assert.Equal(t, "* * * * *", cfg.Worker.Schedule)
	assert.Equal(t, "http://api:8080/v1/push/reminders", cfg.Worker.SweepURL)
	assert.True(t, cfg.Telemetry.Enabled)

	rc := cfg.ReminderConfig()
	assert.Equal(t, 15*time.Minute, rc.Lead)
	assert.Equal(t, 8, rc.Concurrency)
	assert.Equal(t, "UTC", rc.Location.String())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
store:
  backend: badger
  badger_path: /var/lib/familieapp
reminder:
  lead: 30m
  timezone: Europe/Stockholm
worker:
  schedule: "*/10 * * * *"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, store.BackendBadger, cfg.Store.ResolvedBackend())
	assert.Equal(t, "/var/lib/familieapp", cfg.Store.BadgerPath)
	assert.Equal(t, 30*time.Minute, cfg.Reminder.Lead)
	assert.Equal(t, 6*time.Minute, cfg.Reminder.Lookback)
	assert.Equal(t, "Europe/Stockholm", cfg.ReminderConfig().Location.String())
	assert.Equal(t, "*/10 * * * *", cfg.Worker.Schedule)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "sqlite" }},
		{"bad timezone", func(c *config.Config) { c.Reminder.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"half vapid pair", func(c *config.Config) { c.Push.PublicKey = "pub" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, config.Default().Validate())
}

func TestTelemetryConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "production"

	tc := cfg.TelemetryConfig("familieapp-api", "1.2.3")
	assert.Equal(t, "familieapp-api", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "production", tc.Environment)
}
