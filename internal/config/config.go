// Package config loads process configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file named by CONFIG_FILE, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/familieapp/familieapp/internal/database"
	"github.com/familieapp/familieapp/internal/eventtime"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/telemetry"
	"github.com/familieapp/familieapp/internal/worker"
)

// Config is the full process configuration.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// RequireTLS rejects plain HTTP requests that did not come through a
	// TLS-terminating proxy.
	RequireTLS bool `yaml:"require_tls"`

	// CronSecret guards the reminder sweep trigger. Empty leaves it open.
	CronSecret string `yaml:"cron_secret"`

	Telemetry telemetry.Config `yaml:"telemetry"`
	Store     store.Config     `yaml:"store"`
	Push      push.Config      `yaml:"push"`
	Reminder  Reminder         `yaml:"reminder"`
	Worker    worker.Config    `yaml:"worker"`
}

// Reminder is the file and env form of reminder.Config.
type Reminder struct {
	Lead        time.Duration `yaml:"lead"`
	Lookback    time.Duration `yaml:"lookback"`
	Retention   int           `yaml:"retention"`
	Concurrency int           `yaml:"concurrency"`
	Timezone    string        `yaml:"timezone"`
}

// Default returns the built-in defaults.
func Default() Config {
	rc := reminder.DefaultConfig()
	return Config{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		Telemetry: telemetry.Config{
			OTLPEndpoint: "localhost:4317",
			Insecure:     true,
		},
		Store: store.Config{
			FilePath: store.DefaultFilePath,
			RedisKey: store.DefaultRedisKey,
			Postgres: database.DefaultConfig(),
		},
		Push: push.Config{
			Subject: push.DefaultSubject,
			TTL:     push.DefaultTTL,
		},
		Reminder: Reminder{
			Lead:        rc.Lead,
			Lookback:    rc.Lookback,
			Retention:   rc.Retention,
			Concurrency: rc.Concurrency,
			Timezone:    eventtime.DefaultLocation,
		},
		Worker: worker.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the
// environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.Environment = getEnvOrDefault("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.RequireTLS = getEnvBool("REQUIRE_TLS", c.RequireTLS)
	c.CronSecret = getEnvOrDefault("CRON_SECRET", c.CronSecret)

	c.Telemetry.Enabled = getEnvBool("OTEL_ENABLED", c.Telemetry.Enabled)
	c.Telemetry.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)

	c.Store.Backend = getEnvOrDefault("DATA_STORE", c.Store.Backend)
	c.Store.FilePath = getEnvOrDefault("DATA_FILE", c.Store.FilePath)
	c.Store.RedisURL = getEnvOrDefault("REDIS_URL", c.Store.RedisURL)
	c.Store.RedisKey = getEnvOrDefault("REDIS_KEY", c.Store.RedisKey)
	c.Store.BadgerPath = getEnvOrDefault("BADGER_PATH", c.Store.BadgerPath)
	c.Store.Postgres = database.ApplyEnv(c.Store.Postgres)

	c.Push.PublicKey = getEnvOrDefault("VAPID_PUBLIC_KEY", c.Push.PublicKey)
	c.Push.PrivateKey = getEnvOrDefault("VAPID_PRIVATE_KEY", c.Push.PrivateKey)
	c.Push.Subject = getEnvOrDefault("VAPID_SUBJECT", c.Push.Subject)
	c.Push.TTL = getEnvDuration("PUSH_TTL", c.Push.TTL)

	c.Reminder.Lead = getEnvDuration("REMINDER_LEAD", c.Reminder.Lead)
	c.Reminder.Lookback = getEnvDuration("REMINDER_LOOKBACK", c.Reminder.Lookback)
	c.Reminder.Retention = getEnvInt("REMINDER_RETENTION", c.Reminder.Retention)
	c.Reminder.Concurrency = getEnvInt("REMINDER_CONCURRENCY", c.Reminder.Concurrency)
	c.Reminder.Timezone = getEnvOrDefault("REMINDER_TIMEZONE", c.Reminder.Timezone)

	c.Worker.Schedule = getEnvOrDefault("WORKER_SCHEDULE", c.Worker.Schedule)
	c.Worker.SweepURL = getEnvOrDefault("SWEEP_URL", c.Worker.SweepURL)
	c.Worker.PubSubProjectID = getEnvOrDefault("PUBSUB_PROJECT_ID", c.Worker.PubSubProjectID)
	c.Worker.PubSubSubscription = getEnvOrDefault("PUBSUB_SUBSCRIPTION", c.Worker.PubSubSubscription)
}

// Validate rejects configurations the services cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.ResolvedBackend() {
	case store.BackendFile, store.BackendRedis, store.BackendPostgres, store.BackendBadger, store.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATA_STORE %q", c.Store.Backend))
	}
	if _, err := eventtime.LoadLocation(c.Reminder.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid REMINDER_TIMEZONE: %w", err))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	if (c.Push.PublicKey != "") != (c.Push.PrivateKey != "") {
		errs = append(errs, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// ReminderConfig resolves the reminder settings.
func (c Config) ReminderConfig() reminder.Config {
	// A nil location falls back to the reminder default.
	loc, _ := eventtime.LoadLocation(c.Reminder.Timezone)
	return reminder.Config{
		Lead:        c.Reminder.Lead,
		Lookback:    c.Reminder.Lookback,
		Retention:   c.Reminder.Retention,
		Concurrency: c.Reminder.Concurrency,
		Location:    loc,
	}
}

// Level returns the configured zerolog level, falling back to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// TelemetryConfig returns the telemetry settings for serviceName.
func (c Config) TelemetryConfig(serviceName, version string) telemetry.Config {
	tc := c.Telemetry
	if tc.ServiceName == "" {
		tc.ServiceName = serviceName
	}
	tc.ServiceVersion = version
	tc.Environment = c.Environment
	return tc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
