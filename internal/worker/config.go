// Package worker triggers reminder sweeps on a schedule and from Pub/Sub.
package worker

import "time"

// JobReminderSweep is the job name used in Pub/Sub messages and minted
// trigger tokens.
const JobReminderSweep = "reminder_sweep"

// JobHealthCheck is the Pub/Sub job that verifies the sweep path without
// sending anything.
const JobHealthCheck = "health_check"

// Config holds configuration for the worker.
type Config struct {
	// Schedule is a standard five-field cron expression.
	// Default: every five minutes
	Schedule string `yaml:"schedule"`

	// SweepURL, when set, makes the worker trigger sweeps over HTTP
	// instead of running them in-process.
	SweepURL string `yaml:"sweep_url"`

	// Timeout bounds a single sweep run.
	// Default: 2 minutes
	Timeout time.Duration `yaml:"timeout"`

	// RunOnStart runs one sweep as soon as the scheduler starts.
	RunOnStart bool `yaml:"run_on_start"`

	// PubSubProjectID and PubSubSubscription enable the Pub/Sub trigger
	// when both are set.
	PubSubProjectID    string `yaml:"pubsub_project_id"`
	PubSubSubscription string `yaml:"pubsub_subscription"`
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Schedule:   "*/5 * * * *",
		Timeout:    2 * time.Minute,
		RunOnStart: true,
	}
}

// PubSubEnabled reports whether the Pub/Sub trigger is configured.
func (c Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubSubscription != ""
}
