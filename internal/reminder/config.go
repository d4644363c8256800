// Package reminder sends push reminders shortly before calendar events start.
package reminder

import (
	"time"

	"github.com/familieapp/familieapp/internal/eventtime"
)

// Config holds configuration for the reminder sweep.
type Config struct {
	// Lead is how long before an event starts its reminder is due.
	// Default: 1 hour
	Lead time.Duration

	// Lookback is how long after the reminder instant a sweep still sends it.
	// It must exceed the interval between scheduled sweeps.
	// Default: 6 minutes
	Lookback time.Duration

	// Retention is the number of dedupe keys kept in the sent log.
	// Default: 6000
	Retention int

	// Concurrency is the number of concurrent push deliveries.
	// Default: 4
	Concurrency int

	// SendTimeout bounds each individual delivery.
	// Default: 30 seconds
	SendTimeout time.Duration

	// Location is the zone used for zone-less event times and for the
	// time shown in notification bodies.
	// Default: Europe/Oslo
	Location *time.Location
}

// DefaultConfig returns the default reminder configuration.
func DefaultConfig() Config {
	loc, err := eventtime.LoadLocation(eventtime.DefaultLocation)
	if err != nil {
		loc = time.UTC
	}
	return Config{
		Lead:        time.Hour,
		Lookback:    6 * time.Minute,
		Retention:   6000,
		Concurrency: 4,
		SendTimeout: 30 * time.Second,
		Location:    loc,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Lead <= 0 {
		c.Lead = def.Lead
	}
	if c.Lookback <= 0 {
		c.Lookback = def.Lookback
	}
	if c.Retention <= 0 {
		c.Retention = def.Retention
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.Location == nil {
		c.Location = def.Location
	}
	return c
}
