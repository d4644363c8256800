// Package app assembles the services shared by the API server, the worker
// and the command line.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/auth"
	"github.com/familieapp/familieapp/internal/calendar"
	"github.com/familieapp/familieapp/internal/config"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/reminder"
	"github.com/familieapp/familieapp/internal/resilience"
	"github.com/familieapp/familieapp/internal/store"
)

// WebPushUpstream prefixes the per-host push clients in the upstream registry.
const WebPushUpstream = "webpush"

// Services is the wired service graph.
type Services struct {
	Store     *store.Handle
	Calendar  *calendar.Service
	Push      *push.Service
	Reminders *reminder.Service
	Trigger   *auth.TriggerAuthenticator
	Upstreams *resilience.Registry
}

// Options adjusts Build for tests and tools.
type Options struct {
	// Transport replaces the Web Push transport.
	Transport push.Transport

	// Store replaces the configured backend.
	Store *store.Handle
}

// Build opens the store and wires every service on top of it.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger, opts Options) (*Services, error) {
	handle := opts.Store
	if handle == nil {
		var err error
		handle, err = store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.ResolvedBackend(), err)
		}
	}
	log.Info().Str("backend", handle.Backend).Msg("data store opened")

	upstreams := resilience.NewRegistry()

	transport := opts.Transport
	if transport == nil {
		clientCfg := resilience.DefaultClientConfig(WebPushUpstream)
		clientCfg.Registry = upstreams
		transport = push.NewWebPushTransport(cfg.Push, resilience.NewHostClients(clientCfg))
	}

	pushService := push.NewService(handle, transport, cfg.Push, log.With().Str("component", "push").Logger())
	if !pushService.Enabled() {
		log.Warn().Msg("VAPID keys not set, push delivery disabled")
	}

	reminderCfg := cfg.ReminderConfig()

	instruments, err := reminder.NewInstruments()
	if err != nil {
		log.Warn().Err(err).Msg("reminder metrics unavailable")
		instruments = nil
	}

	reminders := reminder.NewService(reminder.ServiceConfig{
		Config:      reminderCfg,
		Logger:      log.With().Str("component", "reminder").Logger(),
		Repository:  handle,
		Notifier:    pushService,
		Instruments: instruments,
	})

	trigger := auth.NewTriggerAuthenticator(cfg.CronSecret)
	if !trigger.Enabled() {
		log.Warn().Msg("CRON_SECRET not set, reminder trigger is unauthenticated")
	}

	return &Services{
		Store:     handle,
		Calendar:  calendar.NewService(handle, reminderCfg.Location, log.With().Str("component", "calendar").Logger()),
		Push:      pushService,
		Reminders: reminders,
		Trigger:   trigger,
		Upstreams: upstreams,
	}, nil
}

// Close releases the store.
func (s *Services) Close() error {
	return s.Store.Close()
}
