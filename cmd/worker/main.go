// Package main provides the entrypoint for the reminder worker.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/app"
	"github.com/familieapp/familieapp/internal/auth"
	"github.com/familieapp/familieapp/internal/config"
	"github.com/familieapp/familieapp/internal/resilience"
	"github.com/familieapp/familieapp/internal/telemetry"
	"github.com/familieapp/familieapp/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "familieapp-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Familie App worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, cfg.TelemetryConfig(serviceName, Version), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Sweep in-process unless an API endpoint is configured.
	var (
		sweeper worker.Sweeper
		health  func(ctx context.Context) error
	)
	if cfg.Worker.SweepURL != "" {
		sweeper = worker.NewRemoteSweeper(
			cfg.Worker.SweepURL,
			resilience.NewClient(worker.SweepClientConfig(cfg.Worker.Timeout)),
			auth.NewTriggerAuthenticator(cfg.CronSecret),
		)
		log.Info().Str("sweep_url", cfg.Worker.SweepURL).Msg("triggering remote sweeps")
	} else {
		services, err := app.Build(ctx, cfg, log, app.Options{})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize services")
		}
		defer func() { _ = services.Close() }()
		sweeper = services.Reminders
		health = services.Store.Ping
		log.Info().Msg("running sweeps in-process")
	}

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Sweeper: sweeper,
		Timeout: cfg.Worker.Timeout,
		Logger:  log.With().Str("component", "sweep").Logger(),
	})

	scheduler, err := worker.NewScheduler(cfg.Worker, job, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Start(ctx)
	}()

	if cfg.Worker.PubSubEnabled() {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.Worker.PubSubProjectID,
			SubscriptionName: cfg.Worker.PubSubSubscription,
			Handler:          worker.NewMessageHandler(job, health, log),
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() { _ = handler.Close() }()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Worker also exposes a health endpoint for the platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":   models.HealthStatusOK,
			"version":  Version,
			"next_run": scheduler.Next().Format(time.RFC3339),
			"sweeps":   job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	wg.Wait()

	log.Info().Msg("worker stopped")
}
