// Package api provides the HTTP API for Familie App.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/handler"
	"github.com/familieapp/familieapp/internal/api/middleware"
	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/resilience"
	"github.com/familieapp/familieapp/internal/store"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Events    handler.EventService
	Push      handler.PushService
	Reminders handler.Sweeper

	// ReminderMetrics is reported by /v1/ops/status when set.
	ReminderMetrics handler.MetricsSource

	// TriggerAuth guards the reminder sweep and the status endpoint.
	TriggerAuth middleware.Authorizer

	Store        store.Repository
	StoreBackend string
	Upstreams    *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "familieapp-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Store:        cfg.Store,
		StoreBackend: cfg.StoreBackend,
		Upstreams:    cfg.Upstreams,
		Reminders:    cfg.ReminderMetrics,
		Logger:       cfg.Logger,
	})
	userHandler := handler.NewUserHandler()
	eventHandler := handler.NewEventHandler(cfg.Events, cfg.Logger)
	pushHandler := handler.NewPushHandler(cfg.Push, cfg.Logger)
	reminderHandler := handler.NewReminderHandler(cfg.Reminders, cfg.Logger)

	triggerAuth := middleware.TriggerAuth(cfg.TriggerAuth)
	pushEnabled := middleware.RequireEnabled(cfg.Push.Enabled, models.NewPushNotConfigured)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 120 req/min
	writeRateLimit := middleware.RateLimitByIP(middleware.WriteRateLimit)       // 30 req/min
	triggerRateLimit := middleware.RateLimitByIP(middleware.TriggerRateLimit)   // 10 req/min

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "No route matches "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, models.NewProblem(models.ProblemTypeNotFound, "Method not allowed", http.StatusMethodNotAllowed, "").
			WithDetail(r.Method+" is not supported on "+r.URL.Path))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		// Ops endpoints
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(triggerAuth).Get("/status", opsHandler.SystemStatus)
		})

		r.With(standardRateLimit).Get("/users", userHandler.List)

		// Calendar
		r.With(standardRateLimit).Get("/events.ics", eventHandler.Export)
		r.Route("/events", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", eventHandler.List)
			r.With(writeRateLimit).Post("/", eventHandler.Create)
			r.With(writeRateLimit).Delete("/{eventId}", eventHandler.Delete)
		})

		// Push
		r.Route("/push", func(r chi.Router) {
			r.With(standardRateLimit).Get("/public-key", pushHandler.PublicKey)
			r.With(writeRateLimit, pushEnabled).Post("/subscribe", pushHandler.Subscribe)
			r.With(writeRateLimit).Post("/unsubscribe", pushHandler.Unsubscribe)
			r.With(triggerRateLimit, pushEnabled).Post("/test", pushHandler.Test)

			// Reminder sweep: not-configured is reported before auth.
			r.Group(func(r chi.Router) {
				r.Use(triggerRateLimit, pushEnabled, triggerAuth)
				r.Get("/reminders", reminderHandler.Sweep)
				r.Post("/reminders", reminderHandler.Sweep)
			})
		})
	})

	return r
}
