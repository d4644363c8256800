// Package handler provides HTTP handlers for the Familie App API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/resilience"
	"github.com/familieapp/familieapp/internal/store"
)

// readyTimeout bounds the store probe of the readiness check.
const readyTimeout = 2 * time.Second

// MetricsSource exposes sweep statistics for the status endpoint.
type MetricsSource interface {
	MetricsSnapshot() map[string]interface{}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies of the operational endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Store is probed by the readiness check. StoreBackend names it.
	Store        store.Repository
	StoreBackend string

	// Upstreams reports circuit breaker health of outbound clients.
	Upstreams *resilience.Registry

	// Reminders reports sweep statistics when sweeps run in this process.
	Reminders MetricsSource

	Logger zerolog.Logger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - answers 503 while the store
// cannot be read.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	st := h.storeStatus(r.Context())

	health := models.Health{
		Status: st.Status,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			st.Name: st.Status,
		},
	}
	if st.Detail != nil {
		health.Details["detail"] = *st.Detail
	}

	status := http.StatusOK
	if st.Status != models.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - store, upstream and sweep status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	st := h.storeStatus(r.Context())
	upstreams := h.upstreamStatus()

	overall := models.HealthStatusOK
	if st.Status != models.HealthStatusOK {
		overall = models.HealthStatusFail
	} else {
		for _, u := range upstreams {
			if u.Status != models.HealthStatusOK {
				overall = models.HealthStatusDegraded
				break
			}
		}
	}

	status := models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{st},
		Upstreams:  upstreams,
	}
	if h.cfg.Reminders != nil {
		status.Reminders = h.cfg.Reminders.MetricsSnapshot()
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) storeStatus(ctx context.Context) models.SubsystemStatus {
	name := "store"
	if h.cfg.StoreBackend != "" {
		name = "store:" + h.cfg.StoreBackend
	}
	if h.cfg.Store == nil {
		return models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var err error
	if p, ok := h.cfg.Store.(pinger); ok {
		err = p.Ping(ctx)
	} else {
		_, err = h.cfg.Store.Get(ctx)
	}
	if err != nil {
		h.cfg.Logger.Warn().Err(err).Str("subsystem", name).Msg("readiness probe failed")
		detail := err.Error()
		return models.SubsystemStatus{Name: name, Status: models.HealthStatusFail, Detail: &detail}
	}
	return models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
}

func (h *OpsHandler) upstreamStatus() []models.UpstreamStatus {
	if h.cfg.Upstreams == nil {
		return []models.UpstreamStatus{}
	}

	all := h.cfg.Upstreams.All()
	out := make([]models.UpstreamStatus, 0, len(all))
	for _, health := range all {
		u := models.UpstreamStatus{
			Name:         health.Name,
			Status:       models.HealthStatusOK,
			CircuitState: health.CircuitState.String(),
		}
		switch {
		case health.IsUnhealthy():
			u.Status = models.HealthStatusFail
		case health.IsDegraded():
			u.Status = models.HealthStatusDegraded
		}
		if health.LastSuccessAt != nil {
			ts := models.Timestamp(*health.LastSuccessAt)
			u.LastSuccessAt = &ts
		}
		if health.LastFailureAt != nil {
			ts := models.Timestamp(*health.LastFailureAt)
			u.LastFailureAt = &ts
		}
		if health.LastError != "" {
			msg := health.LastError
			u.Message = &msg
		}
		out = append(out, u)
	}
	return out
}
