package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/reminder"
)

// Sweeper runs one reminder sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (*reminder.Result, error)
}

// ReminderHandler exposes the reminder sweep trigger.
type ReminderHandler struct {
	sweeper Sweeper
	log     zerolog.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(sweeper Sweeper, log zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{sweeper: sweeper, log: log}
}

// Sweep handles GET and POST /v1/push/reminders.
func (h *ReminderHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.SweepResponse{
		OK:                   true,
		Pushed:               result.Pushed,
		RemovedSubscriptions: result.RemovedSubscriptions,
	})
}
