package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/store"
)

// PushService is the push behavior the subscription endpoints need.
type PushService interface {
	Enabled() bool
	PublicKey() string
	Subscribe(ctx context.Context, userID string, sub store.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
	SendTest(ctx context.Context, userID string) (int, error)
}

// PushHandler handles push subscription endpoints.
type PushHandler struct {
	push PushService
	log  zerolog.Logger
}

// NewPushHandler creates a new PushHandler.
func NewPushHandler(push PushService, log zerolog.Logger) *PushHandler {
	return &PushHandler{push: push, log: log}
}

// PublicKey handles GET /v1/push/public-key.
func (h *PushHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.PublicKeyResponse{
		PublicKey: h.push.PublicKey(),
		Enabled:   h.push.Enabled(),
	})
}

// Subscribe handles POST /v1/push/subscribe.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.PushSubscribeRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.push.Subscribe(r.Context(), req.UserID, *req.Subscription); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.OKResponse{OK: true})
}

// Unsubscribe handles POST /v1/push/unsubscribe.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req models.PushUnsubscribeRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.OKResponse{OK: true})
}

// Test handles POST /v1/push/test.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req models.PushTestRequest
	if !decode(w, r, &req) {
		return
	}

	sent, err := h.push.SendTest(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.PushTestResponse{OK: true, Sent: sent})
}
