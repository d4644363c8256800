package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/calendar"
)

// EventService is the calendar behavior the event endpoints need.
type EventService interface {
	List(ctx context.Context) ([]calendar.Event, error)
	Create(ctx context.Context, in calendar.CreateInput) (*calendar.Event, []calendar.Event, error)
	Delete(ctx context.Context, id string) ([]calendar.Event, error)
	Export(ctx context.Context) ([]byte, error)
}

// EventListResponse is the body of GET /v1/events and DELETE /v1/events/{eventId}.
type EventListResponse struct {
	Events []calendar.Event `json:"events"`
}

// EventCreatedResponse is the body of POST /v1/events.
type EventCreatedResponse struct {
	Event  calendar.Event   `json:"event"`
	Events []calendar.Event `json:"events"`
}

// ICSFilename is the download name of the calendar feed.
const ICSFilename = "familiekalender.ics"

// EventHandler handles calendar endpoints.
type EventHandler struct {
	events EventService
	log    zerolog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events EventService, log zerolog.Logger) *EventHandler {
	return &EventHandler{events: events, log: log}
}

// List handles GET /v1/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, EventListResponse{Events: events})
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if !decode(w, r, &req) {
		return
	}

	created, events, err := h.events.Create(r.Context(), calendar.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		AllDay:      req.AllDay,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/v1/events/"+created.ID, EventCreatedResponse{Event: *created, Events: events})
}

// Delete handles DELETE /v1/events/{eventId}. Unknown IDs are not an error.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")
	if id == "" {
		response.BadRequest(w, r, "eventId is required", nil)
		return
	}

	events, err := h.events.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, EventListResponse{Events: events})
}

// Export handles GET /v1/events.ics.
func (h *EventHandler) Export(w http.ResponseWriter, r *http.Request) {
	feed, err := h.events.Export(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	response.Attachment(w, r, "text/calendar; charset=utf-8", ICSFilename, feed)
}
