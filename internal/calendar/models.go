// Package calendar manages the shared family calendar.
package calendar

import (
	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

// Colors used for events whose owner is not in the directory.
const (
	FallbackColor     = "#64748b"
	FallbackTextColor = "#ffffff"
)

// Event is a stored event decorated with its owner's display colors.
type Event struct {
	store.Event
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	TextColor       string `json:"textColor"`
}

// CreateInput is the data accepted when creating an event.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	AllDay      bool   `json:"allDay"`
	OwnerID     string `json:"ownerId"`
}

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Decorate derives display colors from the event owner.
func Decorate(ev store.Event) Event {
	out := Event{
		Event:           ev,
		BackgroundColor: FallbackColor,
		BorderColor:     FallbackColor,
		TextColor:       FallbackTextColor,
	}
	if u, ok := user.Find(ev.OwnerID); ok {
		out.BackgroundColor = u.Color
		out.BorderColor = u.Color
		out.TextColor = u.TextColor
	}
	return out
}

// DecorateAll decorates every event, preserving order.
func DecorateAll(events []store.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, Decorate(ev))
	}
	return out
}
