package models

// EventCreateRequest is the body of POST /v1/events.
type EventCreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end,omitempty"`
	AllDay      bool   `json:"allDay"`
	OwnerID     string `json:"ownerId" validate:"required,userid"`
}
