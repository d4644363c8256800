// Package store persists the household's shared application document.
//
// All state lives in a single Document. Every mutation is a full read, an
// in-memory transform, and a full write of the document. Backends differ only
// in where the JSON blob lives.
package store

import (
	"encoding/json"
	"errors"
	"time"
)

// Store errors.
var (
	// ErrConflict is returned when an atomic update lost a race against a
	// concurrent writer more times than the retry budget allows.
	ErrConflict = errors.New("document modified concurrently")
)

// Event is a calendar entry as persisted in the document.
// Display colors are derived from the owner and never stored.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	AllDay      bool   `json:"allDay"`
	OwnerID     string `json:"ownerId"`
}

// Keys are the client keys of a push subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is the browser's PushSubscription serialized to JSON.
// Endpoint is the subscription's identity.
type Subscription struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *float64 `json:"expirationTime,omitempty"`
	Keys           Keys     `json:"keys"`
}

// SubscriptionRecord binds one browser subscription to one user.
type SubscriptionRecord struct {
	UserID       string       `json:"userId"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Document is the single persisted aggregate.
type Document struct {
	Events        []Event              `json:"events"`
	Subscriptions []SubscriptionRecord `json:"subscriptions"`
	SentReminders []string             `json:"sentReminders"`
}

// Empty returns a document with all collections initialized.
func Empty() *Document {
	return &Document{
		Events:        []Event{},
		Subscriptions: []SubscriptionRecord{},
		SentReminders: []string{},
	}
}

// Sanitize replaces nil collections with empty ones so the document always
// serializes with arrays.
func (d *Document) Sanitize() *Document {
	if d.Events == nil {
		d.Events = []Event{}
	}
	if d.Subscriptions == nil {
		d.Subscriptions = []SubscriptionRecord{}
	}
	if d.SentReminders == nil {
		d.SentReminders = []string{}
	}
	return d
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Events:        make([]Event, len(d.Events)),
		Subscriptions: make([]SubscriptionRecord, len(d.Subscriptions)),
		SentReminders: make([]string, len(d.SentReminders)),
	}
	copy(out.Events, d.Events)
	copy(out.SentReminders, d.SentReminders)
	for i, rec := range d.Subscriptions {
		if rec.Subscription.ExpirationTime != nil {
			exp := *rec.Subscription.ExpirationTime
			rec.Subscription.ExpirationTime = &exp
		}
		out.Subscriptions[i] = rec
	}
	return out
}

// decode parses a stored document. Empty input yields an empty document.
func decode(data []byte) (*Document, error) {
	if len(data) == 0 {
		return Empty(), nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Sanitize(), nil
}

func encode(doc *Document) ([]byte, error) {
	return json.Marshal(doc.Sanitize())
}
