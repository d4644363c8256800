// Package push manages browser push subscriptions and Web Push delivery.
package push

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/familieapp/familieapp/internal/api/models"
)

// ErrNotConfigured is returned when VAPID credentials are absent.
var ErrNotConfigured = errors.New("push is not configured on server")

// DefaultSubject is the VAPID subject used when none is configured.
const DefaultSubject = "mailto:admin@example.com"

// DefaultTTL is how long push services keep undelivered messages.
const DefaultTTL = time.Hour

// Config holds the VAPID credentials.
type Config struct {
	PublicKey  string        `yaml:"vapid_public_key"`
	PrivateKey string        `yaml:"vapid_private_key"`
	Subject    string        `yaml:"vapid_subject"`
	TTL        time.Duration `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (c Config) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// Payload is the JSON message the service worker renders as a notification.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// TransportError is returned when a push service rejects or fails a send.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("push send failed: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("push send failed: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("push send failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Gone reports whether the push service says the subscription no longer
// exists.
func (e *TransportError) Gone() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsGone reports whether err is a TransportError for an expired or unknown
// subscription.
func IsGone(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Gone()
}

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
