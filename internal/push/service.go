package push

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

// TestMessageBody is the body of notifications sent by SendTest.
const TestMessageBody = "Dette er en testmelding fra Familie App."

// DefaultURL is the page a notification opens.
const DefaultURL = "/kalender"

// Service manages subscription records and sends notifications.
type Service struct {
	repo      store.Repository
	transport Transport
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new push service.
func NewService(repo store.Repository, transport Transport, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		transport: transport,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Enabled reports whether VAPID credentials are configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled()
}

// PublicKey returns the VAPID public key browsers subscribe with.
func (s *Service) PublicKey() string {
	return s.cfg.PublicKey
}

// Send delivers one payload through the transport.
func (s *Service) Send(ctx context.Context, sub store.Subscription, payload Payload) error {
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}
	return s.transport.Send(ctx, sub, payload)
}

// Subscribe registers sub for userID. A record with the same endpoint is
// replaced, whichever user owned it.
func (s *Service) Subscribe(ctx context.Context, userID string, sub store.Subscription) error {
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}
	if errs := validateSubscribe(userID, sub); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	record := store.SubscriptionRecord{
		UserID:       userID,
		Subscription: sub,
		CreatedAt:    s.now().UTC(),
	}

	_, err := store.Update(ctx, s.repo, func(doc *store.Document) error {
		doc.Subscriptions = append(withoutEndpoint(doc.Subscriptions, sub.Endpoint), record)
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("endpoint_host", endpointHost(sub.Endpoint)).
		Msg("push subscription registered")
	return nil
}

// Unsubscribe removes every record for endpoint. Unknown endpoints are
// ignored.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return &ValidationError{Errors: []models.FieldError{{Field: "endpoint", Message: "is required"}}}
	}

	_, err := store.Update(ctx, s.repo, func(doc *store.Document) error {
		doc.Subscriptions = withoutEndpoint(doc.Subscriptions, endpoint)
		return nil
	})
	return err
}

// ListByUser returns the subscription records owned by userID.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]store.SubscriptionRecord, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return recordsForUser(doc.Subscriptions, userID), nil
}

// SendTest sends a test notification to every device of userID and
// returns how many sends succeeded. Failed sends are logged and skipped.
func (s *Service) SendTest(ctx context.Context, userID string) (int, error) {
	if !s.cfg.Enabled() {
		return 0, ErrNotConfigured
	}
	u, ok := user.Find(userID)
	if !ok {
		return 0, &ValidationError{Errors: []models.FieldError{{Field: "userId", Message: "must be a known user", Code: "unknown_user"}}}
	}

	records, err := s.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	payload := Payload{
		Title: "Test push for " + u.Name,
		Body:  TestMessageBody,
		URL:   DefaultURL,
	}

	sent := 0
	for _, rec := range records {
		if err := s.transport.Send(ctx, rec.Subscription, payload); err != nil {
			s.log.Warn().
				Err(err).
				Str("user_id", userID).
				Str("endpoint_host", endpointHost(rec.Subscription.Endpoint)).
				Msg("test push failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func validateSubscribe(userID string, sub store.Subscription) []models.FieldError {
	var errs []models.FieldError
	if !user.IsKnown(userID) {
		errs = append(errs, models.FieldError{Field: "userId", Message: "must be a known user", Code: "unknown_user"})
	}
	if sub.Endpoint == "" {
		errs = append(errs, models.FieldError{Field: "subscription.endpoint", Message: "is required"})
	}
	return errs
}

func withoutEndpoint(records []store.SubscriptionRecord, endpoint string) []store.SubscriptionRecord {
	kept := make([]store.SubscriptionRecord, 0, len(records))
	for _, rec := range records {
		if rec.Subscription.Endpoint != endpoint {
			kept = append(kept, rec)
		}
	}
	return kept
}

func recordsForUser(records []store.SubscriptionRecord, userID string) []store.SubscriptionRecord {
	out := make([]store.SubscriptionRecord, 0)
	for _, rec := range records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

// endpointHost trims an endpoint URL down to its host for logging.
// Endpoints are capability URLs and are not logged in full.
func endpointHost(endpoint string) string {
	rest := endpoint
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
