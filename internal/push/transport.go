package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/familieapp/familieapp/internal/store"
)

// Transport delivers a payload to one subscription.
type Transport interface {
	Send(ctx context.Context, sub store.Subscription, payload Payload) error
}

// WebPushTransport sends VAPID-signed, encrypted Web Push messages.
type WebPushTransport struct {
	cfg    Config
	client webpush.HTTPClient
}

// NewWebPushTransport creates a transport. A nil client uses webpush-go's
// default HTTP client.
func NewWebPushTransport(cfg Config, client webpush.HTTPClient) *WebPushTransport {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &WebPushTransport{cfg: cfg, client: client}
}

// Send encrypts and posts payload to the subscription endpoint.
// Non-2xx responses are returned as *TransportError.
func (t *WebPushTransport) Send(ctx context.Context, sub store.Subscription, payload Payload) error {
	if !t.cfg.Enabled() {
		return ErrNotConfigured
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	opts := &webpush.Options{
		Subscriber:      strings.TrimPrefix(t.cfg.Subject, "mailto:"),
		TTL:             int(t.cfg.TTL.Seconds()),
		VAPIDPublicKey:  t.cfg.PublicKey,
		VAPIDPrivateKey: t.cfg.PrivateKey,
	}
	if t.client != nil {
		opts.HTTPClient = t.client
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, opts)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return nil
}

var _ Transport = (*WebPushTransport)(nil)
