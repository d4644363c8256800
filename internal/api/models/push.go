package models

import "github.com/familieapp/familieapp/internal/store"

// PushSubscribeRequest is the body of POST /v1/push/subscribe.
type PushSubscribeRequest struct {
	UserID       string              `json:"userId" validate:"required,userid"`
	Subscription *store.Subscription `json:"subscription" validate:"required"`
}

// PushUnsubscribeRequest is the body of POST /v1/push/unsubscribe.
type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// PushTestRequest is the body of POST /v1/push/test.
type PushTestRequest struct {
	UserID string `json:"userId" validate:"required,userid"`
}

// PushTestResponse reports how many devices accepted a test push.
type PushTestResponse struct {
	OK   bool `json:"ok"`
	Sent int  `json:"sent"`
}

// PublicKeyResponse is the body of GET /v1/push/public-key.
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
	Enabled   bool   `json:"enabled"`
}

// SweepResponse is the body returned by the reminder sweep trigger.
type SweepResponse struct {
	OK                   bool `json:"ok"`
	Pushed               int  `json:"pushed"`
	RemovedSubscriptions int  `json:"removedSubscriptions"`
}
