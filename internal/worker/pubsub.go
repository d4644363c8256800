package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// SweepMessage is the Pub/Sub message body understood by the worker.
type SweepMessage struct {
	JobType string `json:"job_type"`
}

// MessageHandler decodes and runs worker jobs independent of the transport.
type MessageHandler struct {
	job    *SweepJob
	health func(ctx context.Context) error
	logger zerolog.Logger
}

// NewMessageHandler creates a handler running job. health backs the
// health_check job and may be nil.
func NewMessageHandler(job *SweepJob, health func(ctx context.Context) error, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{job: job, health: health, logger: log}
}

// Handle runs the job named in data. Unknown job types are ignored so
// they are acknowledged and not redelivered.
func (h *MessageHandler) Handle(ctx context.Context, data []byte) error {
	var msg SweepMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	switch msg.JobType {
	case JobReminderSweep:
		_, err := h.job.Run(ctx)
		return err
	case JobHealthCheck:
		if h.health == nil {
			return nil
		}
		if err := h.health(ctx); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		return nil
	default:
		h.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}

// PubSubHandler receives worker jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	handler          *MessageHandler
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Handler          *MessageHandler
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Sweeps are serialized by the job, so a small window is enough.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		handler:          cfg.Handler,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if err := h.handler.Handle(ctx, msg.Data); err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("message handled")
	msg.Ack()
}
