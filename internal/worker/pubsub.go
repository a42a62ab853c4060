package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	warmJob          *WarmJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	WarmJob          *WarmJob
	Logger           zerolog.Logger
}

// WarmMessage represents a cache warm job message, typically published by
// Cloud Scheduler.
type WarmMessage struct {
	JobType   string `json:"job_type"`
	CheckOnly bool   `json:"check_only,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Warm passes can take a while with many favorites.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		warmJob:          cfg.WarmJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
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

	var warmMsg WarmMessage
	if err := json.Unmarshal(msg.Data, &warmMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch warmMsg.JobType {
	case "cache_warm":
		err = h.handleCacheWarm(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", warmMsg.JobType).Msg("unknown job type")
		msg.Ack() // ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", warmMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleCacheWarm(ctx context.Context) error {
	result := h.warmJob.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("locations", result.TotalLocations).
		Int("live", result.LiveReadings).
		Int("synthetic", result.Synthetic).
		Msg("cache warm completed")

	// Synthetic answers outnumbering live ones means the upstream sources
	// are effectively down; nack so the pass is retried.
	if result.Synthetic > result.LiveReadings {
		return fmt.Errorf("too many synthetic answers: %d/%d", result.Synthetic, result.TotalLocations)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// A single-location pass verifies upstream connectivity end to end.
	healthCheckJob := NewWarmJob(WarmJobConfig{
		Config: WarmConfig{
			Targets:      DefaultWarmTargets()[:1],
			Concurrency:  1,
			Timeout:      10 * time.Second,
			WarmCurrent:  true,
			WarmForecast: false,
		},
		Logger:   h.logger,
		Provider: h.warmJob.provider,
	})

	result := healthCheckJob.Run(ctx)
	if result.Synthetic > 0 {
		return fmt.Errorf("health check failed: %d/%d synthetic", result.Synthetic, result.TotalLocations)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
