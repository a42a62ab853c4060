package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
)

// DefaultAlertThreshold is the AQI level at which alerts fire. 150 is the
// lower bound of the "Unhealthy" band.
const DefaultAlertThreshold = 150

// AlertSink receives readings whose AQI crossed the alert threshold.
type AlertSink interface {
	Publish(ctx context.Context, reading *airquality.Reading) error
}

// AlertMessage is the payload published for a threshold crossing.
type AlertMessage struct {
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	AQI       int       `json:"aqi"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertPublisher publishes threshold-crossing readings to a Pub/Sub topic.
type AlertPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// AlertPublisherConfig holds configuration for the alert publisher.
type AlertPublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewAlertPublisher creates a publisher for the configured alert topic.
func NewAlertPublisher(ctx context.Context, cfg AlertPublisherConfig) (*AlertPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &AlertPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// Publish sends one alert message and waits for server acknowledgement.
func (p *AlertPublisher) Publish(ctx context.Context, reading *airquality.Reading) error {
	msg := AlertMessage{
		City:      reading.Location.City,
		Country:   reading.Location.Country,
		Lat:       reading.Location.Lat,
		Lon:       reading.Location.Lon,
		AQI:       reading.AQI,
		Category:  airquality.Category(reading.AQI),
		Source:    reading.Source,
		Timestamp: reading.Timestamp,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing alert: %w", err)
	}

	p.logger.Info().
		Str("message_id", id).
		Str("city", msg.City).
		Int("aqi", msg.AQI).
		Str("category", msg.Category).
		Msg("published air quality alert")

	return nil
}

// Close flushes pending messages and releases the client.
func (p *AlertPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
