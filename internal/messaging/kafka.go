package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/pkg/models"
)

// Default topic names, overridable through config.
const (
	RecommendationsTopic = "compass.recommendations.served"
	FeedbackTopic        = "compass.feedback"
)

// ServedEvent is published once per recommendation response. Downstream
// consumers (analytics, offline evaluation) key on the profile hash.
type ServedEvent struct {
	RequestID      uuid.UUID `json:"request_id"`
	ProfileHash    string    `json:"profile_hash"`
	ResultCount    int       `json:"result_count"`
	CandidateCount int       `json:"candidate_count"`
	Relaxations    []string  `json:"relaxations,omitempty"`
	CacheHit       bool      `json:"cache_hit"`
	DurationMs     int64     `json:"duration_ms"`
	ServedAt       time.Time `json:"served_at"`
}

// FeedbackMessage wraps a student feedback or usage event on the wire.
type FeedbackMessage struct {
	Kind       string                `json:"kind"`
	Feedback   *models.FeedbackEvent `json:"feedback,omitempty"`
	Usage      *models.UsageEvent    `json:"usage,omitempty"`
	ReceivedAt time.Time             `json:"received_at"`
}

// EventBus is a publish-only Kafka client. With no brokers configured it is
// constructed disabled and every publish is a silent no-op, so the serving
// path never depends on Kafka being present.
type EventBus struct {
	recommendations *kafka.Writer
	feedback        *kafka.Writer
	logger          *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) (*EventBus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("No Kafka brokers configured, event publishing disabled")
		return &EventBus{logger: logger}, nil
	}

	recTopic := cfg.Kafka.Topics.Recommendations
	if recTopic == "" {
		recTopic = RecommendationsTopic
	}
	feedbackTopic := cfg.Kafka.Topics.Feedback
	if feedbackTopic == "" {
		feedbackTopic = FeedbackTopic
	}

	bus := &EventBus{
		recommendations: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        recTopic,
			Balancer:     &kafka.Hash{}, // key by profile hash
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		feedback: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        feedbackTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		logger: logger,
	}

	logger.WithFields(logrus.Fields{
		"brokers":               cfg.Kafka.Brokers,
		"recommendations_topic": recTopic,
		"feedback_topic":        feedbackTopic,
	}).Info("Kafka event bus initialized")

	return bus, nil
}

// Enabled reports whether publishes reach a broker.
func (b *EventBus) Enabled() bool {
	return b.recommendations != nil
}

func (b *EventBus) PublishRecommendationServed(ctx context.Context, event ServedEvent) error {
	if b.recommendations == nil {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal served event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ProfileHash),
		Value: value,
		Headers: []kafka.Header{
			{Key: "request_id", Value: []byte(event.RequestID.String())},
			{Key: "timestamp", Value: []byte(event.ServedAt.Format(time.RFC3339))},
		},
	}

	if err := b.recommendations.WriteMessages(ctx, message); err != nil {
		b.logger.WithError(err).WithField("request_id", event.RequestID).Error("Failed to publish served event")
		return fmt.Errorf("failed to write served event: %w", err)
	}
	return nil
}

func (b *EventBus) PublishFeedback(ctx context.Context, event models.FeedbackEvent) error {
	return b.publishFeedbackMessage(ctx, FeedbackMessage{
		Kind:       "feedback",
		Feedback:   &event,
		ReceivedAt: time.Now().UTC(),
	}, event.FeedbackType, event.ID)
}

func (b *EventBus) PublishUsage(ctx context.Context, event models.UsageEvent) error {
	return b.publishFeedbackMessage(ctx, FeedbackMessage{
		Kind:       "usage",
		Usage:      &event,
		ReceivedAt: time.Now().UTC(),
	}, event.EventType, event.ID)
}

func (b *EventBus) publishFeedbackMessage(ctx context.Context, message FeedbackMessage, key string, id uuid.UUID) error {
	if b.feedback == nil {
		return nil
	}

	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", message.Kind, err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(message.Kind)},
			{Key: "event_id", Value: []byte(id.String())},
			{Key: "timestamp", Value: []byte(message.ReceivedAt.Format(time.RFC3339))},
		},
	}

	if err := b.feedback.WriteMessages(ctx, kafkaMessage); err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"kind":     message.Kind,
			"event_id": id,
		}).Error("Failed to publish event")
		return fmt.Errorf("failed to write %s event: %w", message.Kind, err)
	}
	return nil
}

func (b *EventBus) Close() error {
	var errors []error

	if b.recommendations != nil {
		if err := b.recommendations.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close recommendations writer: %w", err))
		}
	}
	if b.feedback != nil {
		if err := b.feedback.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close feedback writer: %w", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors closing event bus: %v", errors)
	}
	return nil
}

// GetMetrics returns writer statistics for monitoring.
func (b *EventBus) GetMetrics() map[string]interface{} {
	if b.recommendations == nil {
		return map[string]interface{}{"enabled": false}
	}

	recStats := b.recommendations.Stats()
	feedbackStats := b.feedback.Stats()
	return map[string]interface{}{
		"enabled":                 true,
		"recommendations_writes":  recStats.Writes,
		"recommendations_errors":  recStats.Errors,
		"recommendations_retries": recStats.Retries,
		"feedback_writes":         feedbackStats.Writes,
		"feedback_errors":         feedbackStats.Errors,
		"feedback_retries":        feedbackStats.Retries,
	}
}
