package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/messaging"
	"github.com/stemlight/compass/pkg/models"
)

const (
	insertFeedbackSQL = `
		INSERT INTO feedback_events (
			id, resource_name, feedback_type, comment, student_grade, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	insertUsageSQL = `
		INSERT INTO usage_events (
			id, event_type, payload, created_at
		) VALUES ($1, $2, $3, $4)
	`
)

// EventStore is the slice of the Postgres pool the feedback service needs.
type EventStore interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// FeedbackService persists student feedback and usage events and fans them
// out to the event bus. Without a store it degrades to log-only, without a
// bus it skips publishing; neither condition fails the request.
type FeedbackService struct {
	store   EventStore
	bus     *messaging.EventBus
	metrics *EngineMetrics
	logger  *logrus.Logger
}

func NewFeedbackService(store EventStore, bus *messaging.EventBus, metrics *EngineMetrics, logger *logrus.Logger) *FeedbackService {
	if metrics == nil {
		metrics = NewEngineMetrics(logger)
	}
	return &FeedbackService{store: store, bus: bus, metrics: metrics, logger: logger}
}

// RecordFeedback stores one feedback event, assigning identity and
// timestamp when the caller left them zero.
func (s *FeedbackService) RecordFeedback(ctx context.Context, event *models.FeedbackEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_id":      event.ID,
		"feedback_type": event.FeedbackType,
		"resource":      event.ResourceName,
	})

	if s.store == nil {
		s.metrics.EventRecorded(event.FeedbackType, "log")
		log.Info("Recorded feedback (no event store configured)")
	} else {
		_, err := s.store.Exec(ctx, insertFeedbackSQL,
			event.ID, event.ResourceName, event.FeedbackType,
			event.Comment, event.StudentGrade, event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert feedback event: %w", err)
		}
		s.metrics.EventRecorded(event.FeedbackType, "postgres")
		log.Info("Recorded feedback")
	}

	s.publish(ctx, func(c context.Context) error { return s.bus.PublishFeedback(c, *event) })
	return nil
}

// RecordUsage stores one usage analytics event.
func (s *FeedbackService) RecordUsage(ctx context.Context, event *models.UsageEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.EventType,
	})

	if s.store == nil {
		s.metrics.EventRecorded(event.EventType, "log")
		log.Info("Recorded usage event (no event store configured)")
	} else {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal usage payload: %w", err)
		}
		if _, err := s.store.Exec(ctx, insertUsageSQL,
			event.ID, event.EventType, payload, event.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert usage event: %w", err)
		}
		s.metrics.EventRecorded(event.EventType, "postgres")
		log.Info("Recorded usage event")
	}

	s.publish(ctx, func(c context.Context) error { return s.bus.PublishUsage(c, *event) })
	return nil
}

// publish sends the event to the bus. Publish failures are logged, never
// surfaced: the event is already durable by the time we get here.
func (s *FeedbackService) publish(ctx context.Context, send func(context.Context) error) {
	if s.bus == nil || !s.bus.Enabled() {
		return
	}
	if err := send(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to publish event to bus")
	}
}
