package services

import (
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/database"
	"github.com/stemlight/compass/internal/messaging"
)

type Services struct {
	Auth      *AuthService
	Health    *HealthService
	RateLimit *RateLimitService
	EventBus  *messaging.EventBus
	Engine    *RecommendationEngine
	Feedback  *FeedbackService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	authService := NewAuthService(cfg, logger, db.Redis.Hot)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Hot)

	eventBus, err := messaging.NewEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	// One metrics instance shared by the engine and the feedback service so
	// the collectors register exactly once.
	metrics := NewEngineMetrics(logger)

	engine := NewRecommendationEngine(cfg, logger, db.Redis.Warm, eventBus, metrics)

	// A nil pool must stay an untyped nil so the feedback service sees the
	// store as absent and degrades to log-only.
	var store EventStore
	if db.PG != nil {
		store = db.PG
	}
	feedbackService := NewFeedbackService(store, eventBus, metrics, logger)

	healthService := NewHealthService(cfg, logger, db, engine)

	return &Services{
		Auth:      authService,
		Health:    healthService,
		RateLimit: rateLimitService,
		EventBus:  eventBus,
		Engine:    engine,
		Feedback:  feedbackService,
	}, nil
}

// Close releases resources owned by the service layer.
func (s *Services) Close() error {
	if s.EventBus != nil {
		return s.EventBus.Close()
	}
	return nil
}
