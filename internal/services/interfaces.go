package services

import (
	"context"

	"github.com/stemlight/compass/pkg/models"
)

// Recommender is the engine surface the HTTP handlers consume.
type Recommender interface {
	GetRecommendations(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
	LoadAllModels(catalogPath, bundleDir string) error
	ArtifactInfo() map[string]interface{}
	Ready() bool
}

// FeedbackRecorder is the event surface the HTTP handlers consume.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, event *models.FeedbackEvent) error
	RecordUsage(ctx context.Context, event *models.UsageEvent) error
}
