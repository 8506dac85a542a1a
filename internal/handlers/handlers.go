package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Feedback       *FeedbackHandler
	Auth           *AuthHandler
	Admin          *AdminHandler
}

func New(logger *logrus.Logger, cfg *config.Config, svc *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svc.Health),
		Recommendation: NewRecommendationHandler(svc.Engine, logger),
		Feedback:       NewFeedbackHandler(svc.Feedback, logger),
		Auth:           NewAuthHandler(svc.Auth, cfg, logger),
		Admin:          NewAdminHandler(logger, cfg, svc.Engine),
	}
}
