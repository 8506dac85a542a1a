package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/pkg/models"
)

type RecommendationHandler struct {
	engine    services.Recommender
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewRecommendationHandler(engine services.Recommender, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine:    engine,
		validator: validator.New(),
		logger:    logger,
	}
}

// Recommend matches the posted student profile against the catalog and
// returns the ranked list.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid recommendation request",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Recommendation request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	response, err := h.engine.GetRecommendations(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrModelsNotLoaded) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "MODELS_NOT_LOADED",
					"message": "Recommendation models are not loaded",
				},
			})
			return
		}

		h.logger.WithError(err).Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_GENERATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
