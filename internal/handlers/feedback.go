package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/pkg/models"
)

type FeedbackHandler struct {
	recorder services.FeedbackRecorder
	logger   *logrus.Logger
}

func NewFeedbackHandler(recorder services.FeedbackRecorder, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// RecordFeedback stores a student's reaction to a served recommendation.
func (h *FeedbackHandler) RecordFeedback(c *gin.Context) {
	var event models.FeedbackEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid feedback event",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.recorder.RecordFeedback(c.Request.Context(), &event); err != nil {
		h.logger.WithError(err).Error("Failed to record feedback event")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "FEEDBACK_RECORDING_FAILED",
				"message": "Failed to record feedback",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "recorded",
		"event_id": event.ID,
	})
}

// RecordUsage stores a lightweight usage analytics event.
func (h *FeedbackHandler) RecordUsage(c *gin.Context) {
	var event models.UsageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid usage event",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.recorder.RecordUsage(c.Request.Context(), &event); err != nil {
		h.logger.WithError(err).Error("Failed to record usage event")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "USAGE_RECORDING_FAILED",
				"message": "Failed to record usage event",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "recorded",
		"event_id": event.ID,
	})
}
