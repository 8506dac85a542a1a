package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/services"
)

// AdminHandler exposes the model artifact surface: inspect what is loaded
// and trigger a reload after new artifacts are deployed.
type AdminHandler struct {
	logger *logrus.Logger
	config *config.Config
	engine services.Recommender
}

func NewAdminHandler(logger *logrus.Logger, cfg *config.Config, engine services.Recommender) *AdminHandler {
	return &AdminHandler{
		logger: logger,
		config: cfg,
		engine: engine,
	}
}

// GetArtifacts reports the loaded bundle: version, row counts, disabled
// dimensions and the training-time cluster quality metrics.
func (h *AdminHandler) GetArtifacts(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.ArtifactInfo())
}

// ReloadArtifacts re-reads the catalog and bundle from disk and swaps them
// in. A failed reload leaves the previous artifacts serving.
func (h *AdminHandler) ReloadArtifacts(c *gin.Context) {
	if err := h.engine.LoadAllModels(h.config.Artifacts.CatalogPath, h.config.Artifacts.Dir); err != nil {
		h.logger.WithError(err).Error("Artifact reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ARTIFACT_RELOAD_FAILED",
				"message": "Failed to reload model artifacts",
				"details": err.Error(),
			},
		})
		return
	}

	h.logger.Info("Model artifacts reloaded")
	c.JSON(http.StatusOK, gin.H{
		"status":    "reloaded",
		"artifacts": h.engine.ArtifactInfo(),
	})
}
