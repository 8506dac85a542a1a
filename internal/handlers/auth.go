package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/middleware"
	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/pkg/models"
)

type AuthHandler struct {
	authService *services.AuthService
	config      *config.Config
	logger      *logrus.Logger
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
		logger:      logger,
	}
}

// IssueToken exchanges a configured API key for a JWT.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "api_key is required",
			},
		})
		return
	}

	role, err := h.authService.ValidateAPIKey(req.APIKey)
	if err != nil {
		h.logger.Warn("Token requested with invalid API key")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "INVALID_API_KEY",
				"message": "Invalid API key",
			},
		})
		return
	}

	clientID := uuid.New()
	token, err := h.authService.GenerateToken(clientID, req.APIKey, role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "TOKEN_GENERATION_FAILED",
				"message": "Failed to generate token",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.config.Auth.TokenTTL),
		Role:      role,
	})
}

// RevokeToken invalidates the caller's session.
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	clientID, _, _ := middleware.GetClientFromContext(c)
	if clientID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "MISSING_CLIENT",
				"message": "No authenticated client in request context",
			},
		})
		return
	}

	if err := h.authService.RevokeToken(clientID); err != nil {
		h.logger.WithError(err).Error("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "TOKEN_REVOCATION_FAILED",
				"message": "Failed to revoke token",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
