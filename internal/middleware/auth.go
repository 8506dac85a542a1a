package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/pkg/models"
)

// Auth guards the admin surface. It accepts either a JWT issued by the token
// endpoint or a raw configured API key as the bearer credential.
func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "MISSING_AUTHORIZATION",
					"message": "Authorization header is required",
				},
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_AUTHORIZATION_FORMAT",
					"message": "Authorization header must be in format 'Bearer <token>'",
				},
			})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		// JWTs contain dots; anything else is treated as an API key.
		if !strings.Contains(tokenString, ".") {
			role, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "INVALID_API_KEY",
						"message": "Invalid API key",
					},
				})
				c.Abort()
				return
			}

			c.Set("client_id", uuid.New())
			c.Set("role", role)
			c.Set("api_key", tokenString)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			c.Abort()
			return
		}

		c.Set("client_id", claims.ClientID)
		c.Set("role", claims.Role)
		c.Set("api_key", claims.APIKey)
		c.Next()
	}
}

// RequireRole rejects authenticated clients whose role does not match.
func RequireRole(role string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, exists := c.Get("role")
		if !exists || got != role {
			logger.WithFields(logrus.Fields{
				"required": role,
				"got":      got,
			}).Warn("Insufficient role for request")

			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions for this operation",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetClientFromContext returns the authenticated client identity set by Auth.
func GetClientFromContext(c *gin.Context) (uuid.UUID, string, string) {
	clientID := uuid.Nil
	if v, exists := c.Get("client_id"); exists {
		if id, ok := v.(uuid.UUID); ok {
			clientID = id
		}
	}

	role := models.RoleReader
	if v, exists := c.Get("role"); exists {
		if r, ok := v.(string); ok {
			role = r
		}
	}

	apiKey := ""
	if v, exists := c.Get("api_key"); exists {
		if k, ok := v.(string); ok {
			apiKey = k
		}
	}

	return clientID, role, apiKey
}
