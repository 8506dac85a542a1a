package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/pkg/models"
)

// AuthService issues and validates the bearer tokens guarding the admin
// surface. API keys come from configuration and grant the admin role;
// sessions live in the hot Redis tier so a revoked token dies immediately.
type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
	apiKeys     map[string]struct{}
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	keys := make(map[string]struct{}, len(cfg.Auth.APIKeys))
	for _, key := range cfg.Auth.APIKeys {
		keys[key] = struct{}{}
	}
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
		apiKeys:     keys,
	}
}

func (s *AuthService) GenerateToken(clientID uuid.UUID, apiKey, role string) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		ClientID: clientID,
		APIKey:   apiKey,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "github.com/stemlight/compass",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if s.redisClient != nil {
		sessionKey := fmt.Sprintf("session:%s", clientID.String())
		if err := s.redisClient.Set(context.Background(), sessionKey, tokenString, s.config.Auth.TokenTTL).Err(); err != nil {
			// Token generation survives a Redis outage.
			s.logger.WithError(err).Warn("Failed to store session in Redis")
		}
	}

	return tokenString, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if s.redisClient != nil {
		sessionKey := fmt.Sprintf("session:%s", claims.ClientID.String())
		exists, err := s.redisClient.Exists(context.Background(), sessionKey).Result()
		if err != nil {
			// Validation continues on a Redis outage; the signature and
			// expiry already checked out.
			s.logger.WithError(err).Warn("Failed to check session in Redis")
		} else if exists == 0 {
			return nil, fmt.Errorf("session not found or expired")
		}
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(clientID uuid.UUID) error {
	if s.redisClient == nil {
		return fmt.Errorf("session store is not configured")
	}
	sessionKey := fmt.Sprintf("session:%s", clientID.String())
	if err := s.redisClient.Del(context.Background(), sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ValidateAPIKey resolves a configured key to its role. Every configured
// key grants admin; unknown keys are rejected.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	if _, ok := s.apiKeys[apiKey]; ok {
		return models.RoleAdmin, nil
	}
	return "", fmt.Errorf("invalid API key")
}
