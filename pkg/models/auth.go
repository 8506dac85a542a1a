package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Client roles. Readers call the recommendation and feedback endpoints;
// admins can additionally inspect and reload the model artifacts.
const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

type JWTClaims struct {
	ClientID uuid.UUID `json:"client_id"`
	APIKey   string    `json:"api_key,omitempty"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}
