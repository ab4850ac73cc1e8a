package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTClaims struct {
	ListenerID uuid.UUID `json:"listener_id"`
	APIKey     string    `json:"api_key,omitempty"`
	Tier       string    `json:"tier"` // free, premium
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey     string `json:"api_key" validate:"required"`
	ListenerID string `json:"listener_id,omitempty"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Tier      string    `json:"tier"`
}

type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}
