package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

func (s *AuthService) GenerateToken(listenerID uuid.UUID, apiKey, tier string) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		ListenerID: listenerID,
		APIKey:     apiKey,
		Tier:       tier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "github.com/encorefm/encore",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	// Token generation still succeeds when Redis is down; the session record
	// is only used for revocation.
	tokenKey := fmt.Sprintf("auth:token:%s", listenerID.String())
	if err := s.redisClient.Set(context.Background(), tokenKey, tokenString, s.config.Auth.TokenTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to store auth token in Redis")
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

	tokenKey := fmt.Sprintf("auth:token:%s", claims.ListenerID.String())
	exists, err := s.redisClient.Exists(context.Background(), tokenKey).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check auth token in Redis")
		// Continue validation even if Redis is down
	} else if exists == 0 {
		return nil, fmt.Errorf("token revoked or expired")
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(listenerID uuid.UUID) error {
	tokenKey := fmt.Sprintf("auth:token:%s", listenerID.String())
	if err := s.redisClient.Del(context.Background(), tokenKey).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	// TODO: back API keys with a table once partner onboarding needs more
	// than the demo keys.
	apiKeyToTier := map[string]string{
		"demo-free-key":    "free",
		"demo-premium-key": "premium",
	}

	if tier, exists := apiKeyToTier[apiKey]; exists {
		return tier, nil
	}

	return "", fmt.Errorf("invalid API key")
}
