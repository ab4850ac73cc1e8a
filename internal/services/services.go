package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/internal/database"
	"github.com/encorefm/encore/internal/messaging"
)

type Services struct {
	Auth       *AuthService
	Health     *HealthService
	RateLimit  *RateLimitService
	MessageBus *messaging.MessageBus
	MusicStore *MusicStore
	Sessions   *SessionStore
	Insights   *ScoreInsights
	Engine     *RecommendationEngine
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	authService := NewAuthService(cfg, logger, db.Redis.Hot)
	healthService := NewHealthService(cfg, logger, db)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Hot)

	messageBus, err := messaging.NewMessageBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	musicStore := NewMusicStore(db.PG, db.Redis.Warm, cfg.Engine.Caching.CatalogTTL, logger)
	sessionStore := NewSessionStore(db.Redis.Hot, cfg.Engine.Caching.SessionTTL, logger)
	insights := NewScoreInsights()

	engine := NewRecommendationEngine(
		musicStore, &cfg.Engine, logger,
		NewSeededJitter(time.Now().UnixNano()), insights,
	)

	return &Services{
		Auth:       authService,
		Health:     healthService,
		RateLimit:  rateLimitService,
		MessageBus: messageBus,
		MusicStore: musicStore,
		Sessions:   sessionStore,
		Insights:   insights,
		Engine:     engine,
	}, nil
}
