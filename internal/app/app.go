package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/internal/database"
	"github.com/encorefm/encore/internal/handlers"
	"github.com/encorefm/encore/internal/middleware"
	"github.com/encorefm/encore/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svcs, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svcs

	app.handlers, err = handlers.New(app.logger, svcs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.services.MessageBus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing message bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.Security())

	// Health and metrics endpoints skip auth
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(a.services.Auth, a.logger))
		api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))

		tracks := api.Group("/tracks")
		{
			tracks.POST("", a.handlers.Track.Create)
			tracks.GET("/trending", a.handlers.Track.Trending)
			tracks.GET("/:trackId", a.handlers.Track.Get)
		}

		listening := api.Group("/listening")
		{
			listening.POST("/play", a.handlers.Listening.Play)
			listening.POST("/like", a.handlers.Listening.Like)
			listening.POST("/unlike", a.handlers.Listening.Unlike)
		}

		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("/session/:sessionId", a.handlers.Recommendation.Session)
			recommendations.GET("/contextual", a.handlers.Recommendation.Contextual)
			recommendations.GET("/history", a.handlers.Recommendation.History)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/insights/scores", a.handlers.Insights.Scores)
		}
	}

	a.router = router
}
