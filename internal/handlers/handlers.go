package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/services"
	"github.com/encorefm/encore/internal/validation"
)

type Handlers struct {
	Health         *HealthHandler
	Track          *TrackHandler
	Listening      *ListeningHandler
	Recommendation *RecommendationHandler
	Insights       *InsightsHandler
}

func New(logger *logrus.Logger, services *services.Services) (*Handlers, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Track:          NewTrackHandler(services.MusicStore, services.Engine, validator, logger),
		Listening:      NewListeningHandler(services.MusicStore, services.Sessions, services.MessageBus, validator, logger),
		Recommendation: NewRecommendationHandler(services.Engine, services.Sessions, services.MusicStore, logger),
		Insights:       NewInsightsHandler(services.Insights, logger),
	}, nil
}
