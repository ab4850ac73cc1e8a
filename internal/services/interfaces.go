package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/encorefm/encore/pkg/models"
)

// RecommendationEngineInterface is what the HTTP layer programs against.
type RecommendationEngineInterface interface {
	RankSessionRecommendations(ctx context.Context, listenerID uuid.UUID, played []models.Track, exclude map[uuid.UUID]struct{}) ([]models.ScoredTrack, error)
	RankContextualRecommendations(ctx context.Context, listenerID uuid.UUID, current models.Track, exclude map[uuid.UUID]struct{}) ([]models.ScoredTrack, error)
	RankHistoryRecommendations(ctx context.Context, listenerID uuid.UUID) ([]models.ScoredTrack, bool, error)
	TrendingTracks(ctx context.Context, listenerID uuid.UUID) ([]models.ScoredTrack, error)
}

// MusicStoreInterface defines the persistence operations handlers use.
type MusicStoreInterface interface {
	MusicStoreReader
	GetTrack(ctx context.Context, trackID uuid.UUID) (*models.Track, error)
	GetTracksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Track, error)
	CreateTrack(ctx context.Context, req *models.TrackIngestionRequest) (*models.Track, error)
	RecordPlay(ctx context.Context, listenerID, trackID uuid.UUID, minutes float64) error
	LikeTrack(ctx context.Context, listenerID, trackID uuid.UUID) error
	UnlikeTrack(ctx context.Context, listenerID, trackID uuid.UUID) error
}

// SessionStoreInterface defines session played-set operations.
type SessionStoreInterface interface {
	MarkPlayed(ctx context.Context, sessionID string, trackID uuid.UUID) error
	PlayedTrackIDs(ctx context.Context, sessionID string) ([]uuid.UUID, error)
}
