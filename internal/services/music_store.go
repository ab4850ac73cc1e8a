package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/pkg/models"
)

const catalogCacheKey = "catalog:all"

// PgxPool is the pool surface the store uses, narrowed so tests can
// substitute pgxmock.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// MusicStore owns all track, history and like persistence. The full catalog
// is cached in warm Redis with a short TTL; every write that changes a track
// row invalidates it.
type MusicStore struct {
	db     PgxPool
	cache  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewMusicStore(db PgxPool, cache *redis.Client, ttl time.Duration, logger *logrus.Logger) *MusicStore {
	return &MusicStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ListCatalog returns every track, served from warm Redis when fresh.
func (s *MusicStore) ListCatalog(ctx context.Context) ([]models.Track, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, catalogCacheKey).Result(); err == nil {
			var tracks []models.Track
			if jsonErr := json.Unmarshal([]byte(cached), &tracks); jsonErr == nil {
				return tracks, nil
			} else {
				s.logger.WithError(jsonErr).Warn("Corrupt catalog cache entry, refetching")
			}
		}
	}

	query := `
		SELECT id, title, artist, language, tags, like_count, view_count, created_at, updated_at
		FROM tracks
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(tracks); err == nil {
			s.cache.Set(ctx, catalogCacheKey, data, s.ttl)
		}
	}

	return tracks, nil
}

// GetTrack returns a single track by ID, or pgx.ErrNoRows.
func (s *MusicStore) GetTrack(ctx context.Context, trackID uuid.UUID) (*models.Track, error) {
	query := `
		SELECT id, title, artist, language, tags, like_count, view_count, created_at, updated_at
		FROM tracks
		WHERE id = $1`

	var t models.Track
	err := s.db.QueryRow(ctx, query, trackID).Scan(
		&t.ID, &t.Title, &t.Artist, &t.Language, &t.Tags,
		&t.LikeCount, &t.ViewCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}
	return &t, nil
}

// GetTracksByIDs returns the subset of ids that exist, in no particular order.
func (s *MusicStore) GetTracksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Track, error) {
	if len(ids) == 0 {
		return []models.Track{}, nil
	}

	query := `
		SELECT id, title, artist, language, tags, like_count, view_count, created_at, updated_at
		FROM tracks
		WHERE id = ANY($1)`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks by ids: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// CreateTrack inserts a new catalog row and invalidates the catalog cache.
func (s *MusicStore) CreateTrack(ctx context.Context, req *models.TrackIngestionRequest) (*models.Track, error) {
	now := time.Now()
	track := &models.Track{
		ID:        uuid.New(),
		Title:     req.Title,
		Artist:    req.Artist,
		Language:  req.Language,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if track.Tags == nil {
		track.Tags = []string{}
	}

	query := `
		INSERT INTO tracks (id, title, artist, language, tags, like_count, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $6)`

	if _, err := s.db.Exec(ctx, query, track.ID, track.Title, track.Artist, track.Language, track.Tags, now); err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}

	s.invalidateCatalog(ctx)

	s.logger.WithFields(logrus.Fields{
		"track_id": track.ID,
		"title":    track.Title,
		"artist":   track.Artist,
	}).Info("Track added to catalog")

	return track, nil
}

// ListHistory returns the listener's accumulated minutes per track.
func (s *MusicStore) ListHistory(ctx context.Context, listenerID uuid.UUID) ([]models.ListeningSignal, error) {
	query := `
		SELECT track_id, minutes
		FROM listening_history
		WHERE listener_id = $1
		ORDER BY last_played_at DESC`

	rows, err := s.db.Query(ctx, query, listenerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listening history: %w", err)
	}
	defer rows.Close()

	var signals []models.ListeningSignal
	for rows.Next() {
		var sig models.ListeningSignal
		if err := rows.Scan(&sig.TrackID, &sig.Minutes); err != nil {
			return nil, fmt.Errorf("failed to scan listening signal: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// ListLikedIDs returns the set of track IDs the listener has liked.
func (s *MusicStore) ListLikedIDs(ctx context.Context, listenerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	query := `SELECT track_id FROM track_likes WHERE listener_id = $1`

	rows, err := s.db.Query(ctx, query, listenerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	liked := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liked track id: %w", err)
		}
		liked[id] = struct{}{}
	}
	return liked, rows.Err()
}

// RecordPlay accumulates listening minutes for the listener/track pair and
// bumps the track's view count.
func (s *MusicStore) RecordPlay(ctx context.Context, listenerID, trackID uuid.UUID, minutes float64) error {
	historyQuery := `
		INSERT INTO listening_history (listener_id, track_id, minutes, last_played_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (listener_id, track_id)
		DO UPDATE SET minutes = listening_history.minutes + $3, last_played_at = NOW()`

	if _, err := s.db.Exec(ctx, historyQuery, listenerID, trackID, minutes); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}

	viewQuery := `UPDATE tracks SET view_count = view_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, viewQuery, trackID); err != nil {
		return fmt.Errorf("failed to bump view count: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// LikeTrack records the like relation and bumps the counter. Repeated likes
// are a no-op on both.
func (s *MusicStore) LikeTrack(ctx context.Context, listenerID, trackID uuid.UUID) error {
	likeQuery := `
		INSERT INTO track_likes (listener_id, track_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (listener_id, track_id) DO NOTHING`

	tag, err := s.db.Exec(ctx, likeQuery, listenerID, trackID)
	if err != nil {
		return fmt.Errorf("failed to record like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	countQuery := `UPDATE tracks SET like_count = like_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, countQuery, trackID); err != nil {
		return fmt.Errorf("failed to bump like count: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// UnlikeTrack removes the like relation if present and decrements the counter.
func (s *MusicStore) UnlikeTrack(ctx context.Context, listenerID, trackID uuid.UUID) error {
	unlikeQuery := `DELETE FROM track_likes WHERE listener_id = $1 AND track_id = $2`

	tag, err := s.db.Exec(ctx, unlikeQuery, listenerID, trackID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	countQuery := `UPDATE tracks SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, countQuery, trackID); err != nil {
		return fmt.Errorf("failed to drop like count: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *MusicStore) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate catalog cache")
	}
}

func scanTracks(rows pgx.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Artist, &t.Language, &t.Tags,
			&t.LikeCount, &t.ViewCount, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, rows.Err()
}
