package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

type stubMusicStore struct {
	catalog []models.Track
	history []models.ListeningSignal
	liked   map[uuid.UUID]struct{}

	catalogErr error
}

func (s *stubMusicStore) ListCatalog(ctx context.Context) ([]models.Track, error) {
	return s.catalog, s.catalogErr
}

func (s *stubMusicStore) ListHistory(ctx context.Context, listenerID uuid.UUID) ([]models.ListeningSignal, error) {
	return s.history, nil
}

func (s *stubMusicStore) ListLikedIDs(ctx context.Context, listenerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if s.liked == nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	return s.liked, nil
}

func testEngineConfig() *config.EngineConfig {
	weights := config.StrategyWeights{
		TagWeight:     25,
		ArtistBonus:   30,
		LanguageBonus: 15,
		LikedBonus:    10,
		JitterRange:   0,
		OutputSize:    15,
	}

	return &config.EngineConfig{
		Session:    weights,
		Contextual: weights,
		History: config.HistoryStrategyConfig{
			StrategyWeights: config.StrategyWeights{
				TagWeight:   20,
				ArtistBonus: 25,
				LikedBonus:  10,
				OutputSize:  30,
			},
			TopTracks:    10,
			TopTags:      5,
			TopArtists:   3,
			TrendingSize: 20,
		},
	}
}

func newTestEngine(store MusicStoreReader) *RecommendationEngine {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewRecommendationEngine(store, testEngineConfig(), logger, zeroJitter{}, NewScoreInsights())
}

func TestRankSessionRecommendations(t *testing.T) {
	listenerID := uuid.New()

	playedRock := models.Track{ID: uuid.New(), Artist: "The Veils", Language: "en", Tags: []string{"rock"}}
	candidateRock := models.Track{ID: uuid.New(), Artist: "Other", Language: "en", Tags: []string{"rock"}}
	candidateJazz := models.Track{ID: uuid.New(), Artist: "Trio", Language: "fr", Tags: []string{"jazz"}}

	store := &stubMusicStore{catalog: []models.Track{playedRock, candidateRock, candidateJazz}}
	engine := newTestEngine(store)

	t.Run("matching candidate outranks non matching", func(t *testing.T) {
		recs, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		assert.Equal(t, candidateRock.ID, recs[0].Track.ID)
		assert.Greater(t, recs[0].Score, recs[1].Score)
		assert.Equal(t, 1, recs[0].Position)
	})

	t.Run("played tracks never reappear", func(t *testing.T) {
		recs, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		require.NoError(t, err)
		for _, r := range recs {
			assert.NotEqual(t, playedRock.ID, r.Track.ID)
		}
	})

	t.Run("caller exclusions respected", func(t *testing.T) {
		exclude := map[uuid.UUID]struct{}{candidateRock.ID: {}}
		recs, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, exclude)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, candidateJazz.ID, recs[0].Track.ID)
	})

	t.Run("empty session reports no signal with empty list", func(t *testing.T) {
		recs, err := engine.RankSessionRecommendations(context.Background(), listenerID, nil, nil)
		assert.ErrorIs(t, err, ErrNoSignal)
		assert.Empty(t, recs)
	})

	t.Run("liked candidates get the bonus", func(t *testing.T) {
		likedStore := &stubMusicStore{
			catalog: []models.Track{playedRock, candidateRock, candidateJazz},
			liked:   map[uuid.UUID]struct{}{candidateJazz.ID: {}},
		}
		likedEngine := newTestEngine(likedStore)

		recs, err := likedEngine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		require.NoError(t, err)

		for _, r := range recs {
			if r.Track.ID == candidateJazz.ID {
				assert.True(t, r.Liked)
				assert.InDelta(t, 10.0, r.Score, 0.001)
			}
		}
	})

	t.Run("upstream failure degrades to empty list", func(t *testing.T) {
		brokenEngine := newTestEngine(&stubMusicStore{catalogErr: errors.New("pg down")})

		recs, err := brokenEngine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		assert.Error(t, err)
		assert.Empty(t, recs)
	})

	t.Run("identical inputs with zero jitter are deterministic", func(t *testing.T) {
		first, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		require.NoError(t, err)
		second, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{playedRock}, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestRankContextualRecommendations(t *testing.T) {
	listenerID := uuid.New()

	current := models.Track{ID: uuid.New(), Artist: "Beach House", Language: "en", Tags: []string{"dream-pop"}}
	sameArtist := models.Track{ID: uuid.New(), Artist: "Beach House", Language: "en", Tags: []string{"shoegaze"}}
	unrelated := models.Track{ID: uuid.New(), Artist: "Trio", Language: "fr", Tags: []string{"jazz"}}

	store := &stubMusicStore{
		catalog: []models.Track{current, sameArtist, unrelated},
		history: []models.ListeningSignal{{TrackID: sameArtist.ID, Minutes: 5}},
	}
	engine := newTestEngine(store)

	recs, err := engine.RankContextualRecommendations(context.Background(), listenerID, current, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	t.Run("current track excluded", func(t *testing.T) {
		for _, r := range recs {
			assert.NotEqual(t, current.ID, r.Track.ID)
		}
	})

	t.Run("artist match plus history wins", func(t *testing.T) {
		assert.Equal(t, sameArtist.ID, recs[0].Track.ID)
		// artist 30 + language 15 + history min(5*2, 20) = 55
		assert.InDelta(t, 55.0, recs[0].Score, 0.001)
	})
}

func TestRankHistoryRecommendations(t *testing.T) {
	listenerID := uuid.New()

	heard := models.Track{ID: uuid.New(), Artist: "Low", Tags: []string{"slowcore"}}
	fresh := models.Track{ID: uuid.New(), Artist: "Low", Tags: []string{"slowcore"}}
	popular := models.Track{ID: uuid.New(), Artist: "Chart", ViewCount: 9000}

	t.Run("scores unheard catalog from history profile", func(t *testing.T) {
		store := &stubMusicStore{
			catalog: []models.Track{heard, fresh, popular},
			history: []models.ListeningSignal{{TrackID: heard.ID, Minutes: 30}},
		}
		engine := newTestEngine(store)

		recs, fallback, err := engine.RankHistoryRecommendations(context.Background(), listenerID)
		require.NoError(t, err)
		assert.False(t, fallback)

		require.NotEmpty(t, recs)
		assert.Equal(t, fresh.ID, recs[0].Track.ID)
		for _, r := range recs {
			assert.NotEqual(t, heard.ID, r.Track.ID, "heard tracks never reappear")
		}
	})

	t.Run("no history falls back to trending", func(t *testing.T) {
		store := &stubMusicStore{catalog: []models.Track{heard, fresh, popular}}
		engine := newTestEngine(store)

		recs, fallback, err := engine.RankHistoryRecommendations(context.Background(), listenerID)
		require.NoError(t, err)
		assert.True(t, fallback)

		require.NotEmpty(t, recs)
		assert.Equal(t, popular.ID, recs[0].Track.ID, "trending is ordered by view count")
		assert.Equal(t, float64(popular.ViewCount), recs[0].Score)
	})

	t.Run("history pointing at deleted tracks falls back to trending", func(t *testing.T) {
		store := &stubMusicStore{
			catalog: []models.Track{popular},
			history: []models.ListeningSignal{{TrackID: uuid.New(), Minutes: 10}},
		}
		engine := newTestEngine(store)

		recs, fallback, err := engine.RankHistoryRecommendations(context.Background(), listenerID)
		require.NoError(t, err)
		assert.True(t, fallback)
		assert.NotEmpty(t, recs)
	})
}

func TestTrendingTracks(t *testing.T) {
	listenerID := uuid.New()

	tracks := []models.Track{
		{ID: uuid.New(), ViewCount: 10},
		{ID: uuid.New(), ViewCount: 500},
		{ID: uuid.New(), ViewCount: 100},
	}
	liked := map[uuid.UUID]struct{}{tracks[1].ID: {}}

	engine := newTestEngine(&stubMusicStore{catalog: tracks, liked: liked})

	recs, err := engine.TrendingTracks(context.Background(), listenerID)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, tracks[1].ID, recs[0].Track.ID)
	assert.True(t, recs[0].Liked)
	assert.Equal(t, tracks[2].ID, recs[1].Track.ID)
	assert.Equal(t, 1, recs[0].Position)
	assert.Equal(t, 2, recs[1].Position)
}

func TestTrendingListTruncation(t *testing.T) {
	var catalog []models.Track
	for i := 0; i < 30; i++ {
		catalog = append(catalog, models.Track{ID: uuid.New(), ViewCount: int64(i)})
	}

	engine := newTestEngine(&stubMusicStore{catalog: catalog})

	recs, err := engine.TrendingTracks(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Len(t, recs, 20)
}

func TestScoreAndRankOutputSize(t *testing.T) {
	listenerID := uuid.New()

	played := models.Track{ID: uuid.New(), Tags: []string{"rock"}}
	catalog := []models.Track{played}
	for i := 0; i < 40; i++ {
		catalog = append(catalog, models.Track{ID: uuid.New(), Tags: []string{"rock"}})
	}

	engine := newTestEngine(&stubMusicStore{catalog: catalog})

	recs, err := engine.RankSessionRecommendations(context.Background(), listenerID, []models.Track{played}, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 15)
}
