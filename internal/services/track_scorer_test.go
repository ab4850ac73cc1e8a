package services

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

var testWeights = config.StrategyWeights{
	TagWeight:     25,
	ArtistBonus:   30,
	LanguageBonus: 15,
	LikedBonus:    10,
	JitterRange:   0,
	OutputSize:    15,
}

func TestScoreTrack(t *testing.T) {
	trackID := uuid.New()

	t.Run("no overlap scores only popularity", func(t *testing.T) {
		p := newPreferenceProfile()
		track := models.Track{ID: trackID, Artist: "Unknown", Tags: []string{"noise"}}

		score, reasons := scoreTrack(track, p, testWeights)
		assert.Equal(t, 0.0, score)
		assert.Empty(t, reasons)
	})

	t.Run("tag matches scale with overlap count", func(t *testing.T) {
		p := newPreferenceProfile()
		p.tags["rock"] = struct{}{}
		p.tags["indie"] = struct{}{}

		one := models.Track{ID: trackID, Tags: []string{"rock"}}
		two := models.Track{ID: trackID, Tags: []string{"rock", "indie"}}

		scoreOne, _ := scoreTrack(one, p, testWeights)
		scoreTwo, reasons := scoreTrack(two, p, testWeights)

		assert.InDelta(t, 25.0, scoreOne, 0.001)
		assert.InDelta(t, 50.0, scoreTwo, 0.001)
		assert.Contains(t, reasons, "shares 2 of your tags")
	})

	t.Run("tag matching is case insensitive", func(t *testing.T) {
		p := newPreferenceProfile()
		p.tags["rock"] = struct{}{}

		track := models.Track{ID: trackID, Tags: []string{"ROCK"}}
		score, _ := scoreTrack(track, p, testWeights)
		assert.InDelta(t, 25.0, score, 0.001)
	})

	t.Run("artist and language bonuses", func(t *testing.T) {
		p := newPreferenceProfile()
		p.artists["portishead"] = struct{}{}
		p.languages["en"] = struct{}{}

		track := models.Track{ID: trackID, Artist: "Portishead", Language: "en"}
		score, reasons := scoreTrack(track, p, testWeights)

		assert.InDelta(t, 45.0, score, 0.001)
		assert.Contains(t, reasons, "artist you listen to")
		assert.Contains(t, reasons, "language you listen to")
	})

	t.Run("liked bonus applies", func(t *testing.T) {
		p := newPreferenceProfile()
		p.liked[trackID] = struct{}{}

		score, reasons := scoreTrack(models.Track{ID: trackID}, p, testWeights)
		assert.InDelta(t, 10.0, score, 0.001)
		assert.Contains(t, reasons, "liked by you")
	})

	t.Run("history term uses accumulated minutes", func(t *testing.T) {
		p := newPreferenceProfile()
		p.minutes[trackID] = 4

		score, reasons := scoreTrack(models.Track{ID: trackID}, p, testWeights)
		assert.InDelta(t, 8.0, score, 0.001)
		assert.Contains(t, reasons, "in your listening history")
	})
}

func TestHistoryWeight(t *testing.T) {
	assert.InDelta(t, 0.0, historyWeight(0), 0.001)
	assert.InDelta(t, 7.0, historyWeight(3.5), 0.001)
	assert.InDelta(t, 20.0, historyWeight(10), 0.001)
	assert.InDelta(t, 20.0, historyWeight(500), 0.001, "extreme durations stay capped")
}

func TestPopularityScore(t *testing.T) {
	t.Run("zero counts score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, popularityScore(models.Track{}))
	})

	t.Run("matches log1p weighting", func(t *testing.T) {
		track := models.Track{LikeCount: 100, ViewCount: 1000}
		expected := math.Log1p(100)*2 + math.Log1p(1000)*1
		assert.InDelta(t, expected, popularityScore(track), 0.001)
	})

	t.Run("monotonic in both counts", func(t *testing.T) {
		base := popularityScore(models.Track{LikeCount: 10, ViewCount: 10})
		assert.Greater(t, popularityScore(models.Track{LikeCount: 11, ViewCount: 10}), base)
		assert.Greater(t, popularityScore(models.Track{LikeCount: 10, ViewCount: 11}), base)
	})
}

func TestRankTop(t *testing.T) {
	scored := []models.ScoredTrack{
		{Track: models.Track{Title: "low"}, Score: 1},
		{Track: models.Track{Title: "high"}, Score: 10},
		{Track: models.Track{Title: "mid"}, Score: 5},
	}

	ranked := rankTop(scored, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].Track.Title)
	assert.Equal(t, 1, ranked[0].Position)
	assert.Equal(t, "mid", ranked[1].Track.Title)
	assert.Equal(t, 2, ranked[1].Position)

	t.Run("fewer candidates than n", func(t *testing.T) {
		ranked := rankTop([]models.ScoredTrack{{Score: 1}}, 10)
		assert.Len(t, ranked, 1)
		assert.Equal(t, 1, ranked[0].Position)
	})
}

func TestSeededJitter(t *testing.T) {
	t.Run("stays within bounds", func(t *testing.T) {
		j := NewSeededJitter(42)
		for i := 0; i < 1000; i++ {
			v := j.Jitter(3.0)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 3.0)
		}
	})

	t.Run("same seed gives same sequence", func(t *testing.T) {
		a, b := NewSeededJitter(7), NewSeededJitter(7)
		for i := 0; i < 10; i++ {
			assert.Equal(t, a.Jitter(2.0), b.Jitter(2.0))
		}
	})

	t.Run("zero range disables jitter", func(t *testing.T) {
		j := NewSeededJitter(1)
		assert.Equal(t, 0.0, j.Jitter(0))
	})
}
