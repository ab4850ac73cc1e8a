package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorefm/encore/pkg/models"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercase passthrough", input: "rock", expected: "rock"},
		{name: "uppercase folded", input: "ROCK", expected: "rock"},
		{name: "whitespace trimmed", input: "  Indie Pop  ", expected: "indie pop"},
		{name: "unicode folded", input: "Électro", expected: "électro"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTag(tt.input))
		})
	}
}

func TestProfileFromSession(t *testing.T) {
	t.Run("empty session yields no signal", func(t *testing.T) {
		_, err := profileFromSession(nil)
		assert.ErrorIs(t, err, ErrNoSignal)
	})

	t.Run("collects tags artists and languages", func(t *testing.T) {
		played := []models.Track{
			{ID: uuid.New(), Artist: "Nadia Reid", Language: "en", Tags: []string{"Folk", "indie"}},
			{ID: uuid.New(), Artist: "Bon Iver", Language: "en", Tags: []string{"folk", "electronic"}},
		}

		p, err := profileFromSession(played)
		require.NoError(t, err)

		assert.Contains(t, p.tags, "folk")
		assert.Contains(t, p.tags, "indie")
		assert.Contains(t, p.tags, "electronic")
		assert.Len(t, p.tags, 3)

		assert.Contains(t, p.artists, "nadia reid")
		assert.Contains(t, p.artists, "bon iver")
		assert.Contains(t, p.languages, "en")
		assert.Len(t, p.languages, 1)
	})
}

func TestProfileFromTrack(t *testing.T) {
	trackID := uuid.New()
	historyID := uuid.New()
	current := models.Track{
		ID:       trackID,
		Artist:   "Portishead",
		Language: "en",
		Tags:     []string{"trip-hop"},
	}
	history := []models.ListeningSignal{
		{TrackID: historyID, Minutes: 3.5},
		{TrackID: historyID, Minutes: 1.5},
	}
	liked := map[uuid.UUID]struct{}{historyID: {}}

	p := profileFromTrack(current, history, liked)

	assert.Contains(t, p.tags, "trip-hop")
	assert.Contains(t, p.artists, "portishead")
	assert.InDelta(t, 5.0, p.minutes[historyID], 0.001, "repeated signals should sum")
	assert.Contains(t, p.liked, historyID)
}

func TestProfileFromHistory(t *testing.T) {
	t.Run("no tracks yields no signal", func(t *testing.T) {
		_, err := profileFromHistory(nil, nil, 5, 3)
		assert.ErrorIs(t, err, ErrNoSignal)
	})

	t.Run("keeps most frequent tags and artists", func(t *testing.T) {
		topTracks := []models.Track{
			{ID: uuid.New(), Artist: "A", Tags: []string{"rock", "indie"}},
			{ID: uuid.New(), Artist: "A", Tags: []string{"rock", "dream-pop"}},
			{ID: uuid.New(), Artist: "B", Tags: []string{"rock", "indie"}},
			{ID: uuid.New(), Artist: "C", Tags: []string{"jazz"}},
		}

		p, err := profileFromHistory(topTracks, nil, 2, 1)
		require.NoError(t, err)

		assert.Len(t, p.tags, 2)
		assert.Contains(t, p.tags, "rock")
		assert.Contains(t, p.tags, "indie")
		assert.NotContains(t, p.tags, "jazz")

		assert.Len(t, p.artists, 1)
		assert.Contains(t, p.artists, "a")
	})

	t.Run("frequency ties keep first seen order", func(t *testing.T) {
		topTracks := []models.Track{
			{ID: uuid.New(), Artist: "First", Tags: []string{"ambient"}},
			{ID: uuid.New(), Artist: "Second", Tags: []string{"drone"}},
		}

		p, err := profileFromHistory(topTracks, nil, 1, 2)
		require.NoError(t, err)

		assert.Contains(t, p.tags, "ambient")
		assert.NotContains(t, p.tags, "drone")
	})
}

func TestTopTracksByMinutes(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("orders by summed minutes", func(t *testing.T) {
		signals := []models.ListeningSignal{
			{TrackID: a, Minutes: 2},
			{TrackID: b, Minutes: 10},
			{TrackID: a, Minutes: 9}, // a totals 11, ahead of b
			{TrackID: c, Minutes: 1},
		}

		top := topTracksByMinutes(signals, 2)
		require.Len(t, top, 2)
		assert.Equal(t, a, top[0])
		assert.Equal(t, b, top[1])
	})

	t.Run("ties keep first seen order", func(t *testing.T) {
		signals := []models.ListeningSignal{
			{TrackID: b, Minutes: 5},
			{TrackID: a, Minutes: 5},
		}

		top := topTracksByMinutes(signals, 2)
		require.Len(t, top, 2)
		assert.Equal(t, b, top[0])
	})

	t.Run("k larger than distinct tracks", func(t *testing.T) {
		signals := []models.ListeningSignal{{TrackID: a, Minutes: 1}}
		assert.Len(t, topTracksByMinutes(signals, 10), 1)
	})
}

func TestTasteCounts(t *testing.T) {
	c := newTasteCounts()
	c.add("rock")
	c.add("indie")
	c.add("rock")
	c.add("") // ignored

	top := c.top(5)
	require.Len(t, top, 2)
	assert.Equal(t, "rock", top[0])
	assert.Equal(t, "indie", top[1])

	assert.Len(t, c.top(1), 1)
}
