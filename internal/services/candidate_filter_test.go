package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorefm/encore/pkg/models"
)

func TestFilterCandidates(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	catalog := []models.Track{{ID: a}, {ID: b}, {ID: c}}

	t.Run("no exclusions keeps everything", func(t *testing.T) {
		candidates, err := filterCandidates(catalog, nil, nil)
		require.NoError(t, err)
		assert.Len(t, candidates, 3)
	})

	t.Run("excluded ids are dropped", func(t *testing.T) {
		candidates, err := filterCandidates(catalog, idSet([]uuid.UUID{a, c}), nil)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, b, candidates[0].ID)
	})

	t.Run("current track is dropped", func(t *testing.T) {
		candidates, err := filterCandidates(catalog, nil, &b)
		require.NoError(t, err)
		assert.Len(t, candidates, 2)
		for _, track := range candidates {
			assert.NotEqual(t, b, track.ID)
		}
	})

	t.Run("everything filtered yields no candidates", func(t *testing.T) {
		_, err := filterCandidates(catalog, idSet([]uuid.UUID{a, b, c}), nil)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("empty catalog yields no candidates", func(t *testing.T) {
		_, err := filterCandidates(nil, nil, nil)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})
}

func TestUnionIDSets(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	union := unionIDSets(idSet([]uuid.UUID{a}), idSet([]uuid.UUID{a, b}), nil)
	assert.Len(t, union, 2)
	assert.Contains(t, union, a)
	assert.Contains(t, union, b)
}
