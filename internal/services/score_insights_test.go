package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreInsights_Summaries(t *testing.T) {
	si := NewScoreInsights()

	t.Run("empty insights yield no summaries", func(t *testing.T) {
		assert.Empty(t, si.Summaries())
	})

	si.Observe("session", []float64{10, 20, 30, 40})
	si.Observe("contextual", []float64{5})
	si.Observe("contextual", nil) // ignored

	t.Run("one summary per strategy sorted by name", func(t *testing.T) {
		summaries := si.Summaries()
		require.Len(t, summaries, 2)
		assert.Equal(t, "contextual", summaries[0].Strategy)
		assert.Equal(t, "session", summaries[1].Strategy)
	})

	t.Run("session distribution", func(t *testing.T) {
		summaries := si.Summaries()
		session := summaries[1]

		assert.Equal(t, 4, session.Count)
		assert.InDelta(t, 25.0, session.Mean, 0.001)
		assert.InDelta(t, 10.0, session.Min, 0.001)
		assert.InDelta(t, 40.0, session.Max, 0.001)
		assert.Greater(t, session.StdDev, 0.0)
		assert.GreaterOrEqual(t, session.P90, session.Median)
	})

	t.Run("single observation has zero stddev", func(t *testing.T) {
		summaries := si.Summaries()
		contextual := summaries[0]

		assert.Equal(t, 1, contextual.Count)
		assert.Equal(t, 0.0, contextual.StdDev)
		assert.InDelta(t, 5.0, contextual.Median, 0.001)
	})
}

func TestScoreInsights_WindowCap(t *testing.T) {
	si := NewScoreInsights()

	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i)
	}
	for i := 0; i < 10; i++ {
		si.Observe("history", scores)
	}

	summaries := si.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, insightsWindow, summaries[0].Count)
}
