package services

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

const insightsWindow = 512

// ScoreSummary describes the recent score distribution for one strategy.
type ScoreSummary struct {
	Strategy string  `json:"strategy"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	P90      float64 `json:"p90"`
}

// ScoreInsights keeps a sliding window of the scores each strategy produced,
// for the admin insights endpoint. Useful for eyeballing whether a weight
// change moved the distribution the way you expected.
type ScoreInsights struct {
	mu      sync.RWMutex
	windows map[string][]float64
}

func NewScoreInsights() *ScoreInsights {
	return &ScoreInsights{
		windows: make(map[string][]float64),
	}
}

// Observe appends the scores of one ranking pass to the strategy's window,
// dropping the oldest entries past the window size.
func (si *ScoreInsights) Observe(strategy string, scores []float64) {
	if len(scores) == 0 {
		return
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	window := append(si.windows[strategy], scores...)
	if len(window) > insightsWindow {
		window = window[len(window)-insightsWindow:]
	}
	si.windows[strategy] = window
}

// Summaries returns one summary per strategy, sorted by strategy name.
func (si *ScoreInsights) Summaries() []ScoreSummary {
	si.mu.RLock()
	defer si.mu.RUnlock()

	summaries := make([]ScoreSummary, 0, len(si.windows))
	for strategy, window := range si.windows {
		summaries = append(summaries, summarize(strategy, window))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Strategy < summaries[j].Strategy
	})
	return summaries
}

func summarize(strategy string, window []float64) ScoreSummary {
	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if math.IsNaN(std) {
		std = 0
	}

	return ScoreSummary{
		Strategy: strategy,
		Count:    len(sorted),
		Mean:     mean,
		StdDev:   std,
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:      stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}
