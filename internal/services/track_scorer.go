package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

const (
	historyMinutesFactor = 2.0
	historyWeightCap     = 20.0
	likePopularityFactor = 2.0
	viewPopularityFactor = 1.0
)

// JitterSource supplies the bounded random addend mixed into each score so
// repeated calls with identical inputs do not repeat the same ordering. It is
// injected rather than hidden in the scorer: production gets variety, tests
// get determinism.
type JitterSource interface {
	Jitter(max float64) float64
}

type lockedJitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededJitter returns a JitterSource drawing uniformly from [0, max).
// Safe for concurrent use.
func NewSeededJitter(seed int64) JitterSource {
	return &lockedJitter{rng: rand.New(rand.NewSource(seed))}
}

func (j *lockedJitter) Jitter(max float64) float64 {
	if max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Float64() * max
}

// zeroJitter disables the random term; used by tests and available through
// config by setting a strategy's jitter_range to 0.
type zeroJitter struct{}

func (zeroJitter) Jitter(float64) float64 { return 0 }

// scoreTrack computes the deterministic part of a candidate's score: the sum
// of the independent tag, artist, language, history, popularity and liked
// terms. The terms stay additive so each one can be inspected and tested on
// its own. Jitter is added separately, once, by the caller.
func scoreTrack(t models.Track, p *preferenceProfile, w config.StrategyWeights) (float64, []string) {
	var score float64
	var reasons []string

	if matches := tagMatches(t, p); matches > 0 {
		score += w.TagWeight * float64(matches)
		reasons = append(reasons, fmt.Sprintf("shares %d of your tags", matches))
	}

	if _, ok := p.artists[normalizeArtist(t.Artist)]; ok {
		score += w.ArtistBonus
		reasons = append(reasons, "artist you listen to")
	}

	if t.Language != "" {
		if _, ok := p.languages[t.Language]; ok {
			score += w.LanguageBonus
			reasons = append(reasons, "language you listen to")
		}
	}

	if minutes := p.minutes[t.ID]; minutes > 0 {
		score += historyWeight(minutes)
		reasons = append(reasons, "in your listening history")
	}

	score += popularityScore(t)

	if _, ok := p.liked[t.ID]; ok {
		score += w.LikedBonus
		reasons = append(reasons, "liked by you")
	}

	return score, reasons
}

func tagMatches(t models.Track, p *preferenceProfile) int {
	matches := 0
	for _, tag := range t.Tags {
		if _, ok := p.tags[normalizeTag(tag)]; ok {
			matches++
		}
	}
	return matches
}

// historyWeight converts accumulated minutes into a capped term so extreme
// listening durations cannot dominate a pass.
func historyWeight(minutes float64) float64 {
	return math.Min(minutes*historyMinutesFactor, historyWeightCap)
}

// popularityScore damps like/view counts logarithmically; log(1+x) keeps the
// contribution finite and non-negative for zero counts.
func popularityScore(t models.Track) float64 {
	return math.Log1p(float64(t.LikeCount))*likePopularityFactor +
		math.Log1p(float64(t.ViewCount))*viewPopularityFactor
}

// rankTop sorts scored candidates descending and truncates to n. Fewer than
// n candidates is fine; the result is never padded. Ties break arbitrarily,
// which the jitter term makes vanishingly rare.
func rankTop(scored []models.ScoredTrack, n int) []models.ScoredTrack {
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if n >= 0 && len(scored) > n {
		scored = scored[:n]
	}
	for i := range scored {
		scored[i].Position = i + 1
	}
	return scored
}
