package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/encorefm/encore/pkg/models"
)

// ErrNoSignal reports that no usable listening signal was available to build
// a preference profile from. Callers fall back to their own default instead
// of scoring every candidate at zero.
var ErrNoSignal = errors.New("no listening signal available")

var foldCaser = cases.Lower(language.Und)

func normalizeTag(tag string) string {
	return foldCaser.String(norm.NFC.String(strings.TrimSpace(tag)))
}

func normalizeArtist(artist string) string {
	return foldCaser.String(norm.NFC.String(strings.TrimSpace(artist)))
}

// preferenceProfile is the compact per-invocation preference snapshot the
// scorer works from. It is rebuilt fresh on every ranking pass and never
// persisted.
type preferenceProfile struct {
	tags      map[string]struct{}
	artists   map[string]struct{}
	languages map[string]struct{}
	minutes   map[uuid.UUID]float64
	liked     map[uuid.UUID]struct{}
}

func newPreferenceProfile() *preferenceProfile {
	return &preferenceProfile{
		tags:      make(map[string]struct{}),
		artists:   make(map[string]struct{}),
		languages: make(map[string]struct{}),
		minutes:   make(map[uuid.UUID]float64),
		liked:     make(map[uuid.UUID]struct{}),
	}
}

func (p *preferenceProfile) addTrackTaste(t models.Track) {
	for _, tag := range t.Tags {
		if n := normalizeTag(tag); n != "" {
			p.tags[n] = struct{}{}
		}
	}
	if a := normalizeArtist(t.Artist); a != "" {
		p.artists[a] = struct{}{}
	}
	if t.Language != "" {
		p.languages[t.Language] = struct{}{}
	}
}

// addSignals accumulates per-track minutes; repeated signals for the same
// track sum, never overwrite.
func (p *preferenceProfile) addSignals(signals []models.ListeningSignal) {
	for _, s := range signals {
		p.minutes[s.TrackID] += s.Minutes
	}
}

func (p *preferenceProfile) setLiked(liked map[uuid.UUID]struct{}) {
	if liked != nil {
		p.liked = liked
	}
}

// profileFromSession derives preferences from the tracks actually played in
// the current session.
func profileFromSession(played []models.Track) (*preferenceProfile, error) {
	if len(played) == 0 {
		return nil, ErrNoSignal
	}
	p := newPreferenceProfile()
	for _, t := range played {
		p.addTrackTaste(t)
	}
	return p, nil
}

// profileFromTrack derives preferences from one current track: its own tags,
// artist and language become the preferred sets, while the listener's full
// history feeds the per-track minutes weighting.
func profileFromTrack(current models.Track, history []models.ListeningSignal, liked map[uuid.UUID]struct{}) *preferenceProfile {
	p := newPreferenceProfile()
	p.addTrackTaste(current)
	p.addSignals(history)
	p.setLiked(liked)
	return p
}

// profileFromHistory builds the history-strategy profile: the most frequent
// tags and artists across the listener's most-listened tracks.
func profileFromHistory(topTracks []models.Track, liked map[uuid.UUID]struct{}, topTags, topArtists int) (*preferenceProfile, error) {
	if len(topTracks) == 0 {
		return nil, ErrNoSignal
	}

	tags := newTasteCounts()
	artists := newTasteCounts()
	for _, t := range topTracks {
		for _, tag := range t.Tags {
			tags.add(normalizeTag(tag))
		}
		artists.add(normalizeArtist(t.Artist))
	}

	p := newPreferenceProfile()
	for _, tag := range tags.top(topTags) {
		p.tags[tag] = struct{}{}
	}
	for _, a := range artists.top(topArtists) {
		p.artists[a] = struct{}{}
	}
	p.setLiked(liked)
	return p, nil
}

// topTracksByMinutes returns the ids of the k most-listened tracks. Signals
// for the same track are summed first; ties keep first-seen order.
func topTracksByMinutes(signals []models.ListeningSignal, k int) []uuid.UUID {
	totals := make(map[uuid.UUID]float64)
	var order []uuid.UUID
	for _, s := range signals {
		if _, seen := totals[s.TrackID]; !seen {
			order = append(order, s.TrackID)
		}
		totals[s.TrackID] += s.Minutes
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

// tasteCounts ranks values by frequency; ties keep first-seen order.
type tasteCounts struct {
	counts map[string]int
	order  []string
}

func newTasteCounts() *tasteCounts {
	return &tasteCounts{counts: make(map[string]int)}
}

func (c *tasteCounts) add(v string) {
	if v == "" {
		return
	}
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *tasteCounts) top(n int) []string {
	ranked := make([]string, len(c.order))
	copy(ranked, c.order)

	sort.SliceStable(ranked, func(i, j int) bool {
		return c.counts[ranked[i]] > c.counts[ranked[j]]
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
