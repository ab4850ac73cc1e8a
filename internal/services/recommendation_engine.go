package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

const (
	StrategySession    = "session"
	StrategyContextual = "contextual"
	StrategyHistory    = "history"
	StrategyTrending   = "trending"
)

var (
	rankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encore_ranking_duration_seconds",
		Help:    "Time spent fetching, scoring and ranking candidates per strategy.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	rankedTracksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_ranked_tracks_total",
		Help: "Recommendations returned per strategy.",
	}, []string{"strategy"})

	trendingFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "encore_trending_fallbacks_total",
		Help: "History-strategy invocations that fell back to the trending list.",
	})
)

// MusicStoreReader is the read-only slice of the store the engine consumes.
// Every strategy computes from one fully-fetched snapshot of these reads.
type MusicStoreReader interface {
	ListCatalog(ctx context.Context) ([]models.Track, error)
	ListHistory(ctx context.Context, listenerID uuid.UUID) ([]models.ListeningSignal, error)
	ListLikedIDs(ctx context.Context, listenerID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// RecommendationEngine composes the preference extractor, candidate filter,
// scorer and ranker into the three recommendation strategies. It holds no
// per-listener state; session and history state is owned by the caller and
// passed in fresh each invocation.
//
// Engine methods never fail hard: the returned slice is always valid (possibly
// empty, or the trending fallback for the history strategy) and a non-nil
// error only reports why the pass degraded, for the caller to log.
type RecommendationEngine struct {
	store    MusicStoreReader
	config   *config.EngineConfig
	logger   *logrus.Logger
	jitter   JitterSource
	insights *ScoreInsights
}

func NewRecommendationEngine(
	store MusicStoreReader,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
	jitter JitterSource,
	insights *ScoreInsights,
) *RecommendationEngine {
	return &RecommendationEngine{
		store:    store,
		config:   cfg,
		logger:   logger,
		jitter:   jitter,
		insights: insights,
	}
}

// RankSessionRecommendations scores the catalog against the tracks actually
// played in the current session. Tracks already heard this session and the
// caller's exclusions never appear in the output. An empty session yields an
// empty result with ErrNoSignal; the caller picks its own default.
func (e *RecommendationEngine) RankSessionRecommendations(
	ctx context.Context,
	listenerID uuid.UUID,
	played []models.Track,
	exclude map[uuid.UUID]struct{},
) ([]models.ScoredTrack, error) {
	timer := prometheus.NewTimer(rankingDuration.WithLabelValues(StrategySession))
	defer timer.ObserveDuration()

	profile, err := profileFromSession(played)
	if err != nil {
		return []models.ScoredTrack{}, err
	}

	catalog, liked, err := e.fetchCatalogAndLiked(ctx, listenerID)
	if err != nil {
		return []models.ScoredTrack{}, err
	}
	profile.setLiked(liked)

	playedIDs := make([]uuid.UUID, 0, len(played))
	for _, t := range played {
		playedIDs = append(playedIDs, t.ID)
	}

	candidates, err := filterCandidates(catalog, unionIDSets(exclude, idSet(playedIDs)), nil)
	if err != nil {
		return []models.ScoredTrack{}, err
	}

	return e.scoreAndRank(StrategySession, candidates, profile, e.config.Session), nil
}

// RankContextualRecommendations scores the catalog against one current track,
// weighting candidates the listener has spent time on and liked. The current
// track and the caller's exclusions never appear in the output.
func (e *RecommendationEngine) RankContextualRecommendations(
	ctx context.Context,
	listenerID uuid.UUID,
	current models.Track,
	exclude map[uuid.UUID]struct{},
) ([]models.ScoredTrack, error) {
	timer := prometheus.NewTimer(rankingDuration.WithLabelValues(StrategyContextual))
	defer timer.ObserveDuration()

	catalog, history, liked, err := e.fetchListenerSnapshot(ctx, listenerID)
	if err != nil {
		return []models.ScoredTrack{}, err
	}

	profile := profileFromTrack(current, history, liked)

	currentID := current.ID
	candidates, err := filterCandidates(catalog, exclude, &currentID)
	if err != nil {
		return []models.ScoredTrack{}, err
	}

	return e.scoreAndRank(StrategyContextual, candidates, profile, e.config.Contextual), nil
}

// RankHistoryRecommendations scores the catalog against the most frequent
// tags and artists of the listener's most-listened tracks, excluding
// everything already in the history. A listener with no history at all gets
// the trending list instead; this is the one strategy with a built-in
// fallback because it runs on session start when no other signal may exist.
// The boolean reports whether the trending fallback was served.
func (e *RecommendationEngine) RankHistoryRecommendations(
	ctx context.Context,
	listenerID uuid.UUID,
) ([]models.ScoredTrack, bool, error) {
	timer := prometheus.NewTimer(rankingDuration.WithLabelValues(StrategyHistory))
	defer timer.ObserveDuration()

	cfg := e.config.History

	catalog, history, liked, err := e.fetchListenerSnapshot(ctx, listenerID)
	if err != nil {
		return []models.ScoredTrack{}, false, err
	}

	if len(history) == 0 {
		trendingFallbacksTotal.Inc()
		e.logger.WithField("listener_id", listenerID).Debug("No listening history, serving trending list")
		return e.trendingList(catalog, liked, cfg.TrendingSize), true, nil
	}

	topIDs := topTracksByMinutes(history, cfg.TopTracks)
	profile, err := profileFromHistory(tracksByID(catalog, topIDs), liked, cfg.TopTags, cfg.TopArtists)
	if err != nil {
		// History references tracks no longer in the catalog; treat as no signal.
		trendingFallbacksTotal.Inc()
		return e.trendingList(catalog, liked, cfg.TrendingSize), true, nil
	}

	historyIDs := make([]uuid.UUID, 0, len(history))
	for _, s := range history {
		historyIDs = append(historyIDs, s.TrackID)
	}

	candidates, err := filterCandidates(catalog, idSet(historyIDs), nil)
	if err != nil {
		return []models.ScoredTrack{}, false, err
	}

	return e.scoreAndRank(StrategyHistory, candidates, profile, cfg.StrategyWeights), false, nil
}

// TrendingTracks exposes the view-count-ordered fallback list directly, with
// the listener's liked flags applied.
func (e *RecommendationEngine) TrendingTracks(ctx context.Context, listenerID uuid.UUID) ([]models.ScoredTrack, error) {
	catalog, liked, err := e.fetchCatalogAndLiked(ctx, listenerID)
	if err != nil {
		return []models.ScoredTrack{}, err
	}
	return e.trendingList(catalog, liked, e.config.History.TrendingSize), nil
}

func (e *RecommendationEngine) scoreAndRank(
	strategy string,
	candidates []models.Track,
	profile *preferenceProfile,
	w config.StrategyWeights,
) []models.ScoredTrack {
	scored := make([]models.ScoredTrack, 0, len(candidates))
	for _, t := range candidates {
		base, reasons := scoreTrack(t, profile, w)
		_, isLiked := profile.liked[t.ID]
		scored = append(scored, models.ScoredTrack{
			Track:   t,
			Score:   base + e.jitter.Jitter(w.JitterRange), // jitter added once, as the final step
			Liked:   isLiked,
			Reasons: reasons,
		})
	}

	ranked := rankTop(scored, w.OutputSize)
	e.record(strategy, ranked)
	return ranked
}

func (e *RecommendationEngine) trendingList(catalog []models.Track, liked map[uuid.UUID]struct{}, n int) []models.ScoredTrack {
	byViews := make([]models.Track, len(catalog))
	copy(byViews, catalog)
	sort.SliceStable(byViews, func(i, j int) bool {
		return byViews[i].ViewCount > byViews[j].ViewCount
	})

	if len(byViews) > n {
		byViews = byViews[:n]
	}

	scored := make([]models.ScoredTrack, 0, len(byViews))
	for i, t := range byViews {
		_, isLiked := liked[t.ID]
		scored = append(scored, models.ScoredTrack{
			Track:    t,
			Score:    float64(t.ViewCount),
			Liked:    isLiked,
			Position: i + 1,
		})
	}

	e.record(StrategyTrending, scored)
	return scored
}

func (e *RecommendationEngine) record(strategy string, ranked []models.ScoredTrack) {
	rankedTracksTotal.WithLabelValues(strategy).Add(float64(len(ranked)))

	if e.insights != nil {
		scores := make([]float64, len(ranked))
		for i, st := range ranked {
			scores[i] = st.Score
		}
		e.insights.Observe(strategy, scores)
	}
}

// fetchListenerSnapshot issues the three collaborator reads in parallel and
// awaits them jointly; scoring only starts from a complete snapshot.
func (e *RecommendationEngine) fetchListenerSnapshot(ctx context.Context, listenerID uuid.UUID) (
	[]models.Track, []models.ListeningSignal, map[uuid.UUID]struct{}, error,
) {
	var (
		wg       sync.WaitGroup
		catalog  []models.Track
		history  []models.ListeningSignal
		liked    map[uuid.UUID]struct{}
		catErr   error
		histErr  error
		likedErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		catalog, catErr = e.store.ListCatalog(ctx)
	}()
	go func() {
		defer wg.Done()
		history, histErr = e.store.ListHistory(ctx, listenerID)
	}()
	go func() {
		defer wg.Done()
		liked, likedErr = e.store.ListLikedIDs(ctx, listenerID)
	}()
	wg.Wait()

	if err := firstError(catErr, histErr, likedErr); err != nil {
		e.logger.WithError(err).WithField("listener_id", listenerID).Warn("Upstream read failed, degrading to empty result")
		return nil, nil, nil, fmt.Errorf("upstream read: %w", err)
	}
	return catalog, history, liked, nil
}

func (e *RecommendationEngine) fetchCatalogAndLiked(ctx context.Context, listenerID uuid.UUID) (
	[]models.Track, map[uuid.UUID]struct{}, error,
) {
	var (
		wg       sync.WaitGroup
		catalog  []models.Track
		liked    map[uuid.UUID]struct{}
		catErr   error
		likedErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog, catErr = e.store.ListCatalog(ctx)
	}()
	go func() {
		defer wg.Done()
		liked, likedErr = e.store.ListLikedIDs(ctx, listenerID)
	}()
	wg.Wait()

	if err := firstError(catErr, likedErr); err != nil {
		e.logger.WithError(err).WithField("listener_id", listenerID).Warn("Upstream read failed, degrading to empty result")
		return nil, nil, fmt.Errorf("upstream read: %w", err)
	}
	return catalog, liked, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func tracksByID(catalog []models.Track, ids []uuid.UUID) []models.Track {
	byID := make(map[uuid.UUID]models.Track, len(catalog))
	for _, t := range catalog {
		byID[t.ID] = t
	}

	tracks := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
