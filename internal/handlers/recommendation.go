package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/middleware"
	"github.com/encorefm/encore/internal/services"
	"github.com/encorefm/encore/pkg/models"
)

// RecommendationHandler serves the three ranking strategies. Recommendations
// are advisory: when a pass cannot produce anything the handler logs the
// cause and returns an empty list, never an error status.
type RecommendationHandler struct {
	engine   services.RecommendationEngineInterface
	sessions services.SessionStoreInterface
	store    services.MusicStoreInterface
	logger   *logrus.Logger
}

func NewRecommendationHandler(
	engine services.RecommendationEngineInterface,
	sessions services.SessionStoreInterface,
	store services.MusicStoreInterface,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		engine:   engine,
		sessions: sessions,
		store:    store,
		logger:   logger,
	}
}

// Session recommends based on the tracks played in the given session.
func (h *RecommendationHandler) Session(c *gin.Context) {
	listenerID, _ := middleware.GetListenerFromContext(c)
	sessionID := c.Param("sessionId")

	playedIDs, err := h.sessions.PlayedTrackIDs(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to load session, returning empty recommendations")
		h.respond(c, listenerID, services.StrategySession, []models.ScoredTrack{}, false)
		return
	}

	played, err := h.store.GetTracksByIDs(c.Request.Context(), playedIDs)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to load played tracks, returning empty recommendations")
		h.respond(c, listenerID, services.StrategySession, []models.ScoredTrack{}, false)
		return
	}

	recs, err := h.engine.RankSessionRecommendations(c.Request.Context(), listenerID, played, parseExcludeParam(c))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"listener_id": listenerID,
			"session_id":  sessionID,
		}).Info("Session recommendations degraded")
	}

	h.respond(c, listenerID, services.StrategySession, recs, false)
}

// Contextual recommends based on the track the listener is hearing right now.
func (h *RecommendationHandler) Contextual(c *gin.Context) {
	listenerID, _ := middleware.GetListenerFromContext(c)

	currentID, err := uuid.Parse(c.Query("current"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_TRACK_ID",
				"message": "Query parameter 'current' must be a track ID",
			},
		})
		return
	}

	current, err := h.store.GetTrack(c.Request.Context(), currentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "TRACK_NOT_FOUND",
				"message": "Current track not found",
			},
		})
		return
	}

	recs, err := h.engine.RankContextualRecommendations(c.Request.Context(), listenerID, *current, parseExcludeParam(c))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"listener_id": listenerID,
			"track_id":    currentID,
		}).Info("Contextual recommendations degraded")
	}

	h.respond(c, listenerID, services.StrategyContextual, recs, false)
}

// History recommends from the listener's long-term listening profile, with a
// trending fallback for listeners with no history yet.
func (h *RecommendationHandler) History(c *gin.Context) {
	listenerID, _ := middleware.GetListenerFromContext(c)

	recs, fallback, err := h.engine.RankHistoryRecommendations(c.Request.Context(), listenerID)
	if err != nil {
		h.logger.WithError(err).WithField("listener_id", listenerID).Info("History recommendations degraded")
	}

	strategy := services.StrategyHistory
	if fallback {
		strategy = services.StrategyTrending
	}

	h.respond(c, listenerID, strategy, recs, fallback)
}

func (h *RecommendationHandler) respond(c *gin.Context, listenerID uuid.UUID, strategy string, recs []models.ScoredTrack, fallback bool) {
	if recs == nil {
		recs = []models.ScoredTrack{}
	}

	c.JSON(http.StatusOK, models.RecommendationResponse{
		ListenerID:      listenerID,
		Strategy:        strategy,
		Recommendations: recs,
		Fallback:        fallback,
		GeneratedAt:     time.Now(),
	})
}

func parseExcludeParam(c *gin.Context) map[uuid.UUID]struct{} {
	excludeStr := c.Query("exclude")
	if excludeStr == "" {
		return nil
	}

	exclude := make(map[uuid.UUID]struct{})
	for _, part := range strings.Split(excludeStr, ",") {
		if id, err := uuid.Parse(strings.TrimSpace(part)); err == nil {
			exclude[id] = struct{}{}
		}
	}
	return exclude
}
