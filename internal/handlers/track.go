package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/middleware"
	"github.com/encorefm/encore/internal/services"
	"github.com/encorefm/encore/internal/validation"
	"github.com/encorefm/encore/pkg/models"
)

type TrackHandler struct {
	store     services.MusicStoreInterface
	engine    services.RecommendationEngineInterface
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewTrackHandler(
	store services.MusicStoreInterface,
	engine services.RecommendationEngineInterface,
	validator *validation.SchemaValidator,
	logger *logrus.Logger,
) *TrackHandler {
	return &TrackHandler{
		store:     store,
		engine:    engine,
		validator: validator,
		logger:    logger,
	}
}

// Create ingests a new track into the catalog.
func (h *TrackHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_BODY",
				"message": "Failed to read request body",
			},
		})
		return
	}

	if result := h.validator.ValidateTrackIngestion(body); !result.Valid {
		c.JSON(http.StatusBadRequest, result.ToAPIError())
		return
	}

	var req models.TrackIngestionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Request body is not valid JSON",
			},
		})
		return
	}

	track, err := h.store.CreateTrack(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create track")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "TRACK_CREATION_FAILED",
				"message": "Failed to create track",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"track": track})
}

// Get returns a single track with the caller's liked flag.
func (h *TrackHandler) Get(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_TRACK_ID",
				"message": "Invalid track ID format",
			},
		})
		return
	}

	track, err := h.store.GetTrack(c.Request.Context(), trackID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "TRACK_NOT_FOUND",
				"message": "Track not found",
			},
		})
		return
	}

	listenerID, _ := middleware.GetListenerFromContext(c)
	liked := false
	if likedIDs, err := h.store.ListLikedIDs(c.Request.Context(), listenerID); err == nil {
		_, liked = likedIDs[trackID]
	}

	c.JSON(http.StatusOK, models.TrackResponse{Track: *track, Liked: liked})
}

// Trending returns the most-viewed tracks.
func (h *TrackHandler) Trending(c *gin.Context) {
	listenerID, _ := middleware.GetListenerFromContext(c)

	tracks, err := h.engine.TrendingTracks(c.Request.Context(), listenerID)
	if err != nil {
		h.logger.WithError(err).Warn("Trending list degraded to empty")
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}
