package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/messaging"
	"github.com/encorefm/encore/internal/middleware"
	"github.com/encorefm/encore/internal/services"
	"github.com/encorefm/encore/internal/validation"
	"github.com/encorefm/encore/pkg/models"
)

type ListeningHandler struct {
	store     services.MusicStoreInterface
	sessions  services.SessionStoreInterface
	bus       *messaging.MessageBus
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewListeningHandler(
	store services.MusicStoreInterface,
	sessions services.SessionStoreInterface,
	bus *messaging.MessageBus,
	validator *validation.SchemaValidator,
	logger *logrus.Logger,
) *ListeningHandler {
	return &ListeningHandler{
		store:     store,
		sessions:  sessions,
		bus:       bus,
		validator: validator,
		logger:    logger,
	}
}

// Play records listening minutes, marks the track played in the session and
// publishes the play event.
func (h *ListeningHandler) Play(c *gin.Context) {
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

	if result := h.validator.ValidatePlayRequest(body); !result.Valid {
		c.JSON(http.StatusBadRequest, result.ToAPIError())
		return
	}

	var req models.PlayRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Request body is not valid JSON",
			},
		})
		return
	}

	listenerID, _ := middleware.GetListenerFromContext(c)

	if err := h.store.RecordPlay(c.Request.Context(), listenerID, req.TrackID, req.Minutes); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"listener_id": listenerID,
			"track_id":    req.TrackID,
		}).Error("Failed to record play")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "PLAY_RECORDING_FAILED",
				"message": "Failed to record play",
			},
		})
		return
	}

	// Session state is advisory; a Redis hiccup should not fail the play
	if err := h.sessions.MarkPlayed(c.Request.Context(), req.SessionID.String(), req.TrackID); err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Warn("Failed to mark track played in session")
	}

	h.bus.PublishPlayEvent(models.PlayEvent{
		ListenerID: listenerID,
		TrackID:    req.TrackID,
		SessionID:  req.SessionID,
		Minutes:    req.Minutes,
		Timestamp:  time.Now(),
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}

// Like records a like for the current listener.
func (h *ListeningHandler) Like(c *gin.Context) {
	h.setLiked(c, true)
}

// Unlike removes a like for the current listener.
func (h *ListeningHandler) Unlike(c *gin.Context) {
	h.setLiked(c, false)
}

func (h *ListeningHandler) setLiked(c *gin.Context, liked bool) {
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

	if result := h.validator.ValidateLikeRequest(body); !result.Valid {
		c.JSON(http.StatusBadRequest, result.ToAPIError())
		return
	}

	var req models.LikeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Request body is not valid JSON",
			},
		})
		return
	}

	listenerID, _ := middleware.GetListenerFromContext(c)

	op := h.store.LikeTrack
	if !liked {
		op = h.store.UnlikeTrack
	}

	if err := op(c.Request.Context(), listenerID, req.TrackID); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"listener_id": listenerID,
			"track_id":    req.TrackID,
			"liked":       liked,
		}).Error("Failed to update like state")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "LIKE_UPDATE_FAILED",
				"message": "Failed to update like state",
			},
		})
		return
	}

	h.bus.PublishLikeEvent(models.LikeEvent{
		ListenerID: listenerID,
		TrackID:    req.TrackID,
		Liked:      liked,
		Timestamp:  time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{"track_id": req.TrackID, "liked": liked})
}
