package models

import (
	"time"

	"github.com/google/uuid"
)

// ListeningSignal is one accumulated history entry: total minutes a listener
// has spent on a track. Repeated plays sum into the same entry.
type ListeningSignal struct {
	TrackID uuid.UUID `json:"track_id" db:"track_id"`
	Minutes float64   `json:"minutes" db:"minutes"`
}

type PlayRequest struct {
	TrackID   uuid.UUID `json:"track_id" validate:"required"`
	SessionID uuid.UUID `json:"session_id" validate:"required"`
	Minutes   float64   `json:"minutes" validate:"min=0"`
}

type LikeRequest struct {
	TrackID uuid.UUID `json:"track_id" validate:"required"`
}

type PlayEvent struct {
	ListenerID uuid.UUID `json:"listener_id"`
	TrackID    uuid.UUID `json:"track_id"`
	SessionID  uuid.UUID `json:"session_id"`
	Minutes    float64   `json:"minutes"`
	Timestamp  time.Time `json:"timestamp"`
}

type LikeEvent struct {
	ListenerID uuid.UUID `json:"listener_id"`
	TrackID    uuid.UUID `json:"track_id"`
	Liked      bool      `json:"liked"`
	Timestamp  time.Time `json:"timestamp"`
}
