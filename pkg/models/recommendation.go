package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoredTrack pairs a candidate track with the score it received in one
// ranking pass. Scores carry a random jitter term and are only comparable
// within the pass that produced them.
type ScoredTrack struct {
	Track    Track    `json:"track"`
	Score    float64  `json:"score"`
	Liked    bool     `json:"liked"`
	Position int      `json:"position"`
	Reasons  []string `json:"reasons,omitempty"`
}

type RecommendationResponse struct {
	ListenerID      uuid.UUID     `json:"listener_id"`
	Strategy        string        `json:"strategy"`
	Recommendations []ScoredTrack `json:"recommendations"`
	Fallback        bool          `json:"fallback"`
	GeneratedAt     time.Time     `json:"generated_at"`
}
