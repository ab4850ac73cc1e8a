package models

import (
	"time"

	"github.com/google/uuid"
)

type Track struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title" validate:"required,min=1,max=255"`
	Artist    string    `json:"artist" db:"artist" validate:"required,min=1,max=255"`
	Language  string    `json:"language,omitempty" db:"language"`
	Tags      []string  `json:"tags,omitempty" db:"tags"`
	LikeCount int64     `json:"like_count" db:"like_count"`
	ViewCount int64     `json:"view_count" db:"view_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type TrackIngestionRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=255"`
	Artist   string   `json:"artist" validate:"required,min=1,max=255"`
	Language string   `json:"language,omitempty" validate:"omitempty,max=64"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=32,dive,min=1,max=64"`
}

type TrackResponse struct {
	Track Track `json:"track"`
	Liked bool  `json:"liked"`
}
