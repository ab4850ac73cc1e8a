package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SessionStore tracks which tracks were played in each listening session.
// State lives in hot Redis as a set per session with a sliding TTL, so a
// session expires on its own once the listener goes quiet.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SessionStore {
	return &SessionStore{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:played", sessionID)
}

// MarkPlayed adds the track to the session's played set and refreshes the
// session TTL.
func (s *SessionStore) MarkPlayed(ctx context.Context, sessionID string, trackID uuid.UUID) error {
	pipe := s.redis.Pipeline()
	pipe.SAdd(ctx, sessionKey(sessionID), trackID.String())
	pipe.Expire(ctx, sessionKey(sessionID), s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark track played: %w", err)
	}
	return nil
}

// PlayedTrackIDs returns every track played in the session. An unknown or
// expired session is an empty slice, not an error.
func (s *SessionStore) PlayedTrackIDs(ctx context.Context, sessionID string) ([]uuid.UUID, error) {
	members, err := s.redis.SMembers(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"member":     m,
			}).Warn("Skipping malformed track id in session set")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
