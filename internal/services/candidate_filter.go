package services

import (
	"errors"

	"github.com/google/uuid"

	"github.com/encorefm/encore/pkg/models"
)

// ErrNoCandidates reports that filtering left nothing to score. Callers
// degrade to an empty result, never an error response.
var ErrNoCandidates = errors.New("no eligible candidates")

// filterCandidates drops every catalog track whose id is in the exclusion
// set, plus the current track in contextual mode.
func filterCandidates(catalog []models.Track, exclude map[uuid.UUID]struct{}, current *uuid.UUID) ([]models.Track, error) {
	candidates := make([]models.Track, 0, len(catalog))
	for _, t := range catalog {
		if _, skip := exclude[t.ID]; skip {
			continue
		}
		if current != nil && t.ID == *current {
			continue
		}
		candidates = append(candidates, t)
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func unionIDSets(sets ...map[uuid.UUID]struct{}) map[uuid.UUID]struct{} {
	union := make(map[uuid.UUID]struct{})
	for _, set := range sets {
		for id := range set {
			union[id] = struct{}{}
		}
	}
	return union
}
