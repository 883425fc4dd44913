package memory

import (
	"context"
	"sync"
	"time"

	domainerrors "halfbuilt/contexts/marketplace-core/featured-listing-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/ports"
)

// Store is the in-memory adapter backing tests and local runs. It implements
// PlacementRepository and Clock.
type Store struct {
	mu         sync.RWMutex
	placements map[string]ports.Placement
}

func NewStore(seed []ports.Placement) *Store {
	s := &Store{placements: make(map[string]ports.Placement)}
	for _, placement := range seed {
		s.placements[placement.ProjectID] = placement
	}
	return s
}

func (s *Store) GetPlacement(_ context.Context, projectID string) (ports.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	placement, ok := s.placements[projectID]
	if !ok {
		return ports.Placement{}, domainerrors.ErrProjectNotFound
	}
	return placement, nil
}

func (s *Store) SetFeatured(_ context.Context, projectID string, until time.Time) (ports.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	placement, ok := s.placements[projectID]
	if !ok {
		return ports.Placement{}, domainerrors.ErrProjectNotFound
	}
	window := until.UTC()
	placement.IsFeatured = true
	placement.FeaturedUntil = &window
	s.placements[projectID] = placement
	return placement, nil
}

func (s *Store) ClearExpiredFeatured(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for projectID, placement := range s.placements {
		if !placement.IsFeatured || placement.FeaturedUntil == nil {
			continue
		}
		if !placement.FeaturedUntil.Before(now.UTC()) {
			continue
		}
		placement.IsFeatured = false
		placement.FeaturedUntil = nil
		s.placements[projectID] = placement
		cleared++
	}
	return cleared, nil
}

// PutPlacement upserts a row; used by tests to stage listing state.
func (s *Store) PutPlacement(placement ports.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placements[placement.ProjectID] = placement
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
