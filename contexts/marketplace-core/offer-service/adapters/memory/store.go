package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
)

// Store is the in-memory adapter backing tests and local runs. It implements
// OfferRepository, ProjectCatalog, UserDirectory, Clock, and IDGenerator.
type Store struct {
	mu sync.RWMutex

	offersByID map[string]entities.Offer
	projects   map[string]ports.Project
	users      map[string]ports.User

	sequence uint64
}

func NewStore(seedProjects []ports.Project, seedUsers []ports.User) *Store {
	s := &Store{
		offersByID: make(map[string]entities.Offer),
		projects:   make(map[string]ports.Project),
		users:      make(map[string]ports.User),
	}
	for _, project := range seedProjects {
		s.projects[project.ProjectID] = project
	}
	for _, user := range seedUsers {
		s.users[user.UserID] = user
	}
	return s
}

func (s *Store) CreateOffer(_ context.Context, offer entities.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offersByID[offer.OfferID]; exists {
		return domainerrors.ErrInvalidOfferRequest
	}
	// Mirrors the partial unique index on (buyer_id, project_id) over pending
	// rows in the relational store.
	for _, existing := range s.offersByID {
		if existing.BuyerID == offer.BuyerID &&
			existing.ProjectID == offer.ProjectID &&
			existing.Status == entities.OfferStatusPending {
			return domainerrors.ErrDuplicateActiveOffer
		}
	}
	s.offersByID[offer.OfferID] = offer
	return nil
}

func (s *Store) GetOffer(_ context.Context, offerID string) (entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offersByID[offerID]
	if !ok {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	return offer, nil
}

func (s *Store) FindActiveOffer(_ context.Context, buyerID string, projectID string) (entities.Offer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, offer := range s.offersByID {
		if offer.BuyerID != buyerID || offer.ProjectID != projectID {
			continue
		}
		if offer.Status == entities.OfferStatusPending || offer.Status == entities.OfferStatusCountered {
			return offer, true, nil
		}
	}
	return entities.Offer{}, false, nil
}

func (s *Store) CreateCounterOffer(_ context.Context, parentOfferID string, respondedAt time.Time, child entities.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.offersByID[parentOfferID]
	if !ok {
		return domainerrors.ErrOfferNotFound
	}
	if parent.Status != entities.OfferStatusPending {
		return domainerrors.ErrOfferNotPending
	}
	if _, exists := s.offersByID[child.OfferID]; exists {
		return domainerrors.ErrInvalidOfferRequest
	}

	responded := respondedAt.UTC()
	parent.Status = entities.OfferStatusCountered
	parent.RespondedAt = &responded
	s.offersByID[parentOfferID] = parent
	s.offersByID[child.OfferID] = child
	return nil
}

func (s *Store) UpdateOfferStatus(
	_ context.Context,
	offerID string,
	from entities.OfferStatus,
	to entities.OfferStatus,
	respondedAt time.Time,
) (entities.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offersByID[offerID]
	if !ok {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	if offer.Status != from {
		return entities.Offer{}, domainerrors.ErrOfferNotPending
	}
	offer.Status = to
	if !respondedAt.IsZero() {
		responded := respondedAt.UTC()
		offer.RespondedAt = &responded
	}
	s.offersByID[offerID] = offer
	return offer, nil
}

func (s *Store) ListOffersByBuyer(_ context.Context, buyerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return s.list(func(offer entities.Offer) bool { return offer.BuyerID == buyerID }, filter)
}

func (s *Store) ListOffersBySeller(_ context.Context, sellerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return s.list(func(offer entities.Offer) bool { return offer.SellerID == sellerID }, filter)
}

func (s *Store) ListOffersByProject(_ context.Context, projectID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return s.list(func(offer entities.Offer) bool { return offer.ProjectID == projectID }, filter)
}

func (s *Store) list(match func(entities.Offer) bool, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []entities.Offer
	for _, offer := range s.offersByID {
		if !match(offer) {
			continue
		}
		if filter.Status != "" && offer.Status != filter.Status {
			continue
		}
		rows = append(rows, offer)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].OfferID < rows[j].OfferID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []entities.Offer{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return append([]entities.Offer(nil), rows[start:end]...), total, nil
}

func (s *Store) ListExpiredOffers(_ context.Context, now time.Time, limit int) ([]entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []entities.Offer
	for _, offer := range s.offersByID {
		if offer.Status != entities.OfferStatusPending && offer.Status != entities.OfferStatusCountered {
			continue
		}
		if !offer.ExpiresAt.Before(now.UTC()) {
			continue
		}
		rows = append(rows, offer)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ExpiresAt.Before(rows[j].ExpiresAt) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (ports.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

// PutProject upserts a catalog row; used by tests to stage listing state.
func (s *Store) PutProject(project ports.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ProjectID] = project
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("offer-%d", value), nil
}
