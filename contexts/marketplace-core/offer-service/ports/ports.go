package ports

import (
	"context"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

const (
	ProjectStatusActive   = "active"
	ProjectStatusInactive = "inactive"
	ProjectStatusSold     = "sold"
)

// Project is the read model the negotiation engine needs from the listing
// catalog: price, ownership, and offer constraints.
type Project struct {
	ProjectID     string
	SellerID      string
	Title         string
	PriceCents    int64
	MinOfferCents int64
	Status        string
}

type ProjectCatalog interface {
	GetProject(ctx context.Context, projectID string) (Project, error)
}

// User is the contact identity used for notification payloads.
type User struct {
	UserID      string
	Email       string
	DisplayName string
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (User, error)
}

type OfferFilter struct {
	Status entities.OfferStatus
	Page   int
	Limit  int
}

type OfferRepository interface {
	// CreateOffer persists a new root offer. A concurrent active offer by the
	// same buyer on the same project surfaces as ErrDuplicateActiveOffer.
	CreateOffer(ctx context.Context, offer entities.Offer) error

	GetOffer(ctx context.Context, offerID string) (entities.Offer, error)

	// FindActiveOffer returns any offer by the buyer on the project whose
	// status is pending or countered.
	FindActiveOffer(ctx context.Context, buyerID string, projectID string) (entities.Offer, bool, error)

	// CreateCounterOffer atomically moves the parent from pending to countered
	// and inserts the pending child. Fails with ErrOfferNotPending when the
	// parent's status diverged.
	CreateCounterOffer(ctx context.Context, parentOfferID string, respondedAt time.Time, child entities.Offer) error

	// UpdateOfferStatus is the conditional transition primitive: it sets the
	// status to `to` only where the current status is `from`, and fails with
	// ErrOfferNotPending otherwise. A zero respondedAt leaves the recorded
	// response time unchanged.
	UpdateOfferStatus(ctx context.Context, offerID string, from entities.OfferStatus, to entities.OfferStatus, respondedAt time.Time) (entities.Offer, error)

	ListOffersByBuyer(ctx context.Context, buyerID string, filter OfferFilter) ([]entities.Offer, int, error)
	ListOffersBySeller(ctx context.Context, sellerID string, filter OfferFilter) ([]entities.Offer, int, error)
	ListOffersByProject(ctx context.Context, projectID string, filter OfferFilter) ([]entities.Offer, int, error)

	// ListExpiredOffers returns offers still in pending or countered whose
	// expires_at has passed.
	ListExpiredOffers(ctx context.Context, now time.Time, limit int) ([]entities.Offer, error)
}
