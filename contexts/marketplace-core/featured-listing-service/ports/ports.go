package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

const (
	ProjectStatusActive   = "active"
	ProjectStatusInactive = "inactive"
	ProjectStatusSold     = "sold"
)

// Placement is the featured-slot view of a listing. The placement state is
// embedded on the project row; this engine owns its mutation.
type Placement struct {
	ProjectID     string
	SellerID      string
	Title         string
	Status        string
	IsFeatured    bool
	FeaturedUntil *time.Time
}

type PlacementRepository interface {
	GetPlacement(ctx context.Context, projectID string) (Placement, error)

	// SetFeatured turns the slot on through the given instant and returns the
	// updated placement.
	SetFeatured(ctx context.Context, projectID string, until time.Time) (Placement, error)

	// ClearExpiredFeatured bulk-clears flag and timestamp where the window has
	// elapsed. The predicate is conditional on the stale timestamp, so a
	// concurrent purchase writing a future window is never clobbered.
	ClearExpiredFeatured(ctx context.Context, now time.Time) (int, error)
}
