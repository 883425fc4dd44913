package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "halfbuilt/contexts/marketplace-core/featured-listing-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/ports"
)

// Tier is a purchasable placement duration and its price.
type Tier struct {
	Days       int
	PriceCents int64
}

// DefaultTiers is the fixed placement price ladder.
var DefaultTiers = []Tier{
	{Days: 7, PriceCents: 1999},
	{Days: 14, PriceCents: 3499},
	{Days: 30, PriceCents: 5999},
}

// Purchase is the outcome of buying or extending a featured slot.
type Purchase struct {
	Placement   ports.Placement
	Days        int
	ChargeCents int64
}

type Service struct {
	Repo   ports.PlacementRepository
	Clock  ports.Clock
	Tiers  []Tier
	Logger *slog.Logger
}

// PurchaseFeatured activates a featured slot on the seller's own active
// listing for one of the fixed tiers. The window starts now.
func (s Service) PurchaseFeatured(ctx context.Context, sellerID string, projectID string, days int) (Purchase, error) {
	tier, err := s.tierFor(days)
	if err != nil {
		return Purchase{}, err
	}
	placement, err := s.ownedPlacement(ctx, sellerID, projectID)
	if err != nil {
		return Purchase{}, err
	}
	if placement.Status != ports.ProjectStatusActive {
		return Purchase{}, domainerrors.ErrProjectNotActive
	}

	now := s.now()
	until := now.Add(time.Duration(tier.Days) * 24 * time.Hour)
	updated, err := s.Repo.SetFeatured(ctx, projectID, until)
	if err != nil {
		return Purchase{}, err
	}

	s.logger().Info("featured slot purchased",
		"event", "featured_purchased",
		"module", "marketplace-core/featured-listing-service",
		"layer", "application",
		"project_id", projectID,
		"days", tier.Days,
		"charge_cents", tier.PriceCents,
	)
	return Purchase{Placement: updated, Days: tier.Days, ChargeCents: tier.PriceCents}, nil
}

// ExtendFeatured adds a tier's days to the EXISTING window, so extending
// mid-period compounds instead of restarting from now.
func (s Service) ExtendFeatured(ctx context.Context, sellerID string, projectID string, days int) (Purchase, error) {
	tier, err := s.tierFor(days)
	if err != nil {
		return Purchase{}, err
	}
	placement, err := s.ownedPlacement(ctx, sellerID, projectID)
	if err != nil {
		return Purchase{}, err
	}

	now := s.now()
	if !activeWindow(placement, now) {
		return Purchase{}, domainerrors.ErrPlacementNotActive
	}

	until := placement.FeaturedUntil.Add(time.Duration(tier.Days) * 24 * time.Hour)
	updated, err := s.Repo.SetFeatured(ctx, projectID, until)
	if err != nil {
		return Purchase{}, err
	}

	s.logger().Info("featured slot extended",
		"event", "featured_extended",
		"module", "marketplace-core/featured-listing-service",
		"layer", "application",
		"project_id", projectID,
		"days", tier.Days,
		"charge_cents", tier.PriceCents,
	)
	return Purchase{Placement: updated, Days: tier.Days, ChargeCents: tier.PriceCents}, nil
}

// IsFeatured reports whether the listing is featured right now: a stale flag
// with an elapsed window reads false before any cleanup sweep runs.
func (s Service) IsFeatured(ctx context.Context, projectID string) (bool, error) {
	if strings.TrimSpace(projectID) == "" {
		return false, domainerrors.ErrInvalidFeaturedRequest
	}
	placement, err := s.Repo.GetPlacement(ctx, projectID)
	if err != nil {
		return false, err
	}
	return activeWindow(placement, s.now()), nil
}

// CleanupExpired clears elapsed placements and returns how many it cleared.
// Re-running is safe: the store predicate only matches stale windows.
func (s Service) CleanupExpired(ctx context.Context) (int, error) {
	cleared, err := s.Repo.ClearExpiredFeatured(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.logger().Info("featured cleanup completed",
			"event", "featured_cleanup_completed",
			"module", "marketplace-core/featured-listing-service",
			"layer", "worker",
			"cleared_count", cleared,
		)
	}
	return cleared, nil
}

func (s Service) ownedPlacement(ctx context.Context, sellerID string, projectID string) (ports.Placement, error) {
	if strings.TrimSpace(sellerID) == "" || strings.TrimSpace(projectID) == "" {
		return ports.Placement{}, domainerrors.ErrInvalidFeaturedRequest
	}
	placement, err := s.Repo.GetPlacement(ctx, projectID)
	if err != nil {
		return ports.Placement{}, err
	}
	if placement.SellerID != sellerID {
		return ports.Placement{}, domainerrors.ErrNotProjectSeller
	}
	return placement, nil
}

func (s Service) tierFor(days int) (Tier, error) {
	tiers := s.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	for _, tier := range tiers {
		if tier.Days == days {
			return tier, nil
		}
	}
	return Tier{}, domainerrors.ErrInvalidFeaturedTier
}

func activeWindow(placement ports.Placement, now time.Time) bool {
	return placement.IsFeatured && placement.FeaturedUntil != nil && placement.FeaturedUntil.After(now)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
