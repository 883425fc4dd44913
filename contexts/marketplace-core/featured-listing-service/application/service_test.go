package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"halfbuilt/contexts/marketplace-core/featured-listing-service/adapters/memory"
	domainerrors "halfbuilt/contexts/marketplace-core/featured-listing-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/ports"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newService(placements ...ports.Placement) (Service, *memory.Store) {
	store := memory.NewStore(placements)
	return Service{Repo: store, Clock: fixedClock{now: testNow}}, store
}

func activeListing() ports.Placement {
	return ports.Placement{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", Status: ports.ProjectStatusActive}
}

func TestPurchaseFeaturedTierLadder(t *testing.T) {
	cases := []struct {
		days  int
		price int64
	}{
		{7, 1999},
		{14, 3499},
		{30, 5999},
	}
	for _, tc := range cases {
		svc, _ := newService(activeListing())
		purchase, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-1", tc.days)
		if err != nil {
			t.Fatalf("purchase %d days: %v", tc.days, err)
		}
		if purchase.ChargeCents != tc.price {
			t.Fatalf("expected %d¢ for %d days, got %d¢", tc.price, tc.days, purchase.ChargeCents)
		}
		want := testNow.Add(time.Duration(tc.days) * 24 * time.Hour)
		if purchase.Placement.FeaturedUntil == nil || !purchase.Placement.FeaturedUntil.Equal(want) {
			t.Fatalf("expected window until %v, got %v", want, purchase.Placement.FeaturedUntil)
		}
		if !purchase.Placement.IsFeatured {
			t.Fatal("expected featured flag set")
		}
	}
}

func TestPurchaseFeaturedGuards(t *testing.T) {
	svc, _ := newService(
		activeListing(),
		ports.Placement{ProjectID: "proj-sold", SellerID: "seller-1", Status: ports.ProjectStatusSold},
	)

	if _, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-1", 10); !errors.Is(err, domainerrors.ErrInvalidFeaturedTier) {
		t.Fatalf("expected invalid tier, got %v", err)
	}
	if _, err := svc.PurchaseFeatured(context.Background(), "someone-else", "proj-1", 7); !errors.Is(err, domainerrors.ErrNotProjectSeller) {
		t.Fatalf("expected seller guard, got %v", err)
	}
	if _, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-sold", 7); !errors.Is(err, domainerrors.ErrProjectNotActive) {
		t.Fatalf("expected active guard, got %v", err)
	}
	if _, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-missing", 7); !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestExtendFeaturedCompoundsExistingWindow(t *testing.T) {
	svc, _ := newService(activeListing())

	if _, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-1", 7); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	// Extending three days in still adds to the original end, not to now.
	later := Service{Repo: svc.Repo, Clock: fixedClock{now: testNow.Add(3 * 24 * time.Hour)}}
	extended, err := later.ExtendFeatured(context.Background(), "seller-1", "proj-1", 14)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	want := testNow.Add(21 * 24 * time.Hour)
	if !extended.Placement.FeaturedUntil.Equal(want) {
		t.Fatalf("expected compounded window until %v, got %v", want, extended.Placement.FeaturedUntil)
	}
	if extended.ChargeCents != 3499 {
		t.Fatalf("expected 3499¢, got %d", extended.ChargeCents)
	}
}

func TestExtendFeaturedRequiresActiveWindow(t *testing.T) {
	svc, _ := newService(activeListing())

	if _, err := svc.ExtendFeatured(context.Background(), "seller-1", "proj-1", 7); !errors.Is(err, domainerrors.ErrPlacementNotActive) {
		t.Fatalf("expected inactive-placement guard, got %v", err)
	}

	// count an elapsed window as inactive too
	if _, err := svc.PurchaseFeatured(context.Background(), "seller-1", "proj-1", 7); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	stale := Service{Repo: svc.Repo, Clock: fixedClock{now: testNow.Add(8 * 24 * time.Hour)}}
	if _, err := stale.ExtendFeatured(context.Background(), "seller-1", "proj-1", 7); !errors.Is(err, domainerrors.ErrPlacementNotActive) {
		t.Fatalf("expected elapsed-window guard, got %v", err)
	}
}

func TestIsFeaturedIgnoresStaleFlag(t *testing.T) {
	past := testNow.Add(-time.Hour)
	svc, _ := newService(ports.Placement{
		ProjectID:     "proj-1",
		SellerID:      "seller-1",
		Status:        ports.ProjectStatusActive,
		IsFeatured:    true,
		FeaturedUntil: &past,
	})

	featured, err := svc.IsFeatured(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("is featured: %v", err)
	}
	if featured {
		t.Fatal("elapsed window must read as not featured before cleanup")
	}
}

func TestCleanupExpiredClearsOnlyStaleWindows(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(48 * time.Hour)
	svc, store := newService(
		ports.Placement{ProjectID: "proj-stale", SellerID: "seller-1", Status: ports.ProjectStatusActive, IsFeatured: true, FeaturedUntil: &past},
		ports.Placement{ProjectID: "proj-live", SellerID: "seller-1", Status: ports.ProjectStatusActive, IsFeatured: true, FeaturedUntil: &future},
	)

	cleared, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared, got %d", cleared)
	}

	stale, err := store.GetPlacement(context.Background(), "proj-stale")
	if err != nil {
		t.Fatalf("reload stale: %v", err)
	}
	if stale.IsFeatured || stale.FeaturedUntil != nil {
		t.Fatalf("stale placement not cleared: %+v", stale)
	}
	live, err := store.GetPlacement(context.Background(), "proj-live")
	if err != nil {
		t.Fatalf("reload live: %v", err)
	}
	if !live.IsFeatured || live.FeaturedUntil == nil {
		t.Fatalf("live placement clobbered: %+v", live)
	}

	// Rerunning clears nothing further.
	if n, err := svc.CleanupExpired(context.Background()); err != nil || n != 0 {
		t.Fatalf("second cleanup should be a no-op: n=%d err=%v", n, err)
	}
}
