package workers

import (
	"context"
	"testing"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/offer-service/application/commands"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestOfferExpirerSettlesStaleThreads(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore(
		[]ports.Project{{ProjectID: "proj-1", SellerID: "seller-1", Title: "Stale listing", PriceCents: 10000, Status: ports.ProjectStatusActive}},
		[]ports.User{
			{UserID: "buyer-1", Email: "buyer@example.com"},
			{UserID: "seller-1", Email: "seller@example.com"},
		},
	)
	sink := notify.NewRecorder()

	create := commands.CreateOfferUseCase{Offers: store, Projects: store, Users: store, Notifications: sink, Clock: fixedClock{now: start}, IDGenerator: store}
	counter := commands.CounterOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: fixedClock{now: start.Add(time.Hour)}, IDGenerator: store}

	root, err := create.Execute(context.Background(), commands.CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	child, err := counter.Execute(context.Background(), commands.CounterOfferCommand{SellerID: "seller-1", OfferID: root.OfferID, CounterPriceCents: 9000})
	if err != nil {
		t.Fatalf("counter: %v", err)
	}

	sink.Reset()
	sweepTime := start.Add(8 * 24 * time.Hour)
	expirer := OfferExpirer{Offers: store, Users: store, Notifications: sink, Clock: fixedClock{now: sweepTime}}

	expired, err := expirer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 expirations, got %d", expired)
	}

	parent, err := store.GetOffer(context.Background(), root.OfferID)
	if err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if parent.Status != entities.OfferStatusExpired {
		t.Fatalf("expected parent expired, got %s", parent.Status)
	}
	// The counter transition already recorded the parent's response time; the
	// sweep must not overwrite it.
	if parent.RespondedAt == nil || !parent.RespondedAt.Equal(start.Add(time.Hour)) {
		t.Fatalf("parent responded_at clobbered: %v", parent.RespondedAt)
	}

	pending, err := store.GetOffer(context.Background(), child.OfferID)
	if err != nil {
		t.Fatalf("reload child: %v", err)
	}
	if pending.Status != entities.OfferStatusExpired {
		t.Fatalf("expected child expired, got %s", pending.Status)
	}
	if pending.RespondedAt == nil || !pending.RespondedAt.Equal(sweepTime) {
		t.Fatalf("expected child responded_at %v, got %v", sweepTime, pending.RespondedAt)
	}

	// Both parties hear about each expiration once.
	if got := len(sink.NotificationsFor("buyer-1")); got != 2 {
		t.Fatalf("expected 2 buyer notifications, got %d", got)
	}
	if got := len(sink.NotificationsFor("seller-1")); got != 2 {
		t.Fatalf("expected 2 seller notifications, got %d", got)
	}
}

func TestOfferExpirerIsIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore(
		[]ports.Project{{ProjectID: "proj-1", SellerID: "seller-1", PriceCents: 10000, Status: ports.ProjectStatusActive}},
		[]ports.User{
			{UserID: "buyer-1", Email: "buyer@example.com"},
			{UserID: "seller-1", Email: "seller@example.com"},
		},
	)
	sink := notify.NewRecorder()
	create := commands.CreateOfferUseCase{Offers: store, Projects: store, Users: store, Notifications: sink, Clock: fixedClock{now: start}, IDGenerator: store}
	if _, err := create.Execute(context.Background(), commands.CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	expirer := OfferExpirer{Offers: store, Users: store, Notifications: sink, Clock: fixedClock{now: start.Add(8 * 24 * time.Hour)}}
	if n, err := expirer.RunOnce(context.Background()); err != nil || n != 1 {
		t.Fatalf("first sweep: n=%d err=%v", n, err)
	}
	if n, err := expirer.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("second sweep should be a no-op: n=%d err=%v", n, err)
	}
}
