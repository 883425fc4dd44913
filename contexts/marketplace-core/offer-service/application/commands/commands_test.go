package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newFixture() (*memory.Store, *notify.Recorder, fixedClock) {
	store := memory.NewStore(
		[]ports.Project{
			{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", PriceCents: 10000, Status: ports.ProjectStatusActive},
			{ProjectID: "proj-min", SellerID: "seller-1", Title: "Priced floor", PriceCents: 10000, MinOfferCents: 6000, Status: ports.ProjectStatusActive},
			{ProjectID: "proj-sold", SellerID: "seller-1", Title: "Gone", PriceCents: 10000, Status: ports.ProjectStatusSold},
		},
		[]ports.User{
			{UserID: "buyer-1", Email: "buyer@example.com", DisplayName: "Buyer One"},
			{UserID: "seller-1", Email: "seller@example.com", DisplayName: "Seller One"},
		},
	)
	return store, notify.NewRecorder(), fixedClock{now: testNow}
}

func createUseCase(store *memory.Store, sink *notify.Recorder, clock fixedClock) CreateOfferUseCase {
	return CreateOfferUseCase{
		Offers:        store,
		Projects:      store,
		Users:         store,
		Notifications: sink,
		Clock:         clock,
		IDGenerator:   store,
	}
}

func TestCreateOfferOpensPendingThread(t *testing.T) {
	store, sink, clock := newFixture()
	uc := createUseCase(store, sink, clock)

	offer, err := uc.Execute(context.Background(), CreateOfferCommand{
		BuyerID:           "buyer-1",
		ProjectID:         "proj-1",
		OfferedPriceCents: 8000,
		Message:           "Would you take $80?",
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.Status != entities.OfferStatusPending {
		t.Fatalf("expected pending, got %s", offer.Status)
	}
	if offer.OriginalPriceCents != 10000 {
		t.Fatalf("expected listing price snapshot 10000, got %d", offer.OriginalPriceCents)
	}
	if want := testNow.Add(7 * 24 * time.Hour); !offer.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, offer.ExpiresAt)
	}
	if got := sink.NotificationsFor("seller-1"); len(got) != 1 {
		t.Fatalf("expected 1 seller notification, got %d", len(got))
	}
}

func TestCreateOfferGuards(t *testing.T) {
	store, sink, clock := newFixture()
	uc := createUseCase(store, sink, clock)

	cases := []struct {
		name string
		cmd  CreateOfferCommand
		want error
	}{
		{"inactive project", CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-sold", OfferedPriceCents: 8000}, domainerrors.ErrProjectNotActive},
		{"self offer", CreateOfferCommand{BuyerID: "seller-1", ProjectID: "proj-1", OfferedPriceCents: 8000}, domainerrors.ErrSelfOffer},
		{"below floor", CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 400}, domainerrors.ErrPriceBelowFloor},
		{"at listing price", CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 10000}, domainerrors.ErrPriceNotBelowListing},
		{"below project minimum", CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-min", OfferedPriceCents: 5000}, domainerrors.ErrPriceBelowProjectMinimum},
		{"unknown project", CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-missing", OfferedPriceCents: 8000}, domainerrors.ErrProjectNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Execute(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateOfferRejectsDuplicateActiveOffer(t *testing.T) {
	store, sink, clock := newFixture()
	uc := createUseCase(store, sink, clock)

	if _, err := uc.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000}); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if _, err := uc.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8500}); !errors.Is(err, domainerrors.ErrDuplicateActiveOffer) {
		t.Fatalf("expected duplicate active offer, got %v", err)
	}
}

func TestCounterThenAcceptNegotiation(t *testing.T) {
	store, sink, clock := newFixture()
	create := createUseCase(store, sink, clock)
	counter := CounterOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	accept := AcceptOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock}

	root, err := create.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	child, err := counter.Execute(context.Background(), CounterOfferCommand{SellerID: "seller-1", OfferID: root.OfferID, CounterPriceCents: 9000})
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if child.ParentOfferID != root.OfferID {
		t.Fatalf("expected child linked to %s, got %s", root.OfferID, child.ParentOfferID)
	}

	parent, err := store.GetOffer(context.Background(), root.OfferID)
	if err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if parent.Status != entities.OfferStatusCountered {
		t.Fatalf("expected parent countered, got %s", parent.Status)
	}
	if parent.RespondedAt == nil {
		t.Fatal("expected parent responded_at set")
	}

	// The counter is addressed to the buyer; the seller cannot accept it.
	if _, err := accept.Execute(context.Background(), AcceptOfferCommand{UserID: "seller-1", OfferID: child.OfferID}); !errors.Is(err, domainerrors.ErrNotOfferResponder) {
		t.Fatalf("expected responder guard, got %v", err)
	}

	accepted, err := accept.Execute(context.Background(), AcceptOfferCommand{UserID: "buyer-1", OfferID: child.OfferID})
	if err != nil {
		t.Fatalf("accept counter: %v", err)
	}
	if accepted.Status != entities.OfferStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.OfferedPriceCents != 9000 {
		t.Fatalf("expected negotiated price 9000, got %d", accepted.OfferedPriceCents)
	}
}

func TestAcceptRootOfferCarriesCheckoutLink(t *testing.T) {
	store, sink, clock := newFixture()
	create := createUseCase(store, sink, clock)
	accept := AcceptOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock}

	root, err := create.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := accept.Execute(context.Background(), AcceptOfferCommand{UserID: "seller-1", OfferID: root.OfferID}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	buyerNotes := sink.NotificationsFor("buyer-1")
	if len(buyerNotes) == 0 {
		t.Fatal("expected buyer notification")
	}
	last := buyerNotes[len(buyerNotes)-1]
	if want := "/checkout/offers/" + root.OfferID; last.ActionURL != want {
		t.Fatalf("expected checkout link %q, got %q", want, last.ActionURL)
	}
}

func TestAcceptRequiresPendingStatus(t *testing.T) {
	store, sink, clock := newFixture()
	create := createUseCase(store, sink, clock)
	accept := AcceptOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock}
	reject := RejectOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock}

	root, err := create.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reject.Execute(context.Background(), RejectOfferCommand{UserID: "seller-1", OfferID: root.OfferID}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := accept.Execute(context.Background(), AcceptOfferCommand{UserID: "seller-1", OfferID: root.OfferID}); !errors.Is(err, domainerrors.ErrOfferNotPending) {
		t.Fatalf("expected not-pending conflict, got %v", err)
	}
}

func TestWithdrawActorAsymmetry(t *testing.T) {
	store, sink, clock := newFixture()
	create := createUseCase(store, sink, clock)
	counter := CounterOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	withdraw := WithdrawOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock}

	root, err := create.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the buyer may withdraw a root offer.
	if _, err := withdraw.Execute(context.Background(), WithdrawOfferCommand{UserID: "seller-1", OfferID: root.OfferID}); !errors.Is(err, domainerrors.ErrNotOfferOwner) {
		t.Fatalf("expected owner guard, got %v", err)
	}

	child, err := counter.Execute(context.Background(), CounterOfferCommand{SellerID: "seller-1", OfferID: root.OfferID, CounterPriceCents: 9000})
	if err != nil {
		t.Fatalf("counter: %v", err)
	}

	// Only the seller may withdraw their own counter.
	if _, err := withdraw.Execute(context.Background(), WithdrawOfferCommand{UserID: "buyer-1", OfferID: child.OfferID}); !errors.Is(err, domainerrors.ErrNotOfferOwner) {
		t.Fatalf("expected owner guard on counter, got %v", err)
	}
	withdrawn, err := withdraw.Execute(context.Background(), WithdrawOfferCommand{UserID: "seller-1", OfferID: child.OfferID})
	if err != nil {
		t.Fatalf("withdraw counter: %v", err)
	}
	if withdrawn.Status != entities.OfferStatusWithdrawn {
		t.Fatalf("expected withdrawn, got %s", withdrawn.Status)
	}
}

func TestCounterOfferVisibilityForOutsiders(t *testing.T) {
	store, sink, clock := newFixture()
	create := createUseCase(store, sink, clock)
	counter := CounterOfferUseCase{Offers: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}

	root, err := create.Execute(context.Background(), CreateOfferCommand{BuyerID: "buyer-1", ProjectID: "proj-1", OfferedPriceCents: 8000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Outsiders get not-found, never a permission hint.
	if _, err := counter.Execute(context.Background(), CounterOfferCommand{SellerID: "stranger", OfferID: root.OfferID, CounterPriceCents: 9000}); !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected not-found for outsider, got %v", err)
	}
	// The buyer is a participant but not entitled to counter.
	if _, err := counter.Execute(context.Background(), CounterOfferCommand{SellerID: "buyer-1", OfferID: root.OfferID, CounterPriceCents: 9000}); !errors.Is(err, domainerrors.ErrNotProjectSeller) {
		t.Fatalf("expected seller guard, got %v", err)
	}
}
