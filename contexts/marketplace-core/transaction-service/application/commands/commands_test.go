package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/services"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/notify"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func newFixture() (*memory.Store, *notify.Recorder, fixedClock) {
	store := memory.NewStore(
		[]ports.Project{
			{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", PriceCents: 100000, Status: ports.ProjectStatusActive},
			{ProjectID: "proj-sold", SellerID: "seller-1", Title: "Gone", PriceCents: 50000, Status: ports.ProjectStatusSold},
		},
		[]ports.User{
			{UserID: "buyer-1", Email: "buyer@example.com", DisplayName: "Buyer One"},
			{UserID: "seller-1", Email: "seller@example.com", DisplayName: "Seller One"},
		},
	)
	return store, notify.NewRecorder(), fixedClock{now: testNow}
}

func createUseCase(store *memory.Store, sink *notify.Recorder, clock fixedClock) CreateTransactionUseCase {
	return CreateTransactionUseCase{
		Transactions:  store,
		Projects:      store,
		Offers:        store,
		Users:         store,
		Notifications: sink,
		Clock:         clock,
		IDGenerator:   store,
	}
}

func recordPayment(store *memory.Store, sink *notify.Recorder, clock fixedClock) RecordPaymentUseCase {
	return RecordPaymentUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
}

func paidTransaction(t *testing.T, store *memory.Store, sink *notify.Recorder, clock fixedClock) entities.Transaction {
	t.Helper()
	txn, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	paid, err := recordPayment(store, sink, clock).Execute(context.Background(), RecordPaymentCommand{TransactionID: txn.TransactionID, Succeeded: true})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return paid
}

func TestSplitAmountRoundsHalfUp(t *testing.T) {
	commission, sellerReceives := services.SplitAmount(100000, 1800)
	if commission != 18000 || sellerReceives != 82000 {
		t.Fatalf("expected 18000/82000, got %d/%d", commission, sellerReceives)
	}
	// 1¢ at 18% is 0.18¢, which rounds to zero.
	commission, sellerReceives = services.SplitAmount(1, 1800)
	if commission != 0 || sellerReceives != 1 {
		t.Fatalf("expected 0/1, got %d/%d", commission, sellerReceives)
	}
}

func TestCreateTransactionFreezesCommissionSplit(t *testing.T) {
	store, sink, clock := newFixture()

	txn, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if txn.AmountCents != 100000 || txn.CommissionCents != 18000 || txn.SellerReceivesCents != 82000 {
		t.Fatalf("unexpected split: amount=%d commission=%d seller=%d", txn.AmountCents, txn.CommissionCents, txn.SellerReceivesCents)
	}
	if txn.PaymentStatus != entities.PaymentStatusPending || txn.EscrowStatus != entities.EscrowStatusHeld {
		t.Fatalf("unexpected initial state: %s/%s", txn.PaymentStatus, txn.EscrowStatus)
	}
	if want := testNow.Add(7 * 24 * time.Hour); !txn.EscrowReleaseDate.Equal(want) {
		t.Fatalf("expected release date %v, got %v", want, txn.EscrowReleaseDate)
	}
}

func TestCreateTransactionSettlesAcceptedOfferPrice(t *testing.T) {
	store, sink, clock := newFixture()
	store.PutAcceptedOffer(ports.AcceptedOffer{OfferID: "offer-9", ProjectID: "proj-1", BuyerID: "buyer-1", PriceCents: 80000, Status: "accepted"})

	txn, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1", AcceptedOfferID: "offer-9"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if txn.AmountCents != 80000 {
		t.Fatalf("expected negotiated price 80000, got %d", txn.AmountCents)
	}
	if txn.CommissionCents != 14400 {
		t.Fatalf("expected commission 14400, got %d", txn.CommissionCents)
	}
}

func TestCreateTransactionRejectsForeignOffer(t *testing.T) {
	store, sink, clock := newFixture()
	store.PutAcceptedOffer(ports.AcceptedOffer{OfferID: "offer-x", ProjectID: "proj-1", BuyerID: "someone-else", PriceCents: 80000, Status: "accepted"})

	if _, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1", AcceptedOfferID: "offer-x"}); !errors.Is(err, domainerrors.ErrOfferNotSettleable) {
		t.Fatalf("expected offer-not-settleable, got %v", err)
	}
}

func TestCreateTransactionGuards(t *testing.T) {
	store, sink, clock := newFixture()
	uc := createUseCase(store, sink, clock)

	if _, err := uc.Execute(context.Background(), CreateTransactionCommand{BuyerID: "seller-1", ProjectID: "proj-1"}); !errors.Is(err, domainerrors.ErrSelfPurchase) {
		t.Fatalf("expected self-purchase guard, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-sold"}); !errors.Is(err, domainerrors.ErrProjectNotPurchasable) {
		t.Fatalf("expected not-purchasable guard, got %v", err)
	}
}

func TestCreateTransactionRejectsRepurchase(t *testing.T) {
	store, sink, clock := newFixture()
	paidTransaction(t, store, sink, clock)

	if _, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1"}); !errors.Is(err, domainerrors.ErrProjectAlreadyPurchased) {
		t.Fatalf("expected already-purchased guard, got %v", err)
	}
}

func TestRecordPaymentIsIdempotentPerResult(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)
	record := recordPayment(store, sink, clock)

	// Redelivered webhook with the same result is a no-op.
	again, err := record.Execute(context.Background(), RecordPaymentCommand{TransactionID: txn.TransactionID, Succeeded: true})
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if again.PaymentStatus != entities.PaymentStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", again.PaymentStatus)
	}

	// A diverging result is rejected.
	if _, err := record.Execute(context.Background(), RecordPaymentCommand{TransactionID: txn.TransactionID, Succeeded: false}); !errors.Is(err, domainerrors.ErrPaymentAlreadySettled) {
		t.Fatalf("expected already-settled, got %v", err)
	}

	// Exactly one outbox message despite the redelivery.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending outbox message, got %d", len(pending))
	}
}

func TestReleaseEscrowPaysSellerOnce(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)
	sink.Reset()
	release := ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}

	released, err := release.Execute(context.Background(), ReleaseEscrowCommand{TransactionID: txn.TransactionID, Trigger: ReleaseTriggerManual})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.EscrowStatus != entities.EscrowStatusReleased {
		t.Fatalf("expected released, got %s", released.EscrowStatus)
	}
	if released.ReleasedToSellerAt == nil {
		t.Fatal("expected released_to_seller_at set")
	}
	if got := len(sink.NotificationsFor("seller-1")); got != 1 {
		t.Fatalf("expected 1 seller notification, got %d", got)
	}

	// A repeat release is a silent no-op.
	if _, err := release.Execute(context.Background(), ReleaseEscrowCommand{TransactionID: txn.TransactionID, Trigger: ReleaseTriggerSchedule}); err != nil {
		t.Fatalf("repeat release: %v", err)
	}
	if got := len(sink.NotificationsFor("seller-1")); got != 1 {
		t.Fatalf("repeat release must not renotify, got %d", got)
	}
}

func TestReleaseEscrowBlockedWhileDisputed(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)

	dispute := DisputeEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := dispute.Execute(context.Background(), DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "code does not run"}); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	release := ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := release.Execute(context.Background(), ReleaseEscrowCommand{TransactionID: txn.TransactionID, Trigger: ReleaseTriggerSchedule}); !errors.Is(err, domainerrors.ErrEscrowDisputed) {
		t.Fatalf("expected disputed guard, got %v", err)
	}
}

func TestReleaseEscrowRequiresSucceededPayment(t *testing.T) {
	store, sink, clock := newFixture()
	txn, err := createUseCase(store, sink, clock).Execute(context.Background(), CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	release := ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := release.Execute(context.Background(), ReleaseEscrowCommand{TransactionID: txn.TransactionID, Trigger: ReleaseTriggerManual}); !errors.Is(err, domainerrors.ErrPaymentNotSucceeded) {
		t.Fatalf("expected payment guard, got %v", err)
	}
}

func TestMarkCodeAccessedRecordsFirstAccessOnly(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)
	mark := MarkCodeAccessedUseCase{Transactions: store, Clock: clock}

	if _, err := mark.Execute(context.Background(), MarkCodeAccessedCommand{TransactionID: txn.TransactionID, BuyerID: "seller-1"}); !errors.Is(err, domainerrors.ErrNotTransactionBuyer) {
		t.Fatalf("expected buyer guard, got %v", err)
	}
	if _, err := mark.Execute(context.Background(), MarkCodeAccessedCommand{TransactionID: txn.TransactionID, BuyerID: "stranger"}); !errors.Is(err, domainerrors.ErrTransactionNotFound) {
		t.Fatalf("expected not-found for outsider, got %v", err)
	}

	first, err := mark.Execute(context.Background(), MarkCodeAccessedCommand{TransactionID: txn.TransactionID, BuyerID: "buyer-1"})
	if err != nil {
		t.Fatalf("first access: %v", err)
	}
	if first.CodeAccessedAt == nil || !first.CodeAccessedAt.Equal(testNow) {
		t.Fatalf("expected access at %v, got %v", testNow, first.CodeAccessedAt)
	}

	laterMark := MarkCodeAccessedUseCase{Transactions: store, Clock: fixedClock{now: testNow.Add(time.Hour)}}
	repeat, err := laterMark.Execute(context.Background(), MarkCodeAccessedCommand{TransactionID: txn.TransactionID, BuyerID: "buyer-1"})
	if err != nil {
		t.Fatalf("repeat access: %v", err)
	}
	if !repeat.CodeAccessedAt.Equal(testNow) {
		t.Fatalf("repeat access moved the timestamp: %v", repeat.CodeAccessedAt)
	}
}

func TestRefundBlockedAfterRelease(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)

	release := ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := release.Execute(context.Background(), ReleaseEscrowCommand{TransactionID: txn.TransactionID, Trigger: ReleaseTriggerManual}); err != nil {
		t.Fatalf("release: %v", err)
	}

	refund := RefundTransactionUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock}
	if _, err := refund.Execute(context.Background(), RefundTransactionCommand{TransactionID: txn.TransactionID, AdminID: "admin-1", Reason: "chargeback"}); !errors.Is(err, domainerrors.ErrEscrowAlreadyReleased) {
		t.Fatalf("expected released guard, got %v", err)
	}
}

func TestResolveDisputeRefundsBuyer(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)

	dispute := DisputeEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := dispute.Execute(context.Background(), DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "missing deployment docs"}); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	resolve := ResolveDisputeUseCase{
		Transactions: store,
		Release:      ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store},
		Refund:       RefundTransactionUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock},
	}

	resolved, err := resolve.Execute(context.Background(), ResolveDisputeCommand{TransactionID: txn.TransactionID, AdminID: "admin-1", Outcome: DisputeOutcomeRefund, Notes: "buyer is right"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.PaymentStatus != entities.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", resolved.PaymentStatus)
	}
	if resolved.EscrowStatus == entities.EscrowStatusDisputed {
		t.Fatal("dispute flag not cleared")
	}
}

func TestResolveDisputeReleasesToSeller(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)

	dispute := DisputeEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	if _, err := dispute.Execute(context.Background(), DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "cold feet"}); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	resolve := ResolveDisputeUseCase{
		Transactions: store,
		Release:      ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store},
		Refund:       RefundTransactionUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock},
	}

	resolved, err := resolve.Execute(context.Background(), ResolveDisputeCommand{TransactionID: txn.TransactionID, AdminID: "admin-1", Outcome: DisputeOutcomeRelease})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.EscrowStatus != entities.EscrowStatusReleased {
		t.Fatalf("expected released, got %s", resolved.EscrowStatus)
	}
}

func TestResolveDisputeRequiresDisputedEscrow(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)

	resolve := ResolveDisputeUseCase{
		Transactions: store,
		Release:      ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store},
		Refund:       RefundTransactionUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock},
	}
	if _, err := resolve.Execute(context.Background(), ResolveDisputeCommand{TransactionID: txn.TransactionID, AdminID: "admin-1", Outcome: DisputeOutcomeRelease}); !errors.Is(err, domainerrors.ErrTransactionConflict) {
		t.Fatalf("expected conflict for undisputed escrow, got %v", err)
	}
}

func TestDisputeNotifiesCounterparty(t *testing.T) {
	store, sink, clock := newFixture()
	txn := paidTransaction(t, store, sink, clock)
	sink.Reset()

	dispute := DisputeEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	disputed, err := dispute.Execute(context.Background(), DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "tests fail on main"})
	if err != nil {
		t.Fatalf("dispute: %v", err)
	}
	if disputed.EscrowStatus != entities.EscrowStatusDisputed {
		t.Fatalf("expected disputed, got %s", disputed.EscrowStatus)
	}
	if got := len(sink.NotificationsFor("seller-1")); got != 1 {
		t.Fatalf("expected 1 seller notification, got %d", got)
	}

	// Raising the same dispute again is a no-op.
	if _, err := dispute.Execute(context.Background(), DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "tests fail on main"}); err != nil {
		t.Fatalf("repeat dispute: %v", err)
	}
	if got := len(sink.NotificationsFor("seller-1")); got != 1 {
		t.Fatalf("repeat dispute must not renotify, got %d", got)
	}
}
