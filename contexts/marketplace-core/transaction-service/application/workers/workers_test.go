package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/commands"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/events"
	"halfbuilt/internal/shared/notify"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type capturePublisher struct {
	mu        sync.Mutex
	published []events.Envelope
	topics    []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

var testNow = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func newPaidFixture(t *testing.T) (*memory.Store, *notify.Recorder, entities.Transaction) {
	t.Helper()
	store := memory.NewStore(
		[]ports.Project{{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", PriceCents: 100000, Status: ports.ProjectStatusActive}},
		[]ports.User{
			{UserID: "buyer-1", Email: "buyer@example.com"},
			{UserID: "seller-1", Email: "seller@example.com"},
		},
	)
	sink := notify.NewRecorder()
	clock := fixedClock{now: testNow}

	create := commands.CreateTransactionUseCase{Transactions: store, Projects: store, Offers: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	txn, err := create.Execute(context.Background(), commands.CreateTransactionCommand{BuyerID: "buyer-1", ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	record := commands.RecordPaymentUseCase{Transactions: store, Users: store, Notifications: sink, Clock: clock, IDGenerator: store}
	paid, err := record.Execute(context.Background(), commands.RecordPaymentCommand{TransactionID: txn.TransactionID, Succeeded: true})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return store, sink, paid
}

func TestEscrowReleaserReleasesDueTransactions(t *testing.T) {
	store, sink, txn := newPaidFixture(t)
	sink.Reset()

	sweepTime := testNow.Add(8 * 24 * time.Hour)
	releaser := EscrowReleaser{
		Transactions: store,
		Release:      commands.ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: fixedClock{now: sweepTime}, IDGenerator: store},
		Clock:        fixedClock{now: sweepTime},
	}

	released, err := releaser.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 release, got %d", released)
	}

	updated, err := store.GetTransaction(context.Background(), txn.TransactionID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if updated.EscrowStatus != entities.EscrowStatusReleased {
		t.Fatalf("expected released, got %s", updated.EscrowStatus)
	}

	// Second sweep finds nothing due.
	if n, err := releaser.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("second sweep should be a no-op: n=%d err=%v", n, err)
	}
}

func TestEscrowReleaserSkipsUndueAndDisputed(t *testing.T) {
	store, sink, txn := newPaidFixture(t)

	// Still inside the holding period: nothing to release.
	releaser := EscrowReleaser{
		Transactions: store,
		Release:      commands.ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: fixedClock{now: testNow}, IDGenerator: store},
		Clock:        fixedClock{now: testNow.Add(24 * time.Hour)},
	}
	if n, err := releaser.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected no releases inside holding period: n=%d err=%v", n, err)
	}

	// A disputed escrow stays held even past the release date.
	dispute := commands.DisputeEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: fixedClock{now: testNow}, IDGenerator: store}
	if _, err := dispute.Execute(context.Background(), commands.DisputeEscrowCommand{TransactionID: txn.TransactionID, UserID: "buyer-1", Reason: "broken build"}); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	late := EscrowReleaser{
		Transactions: store,
		Release:      commands.ReleaseEscrowUseCase{Transactions: store, Users: store, Notifications: sink, Clock: fixedClock{now: testNow.Add(8 * 24 * time.Hour)}, IDGenerator: store},
		Clock:        fixedClock{now: testNow.Add(8 * 24 * time.Hour)},
	}
	if n, err := late.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("disputed escrow must not release: n=%d err=%v", n, err)
	}
}

func TestOutboxRelayPublishesAndMarksSent(t *testing.T) {
	store, _, txn := newPaidFixture(t)
	publisher := &capturePublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: fixedClock{now: testNow.Add(time.Minute)}}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	event := publisher.published[0]
	if event.EventType != events.TypePaymentSucceeded {
		t.Fatalf("expected %s, got %s", events.TypePaymentSucceeded, event.EventType)
	}
	if event.EntityID != txn.TransactionID {
		t.Fatalf("expected entity %s, got %s", txn.TransactionID, event.EntityID)
	}
	if publisher.topics[0] != "marketplace.transactions" {
		t.Fatalf("expected default topic, got %s", publisher.topics[0])
	}

	// Once sent, the message never replays.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("relay replayed a sent message: %d", len(publisher.published))
	}
}
