package ports

import (
	"context"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	"halfbuilt/internal/shared/events"
	"halfbuilt/internal/shared/outbox"
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

type Project struct {
	ProjectID  string
	SellerID   string
	Title      string
	PriceCents int64
	Status     string
}

type ProjectCatalog interface {
	GetProject(ctx context.Context, projectID string) (Project, error)
}

type User struct {
	UserID      string
	Email       string
	DisplayName string
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (User, error)
}

// AcceptedOffer is the negotiation engine's read model consumed when a
// purchase settles an accepted offer at the negotiated price.
type AcceptedOffer struct {
	OfferID    string
	ProjectID  string
	BuyerID    string
	PriceCents int64
	Status     string
}

type AcceptedOfferLookup interface {
	GetAcceptedOffer(ctx context.Context, offerID string) (AcceptedOffer, error)
}

type TransactionFilter struct {
	PaymentStatus entities.PaymentStatus
	Page          int
	Limit         int
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn entities.Transaction) error

	GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error)

	// FindSucceededPurchase returns an existing transaction on the project by
	// the buyer whose payment already succeeded.
	FindSucceededPurchase(ctx context.Context, buyerID string, projectID string) (entities.Transaction, bool, error)

	// UpdatePaymentStatus is conditional on the current payment status and
	// fails with ErrTransactionConflict when it diverged. A non-nil outbox
	// message commits in the same transaction as the status change.
	UpdatePaymentStatus(ctx context.Context, transactionID string, from entities.PaymentStatus, to entities.PaymentStatus, msg *outbox.Message) (entities.Transaction, error)

	// ReleaseEscrow conditionally moves held+succeeded to released. The bool
	// reports whether this call performed the release; an already-released
	// transaction returns (txn, false, nil) so release stays idempotent.
	ReleaseEscrow(ctx context.Context, transactionID string, releasedAt time.Time, msg *outbox.Message) (entities.Transaction, bool, error)

	// UpdateEscrowStatus is the conditional primitive for dispute transitions.
	UpdateEscrowStatus(ctx context.Context, transactionID string, from entities.EscrowStatus, to entities.EscrowStatus, msg *outbox.Message) (entities.Transaction, error)

	// MarkCodeAccessed records first access; the bool reports whether this
	// call was the first. Repeat calls leave the timestamp untouched.
	MarkCodeAccessed(ctx context.Context, transactionID string, accessedAt time.Time) (entities.Transaction, bool, error)

	ListTransactionsByBuyer(ctx context.Context, buyerID string, filter TransactionFilter) ([]entities.Transaction, int, error)
	ListTransactionsBySeller(ctx context.Context, sellerID string, filter TransactionFilter) ([]entities.Transaction, int, error)

	// ListDueEscrowReleases returns held transactions with succeeded payment
	// whose escrow_release_date has passed.
	ListDueEscrowReleases(ctx context.Context, now time.Time, limit int) ([]entities.Transaction, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}
