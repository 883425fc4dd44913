package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "halfbuilt/contexts/marketplace-core/transaction-service/application"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/events"
	"halfbuilt/internal/shared/notify"
	"halfbuilt/internal/shared/outbox"
)

type ReleaseEscrowCommand struct {
	TransactionID string
	// Trigger records whether the release came from the timed sweep or a
	// manual admin action; both converge on the same guards here.
	Trigger string
}

const (
	ReleaseTriggerSchedule = "schedule"
	ReleaseTriggerManual   = "manual"
)

type ReleaseEscrowUseCase struct {
	Transactions  ports.TransactionRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

// Execute releases held funds to the seller. Release requires a succeeded
// payment and an undisputed escrow; releasing an already-released
// transaction is a no-op, not an error.
func (u ReleaseEscrowUseCase) Execute(ctx context.Context, cmd ReleaseEscrowCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if txn.EscrowStatus == entities.EscrowStatusReleased {
		return txn, nil
	}
	if txn.EscrowStatus == entities.EscrowStatusDisputed {
		return entities.Transaction{}, domainerrors.ErrEscrowDisputed
	}
	if txn.PaymentStatus != entities.PaymentStatusSucceeded {
		return entities.Transaction{}, domainerrors.ErrPaymentNotSucceeded
	}

	now := u.now()
	msg, err := u.releaseEvent(ctx, txn, now)
	if err != nil {
		return entities.Transaction{}, err
	}

	updated, performed, err := u.Transactions.ReleaseEscrow(ctx, cmd.TransactionID, now, msg)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !performed {
		// Another caller won the race; the outcome is identical.
		return updated, nil
	}

	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            updated.SellerID,
		Type:              application.NotificationTypeEscrowReleased,
		Title:             "Funds released",
		Message:           fmt.Sprintf("Escrow of %s was released to your account.", formatCents(updated.SellerReceivesCents)),
		RelatedEntityType: "transaction",
		RelatedEntityID:   updated.TransactionID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, updated.SellerID, "escrow_released", map[string]string{
		"transaction_id": updated.TransactionID,
		"net_amount":     formatCents(updated.SellerReceivesCents),
	})

	logger.Info("escrow released",
		"event", "transaction_escrow_released",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", updated.TransactionID,
		"trigger", cmd.Trigger,
	)
	return updated, nil
}

func (u ReleaseEscrowUseCase) releaseEvent(ctx context.Context, txn entities.Transaction, now time.Time) (*outbox.Message, error) {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      events.TypeEscrowReleased,
		SourceService:  "marketplace-core/transaction-service",
		OccurredAtUTC:  now,
		EntityType:     "transaction",
		EntityID:       txn.TransactionID,
		PayloadVersion: 1,
		Payload: map[string]any{
			"seller_id":             txn.SellerID,
			"seller_receives_cents": txn.SellerReceivesCents,
		},
	})
	if err != nil {
		return nil, err
	}
	return &outbox.Message{
		OutboxID:  eventID,
		EventType: events.TypeEscrowReleased,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: now,
	}, nil
}

func (u ReleaseEscrowUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
