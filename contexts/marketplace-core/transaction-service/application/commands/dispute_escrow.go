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

type DisputeEscrowCommand struct {
	TransactionID string
	UserID        string
	Reason        string
}

// DisputeEscrowUseCase freezes a held escrow so the timed sweep cannot
// release it while the parties argue. Either participant may raise the
// dispute; resolution is an admin decision.
type DisputeEscrowUseCase struct {
	Transactions  ports.TransactionRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func (u DisputeEscrowUseCase) Execute(ctx context.Context, cmd DisputeEscrowCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.UserID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !txn.IsParticipant(cmd.UserID) {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	if txn.EscrowStatus == entities.EscrowStatusReleased {
		return entities.Transaction{}, domainerrors.ErrEscrowAlreadyReleased
	}
	if txn.PaymentStatus != entities.PaymentStatusSucceeded {
		return entities.Transaction{}, domainerrors.ErrPaymentNotSucceeded
	}
	if txn.EscrowStatus == entities.EscrowStatusDisputed {
		return txn, nil
	}

	now := u.now()
	msg, err := u.disputeEvent(ctx, txn, cmd, now)
	if err != nil {
		return entities.Transaction{}, err
	}

	updated, err := u.Transactions.UpdateEscrowStatus(ctx, cmd.TransactionID, entities.EscrowStatusHeld, entities.EscrowStatusDisputed, msg)
	if err != nil {
		return entities.Transaction{}, err
	}

	counterparty := updated.SellerID
	if cmd.UserID == updated.SellerID {
		counterparty = updated.BuyerID
	}
	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            counterparty,
		Type:              application.NotificationTypeEscrowDisputed,
		Title:             "Escrow disputed",
		Message:           fmt.Sprintf("The escrow of %s on your transaction is under dispute.", formatCents(updated.AmountCents)),
		RelatedEntityType: "transaction",
		RelatedEntityID:   updated.TransactionID,
		CreatedAt:         now,
	})

	logger.Info("escrow disputed",
		"event", "transaction_escrow_disputed",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", updated.TransactionID,
		"raised_by", cmd.UserID,
	)
	return updated, nil
}

func (u DisputeEscrowUseCase) disputeEvent(ctx context.Context, txn entities.Transaction, cmd DisputeEscrowCommand, now time.Time) (*outbox.Message, error) {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      events.TypeEscrowDisputed,
		SourceService:  "marketplace-core/transaction-service",
		OccurredAtUTC:  now,
		EntityType:     "transaction",
		EntityID:       txn.TransactionID,
		PayloadVersion: 1,
		Payload: map[string]any{
			"raised_by": cmd.UserID,
			"reason":    cmd.Reason,
		},
	})
	if err != nil {
		return nil, err
	}
	return &outbox.Message{
		OutboxID:  eventID,
		EventType: events.TypeEscrowDisputed,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: now,
	}, nil
}

func (u DisputeEscrowUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
