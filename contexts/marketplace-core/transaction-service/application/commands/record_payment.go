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

type RecordPaymentCommand struct {
	TransactionID string
	Succeeded     bool
}

// RecordPaymentUseCase is the payment-gateway trigger: the webhook layer
// reports the settled result and this flips the pending payment exactly once.
type RecordPaymentUseCase struct {
	Transactions  ports.TransactionRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func (u RecordPaymentUseCase) Execute(ctx context.Context, cmd RecordPaymentCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}

	target := entities.PaymentStatusFailed
	if cmd.Succeeded {
		target = entities.PaymentStatusSucceeded
	}
	// Gateways redeliver webhooks; an identical result is a no-op while a
	// diverging one is rejected.
	if txn.PaymentStatus == target {
		return txn, nil
	}
	if txn.PaymentStatus != entities.PaymentStatusPending {
		return entities.Transaction{}, domainerrors.ErrPaymentAlreadySettled
	}

	now := u.now()
	var msg *outbox.Message
	if cmd.Succeeded {
		msg, err = u.paymentEvent(ctx, txn, now)
		if err != nil {
			return entities.Transaction{}, err
		}
	}

	updated, err := u.Transactions.UpdatePaymentStatus(ctx, cmd.TransactionID, entities.PaymentStatusPending, target, msg)
	if err != nil {
		return entities.Transaction{}, err
	}

	if cmd.Succeeded {
		application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
			UserID:            updated.SellerID,
			Type:              application.NotificationTypePaymentReceived,
			Title:             "Payment received",
			Message:           fmt.Sprintf("Payment of %s is held in escrow until %s.", formatCents(updated.AmountCents), updated.EscrowReleaseDate.Format("Jan 2, 2006")),
			RelatedEntityType: "transaction",
			RelatedEntityID:   updated.TransactionID,
			CreatedAt:         now,
		})
		application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, updated.SellerID, "payment_received", map[string]string{
			"transaction_id": updated.TransactionID,
			"amount":         formatCents(updated.AmountCents),
		})
	}

	logger.Info("payment result recorded",
		"event", "transaction_payment_recorded",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", updated.TransactionID,
		"payment_status", updated.PaymentStatus,
	)
	return updated, nil
}

func (u RecordPaymentUseCase) paymentEvent(ctx context.Context, txn entities.Transaction, now time.Time) (*outbox.Message, error) {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(events.Envelope{
		EventID:        eventID,
		EventType:      events.TypePaymentSucceeded,
		SourceService:  "marketplace-core/transaction-service",
		OccurredAtUTC:  now,
		EntityType:     "transaction",
		EntityID:       txn.TransactionID,
		PayloadVersion: 1,
		Payload: map[string]any{
			"project_id":   txn.ProjectID,
			"buyer_id":     txn.BuyerID,
			"seller_id":    txn.SellerID,
			"amount_cents": txn.AmountCents,
		},
	})
	if err != nil {
		return nil, err
	}
	return &outbox.Message{
		OutboxID:  eventID,
		EventType: events.TypePaymentSucceeded,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: now,
	}, nil
}

func (u RecordPaymentUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
