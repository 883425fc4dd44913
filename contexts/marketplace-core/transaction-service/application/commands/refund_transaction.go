package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "halfbuilt/contexts/marketplace-core/transaction-service/application"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/notify"
)

type RefundTransactionCommand struct {
	TransactionID string
	AdminID       string
	Reason        string
}

// RefundTransactionUseCase reverses a succeeded payment while funds are
// still held. Once escrow has been released to the seller the money is
// gone and a refund must be handled outside the system.
type RefundTransactionUseCase struct {
	Transactions  ports.TransactionRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	Logger        *slog.Logger
}

func (u RefundTransactionUseCase) Execute(ctx context.Context, cmd RefundTransactionCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if txn.EscrowStatus == entities.EscrowStatusReleased {
		return entities.Transaction{}, domainerrors.ErrEscrowAlreadyReleased
	}
	if txn.PaymentStatus != entities.PaymentStatusSucceeded {
		return entities.Transaction{}, domainerrors.ErrPaymentNotSucceeded
	}

	updated, err := u.Transactions.UpdatePaymentStatus(ctx, cmd.TransactionID, entities.PaymentStatusSucceeded, entities.PaymentStatusRefunded, nil)
	if err != nil {
		return entities.Transaction{}, err
	}

	now := u.now()
	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            updated.BuyerID,
		Type:              application.NotificationTypePaymentRefunded,
		Title:             "Purchase refunded",
		Message:           fmt.Sprintf("Your payment of %s was refunded.", formatCents(updated.AmountCents)),
		RelatedEntityType: "transaction",
		RelatedEntityID:   updated.TransactionID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, updated.BuyerID, "payment_refunded", map[string]string{
		"transaction_id": updated.TransactionID,
		"amount":         formatCents(updated.AmountCents),
	})

	logger.Info("transaction refunded",
		"event", "transaction_refunded",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", updated.TransactionID,
		"admin_id", cmd.AdminID,
		"reason", cmd.Reason,
	)
	return updated, nil
}

func (u RefundTransactionUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
