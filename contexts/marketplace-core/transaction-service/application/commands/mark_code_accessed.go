package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "halfbuilt/contexts/marketplace-core/transaction-service/application"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
)

type MarkCodeAccessedCommand struct {
	TransactionID string
	BuyerID       string
}

type MarkCodeAccessedUseCase struct {
	Transactions ports.TransactionRepository
	Clock        ports.Clock
	Logger       *slog.Logger
}

// Execute records that the buyer opened the delivered source code. Only the
// first access sets the timestamp; repeat calls return the record unchanged.
func (u MarkCodeAccessedUseCase) Execute(ctx context.Context, cmd MarkCodeAccessedCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.BuyerID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !txn.IsParticipant(cmd.BuyerID) {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	if txn.BuyerID != cmd.BuyerID {
		return entities.Transaction{}, domainerrors.ErrNotTransactionBuyer
	}
	if txn.PaymentStatus != entities.PaymentStatusSucceeded {
		return entities.Transaction{}, domainerrors.ErrPaymentNotSucceeded
	}
	if txn.CodeAccessedAt != nil {
		return txn, nil
	}

	updated, performed, err := u.Transactions.MarkCodeAccessed(ctx, cmd.TransactionID, u.now())
	if err != nil {
		return entities.Transaction{}, err
	}
	if performed {
		logger.Info("code access recorded",
			"event", "transaction_code_accessed",
			"module", "marketplace-core/transaction-service",
			"layer", "application",
			"transaction_id", updated.TransactionID,
		)
	}
	return updated, nil
}

func (u MarkCodeAccessedUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
