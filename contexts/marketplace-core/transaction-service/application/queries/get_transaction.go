package queries

import (
	"context"
	"log/slog"
	"strings"

	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
)

type GetTransactionQuery struct {
	TransactionID string
	UserID        string
}

type GetTransactionUseCase struct {
	Transactions ports.TransactionRepository
	Logger       *slog.Logger
}

// Execute returns the transaction to its buyer or seller. Outsiders get
// not-found so the record's existence is never revealed.
func (u GetTransactionUseCase) Execute(ctx context.Context, q GetTransactionQuery) (entities.Transaction, error) {
	if strings.TrimSpace(q.TransactionID) == "" || strings.TrimSpace(q.UserID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, q.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !txn.IsParticipant(q.UserID) {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return txn, nil
}
