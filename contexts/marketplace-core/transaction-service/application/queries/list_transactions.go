package queries

import (
	"context"
	"log/slog"
	"strings"

	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListTransactionsQuery struct {
	UserID string
	Filter ports.TransactionFilter
}

type ListTransactionsResult struct {
	Transactions []entities.Transaction
	Total        int
	Page         int
	Limit        int
}

type ListTransactionsUseCase struct {
	Transactions ports.TransactionRepository
	Logger       *slog.Logger
}

// ByBuyer lists the caller's purchases, newest first.
func (u ListTransactionsUseCase) ByBuyer(ctx context.Context, q ListTransactionsQuery) (ListTransactionsResult, error) {
	filter, err := normalizeFilter(q.UserID, q.Filter)
	if err != nil {
		return ListTransactionsResult{}, err
	}
	txns, total, err := u.Transactions.ListTransactionsByBuyer(ctx, q.UserID, filter)
	if err != nil {
		return ListTransactionsResult{}, err
	}
	return ListTransactionsResult{Transactions: txns, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// BySeller lists the caller's sales, newest first.
func (u ListTransactionsUseCase) BySeller(ctx context.Context, q ListTransactionsQuery) (ListTransactionsResult, error) {
	filter, err := normalizeFilter(q.UserID, q.Filter)
	if err != nil {
		return ListTransactionsResult{}, err
	}
	txns, total, err := u.Transactions.ListTransactionsBySeller(ctx, q.UserID, filter)
	if err != nil {
		return ListTransactionsResult{}, err
	}
	return ListTransactionsResult{Transactions: txns, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func normalizeFilter(userID string, filter ports.TransactionFilter) (ports.TransactionFilter, error) {
	if strings.TrimSpace(userID) == "" {
		return ports.TransactionFilter{}, domainerrors.ErrInvalidTransactionRequest
	}
	if filter.PaymentStatus != "" {
		switch filter.PaymentStatus {
		case entities.PaymentStatusPending, entities.PaymentStatusSucceeded, entities.PaymentStatusFailed, entities.PaymentStatusRefunded:
		default:
			return ports.TransactionFilter{}, domainerrors.ErrInvalidListFilter
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	return filter, nil
}
