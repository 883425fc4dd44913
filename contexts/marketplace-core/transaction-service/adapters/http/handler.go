package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/application/commands"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/queries"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	httptransport "halfbuilt/contexts/marketplace-core/transaction-service/transport/http"
)

type Handler struct {
	CreateTransaction commands.CreateTransactionUseCase
	RecordPayment     commands.RecordPaymentUseCase
	ReleaseEscrow     commands.ReleaseEscrowUseCase
	MarkCodeAccessed  commands.MarkCodeAccessedUseCase
	Refund            commands.RefundTransactionUseCase
	DisputeEscrow     commands.DisputeEscrowUseCase
	ResolveDispute    commands.ResolveDisputeUseCase
	GetTransaction    queries.GetTransactionUseCase
	ListTransactions  queries.ListTransactionsUseCase
	Logger            *slog.Logger
}

func (h Handler) CreateTransactionHandler(ctx context.Context, buyerID string, req httptransport.CreateTransactionRequest) (httptransport.TransactionResponse, error) {
	txn, err := h.CreateTransaction.Execute(ctx, commands.CreateTransactionCommand{
		BuyerID:         buyerID,
		ProjectID:       req.ProjectID,
		AcceptedOfferID: req.AcceptedOfferID,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) RecordPaymentHandler(ctx context.Context, transactionID string, req httptransport.RecordPaymentRequest) (httptransport.TransactionResponse, error) {
	txn, err := h.RecordPayment.Execute(ctx, commands.RecordPaymentCommand{
		TransactionID: transactionID,
		Succeeded:     req.Succeeded,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) ReleaseEscrowHandler(ctx context.Context, transactionID string) (httptransport.TransactionResponse, error) {
	txn, err := h.ReleaseEscrow.Execute(ctx, commands.ReleaseEscrowCommand{
		TransactionID: transactionID,
		Trigger:       commands.ReleaseTriggerManual,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) MarkCodeAccessedHandler(ctx context.Context, buyerID string, transactionID string) (httptransport.TransactionResponse, error) {
	txn, err := h.MarkCodeAccessed.Execute(ctx, commands.MarkCodeAccessedCommand{
		TransactionID: transactionID,
		BuyerID:       buyerID,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) RefundTransactionHandler(ctx context.Context, adminID string, transactionID string, req httptransport.RefundTransactionRequest) (httptransport.TransactionResponse, error) {
	txn, err := h.Refund.Execute(ctx, commands.RefundTransactionCommand{
		TransactionID: transactionID,
		AdminID:       adminID,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) DisputeEscrowHandler(ctx context.Context, userID string, transactionID string, req httptransport.DisputeEscrowRequest) (httptransport.TransactionResponse, error) {
	txn, err := h.DisputeEscrow.Execute(ctx, commands.DisputeEscrowCommand{
		TransactionID: transactionID,
		UserID:        userID,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) ResolveDisputeHandler(ctx context.Context, adminID string, transactionID string, req httptransport.ResolveDisputeRequest) (httptransport.TransactionResponse, error) {
	txn, err := h.ResolveDispute.Execute(ctx, commands.ResolveDisputeCommand{
		TransactionID: transactionID,
		AdminID:       adminID,
		Outcome:       req.Outcome,
		Notes:         req.Notes,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) GetTransactionHandler(ctx context.Context, userID string, transactionID string) (httptransport.TransactionResponse, error) {
	txn, err := h.GetTransaction.Execute(ctx, queries.GetTransactionQuery{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return httptransport.TransactionResponse{Transaction: toTransactionDTO(txn)}, nil
}

func (h Handler) ListPurchasesHandler(ctx context.Context, buyerID string, paymentStatus string, page int, limit int) (httptransport.ListTransactionsResponse, error) {
	result, err := h.ListTransactions.ByBuyer(ctx, queries.ListTransactionsQuery{
		UserID: buyerID,
		Filter: ports.TransactionFilter{PaymentStatus: entities.PaymentStatus(paymentStatus), Page: page, Limit: limit},
	})
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	return toListResponse(result), nil
}

func (h Handler) ListSalesHandler(ctx context.Context, sellerID string, paymentStatus string, page int, limit int) (httptransport.ListTransactionsResponse, error) {
	result, err := h.ListTransactions.BySeller(ctx, queries.ListTransactionsQuery{
		UserID: sellerID,
		Filter: ports.TransactionFilter{PaymentStatus: entities.PaymentStatus(paymentStatus), Page: page, Limit: limit},
	})
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	return toListResponse(result), nil
}

func toListResponse(result queries.ListTransactionsResult) httptransport.ListTransactionsResponse {
	resp := httptransport.ListTransactionsResponse{
		Transactions: make([]httptransport.TransactionDTO, 0, len(result.Transactions)),
	}
	for _, item := range result.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionDTO(item))
	}
	resp.Pagination.Page = result.Page
	resp.Pagination.Limit = result.Limit
	resp.Pagination.Total = result.Total
	resp.Pagination.Pages = result.Total / result.Limit
	if result.Total%result.Limit != 0 {
		resp.Pagination.Pages++
	}
	if resp.Pagination.Pages == 0 {
		resp.Pagination.Pages = 1
	}
	return resp
}

func toTransactionDTO(txn entities.Transaction) httptransport.TransactionDTO {
	dto := httptransport.TransactionDTO{
		TransactionID:       txn.TransactionID,
		ProjectID:           txn.ProjectID,
		BuyerID:             txn.BuyerID,
		SellerID:            txn.SellerID,
		AcceptedOfferID:     txn.AcceptedOfferID,
		AmountCents:         txn.AmountCents,
		CommissionCents:     txn.CommissionCents,
		SellerReceivesCents: txn.SellerReceivesCents,
		PaymentStatus:       string(txn.PaymentStatus),
		EscrowStatus:        string(txn.EscrowStatus),
		EscrowReleaseDate:   txn.EscrowReleaseDate.UTC().Format(time.RFC3339),
		CodeDeliveryStatus:  string(txn.CodeDeliveryStatus),
		CreatedAt:           txn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if txn.ReleasedToSellerAt != nil {
		dto.ReleasedToSellerAt = txn.ReleasedToSellerAt.UTC().Format(time.RFC3339)
	}
	if txn.CodeAccessedAt != nil {
		dto.CodeAccessedAt = txn.CodeAccessedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
