package commands

import (
	"context"
	"log/slog"
	"strings"

	application "halfbuilt/contexts/marketplace-core/transaction-service/application"
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
)

const (
	DisputeOutcomeRelease = "release"
	DisputeOutcomeRefund  = "refund"
)

type ResolveDisputeCommand struct {
	TransactionID string
	AdminID       string
	Outcome       string
	Notes         string
}

// ResolveDisputeUseCase closes a dispute by ruling for one side: release
// hands escrow to the seller, refund returns the payment to the buyer.
type ResolveDisputeUseCase struct {
	Transactions ports.TransactionRepository
	Release      ReleaseEscrowUseCase
	Refund       RefundTransactionUseCase
	Logger       *slog.Logger
}

func (u ResolveDisputeUseCase) Execute(ctx context.Context, cmd ResolveDisputeCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}
	if cmd.Outcome != DisputeOutcomeRelease && cmd.Outcome != DisputeOutcomeRefund {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if txn.EscrowStatus != entities.EscrowStatusDisputed {
		return entities.Transaction{}, domainerrors.ErrTransactionConflict
	}

	// Reopen the escrow first so the ruling path sees a held record.
	if _, err := u.Transactions.UpdateEscrowStatus(ctx, cmd.TransactionID, entities.EscrowStatusDisputed, entities.EscrowStatusHeld, nil); err != nil {
		return entities.Transaction{}, err
	}

	var resolved entities.Transaction
	switch cmd.Outcome {
	case DisputeOutcomeRelease:
		resolved, err = u.Release.Execute(ctx, ReleaseEscrowCommand{
			TransactionID: cmd.TransactionID,
			Trigger:       ReleaseTriggerManual,
		})
	case DisputeOutcomeRefund:
		resolved, err = u.Refund.Execute(ctx, RefundTransactionCommand{
			TransactionID: cmd.TransactionID,
			AdminID:       cmd.AdminID,
			Reason:        cmd.Notes,
		})
	}
	if err != nil {
		return entities.Transaction{}, err
	}

	logger.Info("dispute resolved",
		"event", "transaction_dispute_resolved",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", resolved.TransactionID,
		"outcome", cmd.Outcome,
		"admin_id", cmd.AdminID,
	)
	return resolved, nil
}
