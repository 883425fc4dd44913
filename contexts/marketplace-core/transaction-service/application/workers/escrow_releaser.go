package workers

import (
	"context"
	"log/slog"
	"time"

	application "halfbuilt/contexts/marketplace-core/transaction-service/application"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/commands"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
)

// EscrowReleaser is the timed sweep: once the holding period on a
// succeeded, undisputed transaction elapses, it pushes the record through
// the same guarded release path an admin would use.
type EscrowReleaser struct {
	Transactions ports.TransactionRepository
	Release      commands.ReleaseEscrowUseCase
	Clock        ports.Clock
	BatchSize    int
	Logger       *slog.Logger
}

// RunOnce releases all due escrows in one batch and returns how many it
// released. Failures on one record are logged and do not stop the sweep.
func (w EscrowReleaser) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	due, err := w.Transactions.ListDueEscrowReleases(ctx, now, limit)
	if err != nil {
		logger.Error("due escrow listing failed",
			"event", "transaction_escrow_sweep_list_failed",
			"module", "marketplace-core/transaction-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	released := 0
	for _, txn := range due {
		if _, err := w.Release.Execute(ctx, commands.ReleaseEscrowCommand{
			TransactionID: txn.TransactionID,
			Trigger:       commands.ReleaseTriggerSchedule,
		}); err != nil {
			logger.Error("scheduled escrow release failed",
				"event", "transaction_escrow_sweep_release_failed",
				"module", "marketplace-core/transaction-service",
				"layer", "worker",
				"transaction_id", txn.TransactionID,
				"error", err.Error(),
			)
			continue
		}
		released++
	}

	if released > 0 {
		logger.Info("escrow sweep completed",
			"event", "transaction_escrow_sweep_completed",
			"module", "marketplace-core/transaction-service",
			"layer", "worker",
			"released_count", released,
		)
	}
	return released, nil
}
