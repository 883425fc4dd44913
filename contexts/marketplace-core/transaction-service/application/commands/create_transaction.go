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
	"halfbuilt/contexts/marketplace-core/transaction-service/domain/services"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/notify"
)

type CreateTransactionCommand struct {
	BuyerID   string
	ProjectID string
	// AcceptedOfferID settles a negotiated purchase at the accepted offer's
	// price instead of the listing price.
	AcceptedOfferID string
}

type CreateTransactionUseCase struct {
	Transactions        ports.TransactionRepository
	Projects            ports.ProjectCatalog
	Offers              ports.AcceptedOfferLookup
	Users               ports.UserDirectory
	Notifications       notify.Sink
	Clock               ports.Clock
	IDGenerator         ports.IDGenerator
	CommissionRateBasis int64
	EscrowHoldingPeriod time.Duration
	Logger              *slog.Logger
}

// Execute opens an escrow-backed purchase: the commission split is computed
// once here and frozen, payment starts pending, and the escrow release date
// is fixed at creation time plus the holding period.
func (u CreateTransactionUseCase) Execute(ctx context.Context, cmd CreateTransactionCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.BuyerID) == "" || strings.TrimSpace(cmd.ProjectID) == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	project, err := u.Projects.GetProject(ctx, cmd.ProjectID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if project.Status != ports.ProjectStatusActive {
		return entities.Transaction{}, domainerrors.ErrProjectNotPurchasable
	}
	if cmd.BuyerID == project.SellerID {
		return entities.Transaction{}, domainerrors.ErrSelfPurchase
	}

	if _, found, err := u.Transactions.FindSucceededPurchase(ctx, cmd.BuyerID, cmd.ProjectID); err != nil {
		return entities.Transaction{}, err
	} else if found {
		return entities.Transaction{}, domainerrors.ErrProjectAlreadyPurchased
	}

	amountCents := project.PriceCents
	if strings.TrimSpace(cmd.AcceptedOfferID) != "" {
		offer, err := u.Offers.GetAcceptedOffer(ctx, cmd.AcceptedOfferID)
		if err != nil {
			return entities.Transaction{}, err
		}
		if offer.Status != "accepted" || offer.BuyerID != cmd.BuyerID || offer.ProjectID != cmd.ProjectID {
			return entities.Transaction{}, domainerrors.ErrOfferNotSettleable
		}
		amountCents = offer.PriceCents
	}

	now := u.now()
	transactionID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Transaction{}, err
	}
	commissionCents, _ := services.SplitAmount(amountCents, u.commissionRateBasis())
	txn, err := entities.NewTransaction(
		transactionID,
		cmd.ProjectID,
		cmd.BuyerID,
		project.SellerID,
		cmd.AcceptedOfferID,
		amountCents,
		commissionCents,
		now,
		now.Add(u.escrowHoldingPeriod()),
	)
	if err != nil {
		return entities.Transaction{}, err
	}

	if err := u.Transactions.CreateTransaction(ctx, txn); err != nil {
		logger.Error("create transaction write failed",
			"event", "create_transaction_write_failed",
			"module", "marketplace-core/transaction-service",
			"layer", "application",
			"project_id", cmd.ProjectID,
			"buyer_id", cmd.BuyerID,
			"error", err.Error(),
		)
		return entities.Transaction{}, err
	}

	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            txn.SellerID,
		Type:              application.NotificationTypePurchaseCreated,
		Title:             "Purchase started",
		Message:           fmt.Sprintf("A buyer started a purchase of %q.", project.Title),
		RelatedEntityType: "transaction",
		RelatedEntityID:   txn.TransactionID,
		CreatedAt:         now,
	})

	logger.Info("transaction created",
		"event", "transaction_created",
		"module", "marketplace-core/transaction-service",
		"layer", "application",
		"transaction_id", txn.TransactionID,
		"project_id", txn.ProjectID,
		"amount_cents", txn.AmountCents,
		"commission_cents", txn.CommissionCents,
	)
	return txn, nil
}

func (u CreateTransactionUseCase) commissionRateBasis() int64 {
	if u.CommissionRateBasis <= 0 {
		return 1800
	}
	return u.CommissionRateBasis
}

func (u CreateTransactionUseCase) escrowHoldingPeriod() time.Duration {
	if u.EscrowHoldingPeriod <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.EscrowHoldingPeriod
}

func (u CreateTransactionUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
