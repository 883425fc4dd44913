package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "halfbuilt/contexts/marketplace-core/offer-service/application"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/services"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

type WithdrawOfferCommand struct {
	UserID  string
	OfferID string
}

type WithdrawOfferUseCase struct {
	Offers        ports.OfferRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	Logger        *slog.Logger
}

// Execute retracts a pending offer. Withdrawal belongs to the offer's author,
// the inverse of the responder mapping: the buyer for a root offer, the
// seller for a counter-offer.
func (u WithdrawOfferUseCase) Execute(ctx context.Context, cmd WithdrawOfferCommand) (entities.Offer, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.UserID) == "" || strings.TrimSpace(cmd.OfferID) == "" {
		return entities.Offer{}, domainerrors.ErrInvalidOfferRequest
	}

	offer, err := u.Offers.GetOffer(ctx, cmd.OfferID)
	if err != nil {
		return entities.Offer{}, err
	}
	if !services.IsParticipant(offer, cmd.UserID) {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	if cmd.UserID != services.ExpectedWithdrawer(offer) {
		return entities.Offer{}, domainerrors.ErrNotOfferOwner
	}
	if offer.Status != entities.OfferStatusPending {
		return entities.Offer{}, domainerrors.ErrOfferNotPending
	}

	now := u.now()
	updated, err := u.Offers.UpdateOfferStatus(ctx, offer.OfferID, entities.OfferStatusPending, entities.OfferStatusWithdrawn, now)
	if err != nil {
		return entities.Offer{}, err
	}

	counterparty := services.Counterparty(updated, cmd.UserID)
	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            counterparty,
		Type:              application.NotificationTypeOfferWithdrawn,
		Title:             "Offer withdrawn",
		Message:           fmt.Sprintf("The offer of %s was withdrawn.", formatCents(updated.OfferedPriceCents)),
		RelatedEntityType: "offer",
		RelatedEntityID:   updated.OfferID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, counterparty, "offer_withdrawn", map[string]string{
		"offer_id": updated.OfferID,
	})

	logger.Info("offer withdrawn",
		"event", "offer_withdrawn",
		"module", "marketplace-core/offer-service",
		"layer", "application",
		"offer_id", updated.OfferID,
		"acting_user_id", cmd.UserID,
	)
	return updated, nil
}

func (u WithdrawOfferUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
