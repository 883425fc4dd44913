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

type RejectOfferCommand struct {
	UserID  string
	OfferID string
}

type RejectOfferUseCase struct {
	Offers        ports.OfferRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	Logger        *slog.Logger
}

// Execute settles a pending offer as rejected. Same responder mapping as
// acceptance: seller for a root offer, buyer for a counter.
func (u RejectOfferUseCase) Execute(ctx context.Context, cmd RejectOfferCommand) (entities.Offer, error) {
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
	if cmd.UserID != services.ExpectedResponder(offer) {
		return entities.Offer{}, domainerrors.ErrNotOfferResponder
	}
	if offer.Status != entities.OfferStatusPending {
		return entities.Offer{}, domainerrors.ErrOfferNotPending
	}

	now := u.now()
	updated, err := u.Offers.UpdateOfferStatus(ctx, offer.OfferID, entities.OfferStatusPending, entities.OfferStatusRejected, now)
	if err != nil {
		return entities.Offer{}, err
	}

	counterparty := services.Counterparty(updated, cmd.UserID)
	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            counterparty,
		Type:              application.NotificationTypeOfferRejected,
		Title:             "Offer declined",
		Message:           fmt.Sprintf("Your offer of %s was declined.", formatCents(updated.OfferedPriceCents)),
		RelatedEntityType: "offer",
		RelatedEntityID:   updated.OfferID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, counterparty, "offer_rejected", map[string]string{
		"offer_id": updated.OfferID,
	})

	logger.Info("offer rejected",
		"event", "offer_rejected",
		"module", "marketplace-core/offer-service",
		"layer", "application",
		"offer_id", updated.OfferID,
		"acting_user_id", cmd.UserID,
	)
	return updated, nil
}

func (u RejectOfferUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
