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

type AcceptOfferCommand struct {
	UserID  string
	OfferID string
}

type AcceptOfferUseCase struct {
	Offers        ports.OfferRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	Logger        *slog.Logger
}

// Execute settles a pending offer as accepted. The responder is the party the
// offer is addressed to: the seller for a root offer, the buyer for a counter.
// Accepting a root offer is the trigger for the buyer to proceed to payment,
// so that notification carries the checkout continuation link.
func (u AcceptOfferUseCase) Execute(ctx context.Context, cmd AcceptOfferCommand) (entities.Offer, error) {
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
	updated, err := u.Offers.UpdateOfferStatus(ctx, offer.OfferID, entities.OfferStatusPending, entities.OfferStatusAccepted, now)
	if err != nil {
		return entities.Offer{}, err
	}

	counterparty := services.Counterparty(updated, cmd.UserID)
	notification := notify.Notification{
		UserID:            counterparty,
		Type:              application.NotificationTypeOfferAccepted,
		Title:             "Offer accepted",
		Message:           fmt.Sprintf("Your offer of %s was accepted.", formatCents(updated.OfferedPriceCents)),
		RelatedEntityType: "offer",
		RelatedEntityID:   updated.OfferID,
		CreatedAt:         now,
	}
	// Root acceptance goes to the buyer, who still has to pay; attach the
	// checkout continuation so they can complete the purchase from the
	// notification.
	if services.KindOf(updated) == services.KindRoot {
		notification.ActionURL = checkoutURL(updated.OfferID)
	}
	application.DispatchNotification(ctx, u.Notifications, u.Logger, notification)
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, counterparty, "offer_accepted", map[string]string{
		"offer_id":       updated.OfferID,
		"accepted_price": formatCents(updated.OfferedPriceCents),
	})

	logger.Info("offer accepted",
		"event", "offer_accepted",
		"module", "marketplace-core/offer-service",
		"layer", "application",
		"offer_id", updated.OfferID,
		"acting_user_id", cmd.UserID,
		"is_counter", updated.IsCounter(),
	)
	return updated, nil
}

func (u AcceptOfferUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func checkoutURL(offerID string) string {
	return "/checkout/offers/" + offerID
}
