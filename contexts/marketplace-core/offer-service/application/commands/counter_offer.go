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

type CounterOfferCommand struct {
	SellerID          string
	OfferID           string
	CounterPriceCents int64
	Message           string
}

type CounterOfferUseCase struct {
	Offers          ports.OfferRepository
	Users           ports.UserDirectory
	Notifications   notify.Sink
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	OfferFloorCents int64
	ExpiryWindow    time.Duration
	Logger          *slog.Logger
}

// Execute counters a pending offer: the target moves to countered and a fresh
// pending child is created against the same frozen listing price, both in one
// repository transaction.
func (u CounterOfferUseCase) Execute(ctx context.Context, cmd CounterOfferCommand) (entities.Offer, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.SellerID) == "" || strings.TrimSpace(cmd.OfferID) == "" {
		return entities.Offer{}, domainerrors.ErrInvalidOfferRequest
	}

	target, err := u.Offers.GetOffer(ctx, cmd.OfferID)
	if err != nil {
		return entities.Offer{}, err
	}
	if !services.IsParticipant(target, cmd.SellerID) {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	if cmd.SellerID != target.SellerID {
		return entities.Offer{}, domainerrors.ErrNotProjectSeller
	}
	if target.Status != entities.OfferStatusPending {
		return entities.Offer{}, domainerrors.ErrOfferNotPending
	}
	// The project minimum applies to the buyer's opening bid only; a counter
	// is bounded by the floor and the frozen listing price.
	if err := services.ValidateOfferPrice(
		cmd.CounterPriceCents,
		target.OriginalPriceCents,
		0,
		u.floorCents(),
	); err != nil {
		return entities.Offer{}, err
	}

	now := u.now()
	childID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Offer{}, err
	}
	child, err := entities.NewCounterOffer(
		childID,
		target.OfferID,
		target.ProjectID,
		target.BuyerID,
		target.SellerID,
		cmd.CounterPriceCents,
		target.OriginalPriceCents,
		cmd.Message,
		now,
		now.Add(u.expiryWindow()),
	)
	if err != nil {
		return entities.Offer{}, err
	}

	if err := u.Offers.CreateCounterOffer(ctx, target.OfferID, now, child); err != nil {
		logger.Error("counter offer write failed",
			"event", "counter_offer_write_failed",
			"module", "marketplace-core/offer-service",
			"layer", "application",
			"offer_id", target.OfferID,
			"seller_id", cmd.SellerID,
			"error", err.Error(),
		)
		return entities.Offer{}, err
	}

	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            child.BuyerID,
		Type:              application.NotificationTypeOfferCountered,
		Title:             "Counter-offer received",
		Message:           fmt.Sprintf("The seller countered your offer at %s.", formatCents(child.OfferedPriceCents)),
		RelatedEntityType: "offer",
		RelatedEntityID:   child.OfferID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, child.BuyerID, "offer_countered", map[string]string{
		"offer_id":      child.OfferID,
		"counter_price": formatCents(child.OfferedPriceCents),
	})

	logger.Info("offer countered",
		"event", "offer_countered",
		"module", "marketplace-core/offer-service",
		"layer", "application",
		"parent_offer_id", target.OfferID,
		"offer_id", child.OfferID,
		"counter_price_cents", child.OfferedPriceCents,
	)
	return child, nil
}

func (u CounterOfferUseCase) floorCents() int64 {
	if u.OfferFloorCents <= 0 {
		return 500
	}
	return u.OfferFloorCents
}

func (u CounterOfferUseCase) expiryWindow() time.Duration {
	if u.ExpiryWindow <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.ExpiryWindow
}

func (u CounterOfferUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
