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

type CreateOfferCommand struct {
	BuyerID           string
	ProjectID         string
	OfferedPriceCents int64
	Message           string
}

type CreateOfferUseCase struct {
	Offers          ports.OfferRepository
	Projects        ports.ProjectCatalog
	Users           ports.UserDirectory
	Notifications   notify.Sink
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	OfferFloorCents int64
	ExpiryWindow    time.Duration
	Logger          *slog.Logger
}

// Execute validates a root offer and opens a negotiation thread:
// 1) project existence + active status
// 2) actor and pricing guards
// 3) single-active-offer guard per (buyer, project)
// 4) persist pending offer, notify the seller best-effort.
func (u CreateOfferUseCase) Execute(ctx context.Context, cmd CreateOfferCommand) (entities.Offer, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.BuyerID) == "" || strings.TrimSpace(cmd.ProjectID) == "" {
		return entities.Offer{}, domainerrors.ErrInvalidOfferRequest
	}

	project, err := u.Projects.GetProject(ctx, cmd.ProjectID)
	if err != nil {
		return entities.Offer{}, err
	}
	if project.Status != ports.ProjectStatusActive {
		return entities.Offer{}, domainerrors.ErrProjectNotActive
	}
	if cmd.BuyerID == project.SellerID {
		return entities.Offer{}, domainerrors.ErrSelfOffer
	}
	if err := services.ValidateOfferPrice(
		cmd.OfferedPriceCents,
		project.PriceCents,
		project.MinOfferCents,
		u.floorCents(),
	); err != nil {
		return entities.Offer{}, err
	}

	if _, found, err := u.Offers.FindActiveOffer(ctx, cmd.BuyerID, cmd.ProjectID); err != nil {
		return entities.Offer{}, err
	} else if found {
		return entities.Offer{}, domainerrors.ErrDuplicateActiveOffer
	}

	now := u.now()
	offerID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Offer{}, err
	}
	offer, err := entities.NewRootOffer(
		offerID,
		cmd.ProjectID,
		cmd.BuyerID,
		project.SellerID,
		cmd.OfferedPriceCents,
		project.PriceCents,
		cmd.Message,
		now,
		now.Add(u.expiryWindow()),
	)
	if err != nil {
		return entities.Offer{}, err
	}

	if err := u.Offers.CreateOffer(ctx, offer); err != nil {
		logger.Error("create offer write failed",
			"event", "create_offer_write_failed",
			"module", "marketplace-core/offer-service",
			"layer", "application",
			"project_id", cmd.ProjectID,
			"buyer_id", cmd.BuyerID,
			"error", err.Error(),
		)
		return entities.Offer{}, err
	}

	application.DispatchNotification(ctx, u.Notifications, u.Logger, notify.Notification{
		UserID:            offer.SellerID,
		Type:              application.NotificationTypeOfferReceived,
		Title:             "New offer received",
		Message:           fmt.Sprintf("You received an offer of %s on %q.", formatCents(offer.OfferedPriceCents), project.Title),
		RelatedEntityType: "offer",
		RelatedEntityID:   offer.OfferID,
		CreatedAt:         now,
	})
	application.DispatchEmail(ctx, u.Notifications, u.Users, u.Logger, offer.SellerID, "new_offer", map[string]string{
		"offer_id":      offer.OfferID,
		"project_title": project.Title,
		"offered_price": formatCents(offer.OfferedPriceCents),
	})

	logger.Info("offer created",
		"event", "offer_created",
		"module", "marketplace-core/offer-service",
		"layer", "application",
		"offer_id", offer.OfferID,
		"project_id", offer.ProjectID,
		"buyer_id", offer.BuyerID,
		"offered_price_cents", offer.OfferedPriceCents,
	)
	return offer, nil
}

func (u CreateOfferUseCase) floorCents() int64 {
	if u.OfferFloorCents <= 0 {
		return 500
	}
	return u.OfferFloorCents
}

func (u CreateOfferUseCase) expiryWindow() time.Duration {
	if u.ExpiryWindow <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.ExpiryWindow
}

func (u CreateOfferUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
