package queries

import (
	"context"
	"log/slog"
	"strings"

	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/services"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
)

type GetOfferUseCase struct {
	Offers ports.OfferRepository
	Logger *slog.Logger
}

// Execute loads an offer scoped to its participants: any other caller sees
// not-found, never forbidden, so offer existence does not leak.
func (u GetOfferUseCase) Execute(ctx context.Context, userID string, offerID string) (entities.Offer, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(offerID) == "" {
		return entities.Offer{}, domainerrors.ErrInvalidOfferRequest
	}
	offer, err := u.Offers.GetOffer(ctx, offerID)
	if err != nil {
		return entities.Offer{}, err
	}
	if !services.IsParticipant(offer, userID) {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	return offer, nil
}
