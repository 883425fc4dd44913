package queries

import (
	"context"
	"log/slog"
	"strings"

	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
)

type ListOffersUseCase struct {
	Offers   ports.OfferRepository
	Projects ports.ProjectCatalog
	Logger   *slog.Logger
}

func (u ListOffersUseCase) ByBuyer(ctx context.Context, buyerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, 0, domainerrors.ErrInvalidListFilter
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return u.Offers.ListOffersByBuyer(ctx, buyerID, filter)
}

func (u ListOffersUseCase) BySeller(ctx context.Context, sellerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, 0, domainerrors.ErrInvalidListFilter
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return u.Offers.ListOffersBySeller(ctx, sellerID, filter)
}

// ByProject lists a project's offers for its seller. Project-wide visibility
// belongs to the seller only; buyers use ByBuyer.
func (u ListOffersUseCase) ByProject(ctx context.Context, userID string, projectID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(projectID) == "" {
		return nil, 0, domainerrors.ErrInvalidListFilter
	}
	project, err := u.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if userID != project.SellerID {
		return nil, 0, domainerrors.ErrNotProjectSeller
	}
	filter, err = normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return u.Offers.ListOffersByProject(ctx, projectID, filter)
}

func normalizeFilter(filter ports.OfferFilter) (ports.OfferFilter, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Status != "" {
		switch filter.Status {
		case entities.OfferStatusPending,
			entities.OfferStatusAccepted,
			entities.OfferStatusRejected,
			entities.OfferStatusWithdrawn,
			entities.OfferStatusCountered,
			entities.OfferStatusExpired:
		default:
			return ports.OfferFilter{}, domainerrors.ErrInvalidListFilter
		}
	}
	return filter, nil
}
