package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"halfbuilt/contexts/marketplace-core/featured-listing-service/application"
	httptransport "halfbuilt/contexts/marketplace-core/featured-listing-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) PurchaseFeaturedHandler(ctx context.Context, sellerID string, projectID string, req httptransport.PurchaseFeaturedRequest) (httptransport.PurchaseFeaturedResponse, error) {
	purchase, err := h.Service.PurchaseFeatured(ctx, sellerID, projectID, req.Days)
	if err != nil {
		return httptransport.PurchaseFeaturedResponse{}, err
	}
	return toPurchaseResponse(purchase), nil
}

func (h Handler) ExtendFeaturedHandler(ctx context.Context, sellerID string, projectID string, req httptransport.PurchaseFeaturedRequest) (httptransport.PurchaseFeaturedResponse, error) {
	purchase, err := h.Service.ExtendFeatured(ctx, sellerID, projectID, req.Days)
	if err != nil {
		return httptransport.PurchaseFeaturedResponse{}, err
	}
	return toPurchaseResponse(purchase), nil
}

func (h Handler) FeaturedStatusHandler(ctx context.Context, projectID string) (httptransport.FeaturedStatusResponse, error) {
	featured, err := h.Service.IsFeatured(ctx, projectID)
	if err != nil {
		return httptransport.FeaturedStatusResponse{}, err
	}
	return httptransport.FeaturedStatusResponse{ProjectID: projectID, Featured: featured}, nil
}

func toPurchaseResponse(purchase application.Purchase) httptransport.PurchaseFeaturedResponse {
	dto := httptransport.PlacementDTO{
		ProjectID:  purchase.Placement.ProjectID,
		SellerID:   purchase.Placement.SellerID,
		Title:      purchase.Placement.Title,
		Status:     purchase.Placement.Status,
		IsFeatured: purchase.Placement.IsFeatured,
	}
	if purchase.Placement.FeaturedUntil != nil {
		dto.FeaturedUntil = purchase.Placement.FeaturedUntil.UTC().Format(time.RFC3339)
	}
	return httptransport.PurchaseFeaturedResponse{
		Placement:   dto,
		Days:        purchase.Days,
		ChargeCents: purchase.ChargeCents,
	}
}
