package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/application/commands"
	"halfbuilt/contexts/marketplace-core/offer-service/application/queries"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	httptransport "halfbuilt/contexts/marketplace-core/offer-service/transport/http"
)

type Handler struct {
	CreateOffer   commands.CreateOfferUseCase
	CounterOffer  commands.CounterOfferUseCase
	AcceptOffer   commands.AcceptOfferUseCase
	RejectOffer   commands.RejectOfferUseCase
	WithdrawOffer commands.WithdrawOfferUseCase
	GetOffer      queries.GetOfferUseCase
	ListOffers    queries.ListOffersUseCase
	Logger        *slog.Logger
}

func (h Handler) CreateOfferHandler(ctx context.Context, buyerID string, req httptransport.CreateOfferRequest) (httptransport.OfferResponse, error) {
	offer, err := h.CreateOffer.Execute(ctx, commands.CreateOfferCommand{
		BuyerID:           buyerID,
		ProjectID:         req.ProjectID,
		OfferedPriceCents: req.OfferedPriceCents,
		Message:           req.Message,
	})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) CounterOfferHandler(ctx context.Context, sellerID string, offerID string, req httptransport.CounterOfferRequest) (httptransport.OfferResponse, error) {
	offer, err := h.CounterOffer.Execute(ctx, commands.CounterOfferCommand{
		SellerID:          sellerID,
		OfferID:           offerID,
		CounterPriceCents: req.CounterPriceCents,
		Message:           req.Message,
	})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) AcceptOfferHandler(ctx context.Context, userID string, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.AcceptOffer.Execute(ctx, commands.AcceptOfferCommand{UserID: userID, OfferID: offerID})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) RejectOfferHandler(ctx context.Context, userID string, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.RejectOffer.Execute(ctx, commands.RejectOfferCommand{UserID: userID, OfferID: offerID})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) WithdrawOfferHandler(ctx context.Context, userID string, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.WithdrawOffer.Execute(ctx, commands.WithdrawOfferCommand{UserID: userID, OfferID: offerID})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) GetOfferHandler(ctx context.Context, userID string, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.GetOffer.Execute(ctx, userID, offerID)
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: toOfferDTO(offer)}, nil
}

func (h Handler) ListBuyerOffersHandler(ctx context.Context, buyerID string, status string, page int, limit int) (httptransport.ListOffersResponse, error) {
	filter := ports.OfferFilter{Status: entities.OfferStatus(status), Page: page, Limit: limit}
	items, total, err := h.ListOffers.ByBuyer(ctx, buyerID, filter)
	if err != nil {
		return httptransport.ListOffersResponse{}, err
	}
	return toListResponse(items, total, page, limit), nil
}

func (h Handler) ListSellerOffersHandler(ctx context.Context, sellerID string, status string, page int, limit int) (httptransport.ListOffersResponse, error) {
	filter := ports.OfferFilter{Status: entities.OfferStatus(status), Page: page, Limit: limit}
	items, total, err := h.ListOffers.BySeller(ctx, sellerID, filter)
	if err != nil {
		return httptransport.ListOffersResponse{}, err
	}
	return toListResponse(items, total, page, limit), nil
}

func (h Handler) ListProjectOffersHandler(ctx context.Context, userID string, projectID string, status string, page int, limit int) (httptransport.ListOffersResponse, error) {
	filter := ports.OfferFilter{Status: entities.OfferStatus(status), Page: page, Limit: limit}
	items, total, err := h.ListOffers.ByProject(ctx, userID, projectID, filter)
	if err != nil {
		return httptransport.ListOffersResponse{}, err
	}
	return toListResponse(items, total, page, limit), nil
}

func toListResponse(items []entities.Offer, total int, page int, limit int) httptransport.ListOffersResponse {
	resp := httptransport.ListOffersResponse{Offers: make([]httptransport.OfferDTO, 0, len(items))}
	for _, item := range items {
		resp.Offers = append(resp.Offers, toOfferDTO(item))
	}
	resp.Pagination.Page = page
	if resp.Pagination.Page <= 0 {
		resp.Pagination.Page = 1
	}
	resp.Pagination.Limit = limit
	if resp.Pagination.Limit <= 0 {
		resp.Pagination.Limit = 20
	}
	resp.Pagination.Total = total
	resp.Pagination.Pages = total / resp.Pagination.Limit
	if total%resp.Pagination.Limit != 0 {
		resp.Pagination.Pages++
	}
	if resp.Pagination.Pages == 0 {
		resp.Pagination.Pages = 1
	}
	return resp
}

func toOfferDTO(offer entities.Offer) httptransport.OfferDTO {
	dto := httptransport.OfferDTO{
		OfferID:            offer.OfferID,
		ProjectID:          offer.ProjectID,
		BuyerID:            offer.BuyerID,
		SellerID:           offer.SellerID,
		OfferedPriceCents:  offer.OfferedPriceCents,
		OriginalPriceCents: offer.OriginalPriceCents,
		Message:            offer.Message,
		Status:             string(offer.Status),
		ParentOfferID:      offer.ParentOfferID,
		ExpiresAt:          offer.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:          offer.CreatedAt.UTC().Format(time.RFC3339),
	}
	if offer.RespondedAt != nil {
		dto.RespondedAt = offer.RespondedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
