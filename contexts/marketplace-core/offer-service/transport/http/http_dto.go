package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OfferDTO struct {
	OfferID            string `json:"offer_id"`
	ProjectID          string `json:"project_id"`
	BuyerID            string `json:"buyer_id"`
	SellerID           string `json:"seller_id"`
	OfferedPriceCents  int64  `json:"offered_price_cents"`
	OriginalPriceCents int64  `json:"original_price_cents"`
	Message            string `json:"message,omitempty"`
	Status             string `json:"status"`
	ParentOfferID      string `json:"parent_offer_id,omitempty"`
	ExpiresAt          string `json:"expires_at"`
	CreatedAt          string `json:"created_at"`
	RespondedAt        string `json:"responded_at,omitempty"`
}

type CreateOfferRequest struct {
	ProjectID         string `json:"project_id"`
	OfferedPriceCents int64  `json:"offered_price_cents"`
	Message           string `json:"message,omitempty"`
}

type CounterOfferRequest struct {
	CounterPriceCents int64  `json:"counter_price_cents"`
	Message           string `json:"message,omitempty"`
}

type OfferResponse struct {
	Offer OfferDTO `json:"offer"`
}

type PaginationDTO struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ListOffersResponse struct {
	Offers     []OfferDTO    `json:"offers"`
	Pagination PaginationDTO `json:"pagination"`
}
