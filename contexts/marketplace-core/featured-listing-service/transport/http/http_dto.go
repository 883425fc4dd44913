package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlacementDTO struct {
	ProjectID     string `json:"project_id"`
	SellerID      string `json:"seller_id"`
	Title         string `json:"title,omitempty"`
	Status        string `json:"status"`
	IsFeatured    bool   `json:"is_featured"`
	FeaturedUntil string `json:"featured_until,omitempty"`
}

type PurchaseFeaturedRequest struct {
	Days int `json:"days"`
}

type PurchaseFeaturedResponse struct {
	Placement   PlacementDTO `json:"placement"`
	Days        int          `json:"days"`
	ChargeCents int64        `json:"charge_cents"`
}

type FeaturedStatusResponse struct {
	ProjectID string `json:"project_id"`
	Featured  bool   `json:"featured"`
}
