package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TransactionDTO struct {
	TransactionID       string `json:"transaction_id"`
	ProjectID           string `json:"project_id"`
	BuyerID             string `json:"buyer_id"`
	SellerID            string `json:"seller_id"`
	AcceptedOfferID     string `json:"accepted_offer_id,omitempty"`
	AmountCents         int64  `json:"amount_cents"`
	CommissionCents     int64  `json:"commission_cents"`
	SellerReceivesCents int64  `json:"seller_receives_cents"`
	PaymentStatus       string `json:"payment_status"`
	EscrowStatus        string `json:"escrow_status"`
	EscrowReleaseDate   string `json:"escrow_release_date"`
	ReleasedToSellerAt  string `json:"released_to_seller_at,omitempty"`
	CodeDeliveryStatus  string `json:"code_delivery_status"`
	CodeAccessedAt      string `json:"code_accessed_at,omitempty"`
	CreatedAt           string `json:"created_at"`
}

type CreateTransactionRequest struct {
	ProjectID       string `json:"project_id"`
	AcceptedOfferID string `json:"accepted_offer_id,omitempty"`
}

type RecordPaymentRequest struct {
	Succeeded bool `json:"succeeded"`
}

type DisputeEscrowRequest struct {
	Reason string `json:"reason"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes,omitempty"`
}

type RefundTransactionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type TransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
}

type PaginationDTO struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ListTransactionsResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Pagination   PaginationDTO    `json:"pagination"`
}
