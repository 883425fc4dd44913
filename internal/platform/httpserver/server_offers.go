package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	offererrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	offerhttp "halfbuilt/contexts/marketplace-core/offer-service/transport/http"
)

func writeOfferError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, offerhttp.ErrorResponse{Code: code, Message: message})
}

func writeOfferDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, offererrors.ErrInvalidOfferRequest),
		errors.Is(err, offererrors.ErrProjectNotActive),
		errors.Is(err, offererrors.ErrSelfOffer),
		errors.Is(err, offererrors.ErrPriceBelowFloor),
		errors.Is(err, offererrors.ErrPriceBelowProjectMinimum),
		errors.Is(err, offererrors.ErrPriceNotBelowListing),
		errors.Is(err, offererrors.ErrInvalidListFilter):
		writeOfferError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, offererrors.ErrNotProjectSeller),
		errors.Is(err, offererrors.ErrNotOfferResponder),
		errors.Is(err, offererrors.ErrNotOfferOwner):
		writeOfferError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, offererrors.ErrOfferNotFound),
		errors.Is(err, offererrors.ErrProjectNotFound),
		errors.Is(err, offererrors.ErrUserNotFound):
		writeOfferError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, offererrors.ErrDuplicateActiveOffer),
		errors.Is(err, offererrors.ErrOfferNotPending):
		writeOfferError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeOfferError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireOfferUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := headerUserID(r)
	if userID == "" {
		writeOfferError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	var req offerhttp.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.offers.Handler.CreateOfferHandler(r.Context(), buyerID, req)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	resp, err := s.offers.Handler.GetOfferHandler(r.Context(), userID, r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCounterOffer(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	var req offerhttp.CounterOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.offers.Handler.CounterOfferHandler(r.Context(), sellerID, r.PathValue("offer_id"), req)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	resp, err := s.offers.Handler.AcceptOfferHandler(r.Context(), userID, r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	resp, err := s.offers.Handler.RejectOfferHandler(r.Context(), userID, r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	resp, err := s.offers.Handler.WithdrawOfferHandler(r.Context(), userID, r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSentOffers(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	page, limit := queryPage(r)
	resp, err := s.offers.Handler.ListBuyerOffersHandler(r.Context(), buyerID, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReceivedOffers(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	page, limit := queryPage(r)
	resp, err := s.offers.Handler.ListSellerOffersHandler(r.Context(), sellerID, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjectOffers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOfferUser(w, r)
	if !ok {
		return
	}

	page, limit := queryPage(r)
	resp, err := s.offers.Handler.ListProjectOffersHandler(
		r.Context(),
		userID,
		r.PathValue("project_id"),
		r.URL.Query().Get("status"),
		page,
		limit,
	)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
