package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	featurederrors "halfbuilt/contexts/marketplace-core/featured-listing-service/domain/errors"
	featuredhttp "halfbuilt/contexts/marketplace-core/featured-listing-service/transport/http"
)

func writeFeaturedError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, featuredhttp.ErrorResponse{Code: code, Message: message})
}

func writeFeaturedDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, featurederrors.ErrInvalidFeaturedRequest),
		errors.Is(err, featurederrors.ErrInvalidFeaturedTier),
		errors.Is(err, featurederrors.ErrProjectNotActive):
		writeFeaturedError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, featurederrors.ErrNotProjectSeller):
		writeFeaturedError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, featurederrors.ErrProjectNotFound):
		writeFeaturedError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, featurederrors.ErrPlacementNotActive):
		writeFeaturedError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeFeaturedError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireFeaturedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := headerUserID(r)
	if userID == "" {
		writeFeaturedError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handlePurchaseFeatured(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireFeaturedUser(w, r)
	if !ok {
		return
	}

	var req featuredhttp.PurchaseFeaturedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeaturedError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.featured.Handler.PurchaseFeaturedHandler(r.Context(), sellerID, r.PathValue("project_id"), req)
	if err != nil {
		writeFeaturedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleExtendFeatured(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireFeaturedUser(w, r)
	if !ok {
		return
	}

	var req featuredhttp.PurchaseFeaturedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeaturedError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.featured.Handler.ExtendFeaturedHandler(r.Context(), sellerID, r.PathValue("project_id"), req)
	if err != nil {
		writeFeaturedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFeaturedStatus is public: placement visibility needs no identity.
func (s *Server) handleFeaturedStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.featured.Handler.FeaturedStatusHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeFeaturedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
