package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	txnerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	txnhttp "halfbuilt/contexts/marketplace-core/transaction-service/transport/http"
)

func writeTransactionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, txnhttp.ErrorResponse{Code: code, Message: message})
}

func writeTransactionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, txnerrors.ErrInvalidTransactionRequest),
		errors.Is(err, txnerrors.ErrProjectNotPurchasable),
		errors.Is(err, txnerrors.ErrSelfPurchase),
		errors.Is(err, txnerrors.ErrOfferNotSettleable),
		errors.Is(err, txnerrors.ErrInvalidListFilter):
		writeTransactionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, txnerrors.ErrNotTransactionBuyer),
		errors.Is(err, txnerrors.ErrNotTransactionParticipant):
		writeTransactionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, txnerrors.ErrTransactionNotFound),
		errors.Is(err, txnerrors.ErrProjectNotFound),
		errors.Is(err, txnerrors.ErrOfferNotFound),
		errors.Is(err, txnerrors.ErrUserNotFound):
		writeTransactionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, txnerrors.ErrProjectAlreadyPurchased),
		errors.Is(err, txnerrors.ErrPaymentNotSucceeded),
		errors.Is(err, txnerrors.ErrPaymentAlreadySettled),
		errors.Is(err, txnerrors.ErrEscrowDisputed),
		errors.Is(err, txnerrors.ErrEscrowAlreadyReleased),
		errors.Is(err, txnerrors.ErrTransactionConflict):
		writeTransactionError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeTransactionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireTransactionUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := headerUserID(r)
	if userID == "" {
		writeTransactionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func requireTransactionAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	adminID := headerAdminID(r)
	if adminID == "" {
		writeTransactionError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return "", false
	}
	return adminID, true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	var req txnhttp.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTransactionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transactions.Handler.CreateTransactionHandler(r.Context(), buyerID, req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	resp, err := s.transactions.Handler.GetTransactionHandler(r.Context(), userID, r.PathValue("transaction_id"))
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecordPayment is the payment-gateway callback surface; the gateway
// authenticates out of band, not with a user header.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req txnhttp.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTransactionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transactions.Handler.RecordPaymentHandler(r.Context(), r.PathValue("transaction_id"), req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkCodeAccessed(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	resp, err := s.transactions.Handler.MarkCodeAccessedHandler(r.Context(), buyerID, r.PathValue("transaction_id"))
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDisputeEscrow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	var req txnhttp.DisputeEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTransactionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transactions.Handler.DisputeEscrowHandler(r.Context(), userID, r.PathValue("transaction_id"), req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	page, limit := queryPage(r)
	resp, err := s.transactions.Handler.ListPurchasesHandler(r.Context(), buyerID, r.URL.Query().Get("payment_status"), page, limit)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireTransactionUser(w, r)
	if !ok {
		return
	}

	page, limit := queryPage(r)
	resp, err := s.transactions.Handler.ListSalesHandler(r.Context(), sellerID, r.URL.Query().Get("payment_status"), page, limit)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReleaseEscrow(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTransactionAdmin(w, r); !ok {
		return
	}

	resp, err := s.transactions.Handler.ReleaseEscrowHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireTransactionAdmin(w, r)
	if !ok {
		return
	}

	var req txnhttp.RefundTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTransactionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transactions.Handler.RefundTransactionHandler(r.Context(), adminID, r.PathValue("transaction_id"), req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireTransactionAdmin(w, r)
	if !ok {
		return
	}

	var req txnhttp.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTransactionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transactions.Handler.ResolveDisputeHandler(r.Context(), adminID, r.PathValue("transaction_id"), req)
	if err != nil {
		writeTransactionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
