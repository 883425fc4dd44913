package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	featuredservice "halfbuilt/contexts/marketplace-core/featured-listing-service"
	offerservice "halfbuilt/contexts/marketplace-core/offer-service"
	transactionservice "halfbuilt/contexts/marketplace-core/transaction-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "halfbuilt/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	offers       offerservice.Module
	transactions transactionservice.Module
	featured     featuredservice.Module
}

func New(
	offers offerservice.Module,
	transactions transactionservice.Module,
	featured featuredservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		offers:       offers,
		transactions: transactions,
		featured:     featured,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/marketplace/v1/offers", s.handleCreateOffer)
	s.mux.HandleFunc("GET /api/marketplace/v1/offers/sent", s.handleListSentOffers)
	s.mux.HandleFunc("GET /api/marketplace/v1/offers/received", s.handleListReceivedOffers)
	s.mux.HandleFunc("GET /api/marketplace/v1/offers/{offer_id}", s.handleGetOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/offers/{offer_id}/counter", s.handleCounterOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/offers/{offer_id}/accept", s.handleAcceptOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/offers/{offer_id}/reject", s.handleRejectOffer)
	s.mux.HandleFunc("POST /api/marketplace/v1/offers/{offer_id}/withdraw", s.handleWithdrawOffer)
	s.mux.HandleFunc("GET /api/marketplace/v1/projects/{project_id}/offers", s.handleListProjectOffers)

	s.mux.HandleFunc("POST /api/marketplace/v1/transactions", s.handleCreateTransaction)
	s.mux.HandleFunc("GET /api/marketplace/v1/transactions/{transaction_id}", s.handleGetTransaction)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/payment-result", s.handleRecordPayment)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/code-access", s.handleMarkCodeAccessed)
	s.mux.HandleFunc("POST /api/marketplace/v1/transactions/{transaction_id}/dispute", s.handleDisputeEscrow)
	s.mux.HandleFunc("GET /api/marketplace/v1/purchases", s.handleListPurchases)
	s.mux.HandleFunc("GET /api/marketplace/v1/sales", s.handleListSales)
	s.mux.HandleFunc("POST /api/marketplace/v1/admin/transactions/{transaction_id}/release", s.handleReleaseEscrow)
	s.mux.HandleFunc("POST /api/marketplace/v1/admin/transactions/{transaction_id}/refund", s.handleRefundTransaction)
	s.mux.HandleFunc("POST /api/marketplace/v1/admin/transactions/{transaction_id}/resolve-dispute", s.handleResolveDispute)

	s.mux.HandleFunc("GET /api/marketplace/v1/projects/{project_id}/featured", s.handleFeaturedStatus)
	s.mux.HandleFunc("POST /api/marketplace/v1/projects/{project_id}/featured", s.handlePurchaseFeatured)
	s.mux.HandleFunc("POST /api/marketplace/v1/projects/{project_id}/featured/extend", s.handleExtendFeatured)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func queryPage(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func headerUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func headerAdminID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Admin-Id"))
}
