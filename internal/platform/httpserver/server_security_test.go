package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	featuredservice "halfbuilt/contexts/marketplace-core/featured-listing-service"
	featuredports "halfbuilt/contexts/marketplace-core/featured-listing-service/ports"
	offerservice "halfbuilt/contexts/marketplace-core/offer-service"
	offerports "halfbuilt/contexts/marketplace-core/offer-service/ports"
	transactionservice "halfbuilt/contexts/marketplace-core/transaction-service"
	transactionports "halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/platform/messaging"
	"halfbuilt/internal/shared/notify"
)

func newTestServer() *Server {
	logger := slog.Default()
	sink := notify.NewRecorder()
	bus := messaging.NewBus(logger)

	offerProjects := []offerports.Project{
		{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", PriceCents: 10000, Status: offerports.ProjectStatusActive},
	}
	offerUsers := []offerports.User{
		{UserID: "buyer-1", Email: "buyer@example.com"},
		{UserID: "seller-1", Email: "seller@example.com"},
	}
	txnProjects := []transactionports.Project{
		{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", PriceCents: 10000, Status: transactionports.ProjectStatusActive},
	}
	txnUsers := []transactionports.User{
		{UserID: "buyer-1", Email: "buyer@example.com"},
		{UserID: "seller-1", Email: "seller@example.com"},
	}
	placements := []featuredports.Placement{
		{ProjectID: "proj-1", SellerID: "seller-1", Title: "Half-built SaaS", Status: featuredports.ProjectStatusActive},
	}

	return New(
		offerservice.NewInMemoryModule(offerProjects, offerUsers, sink, logger),
		transactionservice.NewInMemoryModule(txnProjects, txnUsers, bus, sink, logger),
		featuredservice.NewInMemoryModule(placements, logger),
		logger,
		":0",
	)
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func TestUserEndpointsRejectMissingIdentity(t *testing.T) {
	server := newTestServer()
	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/marketplace/v1/offers"},
		{http.MethodGet, "/api/marketplace/v1/offers/sent"},
		{http.MethodGet, "/api/marketplace/v1/offers/received"},
		{http.MethodGet, "/api/marketplace/v1/offers/offer-1"},
		{http.MethodPost, "/api/marketplace/v1/offers/offer-1/accept"},
		{http.MethodPost, "/api/marketplace/v1/transactions"},
		{http.MethodGet, "/api/marketplace/v1/transactions/txn-1"},
		{http.MethodPost, "/api/marketplace/v1/transactions/txn-1/code-access"},
		{http.MethodGet, "/api/marketplace/v1/purchases"},
		{http.MethodPost, "/api/marketplace/v1/projects/proj-1/featured"},
	}
	for _, tc := range requests {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte("{}")))
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d body=%s", tc.method, tc.path, rr.Code, rr.Body.String())
		}
	}
}

func TestAdminEndpointsRejectMissingIdentity(t *testing.T) {
	server := newTestServer()
	paths := []string{
		"/api/marketplace/v1/admin/transactions/txn-1/release",
		"/api/marketplace/v1/admin/transactions/txn-1/refund",
		"/api/marketplace/v1/admin/transactions/txn-1/resolve-dispute",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte("{}")))
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d body=%s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestFeaturedStatusIsPublic(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/marketplace/v1/projects/proj-1/featured", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateOfferStatusMapping(t *testing.T) {
	server := newTestServer()
	cases := []struct {
		name string
		user string
		body map[string]any
		want int
	}{
		{"created", "buyer-1", map[string]any{"project_id": "proj-1", "offered_price_cents": 8000}, http.StatusCreated},
		{"duplicate", "buyer-1", map[string]any{"project_id": "proj-1", "offered_price_cents": 8500}, http.StatusConflict},
		{"self offer", "seller-1", map[string]any{"project_id": "proj-1", "offered_price_cents": 8000}, http.StatusBadRequest},
		{"below floor", "buyer-1", map[string]any{"project_id": "proj-1", "offered_price_cents": 100}, http.StatusBadRequest},
		{"unknown project", "buyer-1", map[string]any{"project_id": "proj-x", "offered_price_cents": 8000}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/offers", jsonBody(t, tc.body))
			req.Header.Set("X-User-Id", tc.user)
			rr := httptest.NewRecorder()
			server.mux.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestOfferVisibilityHidesThreadFromOutsiders(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/offers", jsonBody(t, map[string]any{"project_id": "proj-1", "offered_price_cents": 8000}))
	req.Header.Set("X-User-Id", "buyer-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create offer: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		Offer struct {
			OfferID string `json:"offer_id"`
		} `json:"offer"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	// A third party probing the offer gets 404, not 403.
	req = httptest.NewRequest(http.MethodGet, "/api/marketplace/v1/offers/"+created.Offer.OfferID, nil)
	req.Header.Set("X-User-Id", "stranger")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for outsider, got %d body=%s", rr.Code, rr.Body.String())
	}

	// The wrong responder gets 403.
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/offers/"+created.Offer.OfferID+"/accept", nil)
	req.Header.Set("X-User-Id", "buyer-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong responder, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurchaseLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/transactions", jsonBody(t, map[string]any{"project_id": "proj-1"}))
	req.Header.Set("X-User-Id", "buyer-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		Transaction struct {
			TransactionID   string `json:"transaction_id"`
			CommissionCents int64  `json:"commission_cents"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Transaction.CommissionCents != 1800 {
		t.Fatalf("expected commission 1800, got %d", created.Transaction.CommissionCents)
	}
	txnID := created.Transaction.TransactionID

	// The gateway webhook carries no user identity.
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/transactions/"+txnID+"/payment-result", jsonBody(t, map[string]any{"succeeded": true}))
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("payment result: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Only the buyer can mark the code as accessed.
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/transactions/"+txnID+"/code-access", nil)
	req.Header.Set("X-User-Id", "seller-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller code access, got %d body=%s", rr.Code, rr.Body.String())
	}
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/transactions/"+txnID+"/code-access", nil)
	req.Header.Set("X-User-Id", "buyer-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("code access: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Admin releases escrow, then a refund is a conflict.
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/admin/transactions/"+txnID+"/release", nil)
	req.Header.Set("X-Admin-Id", "admin-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("release: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/admin/transactions/"+txnID+"/refund", jsonBody(t, map[string]any{"reason": "chargeback"}))
	req.Header.Set("X-Admin-Id", "admin-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("refund after release: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestFeaturedPurchaseStatusMapping(t *testing.T) {
	server := newTestServer()

	// Non-owner cannot buy placement on someone else's listing.
	req := httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/projects/proj-1/featured", jsonBody(t, map[string]any{"days": 7}))
	req.Header.Set("X-User-Id", "buyer-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Off-ladder duration is a validation failure.
	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/projects/proj-1/featured", jsonBody(t, map[string]any{"days": 11}))
	req.Header.Set("X-User-Id", "seller-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/marketplace/v1/projects/proj-1/featured", jsonBody(t, map[string]any{"days": 7}))
	req.Header.Set("X-User-Id", "seller-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var purchased struct {
		ChargeCents int64 `json:"charge_cents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &purchased); err != nil {
		t.Fatalf("decode purchase response: %v", err)
	}
	if purchased.ChargeCents != 1999 {
		t.Fatalf("expected charge 1999, got %d", purchased.ChargeCents)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/marketplace/v1/projects/proj-1/featured", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var status struct {
		Featured bool `json:"featured"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if !status.Featured {
		t.Fatal("expected project to read as featured")
	}
}
