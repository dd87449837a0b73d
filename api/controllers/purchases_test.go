package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tierpay/internal/sessions"
	"github.com/angelmondragon/tierpay/pkg/enums"
)

type stubSessionService struct {
	createDTO *sessions.CheckoutRedirectDTO
	createErr error
	getDTO    *sessions.PurchaseSessionDTO
	getErr    error
	rows      []sessions.PurchaseSessionDTO
	listErr   error
	gotStart  time.Time
	gotEnd    time.Time
	gotEmail  string
}

func (s *stubSessionService) CreateCheckoutSession(ctx context.Context, input sessions.CreateSessionInput) (*sessions.CheckoutRedirectDTO, error) {
	return s.createDTO, s.createErr
}

func (s *stubSessionService) GetCheckoutSession(ctx context.Context, id string) (*sessions.PurchaseSessionDTO, error) {
	return s.getDTO, s.getErr
}

func (s *stubSessionService) ListAllSessions(ctx context.Context) ([]sessions.PurchaseSessionDTO, error) {
	return s.rows, s.listErr
}

func (s *stubSessionService) ListSessionsByCustomer(ctx context.Context, email string) ([]sessions.PurchaseSessionDTO, error) {
	s.gotEmail = email
	return s.rows, s.listErr
}

func (s *stubSessionService) ListSessionsByDateRange(ctx context.Context, start, end time.Time) ([]sessions.PurchaseSessionDTO, error) {
	s.gotStart = start
	s.gotEnd = end
	return s.rows, s.listErr
}

func sessionsRouter(svc sessions.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/create-checkout-session", CreateCheckoutSession(svc, nil))
	r.Get("/api/checkout-session/{sessionId}", CheckoutSession(svc, nil))
	r.Get("/api/purchases/sessions", PurchaseSessions(svc, nil))
	r.Get("/api/purchases/sessions/customer/{email}", PurchaseSessionsByCustomer(svc, nil))
	r.Get("/api/purchases/sessions/date-range", PurchaseSessionsByDateRange(svc, nil))
	return r
}

func TestCreateCheckoutSessionController(t *testing.T) {
	stub := &stubSessionService{
		createDTO: &sessions.CheckoutRedirectDTO{
			CheckoutURL: "https://checkout.stripe.com/c/pay/cs_1",
			SessionID:   "cs_1",
			Success:     true,
			Message:     "Checkout session created successfully",
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(
		`{"priceId":"price_50_users","customerEmail":"a@b.com"}`))
	rec := httptest.NewRecorder()
	sessionsRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "cs_1") {
		t.Fatalf("session id missing: %s", rec.Body.String())
	}
}

func TestCheckoutSessionDetail(t *testing.T) {
	stub := &stubSessionService{
		getDTO: &sessions.PurchaseSessionDTO{ID: "cs_1", Status: enums.SessionStatusComplete, PaymentStatus: enums.PaymentStatusPaid},
	}
	rec := httptest.NewRecorder()
	sessionsRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkout-session/cs_1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data sessions.PurchaseSessionDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected session %+v", body.Data)
	}
}

func TestPurchaseSessionsByCustomerPassesEmail(t *testing.T) {
	stub := &stubSessionService{}
	rec := httptest.NewRecorder()
	sessionsRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purchases/sessions/customer/a@b.com", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotEmail != "a@b.com" {
		t.Fatalf("unexpected email %q", stub.gotEmail)
	}
}

func TestPurchaseSessionsByDateRange(t *testing.T) {
	stub := &stubSessionService{}
	rec := httptest.NewRecorder()
	sessionsRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/purchases/sessions/date-range?start=2026-03-01&end=2026-03-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	if !stub.gotStart.Equal(wantStart) || !stub.gotEnd.Equal(wantEnd) {
		t.Fatalf("unexpected bounds %v .. %v", stub.gotStart, stub.gotEnd)
	}
}

func TestPurchaseSessionsByDateRangeRequiresBothBounds(t *testing.T) {
	stub := &stubSessionService{}
	rec := httptest.NewRecorder()
	sessionsRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/purchases/sessions/date-range?start=2026-03-01", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
