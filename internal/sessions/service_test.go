package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/tierpay/pkg/enums"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
)

type stubSessionClient struct {
	createParams *stripe.CheckoutSessionParams
	createResult *stripe.CheckoutSession
	createErr    error
	listParams   *stripe.CheckoutSessionListParams
	listResult   []*stripe.CheckoutSession
	listErr      error
	getResult    *stripe.CheckoutSession
	getErr       error
}

func (s *stubSessionClient) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.createParams = params
	return s.createResult, s.createErr
}

func (s *stubSessionClient) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.getResult, s.getErr
}

func (s *stubSessionClient) List(ctx context.Context, params *stripe.CheckoutSessionListParams) ([]*stripe.CheckoutSession, error) {
	s.listParams = params
	return s.listResult, s.listErr
}

func newTestService(t *testing.T, client StripeSessionClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Stripe:     client,
		SuccessURL: "http://localhost:4200/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:4200/payment-cancel",
		ListLimit:  100,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateCheckoutSession(t *testing.T) {
	stub := &stubSessionClient{
		createResult: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"},
	}
	svc := newTestService(t, stub)

	dto, err := svc.CreateCheckoutSession(context.Background(), CreateSessionInput{
		PriceID:       "price_50_users",
		CustomerEmail: "a@b.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dto.Success || dto.SessionID != "cs_test_1" || dto.CheckoutURL == "" {
		t.Fatalf("unexpected dto %+v", dto)
	}

	p := stub.createParams
	if *p.Mode != "payment" {
		t.Fatalf("unexpected mode %q", *p.Mode)
	}
	if len(p.LineItems) != 1 || *p.LineItems[0].Price != "price_50_users" || *p.LineItems[0].Quantity != 1 {
		t.Fatalf("unexpected line items %+v", p.LineItems)
	}
	if *p.CustomerEmail != "a@b.com" {
		t.Fatalf("unexpected customer email %q", *p.CustomerEmail)
	}
}

func TestCreateCheckoutSessionRequiresPriceID(t *testing.T) {
	svc := newTestService(t, &stubSessionClient{})
	_, err := svc.CreateCheckoutSession(context.Background(), CreateSessionInput{})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListSessionsByCustomerFilters(t *testing.T) {
	stub := &stubSessionClient{
		listResult: []*stripe.CheckoutSession{
			{ID: "cs_1", CustomerEmail: "a@b.com", AmountTotal: 5000},
			{ID: "cs_2", CustomerEmail: "x@y.com", AmountTotal: 9000},
			{ID: "cs_3", CustomerEmail: "a@b.com", AmountTotal: 16000},
		},
	}
	svc := newTestService(t, stub)

	rows, err := svc.ListSessionsByCustomer(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "cs_1" || rows[1].ID != "cs_3" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestListSessionsByDateRangeSetsCreatedBounds(t *testing.T) {
	stub := &stubSessionClient{}
	svc := newTestService(t, stub)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	if _, err := svc.ListSessionsByDateRange(context.Background(), start, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := stub.listParams.CreatedRange
	if created == nil {
		t.Fatal("expected created range")
	}
	if created.GreaterThanOrEqual != start.Unix() || created.LesserThanOrEqual != end.Unix() {
		t.Fatalf("unexpected bounds %+v", created)
	}
}

func TestParseDateRangeSingleDay(t *testing.T) {
	start, end, err := ParseDateRange("2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
	if end.Before(start) {
		t.Fatal("single-day range must be non-empty")
	}
}

func TestParseDateRangeRejectsGarbage(t *testing.T) {
	if _, _, err := ParseDateRange("03/01/2026", "2026-03-01"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := ParseDateRange("2026-03-02", "2026-03-01"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestListAllMapsStripeFields(t *testing.T) {
	stub := &stubSessionClient{
		listResult: []*stripe.CheckoutSession{
			{
				ID:            "cs_1",
				Status:        stripe.CheckoutSessionStatusComplete,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
				CustomerEmail: "a@b.com",
				AmountTotal:   5000,
				Currency:      stripe.CurrencyUSD,
				Created:       1700000000,
			},
		},
	}
	svc := newTestService(t, stub)

	rows, err := svc.ListAllSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := rows[0]
	if row.Status != enums.SessionStatusComplete || row.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected row %+v", row)
	}
	if !row.Status.IsValid() || !row.PaymentStatus.IsValid() {
		t.Fatalf("statuses must map to known values, got %q/%q", row.Status, row.PaymentStatus)
	}
	if row.Currency != "usd" || row.Created != 1700000000 {
		t.Fatalf("unexpected row %+v", row)
	}
}
