package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/tierpay/pkg/enums"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

// Service manages hosted checkout sessions and purchase history queries.
type Service interface {
	CreateCheckoutSession(ctx context.Context, input CreateSessionInput) (*CheckoutRedirectDTO, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*PurchaseSessionDTO, error)
	ListAllSessions(ctx context.Context) ([]PurchaseSessionDTO, error)
	ListSessionsByCustomer(ctx context.Context, customerEmail string) ([]PurchaseSessionDTO, error)
	ListSessionsByDateRange(ctx context.Context, start, end time.Time) ([]PurchaseSessionDTO, error)
}

// CreateSessionInput holds the validated payload to start a hosted checkout.
type CreateSessionInput struct {
	PriceID       string
	CustomerEmail string
	CustomerName  string
}

// CheckoutRedirectDTO points the customer at the hosted payment page.
type CheckoutRedirectDTO struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// PurchaseSessionDTO is one row of purchase history.
type PurchaseSessionDTO struct {
	ID            string              `json:"id"`
	Status        enums.SessionStatus `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	CustomerEmail string              `json:"customerEmail"`
	AmountTotal   int64               `json:"amountTotal"`
	Currency      string              `json:"currency"`
	Created       int64               `json:"created"`
	SuccessURL    string              `json:"successUrl"`
	CancelURL     string              `json:"cancelUrl"`
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Stripe     StripeSessionClient
	SuccessURL string
	CancelURL  string
	ListLimit  int64
	Logger     *logger.Logger
}

type service struct {
	stripe     StripeSessionClient
	successURL string
	cancelURL  string
	listLimit  int64
	logg       *logger.Logger
}

// NewService constructs the session service.
func NewService(params ServiceParams) (Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if params.SuccessURL == "" || params.CancelURL == "" {
		return nil, fmt.Errorf("success and cancel URLs required")
	}
	limit := params.ListLimit
	if limit <= 0 {
		limit = 100
	}
	return &service{
		stripe:     params.Stripe,
		successURL: params.SuccessURL,
		cancelURL:  params.CancelURL,
		listLimit:  limit,
		logg:       params.Logger,
	}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, input CreateSessionInput) (*CheckoutRedirectDTO, error) {
	if input.PriceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price id required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(input.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}

	created, err := s.stripe.Create(ctx, params)
	if err != nil {
		return nil, mapStripeError(err, "failed to create checkout session")
	}

	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{"session_id": created.ID})
		s.logg.Info(lctx, "sessions.checkout_created")
	}

	return &CheckoutRedirectDTO{
		CheckoutURL: created.URL,
		SessionID:   created.ID,
		Success:     true,
		Message:     "Checkout session created successfully",
	}, nil
}

func (s *service) GetCheckoutSession(ctx context.Context, sessionID string) (*PurchaseSessionDTO, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	found, err := s.stripe.Get(ctx, sessionID, nil)
	if err != nil {
		return nil, mapStripeError(err, "failed to retrieve checkout session")
	}
	dto := toPurchaseSession(found)
	return &dto, nil
}

func (s *service) ListAllSessions(ctx context.Context) ([]PurchaseSessionDTO, error) {
	return s.list(ctx, nil)
}

func (s *service) ListSessionsByCustomer(ctx context.Context, customerEmail string) ([]PurchaseSessionDTO, error) {
	if customerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	// The sessions API has no server-side email filter; fetch and filter here.
	all, err := s.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	matched := make([]PurchaseSessionDTO, 0, len(all))
	for _, dto := range all {
		if dto.CustomerEmail == customerEmail {
			matched = append(matched, dto)
		}
	}
	return matched, nil
}

func (s *service) ListSessionsByDateRange(ctx context.Context, start, end time.Time) ([]PurchaseSessionDTO, error) {
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date before start date")
	}
	return s.list(ctx, &stripe.RangeQueryParams{
		GreaterThanOrEqual: start.Unix(),
		LesserThanOrEqual:  end.Unix(),
	})
}

func (s *service) list(ctx context.Context, created *stripe.RangeQueryParams) ([]PurchaseSessionDTO, error) {
	params := &stripe.CheckoutSessionListParams{}
	params.Limit = stripe.Int64(s.listLimit)
	if created != nil {
		params.CreatedRange = created
	}

	found, err := s.stripe.List(ctx, params)
	if err != nil {
		return nil, mapStripeError(err, "failed to list checkout sessions")
	}

	out := make([]PurchaseSessionDTO, 0, len(found))
	for _, sess := range found {
		out = append(out, toPurchaseSession(sess))
	}
	return out, nil
}

// ParseDateRange converts inclusive YYYY-MM-DD calendar bounds to the UTC
// instants covering those whole days.
func ParseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start date")
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end date")
	}
	endOfDay := end.Add(24*time.Hour - time.Second)
	if endOfDay.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end date before start date")
	}
	return start, endOfDay, nil
}

func toPurchaseSession(sess *stripe.CheckoutSession) PurchaseSessionDTO {
	return PurchaseSessionDTO{
		ID:            sess.ID,
		Status:        enums.SessionStatus(sess.Status),
		PaymentStatus: enums.PaymentStatus(sess.PaymentStatus),
		CustomerEmail: sess.CustomerEmail,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Created:       sess.Created,
		SuccessURL:    sess.SuccessURL,
		CancelURL:     sess.CancelURL,
	}
}

func mapStripeError(err error, fallback string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = fallback
		}
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, msg).WithDetails(map[string]any{
			"stripe_code": string(stripeErr.Code),
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fallback)
}
