package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/tierpay/internal/catalog"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

// Service manages payment intents for tier purchases.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentDTO, error)
	GetPaymentStatus(ctx context.Context, paymentIntentID string) (*IntentDTO, error)
	ConfirmIntent(ctx context.Context, paymentIntentID string) (*IntentDTO, error)
	PublishableKey() string
}

// CreateIntentInput holds the validated payload to create a payment intent.
type CreateIntentInput struct {
	ProductID     string
	Amount        int64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// IntentDTO is the wire representation of a payment intent.
type IntentDTO struct {
	ClientSecret    string `json:"clientSecret,omitempty"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	PublishableKey  string `json:"publishableKey,omitempty"`
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Catalog        catalog.Service
	Stripe         StripeIntentClient
	PublishableKey string
	Logger         *logger.Logger
}

type service struct {
	catalog        catalog.Service
	stripe         StripeIntentClient
	publishableKey string
	logg           *logger.Logger
}

// NewService constructs the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe intent client required")
	}
	if params.PublishableKey == "" {
		return nil, fmt.Errorf("publishable key required")
	}
	return &service{
		catalog:        params.Catalog,
		stripe:         params.Stripe,
		publishableKey: params.PublishableKey,
		logg:           params.Logger,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentDTO, error) {
	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product ID: "+input.ProductID)
		}
		return nil, err
	}

	// The charge amount always comes from the catalog; a mismatched request is rejected.
	if input.Amount != product.Price {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount mismatch for product: "+input.ProductID)
	}
	if input.Currency != product.Currency {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency mismatch for product: "+input.ProductID)
	}

	metadata := map[string]string{
		"product_id":   product.ID,
		"product_name": product.Name,
		"user_count":   strconv.Itoa(product.Users),
	}
	if input.CustomerEmail != "" {
		metadata["customer_email"] = input.CustomerEmail
	}
	if input.CustomerName != "" {
		metadata["customer_name"] = input.CustomerName
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(product.Price),
		Currency:           stripe.String(product.Currency),
		Description:        stripe.String(fmt.Sprintf("Payment for %s (%d users)", product.Name, product.Users)),
		Metadata:           metadata,
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodAutomatic)),
	}

	intent, err := s.stripe.Create(ctx, params)
	if err != nil {
		return nil, mapStripeError(err, "failed to create payment intent")
	}

	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"payment_intent_id": intent.ID,
			"product_id":        product.ID,
		})
		s.logg.Info(lctx, "payments.intent_created")
	}

	dto := toIntentDTO(intent)
	dto.PublishableKey = s.publishableKey
	return dto, nil
}

func (s *service) GetPaymentStatus(ctx context.Context, paymentIntentID string) (*IntentDTO, error) {
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	intent, err := s.stripe.Get(ctx, paymentIntentID, nil)
	if err != nil {
		return nil, mapStripeError(err, "failed to retrieve payment intent")
	}
	return toIntentDTO(intent), nil
}

func (s *service) ConfirmIntent(ctx context.Context, paymentIntentID string) (*IntentDTO, error) {
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	intent, err := s.stripe.Confirm(ctx, paymentIntentID, nil)
	if err != nil {
		return nil, mapStripeError(err, "failed to confirm payment intent")
	}
	return toIntentDTO(intent), nil
}

func (s *service) PublishableKey() string {
	return s.publishableKey
}

func toIntentDTO(intent *stripe.PaymentIntent) *IntentDTO {
	return &IntentDTO{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        string(intent.Currency),
		Status:          string(intent.Status),
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
