package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeSDK builds card elements that confirm intents directly against
// Stripe using only the publishable key, the way browser and mobile SDKs do.
// Card input is represented by a tokenized payment method (pm_...), so raw
// card data never enters this process.
type StripeSDK struct {
	paymentMethod string
}

// NewStripeSDK returns an SDK whose elements charge the given tokenized
// payment method.
func NewStripeSDK(paymentMethod string) (*StripeSDK, error) {
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, errors.New("payment method token is required")
	}
	return &StripeSDK{paymentMethod: paymentMethod}, nil
}

func (s *StripeSDK) CreateCardElement(publishableKey string) (CardElement, error) {
	trimmed := strings.TrimSpace(publishableKey)
	if !strings.HasPrefix(trimmed, "pk_test_") && !strings.HasPrefix(trimmed, "pk_live_") {
		return nil, fmt.Errorf("invalid publishable key prefix")
	}
	return &stripeCardElement{
		client: &paymentintent.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: trimmed,
		},
		paymentMethod: s.paymentMethod,
	}, nil
}

type stripeCardElement struct {
	client        *paymentintent.Client
	paymentMethod string

	mu        sync.Mutex
	mounted   bool
	destroyed bool
	onChange  func(ChangeEvent)
}

func (e *stripeCardElement) Mount(containerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return errors.New("card element destroyed")
	}
	if e.mounted {
		return nil
	}
	e.mounted = true
	if e.onChange != nil {
		e.onChange(ChangeEvent{Complete: true})
	}
	return nil
}

func (e *stripeCardElement) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mounted = false
	e.destroyed = true
	e.onChange = nil
	return nil
}

func (e *stripeCardElement) OnChange(fn func(ChangeEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
	if fn != nil && e.mounted {
		fn(ChangeEvent{Complete: true})
	}
}

func (e *stripeCardElement) ConfirmPayment(ctx context.Context, clientSecret string, billing BillingDetails) (*ConfirmResult, error) {
	e.mu.Lock()
	if !e.mounted || e.destroyed {
		e.mu.Unlock()
		return nil, errors.New("card element not mounted")
	}
	e.mu.Unlock()

	intentID, err := intentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(e.paymentMethod),
	}
	// stripe-go v84 removed the ClientSecret field from
	// PaymentIntentConfirmParams; send the same form field via Extra.
	params.AddExtra("client_secret", clientSecret)
	params.Context = ctx

	intent, err := e.client.Confirm(intentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			msg := stripeErr.Msg
			if msg == "" {
				msg = "payment confirmation failed"
			}
			return nil, &ConfirmError{Message: msg, Code: string(stripeErr.Code)}
		}
		return nil, err
	}

	return &ConfirmResult{
		PaymentIntentID: intent.ID,
		Status:          string(intent.Status),
	}, nil
}

// intentIDFromClientSecret recovers the intent id from a secret shaped like
// pi_123_secret_456.
func intentIDFromClientSecret(clientSecret string) (string, error) {
	idx := strings.Index(clientSecret, "_secret_")
	if idx <= 0 {
		return "", errors.New("malformed client secret")
	}
	return clientSecret[:idx], nil
}
