package sessions

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/angelmondragon/tierpay/pkg/stripe"
)

// StripeSessionClient exposes the subset of Stripe operations required by the session service.
type StripeSessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	List(ctx context.Context, params *stripe.CheckoutSessionListParams) ([]*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the session service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeSessionClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

func (w *stripeClientWrapper) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionParams{}
	}
	params.Context = ctx
	return session.Get(id, params)
}

func (w *stripeClientWrapper) List(ctx context.Context, params *stripe.CheckoutSessionListParams) ([]*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionListParams{}
	}
	params.Context = ctx

	var out []*stripe.CheckoutSession
	iter := session.List(params)
	for iter.Next() {
		out = append(out, iter.CheckoutSession())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
