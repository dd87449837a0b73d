package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

type ServiceParams struct {
	Logger *logger.Logger
}

// Service reacts to payment lifecycle events pushed by Stripe. Payment state
// itself lives at the processor; events are recorded for operators.
type Service struct {
	logg *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{logg: params.Logger}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		s.logIntent(ctx, "webhook.payment_succeeded", intent)
		return nil
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		s.logIntent(ctx, "webhook.payment_failed", intent)
		return nil
	case stripe.EventTypePaymentIntentCreated:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		s.logIntent(ctx, "webhook.payment_intent_created", intent)
		return nil
	default:
		lctx := s.logg.WithFields(ctx, map[string]any{"event_type": string(event.Type)})
		s.logg.Info(lctx, "webhook.unhandled_event")
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	return &intent, nil
}

func (s *Service) logIntent(ctx context.Context, msg string, intent *stripe.PaymentIntent) {
	fields := map[string]any{
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"status":            string(intent.Status),
	}
	if email := intent.Metadata["customer_email"]; email != "" {
		fields["customer_email"] = email
	}
	if name := intent.Metadata["product_name"]; name != "" {
		fields["product_name"] = name
	}
	lctx := s.logg.WithFields(ctx, fields)
	s.logg.Info(lctx, msg)
}
