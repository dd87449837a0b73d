package checkout

import (
	"context"
	"fmt"
)

// BillingDetails is the locally validated customer input attached to a
// payment confirmation.
type BillingDetails struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

// ChangeEvent reports card input readiness.
type ChangeEvent struct {
	Complete     bool
	ErrorMessage string
}

// ConfirmResult is the processor's view of a confirmed payment.
type ConfirmResult struct {
	PaymentIntentID string
	Status          string
}

// ConfirmError carries the processor's rejection of a confirmation call.
type ConfirmError struct {
	Message string
	Code    string
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("confirm payment: %s (%s)", e.Message, e.Code)
}

// CardElement is the narrow capability boundary around the processor's
// card input. Raw card data never crosses it.
type CardElement interface {
	Mount(containerID string) error
	Destroy() error
	OnChange(fn func(ChangeEvent))
	ConfirmPayment(ctx context.Context, clientSecret string, billing BillingDetails) (*ConfirmResult, error)
}

// PaymentSDK creates card elements once the publishable key is known.
type PaymentSDK interface {
	CreateCardElement(publishableKey string) (CardElement, error)
}
