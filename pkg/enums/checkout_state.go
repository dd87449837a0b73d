package enums

import "fmt"

// CheckoutState tracks the client-side lifecycle of a purchase attempt.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateLoadingProduct       CheckoutState = "loading_product"
	CheckoutStateAwaitingPaymentSetup CheckoutState = "awaiting_payment_setup"
	CheckoutStateReadyToSubmit        CheckoutState = "ready_to_submit"
	CheckoutStateSubmitting           CheckoutState = "submitting"
	CheckoutStateConfirming           CheckoutState = "confirming"
	CheckoutStateSucceeded            CheckoutState = "succeeded"
	CheckoutStateFailed               CheckoutState = "failed"
	CheckoutStateCancelled            CheckoutState = "cancelled"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateLoadingProduct,
	CheckoutStateAwaitingPaymentSetup,
	CheckoutStateReadyToSubmit,
	CheckoutStateSubmitting,
	CheckoutStateConfirming,
	CheckoutStateSucceeded,
	CheckoutStateFailed,
	CheckoutStateCancelled,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s CheckoutState) IsTerminal() bool {
	switch s {
	case CheckoutStateSucceeded, CheckoutStateCancelled:
		return true
	default:
		return false
	}
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
