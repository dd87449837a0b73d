package enums

import "fmt"

// FailureReason classifies why a purchase attempt failed or stalled.
type FailureReason string

const (
	FailureReasonNone                     FailureReason = ""
	FailureReasonNoProduct                FailureReason = "no_product"
	FailureReasonCatalogUnavailable       FailureReason = "catalog_unavailable"
	FailureReasonPaymentSystemUnavailable FailureReason = "payment_system_unavailable"
	FailureReasonValidationError          FailureReason = "validation_error"
	FailureReasonBackendRejected          FailureReason = "backend_rejected"
	FailureReasonCardDeclined             FailureReason = "card_declined"
	FailureReasonProcessorError           FailureReason = "processor_error"
	FailureReasonTimeout                  FailureReason = "timeout"
)

var validFailureReasons = []FailureReason{
	FailureReasonNoProduct,
	FailureReasonCatalogUnavailable,
	FailureReasonPaymentSystemUnavailable,
	FailureReasonValidationError,
	FailureReasonBackendRejected,
	FailureReasonCardDeclined,
	FailureReasonProcessorError,
	FailureReasonTimeout,
}

// String implements fmt.Stringer.
func (r FailureReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known FailureReason.
func (r FailureReason) IsValid() bool {
	for _, candidate := range validFailureReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// Retryable reports whether the attempt may be re-submitted after this failure.
func (r FailureReason) Retryable() bool {
	switch r {
	case FailureReasonBackendRejected, FailureReasonCardDeclined, FailureReasonProcessorError, FailureReasonTimeout:
		return true
	default:
		return false
	}
}

// ParseFailureReason converts raw input into a FailureReason.
func ParseFailureReason(value string) (FailureReason, error) {
	for _, candidate := range validFailureReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid failure reason %q", value)
}
