package enums

import "testing"

func TestCheckoutStateTerminal(t *testing.T) {
	if !CheckoutStateSucceeded.IsTerminal() {
		t.Fatal("succeeded must be terminal")
	}
	if !CheckoutStateCancelled.IsTerminal() {
		t.Fatal("cancelled must be terminal")
	}
	if CheckoutStateFailed.IsTerminal() {
		t.Fatal("failed must allow retry transitions")
	}
	if CheckoutStateReadyToSubmit.IsTerminal() {
		t.Fatal("ready_to_submit is not terminal")
	}
}

func TestFailureReasonRetryable(t *testing.T) {
	retryable := []FailureReason{
		FailureReasonBackendRejected,
		FailureReasonCardDeclined,
		FailureReasonProcessorError,
		FailureReasonTimeout,
	}
	for _, r := range retryable {
		if !r.Retryable() {
			t.Fatalf("%s should be retryable", r)
		}
	}
	fatal := []FailureReason{
		FailureReasonNoProduct,
		FailureReasonCatalogUnavailable,
		FailureReasonPaymentSystemUnavailable,
	}
	for _, r := range fatal {
		if r.Retryable() {
			t.Fatalf("%s should not be retryable", r)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	if _, err := ParsePaymentStatus("paid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePaymentStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseSessionStatus(t *testing.T) {
	for _, valid := range []string{"open", "complete", "expired"} {
		if _, err := ParseSessionStatus(valid); err != nil {
			t.Fatalf("unexpected error for %q: %v", valid, err)
		}
	}
	if _, err := ParseSessionStatus("closed"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseCheckoutState(t *testing.T) {
	state, err := ParseCheckoutState("confirming")
	if err != nil || state != CheckoutStateConfirming {
		t.Fatalf("unexpected result: %v %v", state, err)
	}
	if _, err := ParseCheckoutState("settling"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
