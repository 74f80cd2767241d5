package enums

import "testing"

func TestOrderStatusCanCancel(t *testing.T) {
	cancellable := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped}
	for _, status := range cancellable {
		if !status.CanCancel() {
			t.Fatalf("expected %s to be cancellable", status)
		}
	}

	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if status.CanCancel() {
			t.Fatalf("expected %s to refuse cancellation", status)
		}
	}
}

func TestOrderStatusCanAdvanceTo(t *testing.T) {
	steps := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusDelivered, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusPending, OrderStatusCancelled, false},
	}
	for _, tt := range steps {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusShipped {
		t.Fatalf("unexpected status %s", status)
	}

	if _, err := ParseOrderStatus("returned"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestVerificationOutcomeIsValidFor(t *testing.T) {
	if !VerificationOutcomePacked.IsValidFor(VerificationCheckPacking) {
		t.Fatal("packed should satisfy packing_status")
	}
	if VerificationOutcomeFresh.IsValidFor(VerificationCheckExpiry) {
		t.Fatal("fresh does not belong to expiry")
	}
}
