package parts

import (
	"errors"
	"testing"
)

func TestAdvance_ForwardMoves(t *testing.T) {
	steps := []OrderStatus{OrderPending, OrderReceived, OrderAllocated, OrderDispatched, OrderInstalled}
	for i := 0; i < len(steps)-1; i++ {
		changed, err := Advance(steps[i], steps[i+1])
		if err != nil {
			t.Fatalf("Advance(%s, %s): unexpected error %v", steps[i], steps[i+1], err)
		}
		if !changed {
			t.Fatalf("Advance(%s, %s): expected changed", steps[i], steps[i+1])
		}
	}
}

func TestAdvance_SkipAheadAllowed(t *testing.T) {
	// Van-stock part: fitted on the spot, pending -> installed directly.
	changed, err := Advance(OrderPending, OrderInstalled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed")
	}
}

func TestAdvance_SameStatusIsIdempotentNoOp(t *testing.T) {
	changed, err := Advance(OrderReceived, OrderReceived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Fatalf("expected no-op for repeated status")
	}
}

func TestAdvance_BackwardRejected(t *testing.T) {
	_, err := Advance(OrderDispatched, OrderReceived)
	if err == nil {
		t.Fatalf("expected error for backward move")
	}
	var te TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if te.Code != "INVALID_STATE_TRANSITION" {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %s", te.Code)
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("allocated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParseUrgency(t *testing.T) {
	u, err := ParseUrgency("")
	if err != nil || u != UrgencyNormal {
		t.Fatalf("expected default normal, got %q err=%v", u, err)
	}
	if _, err := ParseUrgency("critical"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseUrgency("whenever"); err == nil {
		t.Fatalf("expected error for unknown urgency")
	}
}
