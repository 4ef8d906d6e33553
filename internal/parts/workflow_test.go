package parts

import (
	"testing"

	"github.com/shopspring/decimal"

	"servicedesk/internal/service"
)

// A technician mid-repair discovers a dead compressor: the request is
// accepted and the job parks until the part arrives.
func TestRequestPartMidRepairParksService(t *testing.T) {
	if !service.CanAcceptPartRequest(service.StatusInProgress) {
		t.Fatalf("in_progress service must accept part requests")
	}

	// A fresh order starts pending, so the resolver keeps the job parked.
	got := NextServiceStatus(service.StatusWaitingParts, []OrderStatus{OrderPending})
	if got != service.StatusWaitingParts {
		t.Fatalf("expected waiting_parts, got %s", got)
	}
}

// Goods-in books the compressor at 150.00: the order advances to received,
// the cost round-trips exactly, and the job returns to the technician.
func TestReceiveWithCostUnparksService(t *testing.T) {
	changed, err := Advance(OrderPending, OrderReceived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatalf("expected pending -> received to apply")
	}

	cost, err := decimal.NewFromString("150.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.IsNegative() {
		t.Fatalf("cost must validate as non-negative")
	}
	if got := cost.StringFixed(2); got != "150.00" {
		t.Fatalf("expected cost to round-trip as 150.00, got %s", got)
	}

	got := NextServiceStatus(service.StatusWaitingParts, []OrderStatus{OrderReceived})
	if got != service.StatusAssigned {
		t.Fatalf("expected assigned after receive, got %s", got)
	}
}

func TestAssignGuardsOnTerminalStatuses(t *testing.T) {
	for _, s := range []service.Status{service.StatusCompleted, service.StatusCancelled} {
		if !service.IsTerminal(s) {
			t.Fatalf("expected %s to be terminal", s)
		}
		if service.CanAcceptPartRequest(s) {
			t.Fatalf("terminal service %s must not accept part requests", s)
		}
	}
}
