package parts

import (
	"testing"

	"servicedesk/internal/service"
)

func TestNextServiceStatus_LastOpenOrderReceivedUnparksService(t *testing.T) {
	// The only order for the service just moved pending -> received.
	got := NextServiceStatus(service.StatusWaitingParts, []OrderStatus{OrderReceived})
	if got != service.StatusAssigned {
		t.Fatalf("expected assigned, got %s", got)
	}
}

func TestNextServiceStatus_RemainingPendingOrderKeepsWaiting(t *testing.T) {
	got := NextServiceStatus(service.StatusWaitingParts, []OrderStatus{OrderReceived, OrderPending})
	if got != service.StatusWaitingParts {
		t.Fatalf("expected waiting_parts, got %s", got)
	}
}

func TestNextServiceStatus_AllOrdersPastPending(t *testing.T) {
	got := NextServiceStatus(service.StatusWaitingParts, []OrderStatus{OrderInstalled, OrderDispatched, OrderAllocated})
	if got != service.StatusAssigned {
		t.Fatalf("expected assigned, got %s", got)
	}
}

func TestNextServiceStatus_NoOrders(t *testing.T) {
	// Defensive: a waiting service with no orders at all is un-parked.
	got := NextServiceStatus(service.StatusWaitingParts, nil)
	if got != service.StatusAssigned {
		t.Fatalf("expected assigned, got %s", got)
	}
}

func TestNextServiceStatus_NonWaitingStatusesPassThrough(t *testing.T) {
	for _, s := range []service.Status{
		service.StatusPending, service.StatusScheduled, service.StatusAssigned,
		service.StatusInProgress, service.StatusCompleted, service.StatusCancelled,
	} {
		if got := NextServiceStatus(s, []OrderStatus{OrderPending}); got != s {
			t.Fatalf("expected %s to pass through, got %s", s, got)
		}
	}
}

func TestNextServiceStatus_IdempotentOnRepeatedReceive(t *testing.T) {
	// Receiving an already-received order re-runs the resolver; the answer
	// must not flip back and forth.
	statuses := []OrderStatus{OrderReceived}
	first := NextServiceStatus(service.StatusWaitingParts, statuses)
	second := NextServiceStatus(first, statuses)
	if first != service.StatusAssigned || second != service.StatusAssigned {
		t.Fatalf("expected stable assigned, got %s then %s", first, second)
	}
}
