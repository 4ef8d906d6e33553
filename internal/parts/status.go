package parts

import "fmt"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderReceived   OrderStatus = "received"
	OrderAllocated  OrderStatus = "allocated"
	OrderDispatched OrderStatus = "dispatched"
	OrderInstalled  OrderStatus = "installed"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderReceived, OrderAllocated, OrderDispatched, OrderInstalled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status: %s", s)
	}
}

// statusRank encodes the receiving pipeline order.
var statusRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderReceived:   1,
	OrderAllocated:  2,
	OrderDispatched: 3,
	OrderInstalled:  4,
}

type TransitionError struct {
	Code    string
	Message string
}

func (e TransitionError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Advance validates an order status change. The lifecycle is monotonic:
// forward moves are allowed, including skips (a part fitted straight from
// van stock goes pending -> installed in one call); repeating the current
// status is an idempotent no-op; backward moves are rejected and only
// reachable through an admin override.
func Advance(from, to OrderStatus) (changed bool, err error) {
	fr, ok := statusRank[from]
	if !ok {
		return false, TransitionError{Code: "VALIDATION_FAILED", Message: fmt.Sprintf("unknown order status: %s", from)}
	}
	tr, ok := statusRank[to]
	if !ok {
		return false, TransitionError{Code: "VALIDATION_FAILED", Message: fmt.Sprintf("unknown order status: %s", to)}
	}
	if tr == fr {
		return false, nil
	}
	if tr < fr {
		return false, TransitionError{
			Code:    "INVALID_STATE_TRANSITION",
			Message: fmt.Sprintf("order status cannot move backward from %s to %s", from, to),
		}
	}
	return true, nil
}

const (
	UrgencyLow      = "low"
	UrgencyNormal   = "normal"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// ParseUrgency normalizes the request field; empty defaults to normal.
func ParseUrgency(s string) (string, error) {
	switch s {
	case "":
		return UrgencyNormal, nil
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return s, nil
	default:
		return "", fmt.Errorf("unknown urgency: %s", s)
	}
}
