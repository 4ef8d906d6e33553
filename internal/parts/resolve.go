package parts

import "servicedesk/internal/service"

// NextServiceStatus is the single place that decides whether a service stays
// parked on parts. Every mutation site that can change an order's status runs
// this against the full set of sibling orders, inside the same transaction as
// the order write.
//
// A service waits only while at least one order has not yet been received;
// once nothing is left in pending, the technician can resume and the service
// returns to assigned. Services not currently parked pass through untouched.
func NextServiceStatus(current service.Status, orderStatuses []OrderStatus) service.Status {
	if current != service.StatusWaitingParts {
		return current
	}
	for _, s := range orderStatuses {
		if s == OrderPending {
			return service.StatusWaitingParts
		}
	}
	return service.StatusAssigned
}
