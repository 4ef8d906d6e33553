package service

import "fmt"

type Status string

const (
	StatusPending      Status = "pending"
	StatusScheduled    Status = "scheduled"
	StatusAssigned     Status = "assigned"
	StatusInProgress   Status = "in_progress"
	StatusWaitingParts Status = "waiting_parts"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusScheduled, StatusAssigned, StatusInProgress,
		StatusWaitingParts, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:      {StatusScheduled: true, StatusAssigned: true, StatusCancelled: true},
	StatusScheduled:    {StatusAssigned: true, StatusCancelled: true},
	StatusAssigned:     {StatusInProgress: true, StatusWaitingParts: true, StatusCompleted: true, StatusCancelled: true},
	StatusInProgress:   {StatusWaitingParts: true, StatusCompleted: true, StatusCancelled: true},
	StatusWaitingParts: {StatusAssigned: true, StatusCancelled: true},
	StatusCompleted:    {}, // only admin override can reopen
	StatusCancelled:    {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// IsTerminal reports whether no normal-path transition leaves s.
func IsTerminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}

// CanAcceptPartRequest reports whether a part may be requested while the
// service is in s. A service already parked on parts can take more requests.
func CanAcceptPartRequest(s Status) bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusWaitingParts
}
