package service

import "testing"

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "scheduled", "assigned", "in_progress", "waiting_parts", "completed", "cancelled"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("expected %q to parse, got %v", s, err)
		}
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCanTransition_NormalPath(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusAssigned, true},
		{StatusScheduled, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusWaitingParts, true},
		{StatusWaitingParts, StatusAssigned, true},
		{StatusAssigned, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusWaitingParts, StatusCancelled, true},

		{StatusPending, StatusInProgress, false},
		{StatusScheduled, StatusWaitingParts, false},
		{StatusWaitingParts, StatusCompleted, false},
		{StatusCompleted, StatusAssigned, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusCancelled) {
		t.Fatalf("completed and cancelled must be terminal")
	}
	if IsTerminal(StatusWaitingParts) {
		t.Fatalf("waiting_parts must not be terminal")
	}
}

func TestCanAcceptPartRequest(t *testing.T) {
	for _, s := range []Status{StatusAssigned, StatusInProgress, StatusWaitingParts} {
		if !CanAcceptPartRequest(s) {
			t.Fatalf("expected %s to accept part requests", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusScheduled, StatusCompleted, StatusCancelled} {
		if CanAcceptPartRequest(s) {
			t.Fatalf("expected %s to reject part requests", s)
		}
	}
}
