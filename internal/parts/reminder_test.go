package parts

import (
	"strings"
	"testing"
	"time"
)

func TestDigestBody_GroupsByTenant(t *testing.T) {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	stale := []StaleOrder{
		{TenantName: "Acme Repairs", PartName: "Drum belt", Quantity: 1, Urgency: "high", ServiceID: "svc-1", CreatedAt: day},
		{TenantName: "FixitCo", PartName: "Thermostat", Quantity: 2, Urgency: "normal", ServiceID: "svc-2", CreatedAt: day},
		{TenantName: "Acme Repairs", PartName: "Door seal", Quantity: 1, Urgency: "critical", ServiceID: "svc-3", CreatedAt: day},
	}

	body := DigestBody(stale, 48*time.Hour)

	acme := strings.Index(body, "Acme Repairs:")
	fixit := strings.Index(body, "FixitCo:")
	if acme == -1 || fixit == -1 {
		t.Fatalf("expected both tenant headers, got:\n%s", body)
	}
	if acme > fixit {
		t.Fatalf("expected first-seen tenant listed first, got:\n%s", body)
	}
	for _, want := range []string{"1x Drum belt (high) for service svc-1", "2x Thermostat (normal) for service svc-2", "requested 2026-03-02"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in digest:\n%s", want, body)
		}
	}
}
