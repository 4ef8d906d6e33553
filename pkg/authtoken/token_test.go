package authtoken

import (
	"testing"
	"time"
)

func TestVerify_RoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := Sign("tenant-1", RoleTechnician, "Maria", "servicedesk", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	vs, err := Verify(tok, "servicedesk", "secret", now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if vs.TenantID != "tenant-1" {
		t.Fatalf("expected tenant-1, got %q", vs.TenantID)
	}
	if vs.Role != RoleTechnician {
		t.Fatalf("expected technician role, got %q", vs.Role)
	}
	if vs.Actor != "Maria" {
		t.Fatalf("expected actor Maria, got %q", vs.Actor)
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Now()
	tok, err := Sign("tenant-1", RoleAdmin, "", "", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(tok, "", "secret", now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestVerify_AudienceMismatch(t *testing.T) {
	now := time.Now()
	tok, err := Sign("tenant-1", RoleAdmin, "", "other-app", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(tok, "servicedesk", "secret", now); err == nil {
		t.Fatalf("expected audience mismatch error")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := Sign("tenant-1", RoleAdmin, "", "", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(tok, "", "not-the-secret", now); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerify_UnknownRole(t *testing.T) {
	now := time.Now()
	tok, err := Sign("tenant-1", "intern", "", "", "secret", time.Hour, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(tok, "", "secret", now); err == nil {
		t.Fatalf("expected unknown role error")
	}
}
