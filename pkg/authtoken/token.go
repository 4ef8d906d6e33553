package authtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	TenantID string `json:"tid"`
	Role     string `json:"role"`
	// Actor is the display name recorded in audit rows.
	Actor string `json:"actor,omitempty"`
}

type VerifiedSession struct {
	TenantID  string
	Role      string
	Actor     string
	ExpiresAt time.Time
}

// Verify validates a staff session token (JWT, HS256) signed with the shared
// session secret. Issuance happens outside this service.
func Verify(tokenString, audience, secret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Time validation
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}

	// Audience validation when configured.
	if audience != "" {
		if !audContains([]string(claims.RegisteredClaims.Audience), audience) {
			return nil, fmt.Errorf("audience mismatch")
		}
	}

	switch claims.Role {
	case RoleAdmin, RoleTechnician:
	default:
		return nil, fmt.Errorf("unknown role: %s", claims.Role)
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("missing tenant in token")
	}

	return &VerifiedSession{
		TenantID:  claims.TenantID,
		Role:      claims.Role,
		Actor:     claims.Actor,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Sign mints a session token. Used by the dev seeding tool and tests; the
// production issuer is a separate identity service.
func Sign(tenantID, role, actor, audience, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: tenantID,
		Role:     role,
		Actor:    actor,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

func audContains(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
