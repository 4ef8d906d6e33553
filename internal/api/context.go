package api

import (
	"context"

	"servicedesk/internal/tenant"
)

type ctxKey string

const (
	ctxKeyTenant ctxKey = "tenant"
	ctxKeyActor  ctxKey = "actor"
)

// Actor identifies who is performing the request, for audit rows and
// role-gated routes.
type Actor struct {
	Role string // admin | technician
	Name string
}

func WithTenant(ctx context.Context, t *tenant.Tenant) context.Context {
	return context.WithValue(ctx, ctxKeyTenant, t)
}

func TenantFromContext(ctx context.Context) *tenant.Tenant {
	v := ctx.Value(ctxKeyTenant)
	if v == nil {
		return nil
	}
	t, _ := v.(*tenant.Tenant)
	return t
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) Actor {
	v := ctx.Value(ctxKeyActor)
	if v == nil {
		return Actor{}
	}
	a, _ := v.(Actor)
	return a
}
