package tenant

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Upsert(ctx context.Context, name, apiKey string) (*Tenant, error) {
	const q = `
INSERT INTO tenants (name, api_key, status)
VALUES ($1, $2, 'active')
ON CONFLICT (api_key) DO UPDATE SET
  name = EXCLUDED.name,
  status = 'active'
RETURNING id, name, api_key, COALESCE(status,'active'), created_at
`
	t := &Tenant{}
	if err := r.db.QueryRow(ctx, q, name, apiKey).Scan(
		&t.ID, &t.Name, &t.APIKey, &t.Status, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) FindByAPIKey(ctx context.Context, apiKey string) (*Tenant, error) {
	const q = `
SELECT id, name, api_key, COALESCE(status,'active'), created_at
FROM tenants
WHERE api_key = $1
`
	t := &Tenant{}
	if err := r.db.QueryRow(ctx, q, apiKey).Scan(
		&t.ID, &t.Name, &t.APIKey, &t.Status, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Tenant, error) {
	const q = `
SELECT id, name, api_key, COALESCE(status,'active'), created_at
FROM tenants
WHERE id = $1
`
	t := &Tenant{}
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.APIKey, &t.Status, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}
