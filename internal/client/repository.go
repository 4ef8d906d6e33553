package client

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Client struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, tenantID, name, phone, email, address string) (*Client, error) {
	const q = `
INSERT INTO clients (tenant_id, name, phone, email, address)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, tenant_id, name, phone, COALESCE(email,''), COALESCE(address,''), created_at
`
	var c Client
	if err := r.db.QueryRow(ctx, q, tenantID, name, phone, email, address).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Client, error) {
	const q = `
SELECT id, tenant_id, name, phone, COALESCE(email,''), COALESCE(address,''), created_at
FROM clients
WHERE tenant_id = $1 AND id = $2
`
	var c Client
	if err := r.db.QueryRow(ctx, q, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID string) ([]Client, error) {
	const q = `
SELECT id, tenant_id, name, phone, COALESCE(email,''), COALESCE(address,''), created_at
FROM clients
WHERE tenant_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
