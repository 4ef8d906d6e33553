package appliance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Appliance struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	ClientID     string    `json:"clientId"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	Category     string    `json:"category,omitempty"` // fridge | washer | oven | ...
	CreatedAt    time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, tenantID, clientID, brand, model, serial, category string) (*Appliance, error) {
	const q = `
INSERT INTO appliances (tenant_id, client_id, brand, model, serial_number, category)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, tenant_id, client_id, brand, model, COALESCE(serial_number,''), COALESCE(category,''), created_at
`
	var a Appliance
	if err := r.db.QueryRow(ctx, q, tenantID, clientID, brand, model, serial, category).Scan(
		&a.ID, &a.TenantID, &a.ClientID, &a.Brand, &a.Model, &a.SerialNumber, &a.Category, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Appliance, error) {
	const q = `
SELECT id, tenant_id, client_id, brand, model, COALESCE(serial_number,''), COALESCE(category,''), created_at
FROM appliances
WHERE tenant_id = $1 AND id = $2
`
	var a Appliance
	if err := r.db.QueryRow(ctx, q, tenantID, id).Scan(
		&a.ID, &a.TenantID, &a.ClientID, &a.Brand, &a.Model, &a.SerialNumber, &a.Category, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID, clientID string) ([]Appliance, error) {
	const q = `
SELECT id, tenant_id, client_id, brand, model, COALESCE(serial_number,''), COALESCE(category,''), created_at
FROM appliances
WHERE tenant_id = $1 AND ($2 = '' OR client_id = $2)
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appliance
	for rows.Next() {
		var a Appliance
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ClientID, &a.Brand, &a.Model, &a.SerialNumber, &a.Category, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
