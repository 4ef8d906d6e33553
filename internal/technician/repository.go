package technician

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Technician struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, tenantID, name, phone, email, specialty string) (*Technician, error) {
	const q = `
INSERT INTO technicians (tenant_id, name, phone, email, specialty, active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING id, tenant_id, name, phone, COALESCE(email,''), COALESCE(specialty,''), active, created_at
`
	var t Technician
	if err := r.db.QueryRow(ctx, q, tenantID, name, phone, email, specialty).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Phone, &t.Email, &t.Specialty, &t.Active, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Technician, error) {
	const q = `
SELECT id, tenant_id, name, phone, COALESCE(email,''), COALESCE(specialty,''), active, created_at
FROM technicians
WHERE tenant_id = $1 AND id = $2
`
	var t Technician
	if err := r.db.QueryRow(ctx, q, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Phone, &t.Email, &t.Specialty, &t.Active, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID string) ([]Technician, error) {
	const q = `
SELECT id, tenant_id, name, phone, COALESCE(email,''), COALESCE(specialty,''), active, created_at
FROM technicians
WHERE tenant_id = $1
ORDER BY name ASC
`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Technician
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Phone, &t.Email, &t.Specialty, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
