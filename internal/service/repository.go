package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenantId"`
	ClientID        string     `json:"clientId"`
	ApplianceID     string     `json:"applianceId"`
	TechnicianID    *string    `json:"technicianId,omitempty"`
	Status          Status     `json:"status"`
	Description     string     `json:"description"`
	TechnicianNotes string     `json:"technicianNotes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ScheduledDate   *time.Time `json:"scheduledDate,omitempty"`
	CompletedDate   *time.Time `json:"completedDate,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ListItem joins the names the dashboard shows next to each job.
type ListItem struct {
	ID             string     `json:"id"`
	Status         Status     `json:"status"`
	Description    string     `json:"description"`
	ClientID       string     `json:"clientId"`
	ClientName     string     `json:"clientName"`
	ApplianceID    string     `json:"applianceId"`
	ApplianceLabel string     `json:"applianceLabel"`
	TechnicianID   *string    `json:"technicianId,omitempty"`
	TechnicianName string     `json:"technicianName,omitempty"`
	PendingParts   int        `json:"pendingParts"`
	CreatedAt      time.Time  `json:"createdAt"`
	ScheduledDate  *time.Time `json:"scheduledDate,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

const serviceColumns = `
id, tenant_id, client_id, appliance_id, technician_id, status,
COALESCE(description,''), COALESCE(technician_notes,''),
created_at, scheduled_date, completed_date, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create runs in a transaction so the portal token and the opening timeline
// event commit together with the row.
func Create(ctx context.Context, tx pgx.Tx, tenantID, clientID, applianceID, description string) (*Service, error) {
	const q = `
INSERT INTO services (tenant_id, client_id, appliance_id, status, description)
VALUES ($1, $2, $3, 'pending', $4)
RETURNING ` + serviceColumns + `
`
	return scanService(tx.QueryRow(ctx, q, tenantID, clientID, applianceID, description))
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID string, status Status) ([]ListItem, error) {
	const q = `
SELECT s.id, s.status, COALESCE(s.description,''),
       s.client_id, c.name,
       s.appliance_id, a.brand || ' ' || a.model,
       s.technician_id, COALESCE(t.name,''),
       COUNT(o.id) FILTER (WHERE o.status = 'pending'),
       s.created_at, s.scheduled_date, s.updated_at
FROM services s
JOIN clients c ON c.id = s.client_id
JOIN appliances a ON a.id = s.appliance_id
LEFT JOIN technicians t ON t.id = s.technician_id
LEFT JOIN spare_part_orders o ON o.service_id = s.id
WHERE s.tenant_id = $1 AND ($2 = '' OR s.status = $2)
GROUP BY s.id, c.name, a.brand, a.model, t.name
ORDER BY s.created_at DESC
`
	rows, err := r.db.Query(ctx, q, tenantID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(
			&it.ID, &it.Status, &it.Description,
			&it.ClientID, &it.ClientName,
			&it.ApplianceID, &it.ApplianceLabel,
			&it.TechnicianID, &it.TechnicianName,
			&it.PendingParts,
			&it.CreatedAt, &it.ScheduledDate, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListWaitingParts is the admin "parked jobs" dashboard query.
func (r *Repository) ListWaitingParts(ctx context.Context, tenantID string) ([]ListItem, error) {
	return r.ListByTenant(ctx, tenantID, StatusWaitingParts)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, serviceID string) (*Service, error) {
	const q = `
SELECT ` + serviceColumns + `
FROM services
WHERE tenant_id = $1 AND id = $2
`
	return scanService(r.db.QueryRow(ctx, q, tenantID, serviceID))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, tenantID, serviceID string) (*Service, error) {
	const q = `
SELECT ` + serviceColumns + `
FROM services
WHERE tenant_id = $1 AND id = $2
FOR UPDATE
`
	return scanService(tx.QueryRow(ctx, q, tenantID, serviceID))
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, tenantID, serviceID string, next Status) error {
	const q = `
UPDATE services
SET status = $1,
    completed_date = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_date END,
    updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, string(next), tenantID, serviceID)
	return err
}

func SetTechnician(ctx context.Context, tx pgx.Tx, tenantID, serviceID, technicianID string, next Status) error {
	const q = `
UPDATE services
SET technician_id = $1, status = $2, updated_at = NOW()
WHERE tenant_id = $3 AND id = $4
`
	_, err := tx.Exec(ctx, q, technicianID, string(next), tenantID, serviceID)
	return err
}

func SetScheduled(ctx context.Context, tx pgx.Tx, tenantID, serviceID string, when time.Time) error {
	const q = `
UPDATE services
SET status = 'scheduled', scheduled_date = $1, updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, when, tenantID, serviceID)
	return err
}

func AppendTechnicianNotes(ctx context.Context, tx pgx.Tx, tenantID, serviceID, notes string) error {
	if notes == "" {
		return nil
	}
	const q = `
UPDATE services
SET technician_notes = CASE WHEN COALESCE(technician_notes,'') = '' THEN $1
                            ELSE technician_notes || E'\n' || $1 END,
    updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, notes, tenantID, serviceID)
	return err
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.ClientID, &s.ApplianceID, &s.TechnicianID, &s.Status,
		&s.Description, &s.TechnicianNotes,
		&s.CreatedAt, &s.ScheduledDate, &s.CompletedDate, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
