package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is a persisted notification attempt. Rows are kept for the admin
// dashboard and updated by delivery-report webhooks.
type Record struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenantId"`
	ServiceID         *string   `json:"serviceId,omitempty"`
	Channel           Channel   `json:"channel"`
	Recipient         string    `json:"recipient"`
	Subject           string    `json:"subject,omitempty"`
	Body              string    `json:"body"`
	Status            string    `json:"status"` // queued | sent | failed | delivered
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, msg Message) (string, error) {
	var serviceID, tenantID *string
	if msg.ServiceID != "" {
		serviceID = &msg.ServiceID
	}
	// Cross-tenant digests carry no tenant id.
	if msg.TenantID != "" {
		tenantID = &msg.TenantID
	}
	const q = `
INSERT INTO notifications (tenant_id, service_id, channel, recipient, subject, body, status)
VALUES ($1, $2, $3, $4, $5, $6, 'queued')
RETURNING id
`
	var id string
	if err := r.db.QueryRow(ctx, q, tenantID, serviceID, string(msg.Channel), msg.Recipient, msg.Subject, msg.Body).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) MarkSent(ctx context.Context, id, providerMessageID string) error {
	const q = `
UPDATE notifications
SET status = 'sent', provider_message_id = $1, updated_at = NOW()
WHERE id = $2
`
	_, err := r.db.Exec(ctx, q, providerMessageID, id)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id, errMsg string) error {
	const q = `
UPDATE notifications
SET status = 'failed', error = $1, updated_at = NOW()
WHERE id = $2
`
	_, err := r.db.Exec(ctx, q, errMsg, id)
	return err
}

// MarkDelivery applies a provider delivery report. Returns the number of
// rows updated; zero means the provider id is unknown to us.
func (r *Repository) MarkDelivery(ctx context.Context, providerMessageID, status string) (int64, error) {
	const q = `
UPDATE notifications
SET status = $1, updated_at = NOW()
WHERE provider_message_id = $2 AND status IN ('sent', 'delivered')
`
	tag, err := r.db.Exec(ctx, q, status, providerMessageID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListByService(ctx context.Context, tenantID, serviceID string) ([]Record, error) {
	const q = `
SELECT id, tenant_id, service_id, channel, recipient, COALESCE(subject,''), body,
       status, COALESCE(provider_message_id,''), COALESCE(error,''), created_at, updated_at
FROM notifications
WHERE tenant_id = $1 AND service_id = $2
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, tenantID, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.ServiceID, &rec.Channel, &rec.Recipient, &rec.Subject, &rec.Body,
			&rec.Status, &rec.ProviderMessageID, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
