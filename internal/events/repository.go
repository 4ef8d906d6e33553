package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// Event types recorded on the service timeline.
const (
	TypeServiceCreated   = "SERVICE_CREATED"
	TypeServiceScheduled = "SERVICE_SCHEDULED"
	TypeStatusChanged    = "STATUS_CHANGED"
	TypeTechAssigned     = "TECHNICIAN_ASSIGNED"
	TypePartRequested    = "PART_REQUESTED"
	TypePartUpdated      = "PART_UPDATED"
	TypeAdminOverride    = "ADMIN_OVERRIDE"
	TypePhotoUploaded    = "PHOTO_UPLOADED"
)

func Insert(ctx context.Context, tx pgx.Tx, serviceID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO service_events (service_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, serviceID, eventType, summary, actor, occurredAt, s)
	return err
}
