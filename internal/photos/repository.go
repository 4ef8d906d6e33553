package photos

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Photo struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"serviceId"`
	ObjectKey  string    `json:"-"`
	Kind       string    `json:"kind"` // before | after | diagnosis | other
	Caption    string    `json:"caption,omitempty"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`

	URL string `json:"url,omitempty"` // presigned, filled at read time
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, serviceID, objectKey, kind, caption, uploadedBy string) (*Photo, error) {
	const q = `
INSERT INTO service_photos (service_id, object_key, kind, caption, uploaded_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, service_id, object_key, kind, COALESCE(caption,''), uploaded_by, created_at
`
	var p Photo
	if err := r.db.QueryRow(ctx, q, serviceID, objectKey, kind, caption, uploadedBy).Scan(
		&p.ID, &p.ServiceID, &p.ObjectKey, &p.Kind, &p.Caption, &p.UploadedBy, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByService(ctx context.Context, serviceID string) ([]Photo, error) {
	const q = `
SELECT id, service_id, object_key, kind, COALESCE(caption,''), uploaded_by, created_at
FROM service_photos
WHERE service_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.Query(ctx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.ObjectKey, &p.Kind, &p.Caption, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
