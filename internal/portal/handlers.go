// Package portal serves the client-facing tracking page. Access is by
// opaque token only; there is no login and nothing here mutates state.
package portal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicedesk/internal/api"
	"servicedesk/internal/events"
)

type Handlers struct {
	DB *pgxpool.Pool
}

// View is the tracking page payload: status, appliance, who is coming and
// when. Internal notes and part costs stay out of it.
func (h Handlers) View(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing token")
		return
	}

	now := time.Now()
	const q = `
SELECT s.id, s.status, COALESCE(s.description,''),
       s.scheduled_date, s.completed_date,
       c.name, a.brand || ' ' || a.model,
       COALESCE(tech.name,''),
       tn.name
FROM portal_tokens t
JOIN services s ON s.id = t.service_id
JOIN clients c ON c.id = s.client_id
JOIN appliances a ON a.id = s.appliance_id
JOIN tenants tn ON tn.id = s.tenant_id
LEFT JOIN technicians tech ON tech.id = s.technician_id
WHERE t.token = $1 AND t.revoked_at IS NULL AND t.expires_at > $2
`
	var (
		serviceID, status, description string
		scheduledDate, completedDate   *time.Time
		clientName, applianceLabel     string
		technicianName, businessName   string
	)
	if err := h.DB.QueryRow(r.Context(), q, token, now).Scan(
		&serviceID, &status, &description,
		&scheduledDate, &completedDate,
		&clientName, &applianceLabel,
		&technicianName,
		&businessName,
	); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "portal link not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service": map[string]any{
			"id":            serviceID,
			"status":        status,
			"description":   description,
			"scheduledDate": scheduledDate,
			"completedDate": completedDate,
			"appliance":     applianceLabel,
			"technician":    technicianName,
		},
		"client":   map[string]any{"name": clientName},
		"business": map[string]any{"name": businessName},
	})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing token")
		return
	}

	now := time.Now()
	const qTok = `
SELECT service_id FROM portal_tokens
WHERE token = $1 AND revoked_at IS NULL AND expires_at > $2
`
	var serviceID string
	if err := h.DB.QueryRow(r.Context(), qTok, token, now).Scan(&serviceID); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "portal link not found")
		return
	}

	evts, err := events.ListByService(r.Context(), h.DB, serviceID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": evts})
}
