package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicedesk/internal/api"
	"servicedesk/internal/appliance"
	"servicedesk/internal/audit"
	"servicedesk/internal/client"
	"servicedesk/internal/events"
	"servicedesk/internal/notify"
	"servicedesk/internal/technician"
	"servicedesk/pkg/config"
	"servicedesk/pkg/db"
)

type Handlers struct {
	Cfg        config.Config
	DB         *pgxpool.Pool
	Services   *Repository
	Clients    *client.Repository
	Appliances *appliance.Repository
	Techs      *technician.Repository
	Notify     *notify.Dispatcher
}

type CreateServiceRequest struct {
	ClientID    string `json:"clientId"`
	ApplianceID string `json:"applianceId"`
	Description string `json:"description"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())

	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ApplianceID = strings.TrimSpace(req.ApplianceID)
	if req.ClientID == "" || req.ApplianceID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "clientId and applianceId are required")
		return
	}

	if _, err := h.Clients.GetByID(r.Context(), t.ID, req.ClientID); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown client")
		return
	}
	app, err := h.Appliances.GetByID(r.Context(), t.ID, req.ApplianceID)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown appliance")
		return
	}
	if app.ClientID != req.ClientID {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "appliance does not belong to client")
		return
	}

	var created *Service
	portalToken := uuid.NewString()
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		created, err = Create(r.Context(), tx, t.ID, req.ClientID, req.ApplianceID, strings.TrimSpace(req.Description))
		if err != nil {
			return err
		}
		const tokq = `
INSERT INTO portal_tokens (service_id, token, expires_at)
VALUES ($1, $2, NOW() + INTERVAL '90 days')
`
		if _, err := tx.Exec(r.Context(), tokq, created.ID, portalToken); err != nil {
			return err
		}
		_ = events.Insert(r.Context(), tx, created.ID, events.TypeServiceCreated, "Service request opened", actor.Name, time.Now(), nil)
		svcID := created.ID
		return audit.Insert(r.Context(), tx, t.ID, &svcID, "SERVICE_CREATED", actor.Name, map[string]any{"clientId": req.ClientID})
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service":   created,
		"portalUrl": h.portalURL(portalToken),
	})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}

	var status Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s, err := ParseStatus(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status filter")
			return
		}
		status = s
	}

	items, err := h.Services.ListByTenant(r.Context(), t.ID, status)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (h Handlers) WaitingForParts(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	items, err := h.Services.ListWaitingParts(r.Context(), t.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	id := chi.URLParam(r, "id")

	svc, err := h.Services.GetByID(r.Context(), t.ID, id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}
	evts, err := events.ListByService(r.Context(), h.DB, svc.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	orders, err := h.orderSummaries(r, svc.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	photos, err := h.photoSummaries(r, svc.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	var token string
	const tokq = `
SELECT token FROM portal_tokens
WHERE service_id = $1 AND revoked_at IS NULL AND expires_at > NOW()
ORDER BY created_at DESC
LIMIT 1
`
	_ = h.DB.QueryRow(r.Context(), tokq, svc.ID).Scan(&token)

	resp := map[string]any{
		"service": svc,
		"events":  evts,
		"orders":  orders,
		"photos":  photos,
	}
	if token != "" {
		resp["portalUrl"] = h.portalURL(token)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.Services.GetByID(r.Context(), t.ID, id); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}
	evts, err := events.ListByService(r.Context(), h.DB, id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": evts})
}

type ScheduleRequest struct {
	ScheduledDate time.Time `json:"scheduledDate"`
}

func (h Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ScheduledDate.IsZero() {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "scheduledDate is required")
		return
	}

	var updated *Service
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		svc, err := GetForUpdate(r.Context(), tx, t.ID, id)
		if err != nil {
			return err
		}
		if !CanTransition(svc.Status, StatusScheduled) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION",
				fmt.Sprintf("cannot schedule a %s service", svc.Status))
			return pgx.ErrTxCommitRollback
		}
		if err := SetScheduled(r.Context(), tx, t.ID, svc.ID, req.ScheduledDate); err != nil {
			return err
		}
		_ = events.Insert(r.Context(), tx, svc.ID, events.TypeServiceScheduled,
			"Visit scheduled for "+req.ScheduledDate.Format("2006-01-02 15:04"), actor.Name, time.Now(),
			map[string]any{"scheduledDate": req.ScheduledDate})
		svcID := svc.ID
		if err := audit.Insert(r.Context(), tx, t.ID, &svcID, "SERVICE_SCHEDULED", actor.Name, nil); err != nil {
			return err
		}
		updated, err = GetForUpdate(r.Context(), tx, t.ID, svc.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	h.notifyClient(r, t.ID, updated, "appointment:"+updated.ID,
		fmt.Sprintf("[%s] Your appliance service is booked for %s.", t.Name, req.ScheduledDate.Format("Mon 2 Jan 15:04")))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

type AssignTechnicianRequest struct {
	TechnicianID string `json:"technicianId"`
}

// AssignTechnician sets the responsible technician. On a pending or scheduled
// service this also moves the job to assigned; on an already-running job only
// the person changes. Completed and cancelled jobs need an admin override.
func (h Handlers) AssignTechnician(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req AssignTechnicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TechnicianID) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "technicianId is required")
		return
	}
	tech, err := h.Techs.GetByID(r.Context(), t.ID, strings.TrimSpace(req.TechnicianID))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown technician")
		return
	}
	if !tech.Active {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "technician is inactive")
		return
	}

	var updated *Service
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		svc, err := GetForUpdate(r.Context(), tx, t.ID, id)
		if err != nil {
			return err
		}
		if IsTerminal(svc.Status) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION",
				fmt.Sprintf("cannot assign a technician to a %s service", svc.Status))
			return pgx.ErrTxCommitRollback
		}
		next := svc.Status
		if svc.Status == StatusPending || svc.Status == StatusScheduled {
			next = StatusAssigned
		}
		if err := SetTechnician(r.Context(), tx, t.ID, svc.ID, tech.ID, next); err != nil {
			return err
		}
		_ = events.Insert(r.Context(), tx, svc.ID, events.TypeTechAssigned, "Assigned to "+tech.Name, actor.Name, time.Now(),
			map[string]any{"technicianId": tech.ID})
		svcID := svc.ID
		if err := audit.Insert(r.Context(), tx, t.ID, &svcID, "TECHNICIAN_ASSIGNED", actor.Name,
			map[string]any{"technicianId": tech.ID}); err != nil {
			return err
		}
		updated, err = GetForUpdate(r.Context(), tx, t.ID, svc.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	if tech.Phone != "" {
		h.Notify.Async("assigned:"+updated.ID+":"+tech.ID, notify.Message{
			TenantID:  t.ID,
			ServiceID: updated.ID,
			Channel:   notify.ChannelSMS,
			Recipient: tech.Phone,
			Body:      fmt.Sprintf("[%s] New job assigned: %s", t.Name, updated.Description),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func (h Handlers) Start(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, StatusInProgress, "Work started", "SERVICE_STARTED", "")
}

type CompleteRequest struct {
	Notes string `json:"notes"`
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	h.changeStatus(w, r, StatusCompleted, "Work completed", "SERVICE_COMPLETED", strings.TrimSpace(req.Notes))
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	summary := "Service cancelled"
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		summary += ": " + reason
	}
	h.changeStatus(w, r, StatusCancelled, summary, "SERVICE_CANCELLED", "")
}

func (h Handlers) changeStatus(w http.ResponseWriter, r *http.Request, next Status, summary, auditAction, notes string) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var updated *Service
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		svc, err := GetForUpdate(r.Context(), tx, t.ID, id)
		if err != nil {
			return err
		}
		if !CanTransition(svc.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION",
				fmt.Sprintf("cannot move a %s service to %s", svc.Status, next))
			return pgx.ErrTxCommitRollback
		}
		if err := AppendTechnicianNotes(r.Context(), tx, t.ID, svc.ID, notes); err != nil {
			return err
		}
		if err := UpdateStatus(r.Context(), tx, t.ID, svc.ID, next); err != nil {
			return err
		}
		_ = events.Insert(r.Context(), tx, svc.ID, events.TypeStatusChanged, summary, actor.Name, time.Now(),
			map[string]any{"from": svc.Status, "to": next})
		svcID := svc.ID
		if err := audit.Insert(r.Context(), tx, t.ID, &svcID, auditAction, actor.Name,
			map[string]any{"from": svc.Status, "to": next}); err != nil {
			return err
		}
		updated, err = GetForUpdate(r.Context(), tx, t.ID, svc.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	if next == StatusCompleted {
		h.notifyClient(r, t.ID, updated, "completed:"+updated.ID,
			fmt.Sprintf("[%s] Your appliance service is complete. Thanks for your business.", t.Name))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

// notifyClient sends the service's client an SMS plus an email when we have
// an address on file.
func (h Handlers) notifyClient(r *http.Request, tenantID string, svc *Service, dedupeKey, body string) {
	c, err := h.Clients.GetByID(r.Context(), tenantID, svc.ClientID)
	if err != nil {
		return
	}
	var msgs []notify.Message
	if c.Phone != "" {
		msgs = append(msgs, notify.Message{
			TenantID: tenantID, ServiceID: svc.ID,
			Channel: notify.ChannelSMS, Recipient: c.Phone, Body: body,
		})
	}
	if c.Email != "" {
		msgs = append(msgs, notify.Message{
			TenantID: tenantID, ServiceID: svc.ID,
			Channel: notify.ChannelEmail, Recipient: c.Email, Subject: "Service update", Body: body,
		})
	}
	if len(msgs) > 0 {
		h.Notify.Async(dedupeKey, msgs...)
	}
}

// OrderSummary is the slice of a spare-part order the service detail view
// shows; the parts endpoints own the full record.
type OrderSummary struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	PartName string `json:"partName"`
	Quantity int    `json:"quantity"`
	Urgency  string `json:"urgency"`
}

func (h Handlers) orderSummaries(r *http.Request, serviceID string) ([]OrderSummary, error) {
	const q = `
SELECT id, status, part_name, quantity, urgency
FROM spare_part_orders
WHERE service_id = $1
ORDER BY created_at ASC
`
	rows, err := h.DB.Query(r.Context(), q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderSummary{}
	for rows.Next() {
		var o OrderSummary
		if err := rows.Scan(&o.ID, &o.Status, &o.PartName, &o.Quantity, &o.Urgency); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type PhotoSummary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h Handlers) photoSummaries(r *http.Request, serviceID string) ([]PhotoSummary, error) {
	const q = `
SELECT id, kind, uploaded_by, created_at
FROM service_photos
WHERE service_id = $1
ORDER BY created_at ASC
`
	rows, err := h.DB.Query(r.Context(), q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PhotoSummary{}
	for rows.Next() {
		var p PhotoSummary
		if err := rows.Scan(&p.ID, &p.Kind, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (h Handlers) portalURL(token string) string {
	base := strings.TrimRight(h.Cfg.PortalBaseURL, "/")
	if base == "" {
		return token
	}
	return base + "/p/" + token
}
