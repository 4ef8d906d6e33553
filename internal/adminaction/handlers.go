// Package adminaction is the escape hatch for states the normal workflow
// refuses to leave. Every override requires a reason and leaves an audit,
// timeline and admin_actions row.
package adminaction

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicedesk/internal/api"
	"servicedesk/internal/audit"
	"servicedesk/internal/events"
	"servicedesk/internal/parts"
	"servicedesk/internal/service"
	"servicedesk/internal/technician"
	"servicedesk/pkg/db"
)

type Handlers struct {
	DB    *pgxpool.Pool
	Techs *technician.Repository
}

type OverrideRequest struct {
	ActionType   string `json:"actionType"`
	Reason       string `json:"reason"`
	TechnicianID string `json:"technicianId,omitempty"`
	OrderID      string `json:"orderId,omitempty"`
	PartStatus   string `json:"partStatus,omitempty"`
}

func (h Handlers) Override(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		api.WriteError(w, http.StatusBadRequest, "OVERRIDE_REASON_REQUIRED", "reason is required")
		return
	}

	action := ActionType(req.ActionType)
	switch action {
	case ActionReopenService, ActionReassignCompletedService, ActionOverridePartStatus:
	default:
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid actionType")
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		svc, err := service.GetForUpdate(r.Context(), tx, t.ID, id)
		if err != nil {
			return err
		}

		now := time.Now()
		svcID := svc.ID
		meta := map[string]any{"reason": req.Reason}

		switch action {
		case ActionReopenService:
			if !service.IsTerminal(svc.Status) {
				api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "service is not completed or cancelled")
				return pgx.ErrTxCommitRollback
			}
			// Back to the technician's board if one is still attached,
			// otherwise back to the intake queue.
			next := service.StatusPending
			if svc.TechnicianID != nil {
				next = service.StatusAssigned
			}
			if err := service.UpdateStatus(r.Context(), tx, t.ID, svc.ID, next); err != nil {
				return err
			}
			meta["from"] = svc.Status
			meta["to"] = next

		case ActionReassignCompletedService:
			if svc.Status != service.StatusCompleted {
				api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "service is not completed")
				return pgx.ErrTxCommitRollback
			}
			techID := strings.TrimSpace(req.TechnicianID)
			if techID == "" {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "technicianId is required for REASSIGN_COMPLETED_SERVICE")
				return pgx.ErrTxCommitRollback
			}
			tech, err := h.Techs.GetByID(r.Context(), t.ID, techID)
			if err != nil {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown technician")
				return pgx.ErrTxCommitRollback
			}
			// Status stays completed; only the name on the record changes.
			if err := service.SetTechnician(r.Context(), tx, t.ID, svc.ID, tech.ID, svc.Status); err != nil {
				return err
			}
			meta["technicianId"] = tech.ID

		case ActionOverridePartStatus:
			orderID := strings.TrimSpace(req.OrderID)
			if orderID == "" {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "orderId is required for OVERRIDE_PART_STATUS")
				return pgx.ErrTxCommitRollback
			}
			next, perr := parts.ParseOrderStatus(strings.TrimSpace(req.PartStatus))
			if perr != nil {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid partStatus")
				return pgx.ErrTxCommitRollback
			}
			ord, err := parts.GetForUpdate(r.Context(), tx, t.ID, orderID)
			if err != nil || ord.ServiceID != svc.ID {
				api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
				return pgx.ErrTxCommitRollback
			}
			// Overrides skip the monotonic check: this is how a mis-click
			// gets walked back.
			if err := parts.UpdateStatus(r.Context(), tx, t.ID, ord.ID, next); err != nil {
				return err
			}
			statuses, err := parts.StatusesByService(r.Context(), tx, svc.ID)
			if err != nil {
				return err
			}
			if nextSvc := parts.NextServiceStatus(svc.Status, statuses); nextSvc != svc.Status {
				if err := service.UpdateStatus(r.Context(), tx, t.ID, svc.ID, nextSvc); err != nil {
					return err
				}
			}
			meta["orderId"] = ord.ID
			meta["from"] = ord.Status
			meta["to"] = next
		}

		_ = Insert(r.Context(), tx, svc.ID, action, req.Reason, actor.Name, meta)
		_ = audit.Insert(r.Context(), tx, t.ID, &svcID, "ADMIN_OVERRIDE", actor.Name,
			map[string]any{"actionType": action, "reason": req.Reason})
		_ = events.Insert(r.Context(), tx, svc.ID, events.TypeAdminOverride, "Admin override applied", actor.Name, now,
			map[string]any{"actionType": action, "reason": req.Reason})
		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"applied": string(action)})
}
