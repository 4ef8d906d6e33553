package parts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"servicedesk/internal/api"
	"servicedesk/internal/audit"
	"servicedesk/internal/events"
	"servicedesk/internal/notify"
	"servicedesk/internal/service"
	"servicedesk/internal/technician"
	"servicedesk/pkg/config"
	"servicedesk/pkg/db"
)

type Handlers struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Orders   *Repository
	Services *service.Repository
	Techs    *technician.Repository
	Notify   *notify.Dispatcher
}

type RequestPartRequest struct {
	ServiceID   string `json:"serviceId"`
	PartName    string `json:"partName"`
	PartNumber  string `json:"partNumber"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
}

// Request creates a pending order and parks the parent service on
// waiting_parts. Both writes plus the timeline rows land in one transaction.
func (h Handlers) Request(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())

	var req RequestPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.PartName = strings.TrimSpace(req.PartName)
	if req.ServiceID == "" || req.PartName == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "serviceId and partName are required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "quantity must be >= 1")
		return
	}
	urgency, err := ParseUrgency(strings.TrimSpace(req.Urgency))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid urgency")
		return
	}

	var created *Order
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		svc, err := service.GetForUpdate(r.Context(), tx, t.ID, req.ServiceID)
		if err != nil {
			return err
		}

		if !service.CanAcceptPartRequest(svc.Status) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION",
				fmt.Sprintf("cannot request parts while service is %s", svc.Status))
			return pgx.ErrTxCommitRollback
		}

		created, err = Insert(r.Context(), tx, t.ID, svc.ID, req.PartName, strings.TrimSpace(req.PartNumber), req.Quantity, urgency, strings.TrimSpace(req.Description))
		if err != nil {
			return err
		}

		now := time.Now()
		if svc.Status != service.StatusWaitingParts {
			if err := service.UpdateStatus(r.Context(), tx, t.ID, svc.ID, service.StatusWaitingParts); err != nil {
				return err
			}
			_ = events.Insert(r.Context(), tx, svc.ID, events.TypeStatusChanged, "Waiting for parts", actor.Name, now,
				map[string]any{"from": svc.Status, "to": service.StatusWaitingParts})
		}
		_ = events.Insert(r.Context(), tx, svc.ID, events.TypePartRequested, "Spare part requested: "+req.PartName, actor.Name, now,
			map[string]any{"orderId": created.ID, "quantity": req.Quantity, "urgency": urgency})
		svcID := svc.ID
		_ = audit.Insert(r.Context(), tx, t.ID, &svcID, "PART_REQUESTED", actor.Name,
			map[string]any{"orderId": created.ID, "partName": req.PartName})

		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	// Fire-and-forget admin heads-up; delivery failure never unwinds the order.
	body := fmt.Sprintf("[%s] Part requested: %dx %s (%s) for service %s", t.Name, created.Quantity, created.PartName, created.Urgency, created.ServiceID)
	h.Notify.Async("part-requested:"+created.ID,
		notify.Message{TenantID: t.ID, ServiceID: created.ServiceID, Channel: notify.ChannelSMS, Recipient: h.Cfg.Notify.AdminPhone, Body: body},
		notify.Message{TenantID: t.ID, ServiceID: created.ServiceID, Channel: notify.ChannelEmail, Recipient: h.Cfg.Notify.AdminEmail, Subject: "Spare part requested", Body: body},
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (h Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}

	items, err := h.Orders.ListPending(r.Context(), t.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (h Handlers) ListByService(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("serviceId"))
	if serviceID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing serviceId")
		return
	}

	items, err := h.Orders.ListByService(r.Context(), t.ID, serviceID)
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

	ord, err := h.Orders.GetByID(r.Context(), t.ID, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ord)
}

// Summary reports the parts bill for one service.
func (h Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	serviceID := chi.URLParam(r, "id")
	if serviceID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if _, err := h.Services.GetByID(r.Context(), t.ID, serviceID); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	lines, total, err := h.Orders.CostSummary(r.Context(), t.ID, serviceID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"serviceId": serviceID,
		"lines":     lines,
		"total":     total.StringFixed(2),
	})
}

type UpdateOrderRequest struct {
	Status            string `json:"status"`
	ActualCost        string `json:"actualCost"`
	SupplierName      string `json:"supplierName"`
	WarehouseLocation string `json:"warehouseLocation"`
	TechnicianID      string `json:"technicianId"`
	AdminNotes        string `json:"adminNotes"`
}

// Update is the general admin endpoint; the four inventory endpoints below
// are the stage-specific spellings of the same transition.
func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	next, err := ParseOrderStatus(strings.TrimSpace(req.Status))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}
	h.applyTransition(w, r, next, req)
}

func (h Handlers) Receive(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	h.applyTransition(w, r, OrderReceived, req)
}

func (h Handlers) Allocate(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if strings.TrimSpace(req.TechnicianID) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "technicianId is required")
		return
	}
	h.applyTransition(w, r, OrderAllocated, req)
}

func (h Handlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	h.applyTransition(w, r, OrderDispatched, req)
}

func (h Handlers) Install(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	h.applyTransition(w, r, OrderInstalled, req)
}

func (h Handlers) applyTransition(w http.ResponseWriter, r *http.Request, next OrderStatus, req UpdateOrderRequest) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())

	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var cost *decimal.Decimal
	if strings.TrimSpace(req.ActualCost) != "" {
		c, err := decimal.NewFromString(strings.TrimSpace(req.ActualCost))
		if err != nil || c.IsNegative() {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "actualCost must be a non-negative amount")
			return
		}
		cost = &c
	}

	var updated *Order
	var techMsgs []notify.Message
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		// Peek at the order to find its service, then lock parent first.
		// Every mutation takes the service lock before the order lock.
		peek, err := GetTx(r.Context(), tx, t.ID, orderID)
		if err != nil {
			return err
		}
		svc, err := service.GetForUpdate(r.Context(), tx, t.ID, peek.ServiceID)
		if err != nil {
			return err
		}
		ord, err := GetForUpdate(r.Context(), tx, t.ID, orderID)
		if err != nil {
			return err
		}

		changed, err := Advance(ord.Status, next)
		if err != nil {
			te, ok := err.(TransitionError)
			if !ok {
				return err
			}
			status := http.StatusConflict
			if te.Code == "VALIDATION_FAILED" {
				status = http.StatusBadRequest
			}
			api.WriteError(w, status, te.Code, te.Message)
			return pgx.ErrTxCommitRollback
		}

		// Metadata lands whether or not the status moved; repeating receive
		// with a corrected supplier must not be an error.
		if err := SetReceiveMeta(r.Context(), tx, t.ID, ord.ID, cost, strings.TrimSpace(req.SupplierName), strings.TrimSpace(req.WarehouseLocation)); err != nil {
			return err
		}
		if techID := strings.TrimSpace(req.TechnicianID); techID != "" {
			if _, err := h.Techs.GetByID(r.Context(), t.ID, techID); err != nil {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown technician")
				return pgx.ErrTxCommitRollback
			}
			if err := SetTechnician(r.Context(), tx, t.ID, ord.ID, techID); err != nil {
				return err
			}
		}
		if err := AppendAdminNotes(r.Context(), tx, t.ID, ord.ID, strings.TrimSpace(req.AdminNotes)); err != nil {
			return err
		}

		now := time.Now()
		svcID := svc.ID
		if changed {
			if err := UpdateStatus(r.Context(), tx, t.ID, ord.ID, next); err != nil {
				return err
			}

			statuses, err := StatusesByService(r.Context(), tx, svc.ID)
			if err != nil {
				return err
			}
			if nextSvc := NextServiceStatus(svc.Status, statuses); nextSvc != svc.Status {
				if err := service.UpdateStatus(r.Context(), tx, t.ID, svc.ID, nextSvc); err != nil {
					return err
				}
				_ = events.Insert(r.Context(), tx, svc.ID, events.TypeStatusChanged, "Parts in; work can resume", actor.Name, now,
					map[string]any{"from": svc.Status, "to": nextSvc})
				techMsgs = append(techMsgs, h.technicianMessage(r, t.ID, svc,
					fmt.Sprintf("[%s] Parts for service %s are in; job is back on your board.", t.Name, svc.ID))...)
			}

			_ = events.Insert(r.Context(), tx, svc.ID, events.TypePartUpdated, fmt.Sprintf("Part %s: %s", ord.PartName, next), actor.Name, now,
				map[string]any{"orderId": ord.ID, "from": ord.Status, "to": next})

			if next == OrderDispatched {
				techMsgs = append(techMsgs, h.technicianMessage(r, t.ID, svc,
					fmt.Sprintf("[%s] Part %s dispatched for service %s.", t.Name, ord.PartName, svc.ID))...)
			}
		}
		_ = audit.Insert(r.Context(), tx, t.ID, &svcID, "PART_ORDER_UPDATED", actor.Name,
			map[string]any{"orderId": ord.ID, "from": ord.Status, "to": next, "changed": changed})

		updated, err = GetTx(r.Context(), tx, t.ID, ord.ID)
		return err
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}

	if len(techMsgs) > 0 {
		h.Notify.Async(fmt.Sprintf("part-%s:%s", next, orderID), techMsgs...)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

// technicianMessage builds an SMS for the service's technician, if any.
func (h Handlers) technicianMessage(r *http.Request, tenantID string, svc *service.Service, body string) []notify.Message {
	if svc.TechnicianID == nil || h.Techs == nil {
		return nil
	}
	tech, err := h.Techs.GetByID(r.Context(), tenantID, *svc.TechnicianID)
	if err != nil || tech.Phone == "" {
		return nil
	}
	return []notify.Message{{
		TenantID:  tenantID,
		ServiceID: svc.ID,
		Channel:   notify.ChannelSMS,
		Recipient: tech.Phone,
		Body:      body,
	}}
}
