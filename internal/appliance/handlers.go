package appliance

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"servicedesk/internal/api"
)

type Handlers struct {
	Repo *Repository
}

type CreateRequest struct {
	ClientID     string `json:"clientId"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	Category     string `json:"category"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.Brand) == "" || strings.TrimSpace(req.Model) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "clientId, brand and model are required")
		return
	}

	rec, err := h.Repo.Insert(r.Context(), t.ID, strings.TrimSpace(req.ClientID), strings.TrimSpace(req.Brand), strings.TrimSpace(req.Model), strings.TrimSpace(req.SerialNumber), strings.TrimSpace(req.Category))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown client")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}

	items, err := h.Repo.ListByTenant(r.Context(), t.ID, strings.TrimSpace(r.URL.Query().Get("clientId")))
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

	rec, err := h.Repo.GetByID(r.Context(), t.ID, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "appliance not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}
