package client

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
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
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
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "name and phone are required")
		return
	}

	rec, err := h.Repo.Insert(r.Context(), t.ID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email), strings.TrimSpace(req.Address))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
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

	items, err := h.Repo.ListByTenant(r.Context(), t.ID)
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
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "client not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}
