package notify

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"servicedesk/internal/api"
)

// AdminHandlers exposes the delivery log for one service.
type AdminHandlers struct {
	Repo *Repository
}

func (h AdminHandlers) ListByService(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}

	items, err := h.Repo.ListByService(r.Context(), t.ID, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}
