package photos

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicedesk/internal/api"
	"servicedesk/internal/events"
	"servicedesk/pkg/db"
)

const maxUploadBytes = 10 << 20 // 10 MiB per photo

type Handlers struct {
	DB    *pgxpool.Pool
	Repo  *Repository
	Store *ObjectStore
}

func normalizeKind(k string) string {
	switch strings.TrimSpace(strings.ToLower(k)) {
	case "before", "after", "diagnosis", "other":
		return strings.TrimSpace(strings.ToLower(k))
	default:
		return "other"
	}
}

// Create accepts a multipart upload under the "photo" field.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	t := api.TenantFromContext(r.Context())
	if t == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	actor := api.ActorFromContext(r.Context())

	serviceID := chi.URLParam(r, "id")
	if serviceID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if h.Store == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "PHOTOS_DISABLED", "photo storage is not configured")
		return
	}

	// Ensure service belongs to tenant.
	const qSvc = `SELECT 1 FROM services WHERE id=$1 AND tenant_id=$2`
	var one int
	if err := h.DB.QueryRow(r.Context(), qSvc, serviceID, t.ID).Scan(&one); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "expected multipart upload under 10MB")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "photo field is required")
		return
	}
	defer file.Close()

	key, err := h.Store.Put(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "upload failed")
		return
	}

	kind := normalizeKind(r.FormValue("kind"))
	caption := strings.TrimSpace(r.FormValue("caption"))

	rec, err := h.Repo.Insert(r.Context(), serviceID, key, kind, caption, actor.Name)
	if err != nil {
		// Orphaned object; best effort cleanup.
		_ = h.Store.Remove(r.Context(), key)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	_ = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		return events.Insert(r.Context(), tx, serviceID, events.TypePhotoUploaded,
			"Photo uploaded ("+kind+")", actor.Name, time.Now(), map[string]any{"photoId": rec.ID})
	})

	if url, err := h.Store.PresignedURL(r.Context(), key); err == nil {
		rec.URL = url
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

	serviceID := chi.URLParam(r, "id")
	const qSvc = `SELECT 1 FROM services WHERE id=$1 AND tenant_id=$2`
	var one int
	if err := h.DB.QueryRow(r.Context(), qSvc, serviceID, t.ID).Scan(&one); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
		return
	}

	items, err := h.Repo.ListByService(r.Context(), serviceID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if h.Store != nil {
		for i := range items {
			if url, err := h.Store.PresignedURL(r.Context(), items[i].ObjectKey); err == nil {
				items[i].URL = url
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}
