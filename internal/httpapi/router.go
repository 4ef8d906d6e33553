package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"servicedesk/internal/adminaction"
	"servicedesk/internal/api"
	"servicedesk/internal/appliance"
	"servicedesk/internal/client"
	"servicedesk/internal/notify"
	"servicedesk/internal/parts"
	"servicedesk/internal/photos"
	"servicedesk/internal/portal"
	"servicedesk/internal/service"
	"servicedesk/internal/technician"
	"servicedesk/internal/tenant"
	"servicedesk/pkg/config"
)

type Dependencies struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Log    *zap.Logger
	Notify *notify.Dispatcher
	Photos *photos.ObjectStore
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	tenantsRepo := tenant.NewRepository(deps.DB)
	clientsRepo := client.NewRepository(deps.DB)
	appliancesRepo := appliance.NewRepository(deps.DB)
	techsRepo := technician.NewRepository(deps.DB)
	servicesRepo := service.NewRepository(deps.DB)
	ordersRepo := parts.NewRepository(deps.DB)
	photosRepo := photos.NewRepository(deps.DB)

	clientHandlers := client.Handlers{Repo: clientsRepo}
	applianceHandlers := appliance.Handlers{Repo: appliancesRepo}
	techHandlers := technician.Handlers{Repo: techsRepo}
	serviceHandlers := service.Handlers{
		Cfg:        deps.Cfg,
		DB:         deps.DB,
		Services:   servicesRepo,
		Clients:    clientsRepo,
		Appliances: appliancesRepo,
		Techs:      techsRepo,
		Notify:     deps.Notify,
	}
	partHandlers := parts.Handlers{
		Cfg:      deps.Cfg,
		DB:       deps.DB,
		Orders:   ordersRepo,
		Services: servicesRepo,
		Techs:    techsRepo,
		Notify:   deps.Notify,
	}
	overrideHandlers := adminaction.Handlers{DB: deps.DB, Techs: techsRepo}
	photoHandlers := photos.Handlers{DB: deps.DB, Repo: photosRepo, Store: deps.Photos}
	portalHandlers := portal.Handlers{DB: deps.DB}
	notifyRepo := notify.NewRepository(deps.DB)
	notifyHandlers := notify.AdminHandlers{Repo: notifyRepo}
	deliveryWebhook := notify.DeliveryWebhook{
		Secret: deps.Cfg.Notify.DeliveryWebhookSecret,
		Repo:   notifyRepo,
		Log:    deps.Log,
	}

	r.Route("/v1", func(r chi.Router) {
		// Staff APIs (tenant-scoped)
		r.Group(func(r chi.Router) {
			// Production: signed staff session tokens.
			// Dev: falls back to X-Tenant-Key if Authorization is missing.
			r.Use(api.StaffSessionAuth(deps.Cfg, tenantsRepo))

			r.Get("/clients", clientHandlers.List)
			r.Post("/clients", clientHandlers.Create)
			r.Get("/clients/{id}", clientHandlers.Get)

			r.Get("/appliances", applianceHandlers.List)
			r.Post("/appliances", applianceHandlers.Create)
			r.Get("/appliances/{id}", applianceHandlers.Get)

			r.Get("/technicians", techHandlers.List)
			r.Post("/technicians", techHandlers.Create)
			r.Get("/technicians/{id}", techHandlers.Get)

			// Static routes before {id} so chi matches them first.
			r.Get("/services/waiting-for-parts", serviceHandlers.WaitingForParts)
			r.Get("/services", serviceHandlers.List)
			r.Post("/services", serviceHandlers.Create)
			r.Get("/services/{id}", serviceHandlers.Get)
			r.Get("/services/{id}/events", serviceHandlers.Events)
			r.Post("/services/{id}/schedule", serviceHandlers.Schedule)
			r.Put("/services/{id}/assign-technician", serviceHandlers.AssignTechnician)
			r.Post("/services/{id}/start", serviceHandlers.Start)
			r.Post("/services/{id}/complete", serviceHandlers.Complete)
			r.Post("/services/{id}/cancel", serviceHandlers.Cancel)
			r.Get("/services/{id}/parts-summary", partHandlers.Summary)
			r.Post("/services/{id}/photos", photoHandlers.Create)
			r.Get("/services/{id}/photos", photoHandlers.List)

			r.Post("/spare-parts/request", partHandlers.Request)
			r.Get("/spare-parts", partHandlers.ListByService)

			// Inventory desk and overrides are admin-only.
			r.Group(func(r chi.Router) {
				r.Use(api.RequireAdmin)

				r.Get("/spare-parts/pending", partHandlers.ListPending)
				r.Get("/spare-parts/{id}", partHandlers.Get)
				r.Put("/spare-parts/{id}", partHandlers.Update)
				r.Post("/spare-parts/{id}/receive", partHandlers.Receive)
				r.Post("/spare-parts/{id}/allocate", partHandlers.Allocate)
				r.Post("/spare-parts/{id}/dispatch", partHandlers.Dispatch)
				r.Post("/spare-parts/{id}/install", partHandlers.Install)

				r.Post("/services/{id}/admin/override", overrideHandlers.Override)
				r.Get("/services/{id}/notifications", notifyHandlers.ListByService)
			})
		})

		// Portal
		r.Route("/portal", func(r chi.Router) {
			// Public, token-based endpoints used by a separate frontend domain.
			// Only allow CORS for explicitly configured origins.
			r.Use(api.CORSMiddleware(api.CORSOptions{
				AllowedOrigins: deps.Cfg.PortalAllowedOrigins,
			}))

			r.Get("/{token}", portalHandlers.View)
			r.Get("/{token}/events", portalHandlers.Events)
		})

		// Delivery reports from the SMS/WhatsApp provider.
		r.Post("/webhooks/delivery/{provider}", deliveryWebhook.ServeHTTP)
	})

	return r
}
