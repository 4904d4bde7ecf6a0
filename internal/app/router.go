package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/almacen-pos/almacen/internal/caja"
	"github.com/almacen-pos/almacen/internal/catalog/products"
	"github.com/almacen-pos/almacen/internal/catalog/suppliers"
	"github.com/almacen-pos/almacen/internal/observability"
	"github.com/almacen-pos/almacen/internal/platform/httpx"
	"github.com/almacen-pos/almacen/internal/users"
	"github.com/almacen-pos/almacen/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CajaHandler      *caja.Handler
	ProductsHandler  *products.Handler
	SuppliersHandler *suppliers.Handler
	UsersHandler     *users.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, true)
		})
		if params.CajaHandler != nil {
			writeLimit := 0
			if params.Config != nil {
				writeLimit = params.Config.CajaWriteLimitPerMinute
			}
			r.Route("/caja", func(r chi.Router) {
				r.Use(LedgerWriteLimit(writeLimit))
				params.CajaHandler.MountRoutes(r)
			})
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.SuppliersHandler != nil {
			r.Route("/proveedores", params.SuppliersHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Not found")
	})
	return r
}
