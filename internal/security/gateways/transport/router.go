package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the API. metricsMiddleware and metricsHandler may be nil.
func NewRouter(api *API, metricsMiddleware func(http.Handler) http.Handler, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if metricsMiddleware != nil {
		r.Use(metricsMiddleware)
	}

	r.Get("/healthz", api.HandleHealth)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Post("/hooks/user-registered", api.HandleUserRegistered)

	r.Get("/settings", api.HandleSettingsPage)
	r.Post("/settings", api.HandleSettingsSubmit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", api.HandleGetSettings)
		r.Put("/settings", api.HandlePutSettings)
		r.Get("/updates", api.HandleGetUpdates)
		r.Post("/updates/check", api.HandleCheckUpdates)
		r.Get("/updates/auto", api.HandleAutoUpdateDecision)
		r.Get("/decisions", api.HandleRecentDecisions)
		r.Get("/decisions/{id}", api.HandleDecision)
	})

	return r
}
