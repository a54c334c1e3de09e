package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/penshort/costboard/internal/handler"
	"github.com/penshort/costboard/internal/middleware"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Root      *handler.Handler
	Health    *handler.HealthHandler
	Metrics   *handler.MetricsHandler
	Costs     *handler.CostHandler
	Analytics *handler.AnalyticsHandler
}

// RouterOptions configures the global middleware.
type RouterOptions struct {
	CORSAllowedOrigins []string
	IsDevelopment      bool
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(h Handlers, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = opts.CORSAllowedOrigins

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: opts.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Get("/metrics", h.Metrics.Metrics)
	r.Get("/", h.Root.Hello)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/costs", func(r chi.Router) {
			r.Get("/", h.Costs.Get)
			r.Get("/{channel}/scaling", h.Costs.Scaling)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", h.Analytics.Get)
			r.Post("/reset", h.Analytics.Reset)
		})
	})

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
