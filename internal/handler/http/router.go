package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netz98/app-builder-product-reviews/pkg/health"
	"github.com/netz98/app-builder-product-reviews/pkg/middleware"
)

// RouterConfig collects everything the router needs.
type RouterConfig struct {
	ServiceName string
	Logger      *slog.Logger
	Health      *health.Handler
	CORS        middleware.CORSConfig
}

// NewRouter assembles the HTTP routes and middleware chain.
func NewRouter(cfg RouterConfig, reviews *ReviewHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(middleware.Auth())
		r.Use(contentTypeJSON)

		r.Post("/", reviews.Create)
		r.Get("/", reviews.List)
		r.Post("/search", reviews.Search)
		r.Patch("/", reviews.Update)
		r.Delete("/", reviews.Delete)
	})

	return r
}

// contentTypeJSON defaults the response content type; handlers writing other
// types override it explicitly.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
