// Package httpapi serves the counter data REST endpoints and the two
// dashboard shell pages over a single chi router. The data backend is a
// ports.TrafficReader, so the SQLite repository and the mock fixture set
// are interchangeable.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	trafficuc "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/traffic"
)

// New builds the router. allowedOrigins feeds the CORS policy for the
// front-end dashboard.
func New(svc *trafficuc.Service, allowedOrigins []string) http.Handler {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", h.home)
	r.Get("/dashboard", h.dashboard)

	// Trailing slashes match the paths the front-end already calls.
	r.Get("/counters/", h.listCounters)
	r.Get("/counters/{counterID}/datastreams/", h.listDatastreams)
	r.Get("/datastreams/{datastreamID}/counts", h.listCounts)

	return r
}
