// Package httptransport assembles the gateway's public HTTP surface. It wires
// the session endpoints, the health probe and the metrics exporter behind a
// shared middleware chain; business logic stays in the domain packages.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caregate/internal/platform/middleware"
	"caregate/internal/session/handler"
)

// NewRouter builds the full router. Every route runs behind request ID
// propagation, client metadata extraction and request logging.
func NewRouter(sessions *handler.Handler, health *HealthHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMeta)
	r.Use(middleware.RequestLogger(logger))

	sessions.Register(r)
	health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
