package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caregate/pkg/platform/httputil"
)

// Check probes one backing dependency. A nil Probe is treated as healthy so
// optional backends (redis, postgres) can be registered unconditionally.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler answers liveness probes with the state of each backend.
type HealthHandler struct {
	logger *slog.Logger
	checks []Check
}

// NewHealthHandler creates a health handler over the given checks.
func NewHealthHandler(logger *slog.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// Register mounts the health route on the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if check.Probe == nil {
			components[check.Name] = "ok"
			continue
		}
		if err := check.Probe(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"component", check.Name,
				"error", err.Error(),
			)
			components[check.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[check.Name] = "ok"
	}

	body := map[string]any{
		"status":     "ok",
		"components": components,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	httputil.WriteJSON(w, status, body)
}
