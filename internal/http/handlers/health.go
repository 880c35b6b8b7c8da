package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves GET /health.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
	logger  *logging.Logger
}

// NewHealthHandler creates a health handler. checks may be nil.
func NewHealthHandler(checks map[string]Pinger, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, logger: logger}
}

// HealthCheck returns {"status":"ok"}, or 503 with the failing dependencies.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{"status": "ok"}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "dependency", name, "error", err)
			response[name] = "unavailable"
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
