package http

import (
	"log/slog"
	"net/http"

	"finsight/internal/handler/http/respond"
	"finsight/internal/monitoring"
)

// LiveHandler answers liveness probes. It always returns 200 OK when the
// process is responsive.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Warn("Failed to write liveness response", "error", err)
	}
}

// SystemHealthHandler serves the aggregate health of all guarded
// dependencies: per-component stats, circuit breaker states and active
// alerts. An unhealthy system returns 503 so load balancers can react;
// degraded is a warning state and still returns 200.
type SystemHealthHandler struct{ Monitor *monitoring.Monitor }

func (h SystemHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Monitor.SystemHealth()

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, health)
}

// AlertsHandler lists the currently active alerts.
type AlertsHandler struct{ Monitor *monitoring.Monitor }

func (h AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	alerts := h.Monitor.Alerts()
	respond.JSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
