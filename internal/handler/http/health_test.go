package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/monitoring"
	"finsight/internal/resilience/circuitbreaker"
)

func TestLiveHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	LiveHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alive", rr.Body.String())
}

func TestSystemHealthHandler(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig("default"))
	monitor := monitoring.NewMonitor(registry, nil)
	monitor.UpdateHealth("stock-api", "healthy", "")

	rr := httptest.NewRecorder()
	SystemHealthHandler{Monitor: monitor}.ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/health/system", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var health monitoring.SystemHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components, "stock-api")
}

func TestSystemHealthHandler_Unhealthy(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig("default"))
	monitor := monitoring.NewMonitor(registry, nil)
	monitor.UpdateHealth("stock-api", "unhealthy", "circuit breaker open, failing fast")

	rr := httptest.NewRecorder()
	SystemHealthHandler{Monitor: monitor}.ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/health/system", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAlertsHandler(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig("default"))
	monitor := monitoring.NewMonitor(registry, nil)
	monitor.UpdateHealth("web-search", "unhealthy", "upstream unreachable")

	rr := httptest.NewRecorder()
	AlertsHandler{Monitor: monitor}.ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/alerts", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Alerts []monitoring.Alert `json:"alerts"`
		Count  int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "web-search", body.Alerts[0].Component)
	assert.Equal(t, monitoring.SeverityCritical, body.Alerts[0].Severity)
}
