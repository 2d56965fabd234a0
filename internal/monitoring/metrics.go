package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestMetricsRecorder defines the interface for recording per-dependency
// request metrics. It abstracts the metrics backend so the Monitor can be
// unit-tested with a mock recorder and the backend swapped without touching
// callers.
type RequestMetricsRecorder interface {
	// RecordRequest records one guarded call with its outcome and latency.
	RecordRequest(component string, success bool, duration time.Duration)

	// SetCircuitState exports a breaker's current state
	// (0=closed, 1=open, 2=half-open).
	SetCircuitState(name string, state float64)

	// SetComponentHealth exports a component's health
	// (1=healthy, 0.5=degraded, 0=unhealthy).
	SetComponentHealth(component string, health float64)
}

// PrometheusRequestMetrics implements RequestMetricsRecorder using
// Prometheus metrics.
type PrometheusRequestMetrics struct {
	requestCounter    *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
	circuitStateGauge *prometheus.GaugeVec
	healthGauge       *prometheus.GaugeVec
}

var (
	prometheusMetricsInstance *PrometheusRequestMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateCounterVec gets an existing counter vector or creates a new one
// if it doesn't exist
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// getOrCreateHistogramVec gets an existing histogram vector or creates a new
// one if it doesn't exist
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// getOrCreateGaugeVec gets an existing gauge vector or creates a new one if
// it doesn't exist
func getOrCreateGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(opts, labels)
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.GaugeVec)
		}
		return promauto.NewGaugeVec(opts, labels)
	}
	return g
}

// NewPrometheusRequestMetrics creates a new Prometheus-based metrics
// recorder. Uses singleton pattern to avoid duplicate metric registration
// in tests.
func NewPrometheusRequestMetrics() *PrometheusRequestMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusRequestMetrics{
			requestCounter: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "finsight_dependency_requests_total",
				Help: "Total guarded calls to external dependencies by outcome",
			}, []string{"component", "outcome"}),
			durationHistogram: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "finsight_dependency_request_duration_seconds",
				Help:    "Latency of guarded calls to external dependencies",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			}, []string{"component"}),
			circuitStateGauge: getOrCreateGaugeVec(prometheus.GaugeOpts{
				Name: "finsight_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			}, []string{"name"}),
			healthGauge: getOrCreateGaugeVec(prometheus.GaugeOpts{
				Name: "finsight_component_health",
				Help: "Component health (1=healthy, 0.5=degraded, 0=unhealthy)",
			}, []string{"component"}),
		}
	})
	return prometheusMetricsInstance
}

// RecordRequest implements RequestMetricsRecorder.RecordRequest
func (p *PrometheusRequestMetrics) RecordRequest(component string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.requestCounter.WithLabelValues(component, outcome).Inc()
	p.durationHistogram.WithLabelValues(component).Observe(duration.Seconds())
}

// SetCircuitState implements RequestMetricsRecorder.SetCircuitState
func (p *PrometheusRequestMetrics) SetCircuitState(name string, state float64) {
	p.circuitStateGauge.WithLabelValues(name).Set(state)
}

// SetComponentHealth implements RequestMetricsRecorder.SetComponentHealth
func (p *PrometheusRequestMetrics) SetComponentHealth(component string, health float64) {
	p.healthGauge.WithLabelValues(component).Set(health)
}
