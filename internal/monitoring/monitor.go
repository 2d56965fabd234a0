// Package monitoring aggregates the health of every guarded dependency:
// per-component request counters, health statuses, circuit breaker states,
// and derived alerts. It implements the observer interface the resilience
// guard reports into, exports Prometheus metrics, and runs a periodic
// sweep that fires alert notifications.
package monitoring

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"finsight/internal/resilience"
	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/guard"
	"finsight/pkg/config"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// errorRateThreshold and errorRateMinRequests gate the failure-rate alert:
// a component must have seen at least the minimum number of calls before
// its error rate is considered meaningful.
const (
	errorRateThreshold   = 0.5
	errorRateMinRequests = 10
)

// Alert describes a condition that needs operator attention.
type Alert struct {
	Component string    `json:"component"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	FiredAt   time.Time `json:"fired_at"`
}

// AlertNotifier delivers alerts to an external channel. Implementations
// must be safe for concurrent use.
type AlertNotifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// ComponentHealth is a snapshot of one dependency's observed state.
type ComponentHealth struct {
	Status         string    `json:"status"`
	Message        string    `json:"message,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
	TotalRequests  uint64    `json:"total_requests"`
	FailedRequests uint64    `json:"failed_requests"`
	ErrorRate      float64   `json:"error_rate"`
	AvgLatencyMS   float64   `json:"avg_latency_ms"`
}

// SystemHealth is the aggregate view served by the health endpoint.
type SystemHealth struct {
	Status          string                     `json:"status"`
	UptimeSeconds   float64                    `json:"uptime_seconds"`
	Components      map[string]ComponentHealth `json:"components"`
	CircuitBreakers []circuitbreaker.Stats     `json:"circuit_breakers"`
	ActiveAlerts    []Alert                    `json:"active_alerts"`
}

type componentState struct {
	status       string
	message      string
	updatedAt    time.Time
	requests     uint64
	failures     uint64
	totalLatency time.Duration
}

// Monitor tracks the health of all guarded dependencies. It implements
// guard.Observer; every Guard in the process reports into one shared
// Monitor instance.
type Monitor struct {
	registry *circuitbreaker.Registry
	metrics  RequestMetricsRecorder
	notifier AlertNotifier
	clock    resilience.Clock

	mu         sync.RWMutex
	components map[string]*componentState
	active     map[string]Alert // keyed by component+message
	startedAt  time.Time

	cron *cron.Cron
}

var _ guard.Observer = (*Monitor)(nil)

// Option configures a Monitor.
type Option func(*Monitor)

// WithNotifier sets the alert delivery channel.
func WithNotifier(n AlertNotifier) Option {
	return func(m *Monitor) { m.notifier = n }
}

// WithClock overrides the time source, for tests.
func WithClock(c resilience.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// NewMonitor creates a monitor over the given breaker registry.
func NewMonitor(registry *circuitbreaker.Registry, metrics RequestMetricsRecorder, opts ...Option) *Monitor {
	m := &Monitor{
		registry:   registry,
		metrics:    metrics,
		clock:      &resilience.SystemClock{},
		components: make(map[string]*componentState),
		active:     make(map[string]Alert),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.clock.Now()
	return m
}

// RecordRequest implements guard.Observer.
func (m *Monitor) RecordRequest(component string, success bool, latency time.Duration) {
	m.mu.Lock()
	cs := m.component(component)
	cs.requests++
	if !success {
		cs.failures++
	}
	cs.totalLatency += latency
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordRequest(component, success, latency)
	}
}

// UpdateHealth implements guard.Observer.
func (m *Monitor) UpdateHealth(component, status, message string) {
	m.mu.Lock()
	cs := m.component(component)
	changed := cs.status != status
	cs.status = status
	cs.message = message
	cs.updatedAt = m.clock.Now()
	m.mu.Unlock()

	if changed {
		slog.Info("Component health changed",
			"component", component,
			"status", status,
			"message", message,
		)
	}
	if m.metrics != nil {
		m.metrics.SetComponentHealth(component, healthValue(status))
	}
}

// component returns the state for a component, creating it if needed.
// Caller must hold m.mu.
func (m *Monitor) component(name string) *componentState {
	cs, ok := m.components[name]
	if !ok {
		cs = &componentState{status: guard.StatusHealthy}
		m.components[name] = cs
	}
	return cs
}

// SystemHealth returns the aggregate health snapshot.
func (m *Monitor) SystemHealth() SystemHealth {
	m.mu.RLock()
	components := make(map[string]ComponentHealth, len(m.components))
	for name, cs := range m.components {
		components[name] = snapshotComponent(cs)
	}
	uptime := m.clock.Now().Sub(m.startedAt).Seconds()
	m.mu.RUnlock()

	var breakers []circuitbreaker.Stats
	for _, cb := range m.registry.All() {
		breakers = append(breakers, cb.Stats())
	}
	sort.Slice(breakers, func(i, j int) bool { return breakers[i].Name < breakers[j].Name })

	return SystemHealth{
		Status:          overallStatus(components, breakers),
		UptimeSeconds:   uptime,
		Components:      components,
		CircuitBreakers: breakers,
		ActiveAlerts:    m.Alerts(),
	}
}

// Alerts evaluates current conditions and returns the active alerts,
// sorted by component. New alerts are remembered so the periodic sweep
// notifies each one only once while it stays active.
func (m *Monitor) Alerts() []Alert {
	now := m.clock.Now()

	m.mu.Lock()
	current := make(map[string]Alert)

	for name, cs := range m.components {
		if cs.status == guard.StatusUnhealthy {
			a := Alert{Component: name, Severity: SeverityCritical, Message: "component unhealthy: " + cs.message, FiredAt: now}
			current[alertKey(a)] = a
		} else if cs.status == guard.StatusDegraded {
			a := Alert{Component: name, Severity: SeverityWarning, Message: "component degraded: " + cs.message, FiredAt: now}
			current[alertKey(a)] = a
		}
		if cs.requests >= errorRateMinRequests {
			rate := float64(cs.failures) / float64(cs.requests)
			if rate > errorRateThreshold {
				a := Alert{Component: name, Severity: SeverityCritical, Message: "error rate above threshold", FiredAt: now}
				current[alertKey(a)] = a
			}
		}
	}
	m.mu.Unlock()

	for _, cb := range m.registry.All() {
		switch cb.State() {
		case circuitbreaker.StateOpen:
			a := Alert{Component: cb.Name(), Severity: SeverityCritical, Message: "circuit breaker open", FiredAt: now}
			current[alertKey(a)] = a
		case circuitbreaker.StateHalfOpen:
			a := Alert{Component: cb.Name(), Severity: SeverityWarning, Message: "circuit breaker half-open, probing recovery", FiredAt: now}
			current[alertKey(a)] = a
		}
	}

	m.mu.Lock()
	// Keep original fire times for alerts that are still active.
	for key, prev := range m.active {
		if cur, ok := current[key]; ok {
			cur.FiredAt = prev.FiredAt
			current[key] = cur
		}
	}
	m.active = current
	m.mu.Unlock()

	alerts := make([]Alert, 0, len(current))
	for _, a := range current {
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Component != alerts[j].Component {
			return alerts[i].Component < alerts[j].Component
		}
		return alerts[i].Message < alerts[j].Message
	})
	return alerts
}

// Start begins the periodic monitoring sweep. The schedule is read from
// MONITOR_SWEEP_SCHEDULE (cron syntax, default "@every 30s"). The sweep
// runs until Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	schedule := config.GetEnvString("MONITOR_SWEEP_SCHEDULE", "@every 30s")

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(schedule, func() { m.sweep(ctx) }); err != nil {
		return err
	}
	m.cron.Start()
	slog.Info("Monitoring sweep started", "schedule", schedule)
	return nil
}

// Stop halts the periodic sweep and waits for an in-flight run to finish.
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	slog.Info("Monitoring sweep stopped")
}

// sweep exports breaker gauges and delivers newly fired alerts.
func (m *Monitor) sweep(ctx context.Context) {
	if m.metrics != nil {
		for _, cb := range m.registry.All() {
			m.metrics.SetCircuitState(cb.Name(), float64(cb.State()))
		}
	}

	m.mu.RLock()
	before := make(map[string]struct{}, len(m.active))
	for key := range m.active {
		before[key] = struct{}{}
	}
	m.mu.RUnlock()

	for _, a := range m.Alerts() {
		if _, seen := before[alertKey(a)]; seen {
			continue
		}
		slog.Warn("Alert fired",
			"component", a.Component,
			"severity", a.Severity,
			"message", a.Message,
		)
		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, a); err != nil {
				slog.Error("Failed to deliver alert", "component", a.Component, "error", err)
			}
		}
	}
}

func alertKey(a Alert) string {
	return a.Component + "|" + a.Message
}

func snapshotComponent(cs *componentState) ComponentHealth {
	h := ComponentHealth{
		Status:         cs.status,
		Message:        cs.message,
		UpdatedAt:      cs.updatedAt,
		TotalRequests:  cs.requests,
		FailedRequests: cs.failures,
	}
	if cs.requests > 0 {
		h.ErrorRate = float64(cs.failures) / float64(cs.requests)
		h.AvgLatencyMS = float64(cs.totalLatency.Milliseconds()) / float64(cs.requests)
	}
	return h
}

func healthValue(status string) float64 {
	switch status {
	case guard.StatusHealthy:
		return 1.0
	case guard.StatusDegraded:
		return 0.5
	default:
		return 0.0
	}
}

func overallStatus(components map[string]ComponentHealth, breakers []circuitbreaker.Stats) string {
	status := guard.StatusHealthy
	for _, c := range components {
		switch c.Status {
		case guard.StatusUnhealthy:
			return guard.StatusUnhealthy
		case guard.StatusDegraded:
			status = guard.StatusDegraded
		}
	}
	for _, b := range breakers {
		if b.State == circuitbreaker.StateOpen.String() {
			return guard.StatusUnhealthy
		}
	}
	return status
}
