package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/guard"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMetrics struct {
	mu            sync.Mutex
	requests      int
	circuitStates map[string]float64
	healthValues  map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		circuitStates: make(map[string]float64),
		healthValues:  make(map[string]float64),
	}
}

func (f *fakeMetrics) RecordRequest(component string, success bool, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
}

func (f *fakeMetrics) SetCircuitState(name string, state float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.circuitStates[name] = state
}

func (f *fakeMetrics) SetComponentHealth(component string, health float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthValues[component] = health
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (f *fakeNotifier) Notify(ctx context.Context, alert Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func newTestMonitor(t *testing.T) (*Monitor, *circuitbreaker.Registry, *fakeMetrics, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	reg := circuitbreaker.NewRegistry(circuitbreaker.Config{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
		Clock:            clock,
	})
	metrics := newFakeMetrics()
	return NewMonitor(reg, metrics, WithClock(clock)), reg, metrics, clock
}

func TestMonitor_AggregatesRequests(t *testing.T) {
	m, _, metrics, _ := newTestMonitor(t)

	m.RecordRequest("stock-api", true, 100*time.Millisecond)
	m.RecordRequest("stock-api", true, 200*time.Millisecond)
	m.RecordRequest("stock-api", false, 300*time.Millisecond)

	health := m.SystemHealth()
	comp, ok := health.Components["stock-api"]
	if !ok {
		t.Fatal("stock-api component missing")
	}
	if comp.TotalRequests != 3 || comp.FailedRequests != 1 {
		t.Errorf("requests = %d/%d, want 3 total, 1 failed", comp.TotalRequests, comp.FailedRequests)
	}
	if comp.ErrorRate < 0.33 || comp.ErrorRate > 0.34 {
		t.Errorf("error rate = %v, want ~0.333", comp.ErrorRate)
	}
	if comp.AvgLatencyMS != 200 {
		t.Errorf("avg latency = %v ms, want 200", comp.AvgLatencyMS)
	}
	if metrics.requests != 3 {
		t.Errorf("metrics recorder saw %d requests, want 3", metrics.requests)
	}
}

func TestMonitor_UpdateHealthExportsGauge(t *testing.T) {
	m, _, metrics, _ := newTestMonitor(t)

	m.UpdateHealth("stock-api", guard.StatusDegraded, "serving stale data")

	health := m.SystemHealth()
	if health.Components["stock-api"].Status != guard.StatusDegraded {
		t.Errorf("status = %q, want degraded", health.Components["stock-api"].Status)
	}
	if health.Status != guard.StatusDegraded {
		t.Errorf("overall status = %q, want degraded", health.Status)
	}
	if metrics.healthValues["stock-api"] != 0.5 {
		t.Errorf("health gauge = %v, want 0.5", metrics.healthValues["stock-api"])
	}
}

func TestMonitor_ErrorRateAlert(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	// Below the minimum request count no alert fires regardless of rate.
	for i := 0; i < 5; i++ {
		m.RecordRequest("web-search", false, time.Millisecond)
	}
	if alerts := m.Alerts(); len(alerts) != 0 {
		t.Fatalf("alerts fired below minimum request count: %+v", alerts)
	}

	for i := 0; i < 5; i++ {
		m.RecordRequest("web-search", false, time.Millisecond)
	}
	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want one error-rate alert", alerts)
	}
	if alerts[0].Severity != SeverityCritical || alerts[0].Component != "web-search" {
		t.Errorf("unexpected alert: %+v", alerts[0])
	}
}

func TestMonitor_OpenBreakerAlert(t *testing.T) {
	m, reg, _, _ := newTestMonitor(t)

	cb := reg.Get("stock-api")
	for i := 0; i < 3; i++ {
		cb.Allow()
		cb.RecordFailure()
	}

	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want one breaker alert", alerts)
	}
	if alerts[0].Message != "circuit breaker open" {
		t.Errorf("alert message = %q", alerts[0].Message)
	}

	health := m.SystemHealth()
	if health.Status != guard.StatusUnhealthy {
		t.Errorf("overall status = %q, want unhealthy with open breaker", health.Status)
	}
}

func TestMonitor_HalfOpenBreakerWarns(t *testing.T) {
	m, reg, _, clock := newTestMonitor(t)

	cb := reg.Get("stock-api")
	for i := 0; i < 3; i++ {
		cb.Allow()
		cb.RecordFailure()
	}

	// Recovery window elapses; the next Allow admits a half-open trial.
	clock.Advance(31 * time.Second)
	if !cb.Allow() {
		t.Fatal("expected half-open trial to be admitted")
	}

	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want one half-open warning", alerts)
	}
	if alerts[0].Severity != SeverityWarning {
		t.Errorf("severity = %q, want warning", alerts[0].Severity)
	}
	if alerts[0].Message != "circuit breaker half-open, probing recovery" {
		t.Errorf("alert message = %q", alerts[0].Message)
	}
}

func TestMonitor_AlertKeepsOriginalFireTime(t *testing.T) {
	m, _, _, clock := newTestMonitor(t)

	m.UpdateHealth("llm", guard.StatusUnhealthy, "provider down")

	first := m.Alerts()
	if len(first) != 1 {
		t.Fatalf("alerts = %+v, want 1", first)
	}
	firedAt := first[0].FiredAt

	clock.Advance(5 * time.Minute)
	second := m.Alerts()
	if len(second) != 1 {
		t.Fatalf("alerts = %+v, want 1", second)
	}
	if !second[0].FiredAt.Equal(firedAt) {
		t.Errorf("fire time changed from %v to %v while alert stayed active", firedAt, second[0].FiredAt)
	}
}

func TestMonitor_AlertClearsOnRecovery(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	m.UpdateHealth("llm", guard.StatusUnhealthy, "provider down")
	if len(m.Alerts()) != 1 {
		t.Fatal("expected active alert")
	}

	m.UpdateHealth("llm", guard.StatusHealthy, "")
	if alerts := m.Alerts(); len(alerts) != 0 {
		t.Errorf("alerts = %+v, want none after recovery", alerts)
	}
}

func TestMonitor_SweepNotifiesNewAlertsOnce(t *testing.T) {
	m, reg, metrics, _ := newTestMonitor(t)
	notifier := &fakeNotifier{}
	m.notifier = notifier

	cb := reg.Get("stock-api")
	for i := 0; i < 3; i++ {
		cb.Allow()
		cb.RecordFailure()
	}

	ctx := context.Background()
	m.sweep(ctx)
	m.sweep(ctx) // alert still active, must not re-notify

	if len(notifier.alerts) != 1 {
		t.Errorf("notifier received %d alerts, want 1", len(notifier.alerts))
	}
	if metrics.circuitStates["stock-api"] != float64(circuitbreaker.StateOpen) {
		t.Errorf("circuit state gauge = %v, want open", metrics.circuitStates["stock-api"])
	}
}
