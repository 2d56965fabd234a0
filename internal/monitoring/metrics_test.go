package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func findMetric(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && lp.GetValue() == want {
				matched++
			}
		}
		if matched == len(labels) {
			return m
		}
	}
	return nil
}

func TestNewPrometheusRequestMetrics_Singleton(t *testing.T) {
	first := NewPrometheusRequestMetrics()
	second := NewPrometheusRequestMetrics()

	if first != second {
		t.Error("expected the same instance on repeated calls")
	}
}

func TestPrometheusRequestMetrics_RecordRequest(t *testing.T) {
	metrics := NewPrometheusRequestMetrics()

	metrics.RecordRequest("metrics-test-api", true, 120*time.Millisecond)
	metrics.RecordRequest("metrics-test-api", true, 80*time.Millisecond)
	metrics.RecordRequest("metrics-test-api", false, 300*time.Millisecond)

	mf := gatherFamily(t, "finsight_dependency_requests_total")
	if mf == nil {
		t.Fatal("request counter not registered")
	}

	success := findMetric(mf, map[string]string{"component": "metrics-test-api", "outcome": "success"})
	if success == nil || success.GetCounter().GetValue() != 2 {
		t.Errorf("success counter = %v, want 2", success.GetCounter().GetValue())
	}
	failure := findMetric(mf, map[string]string{"component": "metrics-test-api", "outcome": "failure"})
	if failure == nil || failure.GetCounter().GetValue() != 1 {
		t.Errorf("failure counter = %v, want 1", failure.GetCounter().GetValue())
	}

	hist := gatherFamily(t, "finsight_dependency_request_duration_seconds")
	if hist == nil {
		t.Fatal("duration histogram not registered")
	}
	sample := findMetric(hist, map[string]string{"component": "metrics-test-api"})
	if sample == nil || sample.GetHistogram().GetSampleCount() != 3 {
		t.Errorf("histogram sample count = %v, want 3", sample.GetHistogram().GetSampleCount())
	}
}

func TestPrometheusRequestMetrics_Gauges(t *testing.T) {
	metrics := NewPrometheusRequestMetrics()

	metrics.SetCircuitState("metrics-test-breaker", 1)
	metrics.SetComponentHealth("metrics-test-api", 0.5)

	state := gatherFamily(t, "finsight_circuit_breaker_state")
	if state == nil {
		t.Fatal("circuit state gauge not registered")
	}
	if m := findMetric(state, map[string]string{"name": "metrics-test-breaker"}); m == nil || m.GetGauge().GetValue() != 1 {
		t.Errorf("circuit state = %v, want 1 (open)", m.GetGauge().GetValue())
	}

	health := gatherFamily(t, "finsight_component_health")
	if health == nil {
		t.Fatal("health gauge not registered")
	}
	if m := findMetric(health, map[string]string{"component": "metrics-test-api"}); m == nil || m.GetGauge().GetValue() != 0.5 {
		t.Errorf("component health = %v, want 0.5 (degraded)", m.GetGauge().GetValue())
	}
}
