package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"bluewaters/internal/types"
)

// gatherFamily returns the named metric family from reg, or nil.
func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
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

func labelsOf(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestPrometheusCollector_RecordRequest(t *testing.T) {
	c := NewPrometheusCollector("BlueWaters", nil)
	c.RecordRequest("GET", "/alerts", "200", 120*time.Millisecond)
	c.RecordRequest("GET", "/alerts", "200", 80*time.Millisecond)
	c.RecordRequest("GET", "/water-source/{sourceID}", "404", time.Millisecond)

	mf := gatherFamily(t, c.Registry(), "bluewaters_api_requests_total")
	if mf == nil {
		t.Fatal("request counter not registered")
	}
	counts := map[string]float64{}
	for _, m := range mf.GetMetric() {
		l := labelsOf(m)
		counts[l["endpoint"]+" "+l["status"]] = m.GetCounter().GetValue()
	}
	if counts["/alerts 200"] != 2 {
		t.Errorf("expected 2 /alerts requests, got %v", counts)
	}
	if counts["/water-source/{sourceID} 404"] != 1 {
		t.Errorf("expected 1 not-found request, got %v", counts)
	}

	hist := gatherFamily(t, c.Registry(), "bluewaters_api_request_duration_seconds")
	if hist == nil {
		t.Fatal("request histogram not registered")
	}
	for _, m := range hist.GetMetric() {
		if labelsOf(m)["endpoint"] == "/alerts" {
			if got := m.GetHistogram().GetSampleCount(); got != 2 {
				t.Errorf("expected 2 samples, got %d", got)
			}
			if got := m.GetHistogram().GetSampleSum(); got < 0.19 || got > 0.21 {
				t.Errorf("expected ~0.2s total, got %v", got)
			}
		}
	}
}

func TestPrometheusCollector_AdvisoryAndAlerts(t *testing.T) {
	ctx := context.Background()
	c := NewPrometheusCollector("", prometheus.NewRegistry())

	c.RecordAdvisoryCall(ctx, types.AdvisoryStepToken, types.ResultSuccess, 300*time.Millisecond)
	c.RecordAdvisoryCall(ctx, types.AdvisoryStepCompletion, types.ResultFailure, 2*time.Second)
	c.RecordAlertsGenerated(ctx, types.AlertLevelCritical, 3)
	c.RecordAlertsGenerated(ctx, types.AlertLevelWarning, 0)
	c.RecordAlertsDegraded(ctx, 2)

	calls := gatherFamily(t, c.Registry(), "bluewaters_advisory_calls_total")
	if calls == nil || len(calls.GetMetric()) != 2 {
		t.Fatalf("expected 2 advisory series, got %v", calls)
	}

	alerts := gatherFamily(t, c.Registry(), "bluewaters_alerts_generated_total")
	if alerts == nil || len(alerts.GetMetric()) != 1 {
		t.Fatalf("expected only the critical series, got %v", alerts)
	}
	if got := labelsOf(alerts.GetMetric()[0])["level"]; got != "critical" {
		t.Errorf("unexpected level %q", got)
	}
	if got := alerts.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("expected 3 critical alerts, got %v", got)
	}

	degraded := gatherFamily(t, c.Registry(), "bluewaters_alerts_degraded_total")
	if degraded == nil || degraded.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Errorf("expected degraded counter of 2, got %v", degraded)
	}
}

func TestPrometheusCollector_SeparateRegistries(t *testing.T) {
	// Two collectors must not panic on duplicate registration.
	a := NewPrometheusCollector("bluewaters", nil)
	b := NewPrometheusCollector("bluewaters", nil)
	if a.Registry() == b.Registry() {
		t.Error("expected independent registries")
	}
}
