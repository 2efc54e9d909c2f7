package core

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bluewaters/internal/types"
)

var _ Telemetry = (*PrometheusCollector)(nil)

// PrometheusCollector keeps every series in its own registry so tests and
// multiple servers in one process never collide on the default registerer.
type PrometheusCollector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	advisoryCalls   *prometheus.CounterVec
	advisoryLatency *prometheus.HistogramVec
	alertsGenerated *prometheus.CounterVec
	alertsDegraded  prometheus.Counter
}

// NewPrometheusCollector registers the service metrics on reg, or on a fresh
// registry when reg is nil. namespace becomes the metric name prefix.
func NewPrometheusCollector(namespace string, reg *prometheus.Registry) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	ns := strings.ToLower(namespace)
	if ns == "" {
		ns = strings.ToLower(types.MetricNamespace)
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		}, []string{"endpoint", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint", "method"}),
		advisoryCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "advisory_calls_total",
			Help:      "Outbound advisory calls by step and result",
		}, []string{"step", "result"}),
		advisoryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "advisory_call_duration_seconds",
			Help:      "Outbound advisory call latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"step"}),
		alertsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "alerts_generated_total",
			Help:      "Alerts produced by aggregation passes",
		}, []string{"level"}),
		alertsDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "alerts_degraded_total",
			Help:      "Alert candidates dropped under the skip failure policy",
		}),
	}
}

// Registry returns the registry the collector writes to.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *PrometheusCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(endpoint, method, status).Inc()
	c.requestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordAdvisoryCall(_ context.Context, step, result string, duration time.Duration) {
	c.advisoryCalls.WithLabelValues(step, result).Inc()
	c.advisoryLatency.WithLabelValues(step).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordAlertsGenerated(_ context.Context, level types.AlertLevel, count int) {
	if count <= 0 {
		return
	}
	c.alertsGenerated.WithLabelValues(string(level)).Add(float64(count))
}

func (c *PrometheusCollector) RecordAlertsDegraded(_ context.Context, count int) {
	if count <= 0 {
		return
	}
	c.alertsDegraded.Add(float64(count))
}
