package alerts

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bluewaters/internal/types"
)

// SourceLister supplies the water sources for an aggregation pass.
type SourceLister interface {
	ListWaterSources(ctx context.Context) ([]types.WaterSource, error)
}

// Metrics receives per-pass alert counts.
type Metrics interface {
	RecordAlertsGenerated(ctx context.Context, level types.AlertLevel, count int)
	RecordAlertsDegraded(ctx context.Context, count int)
}

type nopMetrics struct{}

func (nopMetrics) RecordAlertsGenerated(context.Context, types.AlertLevel, int) {}
func (nopMetrics) RecordAlertsDegraded(context.Context, int)                    {}

// maxConcurrency caps parallel source classification.
const maxConcurrency = 16

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	Sources    SourceLister
	Classifier *Classifier
	// Concurrency is the number of sources classified in parallel.
	// Values below 2 give the sequential pass.
	Concurrency int
	Metrics     Metrics
	Logger      *slog.Logger
}

// Aggregator produces the full alert list for one request. Nothing is cached
// between calls.
type Aggregator struct {
	sources     SourceLister
	classifier  *Classifier
	concurrency int
	metrics     Metrics
	logger      *slog.Logger
}

// Report is the outcome of one aggregation pass.
type Report struct {
	// Alerts are ordered by source, then metrics before diseases within a
	// source.
	Alerts []types.Alert
	// Degraded counts entries dropped under the skip policy. Always zero under
	// the abort policy.
	Degraded int
}

// NewAggregator creates an Aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	a := &Aggregator{
		sources:     cfg.Sources,
		classifier:  cfg.Classifier,
		concurrency: min(max(cfg.Concurrency, 1), maxConcurrency),
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Aggregate classifies every source and concatenates the results in source
// order. With concurrency above one, sources are classified in parallel but
// each writes into its own slot, so the output order matches the sequential
// pass. Under the abort policy the first error cancels the pass and is
// returned with no alerts.
func (a *Aggregator) Aggregate(ctx context.Context) (*Report, error) {
	start := time.Now()

	sources, err := a.sources.ListWaterSources(ctx)
	if err != nil {
		return nil, err
	}

	perSource := make([][]types.Alert, len(sources))
	skipped := make([]int, len(sources))

	if a.concurrency <= 1 {
		for i, src := range sources {
			alerts, n, err := a.classifier.classify(ctx, src)
			if err != nil {
				return nil, err
			}
			perSource[i], skipped[i] = alerts, n
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for i, src := range sources {
			g.Go(func() error {
				alerts, n, err := a.classifier.classify(gctx, src)
				if err != nil {
					return err
				}
				perSource[i], skipped[i] = alerts, n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	report := &Report{Alerts: make([]types.Alert, 0)}
	for i := range sources {
		report.Alerts = append(report.Alerts, perSource[i]...)
		report.Degraded += skipped[i]
	}

	a.record(ctx, report)
	a.logger.InfoContext(ctx, "alerts aggregated",
		"sources", len(sources),
		"alerts", len(report.Alerts),
		"degraded", report.Degraded,
		"concurrency", a.concurrency,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (a *Aggregator) record(ctx context.Context, r *Report) {
	counts := map[types.AlertLevel]int{}
	for _, alert := range r.Alerts {
		counts[alert.Level]++
	}
	for _, level := range []types.AlertLevel{types.AlertLevelCritical, types.AlertLevelWarning} {
		if counts[level] > 0 {
			a.metrics.RecordAlertsGenerated(ctx, level, counts[level])
		}
	}
	if r.Degraded > 0 {
		a.metrics.RecordAlertsDegraded(ctx, r.Degraded)
	}
}
