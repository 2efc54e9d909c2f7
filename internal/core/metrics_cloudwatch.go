package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"bluewaters/internal/types"
)

const (
	// cloudWatchMaxBatch is the PutMetricData per-call datum limit.
	cloudWatchMaxBatch = 1000
	// cloudWatchMaxBuffer caps memory when CloudWatch is unreachable; the
	// oldest data is dropped first.
	cloudWatchMaxBuffer = 20000
	// DefaultFlushInterval is how often Run publishes buffered data.
	DefaultFlushInterval = 30 * time.Second
)

var _ Telemetry = (*CloudWatchCollector)(nil)

// CloudWatchCollector buffers metric data and publishes it in batches, so a
// request never waits on CloudWatch. Long-running servers call Run; the
// Lambda adapter calls Flush after each invocation.
//
// Metrics emitted:
//   - APIRequestCount: Dims {Endpoint, Method, Status}
//   - APILatency: Dims {Endpoint, Method}
//   - AdvisoryCall: Dims {Step, Result}
//   - AdvisoryLatency: Dims {Step}
//   - AlertsGenerated: Dims {Level}
//   - AlertsDegraded: No dims
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	buffer  []cwtypes.MetricDatum
	dropped int
}

// NewCloudWatchCollector creates a collector publishing to namespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ts := c.now()
	c.enqueue(
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  aws.Time(ts),
			Dimensions: dims(types.DimEndpoint, endpoint, types.DimMethod, method, types.DimStatus, status),
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Timestamp:  aws.Time(ts),
			Dimensions: dims(types.DimEndpoint, endpoint, types.DimMethod, method),
		},
	)
}

func (c *CloudWatchCollector) RecordAdvisoryCall(_ context.Context, step, result string, duration time.Duration) {
	ts := c.now()
	c.enqueue(
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAdvisoryCall),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  aws.Time(ts),
			Dimensions: dims(types.DimStep, step, types.DimResult, result),
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAdvisoryLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Timestamp:  aws.Time(ts),
			Dimensions: dims(types.DimStep, step),
		},
	)
}

func (c *CloudWatchCollector) RecordAlertsGenerated(_ context.Context, level types.AlertLevel, count int) {
	if count <= 0 {
		return
	}
	c.enqueue(cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAlertsGenerated),
		Value:      aws.Float64(float64(count)),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  aws.Time(c.now()),
		Dimensions: dims(types.DimLevel, string(level)),
	})
}

func (c *CloudWatchCollector) RecordAlertsDegraded(_ context.Context, count int) {
	if count <= 0 {
		return
	}
	c.enqueue(cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAlertsDegraded),
		Value:      aws.Float64(float64(count)),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  aws.Time(c.now()),
	})
}

func (c *CloudWatchCollector) enqueue(data ...cwtypes.MetricDatum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = append(c.buffer, data...)
	if over := len(c.buffer) - cloudWatchMaxBuffer; over > 0 {
		c.buffer = c.buffer[over:]
		c.dropped += over
	}
}

// Pending reports how many data points are waiting to be published.
func (c *CloudWatchCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Flush publishes everything buffered so far. Batches that fail are logged
// and discarded; the joined errors are returned.
func (c *CloudWatchCollector) Flush(ctx context.Context) error {
	c.mu.Lock()
	pending := c.buffer
	c.buffer = nil
	dropped := c.dropped
	c.dropped = 0
	c.mu.Unlock()

	if dropped > 0 {
		c.logger.Warn("cloudwatch buffer overflowed; oldest metrics dropped", "dropped", dropped)
	}

	var errs []error
	for start := 0; start < len(pending); start += cloudWatchMaxBatch {
		end := min(start+cloudWatchMaxBatch, len(pending))
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: pending[start:end],
		}
		if _, err := c.client.PutMetricData(ctx, input); err != nil {
			c.logger.Error("failed to publish metrics",
				"error", err.Error(),
				"count", end-start,
			)
			errs = append(errs, fmt.Errorf("put metric data: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run flushes every interval until ctx is cancelled, then makes one final
// flush bounded by a short timeout.
func (c *CloudWatchCollector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Flush(ctx)
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = c.Flush(finalCtx)
			cancel()
			return
		}
	}
}

// dims builds CloudWatch dimensions from name/value pairs.
func dims(kv ...string) []cwtypes.Dimension {
	out := make([]cwtypes.Dimension, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, cwtypes.Dimension{
			Name:  aws.String(kv[i]),
			Value: aws.String(kv[i+1]),
		})
	}
	return out
}
