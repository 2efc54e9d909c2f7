package core

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"bluewaters/internal/types"
)

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	// RecordRequest records one completed request. endpoint is the matched
	// route pattern, not the raw path.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Telemetry is the full set of observations the service emits. Both metric
// backends implement it; the advisory client and the alerts aggregator
// consume narrower slices of it.
type Telemetry interface {
	MetricsCollector
	RecordAdvisoryCall(ctx context.Context, step, result string, duration time.Duration)
	RecordAlertsGenerated(ctx context.Context, level types.AlertLevel, count int)
	RecordAlertsDegraded(ctx context.Context, count int)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}
