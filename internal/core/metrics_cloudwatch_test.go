package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"bluewaters/internal/types"
)

func dimMap(d []cwtypes.Dimension) map[string]string {
	out := make(map[string]string, len(d))
	for _, dim := range d {
		out[aws.ToString(dim.Name)] = aws.ToString(dim.Value)
	}
	return out
}

func TestCloudWatchCollector_RecordRequest(t *testing.T) {
	client := &MockCloudWatchClient{}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.RecordRequest("GET", "/alerts", "200", 150*time.Millisecond)
	if c.Pending() != 2 {
		t.Fatalf("expected 2 buffered data, got %d", c.Pending())
	}
	if client.Calls() != 0 {
		t.Fatal("recording must not call CloudWatch")
	}

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if client.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", client.Calls())
	}

	input := client.Inputs[0]
	if aws.ToString(input.Namespace) != "BlueWaters" {
		t.Errorf("unexpected namespace %q", aws.ToString(input.Namespace))
	}
	if len(input.MetricData) != 2 {
		t.Fatalf("expected 2 data, got %d", len(input.MetricData))
	}

	count, latency := input.MetricData[0], input.MetricData[1]
	if aws.ToString(count.MetricName) != types.MetricAPIRequestCount || aws.ToFloat64(count.Value) != 1 {
		t.Errorf("unexpected count datum %+v", count)
	}
	if dims := dimMap(count.Dimensions); dims[types.DimEndpoint] != "/alerts" || dims[types.DimStatus] != "200" || dims[types.DimMethod] != "GET" {
		t.Errorf("unexpected count dims %v", dims)
	}
	if aws.ToString(latency.MetricName) != types.MetricAPILatency || aws.ToFloat64(latency.Value) != 150 {
		t.Errorf("unexpected latency datum %+v", latency)
	}
	if latency.Unit != cwtypes.StandardUnitMilliseconds {
		t.Errorf("unexpected unit %v", latency.Unit)
	}
	if !aws.ToTime(latency.Timestamp).Equal(fixed) {
		t.Errorf("unexpected timestamp %v", aws.ToTime(latency.Timestamp))
	}
}

func TestCloudWatchCollector_AdvisoryAndAlerts(t *testing.T) {
	ctx := context.Background()
	client := &MockCloudWatchClient{}
	c := NewCloudWatchCollector(client, "", nil)

	c.RecordAdvisoryCall(ctx, types.AdvisoryStepCompletion, types.ResultFallback, time.Second)
	c.RecordAlertsGenerated(ctx, types.AlertLevelWarning, 4)
	c.RecordAlertsGenerated(ctx, types.AlertLevelCritical, 0)
	c.RecordAlertsDegraded(ctx, 1)
	c.RecordAlertsDegraded(ctx, 0)

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data := client.Inputs[0].MetricData
	if aws.ToString(client.Inputs[0].Namespace) != types.MetricNamespace {
		t.Errorf("expected default namespace, got %q", aws.ToString(client.Inputs[0].Namespace))
	}
	if len(data) != 4 {
		t.Fatalf("expected 4 data (zero counts skipped), got %d", len(data))
	}
	if dims := dimMap(data[0].Dimensions); dims[types.DimStep] != "completion" || dims[types.DimResult] != "fallback" {
		t.Errorf("unexpected advisory dims %v", dims)
	}
	if aws.ToString(data[2].MetricName) != types.MetricAlertsGenerated || aws.ToFloat64(data[2].Value) != 4 {
		t.Errorf("unexpected alerts datum %+v", data[2])
	}
	if aws.ToString(data[3].MetricName) != types.MetricAlertsDegraded || len(data[3].Dimensions) != 0 {
		t.Errorf("unexpected degraded datum %+v", data[3])
	}
}

func TestCloudWatchCollector_FlushBatches(t *testing.T) {
	client := &MockCloudWatchClient{}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())

	// 1200 requests produce 2400 data: batches of 1000, 1000, 400.
	for i := 0; i < 1200; i++ {
		c.RecordRequest("GET", "/water-sources", "200", time.Millisecond)
	}
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if client.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", client.Calls())
	}
	sizes := []int{len(client.Inputs[0].MetricData), len(client.Inputs[1].MetricData), len(client.Inputs[2].MetricData)}
	if sizes[0] != 1000 || sizes[1] != 1000 || sizes[2] != 400 {
		t.Errorf("unexpected batch sizes %v", sizes)
	}
}

func TestCloudWatchCollector_FlushEmpty(t *testing.T) {
	client := &MockCloudWatchClient{}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if client.Calls() != 0 {
		t.Errorf("expected no calls for an empty buffer, got %d", client.Calls())
	}
}

func TestCloudWatchCollector_FlushErrorDiscardsBatch(t *testing.T) {
	client := &MockCloudWatchClient{Err: errors.New("AccessDenied")}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())
	c.RecordRequest("GET", "/alerts", "500", time.Millisecond)

	err := c.Flush(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Pending() != 0 {
		t.Errorf("failed batch should be discarded, %d pending", c.Pending())
	}
}

func TestCloudWatchCollector_BufferCap(t *testing.T) {
	client := &MockCloudWatchClient{}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())

	for i := 0; i < cloudWatchMaxBuffer; i++ {
		c.RecordRequest("GET", "/alerts", "200", time.Millisecond)
	}
	if c.Pending() != cloudWatchMaxBuffer {
		t.Errorf("expected buffer capped at %d, got %d", cloudWatchMaxBuffer, c.Pending())
	}
}

func TestCloudWatchCollector_RunFlushesOnCancel(t *testing.T) {
	published := make(chan int, 4)
	client := &MockCloudWatchClient{
		PutMetricDataFunc: func(_ context.Context, in *cloudwatch.PutMetricDataInput) (*cloudwatch.PutMetricDataOutput, error) {
			published <- len(in.MetricData)
			return &cloudwatch.PutMetricDataOutput{}, nil
		},
	}
	c := NewCloudWatchCollector(client, "BlueWaters", slog.Default())
	c.RecordAlertsDegraded(context.Background(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	select {
	case n := <-published:
		if n != 1 {
			t.Errorf("expected 1 datum, got %d", n)
		}
	default:
		t.Fatal("expected a final flush on shutdown")
	}
}
