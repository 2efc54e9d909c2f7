package core

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"bluewaters/internal/types"
)

// --- MockTelemetry ---

// MockTelemetry implements Telemetry for testing. It records every
// observation so tests can assert on what the middleware, the advisory
// client or the aggregator reported.
//
// Usage:
//
//	mock := &MockTelemetry{}
//	srv.Metrics = mock
//	// ... serve a request ...
//	calls := mock.RequestCalls()
type MockTelemetry struct {
	mu sync.Mutex

	Requests        []RequestCall
	AdvisoryCalls   []AdvisoryCall
	AlertsGenerated map[types.AlertLevel]int
	AlertsDegraded  int
}

// RequestCall records the arguments of a single RecordRequest invocation.
type RequestCall struct {
	Method   string
	Endpoint string
	Status   string
	Duration time.Duration
}

// AdvisoryCall records the arguments of a single RecordAdvisoryCall invocation.
type AdvisoryCall struct {
	Step     string
	Result   string
	Duration time.Duration
}

func (m *MockTelemetry) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, RequestCall{Method: method, Endpoint: endpoint, Status: status, Duration: duration})
}

func (m *MockTelemetry) RecordAdvisoryCall(_ context.Context, step, result string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdvisoryCalls = append(m.AdvisoryCalls, AdvisoryCall{Step: step, Result: result, Duration: duration})
}

func (m *MockTelemetry) RecordAlertsGenerated(_ context.Context, level types.AlertLevel, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AlertsGenerated == nil {
		m.AlertsGenerated = make(map[types.AlertLevel]int)
	}
	m.AlertsGenerated[level] += count
}

func (m *MockTelemetry) RecordAlertsDegraded(_ context.Context, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AlertsDegraded += count
}

// RequestCalls returns a copy of the recorded requests.
func (m *MockTelemetry) RequestCalls() []RequestCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestCall, len(m.Requests))
	copy(out, m.Requests)
	return out
}

// --- MockCloudWatchClient ---

// MockCloudWatchClient implements CloudWatchClient for testing. Err, when
// set, is returned from every call; PutMetricDataFunc overrides both.
type MockCloudWatchClient struct {
	Err               error
	PutMetricDataFunc func(ctx context.Context, params *cloudwatch.PutMetricDataInput) (*cloudwatch.PutMetricDataOutput, error)

	mu     sync.Mutex
	Inputs []*cloudwatch.PutMetricDataInput
}

// PutMetricData records the input, then delegates.
func (m *MockCloudWatchClient) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	m.Inputs = append(m.Inputs, params)
	m.mu.Unlock()

	if m.PutMetricDataFunc != nil {
		return m.PutMetricDataFunc(ctx, params)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Calls returns the number of PutMetricData invocations.
func (m *MockCloudWatchClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Inputs)
}

// Compile-time interface assertions.
var (
	_ Telemetry        = (*MockTelemetry)(nil)
	_ CloudWatchClient = (*MockCloudWatchClient)(nil)
)
