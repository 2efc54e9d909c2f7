package types

// Telemetry metric names shared by the Prometheus and CloudWatch collectors.
const (
	// Metric Names
	MetricAPIRequestCount = "APIRequestCount"
	MetricAPILatency      = "APILatency"
	MetricAdvisoryCall    = "AdvisoryCall"
	MetricAdvisoryLatency = "AdvisoryLatency"
	MetricAlertsGenerated = "AlertsGenerated"
	MetricAlertsDegraded  = "AlertsDegraded"

	// Dimension Keys
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"
	DimStep     = "Step"
	DimResult   = "Result"
	DimLevel    = "Level"

	// Metric Namespace
	MetricNamespace = "BlueWaters"
)

// Advisory call steps.
const (
	AdvisoryStepToken      = "token"
	AdvisoryStepCompletion = "completion"
)

// Advisory call outcomes.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultFallback = "fallback"
)
