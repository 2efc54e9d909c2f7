package types

// MetricStatus is the upstream-supplied classification of a metric reading
// against its safe range.
type MetricStatus string

const (
	MetricStatusSafe    MetricStatus = "safe"
	MetricStatusWarning MetricStatus = "warning"
	MetricStatusDanger  MetricStatus = "danger"
)

// RiskLevel grades the likelihood of a waterborne disease at a source.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AlertLevel is the severity attached to a generated alert.
type AlertLevel string

const (
	AlertLevelCritical AlertLevel = "critical"
	AlertLevelWarning  AlertLevel = "warning"
)

// FailurePolicy decides what an aggregation pass does when the advisory
// client fails for a single metric or disease.
type FailurePolicy string

const (
	// FailurePolicyAbort fails the whole pass on the first advisory error.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicySkip drops the failing entry and keeps going.
	FailurePolicySkip FailurePolicy = "skip"
)

// Valid reports whether s is one of the known statuses.
func (s MetricStatus) Valid() bool {
	switch s {
	case MetricStatusSafe, MetricStatusWarning, MetricStatusDanger:
		return true
	}
	return false
}

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}
