package types

import "time"

// Metric is a single measured water-quality parameter at a source.
// Status is supplied by upstream data and is not recomputed here.
type Metric struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	SafeRange [2]float64   `json:"safeRange"`
	Status    MetricStatus `json:"status"`
	Icon      string       `json:"icon"`
}

// Disease is a health condition associated with contaminated water.
type Disease struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	Description string    `json:"description"`
	CausedBy    []string  `json:"causedBy"`
}

// WaterSource owns its metrics and diseases by value.
type WaterSource struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Type     string    `json:"type"`
	Metrics  []Metric  `json:"metrics"`
	Diseases []Disease `json:"diseases"`
}

// QualityPrediction is the forecast quality outlook for one source.
type QualityPrediction struct {
	Score            int      `json:"score"`
	Status           string   `json:"status"`
	Description      string   `json:"description"`
	ImprovementSteps []string `json:"improvementSteps"`
}

// HistoricalDataItem is one dated reading in a historical series.
type HistoricalDataItem struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// HistoricalData is the reading history for one metric.
type HistoricalData struct {
	MetricID   string               `json:"metricId"`
	MetricName string               `json:"metricName"`
	Data       []HistoricalDataItem `json:"data"`
}

// Alert is a generated notification for an out-of-range metric or an
// elevated disease risk. ID and Timestamp are assigned once by the
// constructor in the alerts package; alerts live only for one response.
type Alert struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Source    string     `json:"source"`
	Level     AlertLevel `json:"level"`
	Metric    string     `json:"metric"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Timestamp time.Time  `json:"timestamp"`
}

// AdvisoryResponse is the body returned by the advisory query endpoints.
type AdvisoryResponse struct {
	Response string `json:"response"`
}
