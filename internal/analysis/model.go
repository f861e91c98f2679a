package analysis

import "time"

// Severity ranks how urgent an anomaly is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Feature is one scored evaluation dimension with an optional prior-period
// value for delta display.
type Feature struct {
	Name          string `json:"name"`
	Value         int    `json:"value"`
	PreviousValue *int   `json:"previousValue,omitempty"`
}

// Anomaly describes one flagged irregularity in the audited data.
type Anomaly struct {
	Description       string   `json:"description"`
	Severity          Severity `json:"severity"`
	RecommendedAction string   `json:"recommendedAction"`
}

// SummaryStats aggregates the audited table.
type SummaryStats struct {
	TotalRecords       int     `json:"totalRecords"`
	TotalAmount        float64 `json:"totalAmount"`
	AverageTransaction float64 `json:"averageTransaction"`
	DateRange          string  `json:"dateRange"`
}

// Result is the complete outcome of one audit run.
type Result struct {
	HasAnomalies   bool         `json:"hasAnomalies"`
	Confidence     int          `json:"confidence"`
	Features       []Feature    `json:"features"`
	SummaryStats   SummaryStats `json:"summaryStats"`
	Anomalies      []Anomaly    `json:"anomalies"`
	SourceFileName string       `json:"sourceFileName"`
	AnalyzedAt     time.Time    `json:"analyzedAt"`
}

// Normalize reconciles the anomaly flag with the anomaly list. The list is
// the source of truth: a result reports anomalies exactly when it carries at
// least one.
func Normalize(r Result) Result {
	r.HasAnomalies = len(r.Anomalies) > 0
	return r
}
