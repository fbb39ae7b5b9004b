package models

import "time"

// Severity ranks how urgently an alert should be surfaced.
type Severity string

const (
	// SeverityHigh for high-confidence actionable verdicts.
	SeverityHigh Severity = "high"
	// SeverityMedium for medium-confidence verdicts.
	SeverityMedium Severity = "medium"
	// SeverityLow for everything else.
	SeverityLow Severity = "low"
)

// Alert is derived from an actionable recommendation. At most one alert per
// (symbol, action, type) is created within a rolling 24-hour window.
type Alert struct {
	ID           string    `json:"id"`
	Type         Strategy  `json:"type"`
	AccountID    string    `json:"account_id"`
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	Reason       string    `json:"reason"`
	Metrics      Metrics   `json:"metrics"`
	Severity     Severity  `json:"severity"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// SeverityFor maps a recommendation confidence to an alert severity.
func SeverityFor(c Confidence) Severity {
	switch c {
	case ConfidenceHigh:
		return SeverityHigh
	case ConfidenceMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
