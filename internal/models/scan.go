package models

// Scanner names, used as keys in scan results and error reports.
const (
	ScannerOption        = "optionScanner"
	ScannerCoveredCall   = "coveredCallScanner"
	ScannerProtectivePut = "protectivePutScanner"
	ScannerStraddle      = "straddleScanner"
)

// ScanResult summarizes one strategy scanner's run.
type ScanResult struct {
	Scanner       string `json:"scanner"`
	Scanned       int    `json:"scanned"`
	Stored        int    `json:"stored"`
	AlertsCreated int    `json:"alerts_created"`
}

// ScanError records a scanner that failed inside a unified run.
type ScanError struct {
	Scanner string `json:"scanner"`
	Message string `json:"message"`
}

// UnifiedResult aggregates the four scanner results. Partial failures land in
// Errors with zeroed counts for the failing scanner; the run itself succeeds.
type UnifiedResult struct {
	Option        ScanResult  `json:"option_scanner"`
	CoveredCall   ScanResult  `json:"covered_call_scanner"`
	ProtectivePut ScanResult  `json:"protective_put_scanner"`
	Straddle      ScanResult  `json:"straddle_scanner"`
	TotalScanned  int         `json:"total_scanned"`
	TotalStored   int         `json:"total_stored"`
	TotalAlerts   int         `json:"total_alerts_created"`
	Errors        []ScanError `json:"errors"`
}
