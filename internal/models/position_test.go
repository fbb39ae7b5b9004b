package models

import "testing"

func TestUnderlyingSymbol(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
	}{
		{"TSLA", "TSLA"},
		{"tsla", "TSLA"},
		{"TSLA260130C00475000", "TSLA"},
		{"spy260320P00500000", "SPY"},
		{" AAPL ", "AAPL"},
		{"BRKB", "BRKB"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UnderlyingSymbol(tt.ticker); got != tt.want {
			t.Errorf("UnderlyingSymbol(%q) = %q, want %q", tt.ticker, got, tt.want)
		}
	}
}

func TestRecommendationActionable(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionHold, false},
		{ActionNone, false},
		{ActionBuyToClose, true},
		{ActionSellToClose, true},
		{ActionSellNewCall, true},
		{ActionRoll, true},
	}
	for _, tt := range tests {
		rec := Recommendation{Action: tt.action}
		if got := rec.Actionable(); got != tt.want {
			t.Errorf("Actionable() with %s = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestSeverityFor(t *testing.T) {
	if got := SeverityFor(ConfidenceHigh); got != SeverityHigh {
		t.Errorf("SeverityFor(HIGH) = %s, want high", got)
	}
	if got := SeverityFor(ConfidenceMedium); got != SeverityMedium {
		t.Errorf("SeverityFor(MEDIUM) = %s, want medium", got)
	}
	if got := SeverityFor(ConfidenceLow); got != SeverityLow {
		t.Errorf("SeverityFor(LOW) = %s, want low", got)
	}
}
