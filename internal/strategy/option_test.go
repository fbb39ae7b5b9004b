package strategy

import (
	"strings"
	"testing"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

func TestEvaluateOption(t *testing.T) {
	tests := []struct {
		name           string
		in             OptionInput
		wantAction     models.Action
		wantConfidence models.Confidence
		wantReason     string
	}{
		{
			name:       "stop loss beats everything",
			in:         OptionInput{DTE: 30, PLPercent: -55, ExtrinsicPercent: 80},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Stop loss",
		},
		{
			name:       "low dte close",
			in:         OptionInput{DTE: 5, PLPercent: 10},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Low DTE",
		},
		{
			name: "elevated volatility put",
			in: OptionInput{OptionType: models.Put, DTE: 10, PLPercent: -10,
				IntrinsicValue: 0, ImpliedVolatility: 45, VIXLevel: "elevated"},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceMedium,
			wantReason: "Elevated volatility",
		},
		{
			name:       "adequate runway holds",
			in:         OptionInput{DTE: 20, PLPercent: -10},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceMedium,
			wantReason: "Adequate runway",
		},
		{
			name:       "profitable holds",
			in:         OptionInput{DTE: 10, PLPercent: 15},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceMedium,
			wantReason: "Position profitable",
		},
		{
			name:       "time value holds",
			in:         OptionInput{DTE: 12, PLPercent: -5, ExtrinsicPercent: 40},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceMedium,
			wantReason: "Time value remaining",
		},
		{
			name:       "no signal near expiry closes",
			in:         OptionInput{DTE: 9, PLPercent: -5, ExtrinsicPercent: 10},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceLow,
			wantReason: "Approaching expiration",
		},
		{
			name:       "no signal default hold",
			in:         OptionInput{DTE: 12, PLPercent: -5, ExtrinsicPercent: 10},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceLow,
			wantReason: "No strong signal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateOption(tt.in, OptionConfig{})
			if got.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", got.Action, tt.wantAction)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %s, want %s", got.Confidence, tt.wantConfidence)
			}
			if !strings.Contains(got.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to contain %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateOptionConfigOverrides(t *testing.T) {
	cfg := OptionConfig{StopLossPercent: -30}
	got := EvaluateOption(OptionInput{DTE: 30, PLPercent: -35}, cfg)
	if got.Action != models.ActionBuyToClose {
		t.Errorf("Action = %s, want BUY_TO_CLOSE with tightened stop loss", got.Action)
	}

	// Untouched fields still fall back to defaults.
	got = EvaluateOption(OptionInput{DTE: 5, PLPercent: 0}, cfg)
	if got.Action != models.ActionBuyToClose {
		t.Errorf("Action = %s, want BUY_TO_CLOSE from default low-DTE rule", got.Action)
	}
}
