package strategy

import (
	"strings"
	"testing"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

func TestEvaluateStraddle(t *testing.T) {
	tests := []struct {
		name           string
		in             StraddleInput
		wantAction     models.Action
		wantConfidence models.Confidence
		wantReason     string
	}{
		{
			name:       "profit target reached",
			in:         StraddleInput{CombinedPremium: 20, CombinedMid: 31, PLPercent: 55, DTE: 40},
			wantAction: models.ActionSellToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Profit target",
		},
		{
			name:       "decay window while ahead rolls",
			in:         StraddleInput{CombinedPremium: 20, CombinedMid: 22, PLPercent: 10, DTE: 15},
			wantAction: models.ActionRoll, wantConfidence: models.ConfidenceMedium,
			wantReason: "roll out",
		},
		{
			name:       "decay window while behind exits",
			in:         StraddleInput{CombinedPremium: 20, CombinedMid: 14, PLPercent: -30, DTE: 15},
			wantAction: models.ActionSellToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Time decay",
		},
		{
			name: "high iv rank holds",
			in: StraddleInput{CombinedPremium: 20, CombinedMid: 18, PLPercent: -10, DTE: 45,
				IVRank: 60, HasIVRank: true},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceHigh,
			wantReason: "High IV rank",
		},
		{
			name: "small atm drawdown adds",
			in: StraddleInput{CombinedPremium: 20, CombinedMid: 17, PLPercent: -15, DTE: 45,
				CallMoneyness: models.ATM, PutMoneyness: models.ATM},
			wantAction: models.ActionAdd, wantConfidence: models.ConfidenceMedium,
			wantReason: "averaging in",
		},
		{
			name:       "neutral default",
			in:         StraddleInput{CombinedPremium: 20, CombinedMid: 19, PLPercent: -5, DTE: 45},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceMedium,
			wantReason: "monitor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStraddle(tt.in)
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

func TestEvaluateStraddlePriorityOrder(t *testing.T) {
	// Profit target and the decay window both match; the profit rule is first.
	in := StraddleInput{CombinedPremium: 20, CombinedMid: 31, PLPercent: 55, DTE: 10}
	got := EvaluateStraddle(in)
	if got.Action != models.ActionSellToClose || !strings.Contains(got.Reason, "Profit target") {
		t.Errorf("got %s %q, want the profit-target rule to win", got.Action, got.Reason)
	}
}
