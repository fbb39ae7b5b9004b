package strategy

import (
	"strings"
	"testing"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

func TestEvaluateCoveredCall(t *testing.T) {
	tests := []struct {
		name           string
		in             CoveredCallInput
		wantAction     models.Action
		wantConfidence models.Confidence
		wantReason     string
	}{
		{
			name: "deep above strike near expiry",
			in: CoveredCallInput{StockPrice: 265, Strike: 250, DTE: 5,
				Moneyness: models.ITM, ExtrinsicPercent: 50},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "above strike",
		},
		{
			name: "otm at expiry",
			in: CoveredCallInput{StockPrice: 240, Strike: 250, DTE: 2,
				Moneyness: models.OTM, ExtrinsicPercent: 30},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "capture remaining premium",
		},
		{
			name: "time decay complete",
			in: CoveredCallInput{StockPrice: 240, Strike: 250, DTE: 20,
				Moneyness: models.OTM, ExtrinsicPercent: 3},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Time decay",
		},
		{
			name: "conservative account short dte",
			in: CoveredCallInput{StockPrice: 240, Strike: 250, DTE: 10,
				Moneyness: models.OTM, ExtrinsicPercent: 40, Risk: models.RiskLow},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceMedium,
			wantReason: "Conservative",
		},
		{
			name: "lock in stock gains",
			in: CoveredCallInput{StockPrice: 252, Strike: 250, DTE: 20,
				Moneyness: models.ATM, ExtrinsicPercent: 40, StockGainPercent: 20},
			wantAction: models.ActionBuyToClose, wantConfidence: models.ConfidenceHigh,
			wantReason: "Lock in gains",
		},
		{
			name: "high iv rank holds",
			in: CoveredCallInput{StockPrice: 240, Strike: 250, DTE: 20,
				Moneyness: models.OTM, ExtrinsicPercent: 40, IVRank: 60, HasIVRank: true},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceHigh,
			wantReason: "High IV rank",
		},
		{
			name: "itm and running rolls",
			in: CoveredCallInput{StockPrice: 260, Strike: 250, DTE: 10,
				Moneyness: models.ITM, ExtrinsicPercent: 40, UnderlyingChangePct: 3},
			wantAction: models.ActionRoll, wantConfidence: models.ConfidenceMedium,
			wantReason: "roll",
		},
		{
			name: "adequate dte otm holds",
			in: CoveredCallInput{StockPrice: 240, Strike: 250, DTE: 20,
				Moneyness: models.OTM, ExtrinsicPercent: 40},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceHigh,
			wantReason: "Adequate DTE",
		},
		{
			name: "neutral default",
			in: CoveredCallInput{StockPrice: 249, Strike: 250, DTE: 10,
				Moneyness: models.ATM, ExtrinsicPercent: 40},
			wantAction: models.ActionHold, wantConfidence: models.ConfidenceMedium,
			wantReason: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateCoveredCall(tt.in)
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

func TestEvaluateCoveredCallPriorityOrder(t *testing.T) {
	// Matches both the above-strike rule and the lock-in-gains rule; the
	// earlier rule's reason must win.
	in := CoveredCallInput{StockPrice: 265, Strike: 250, DTE: 5,
		Moneyness: models.ITM, ExtrinsicPercent: 50, StockGainPercent: 25}
	got := EvaluateCoveredCall(in)
	if !strings.Contains(got.Reason, "above strike") {
		t.Errorf("Reason = %q, want the first matching rule's text", got.Reason)
	}
}

func TestCoveredCallOpportunity(t *testing.T) {
	got := CoveredCallOpportunity(200)
	if got.Action != models.ActionSellNewCall {
		t.Errorf("Action = %s, want SELL_NEW_CALL", got.Action)
	}
	if got.Confidence != models.ConfidenceMedium {
		t.Errorf("Confidence = %s, want MEDIUM", got.Confidence)
	}
	if !strings.Contains(got.Reason, "no covered call") {
		t.Errorf("Reason = %q, want it to contain %q", got.Reason, "no covered call")
	}
	if !strings.Contains(got.Reason, "200") {
		t.Errorf("Reason = %q, want it to cite the share count", got.Reason)
	}
}
