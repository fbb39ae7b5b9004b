package strategy

import (
	"fmt"
	"math"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// Protective-put engine thresholds, mirroring the covered-call structure with
// inverted direction.
const (
	ppAboveStrikeRatio  = 1.12
	ppExpiryOTMDTEMax   = 10
	ppDecayExtrinsicPct = 10
	ppHedgeDropPercent  = -10
	ppHighIVRank        = 50
	ppAdequateDTEMin    = 14
	ppFarOTMDelta       = -0.25
	ppStableChangePct   = 1.0
)

// ProtectivePutConfig tunes the protective-put scanner's opportunity side.
type ProtectivePutConfig struct {
	// Reserved for future knobs; present so the nested config schema stays
	// strict and symmetric with the other strategies.
}

// ProtectivePutInput is the computed state of one stock + long put pair.
type ProtectivePutInput struct {
	StockPrice          float64
	Strike              float64
	BreakevenPrice      float64 // stock cost basis plus the put premium paid
	DTE                 int
	Moneyness           models.Moneyness
	ExtrinsicPercent    float64 // of the premium paid
	StockGainPercent    float64
	Delta               float64 // put delta, negative
	IVRank              float64
	HasIVRank           bool
	UnderlyingChangePct float64
	Risk                models.RiskLevel
}

// EvaluateProtectivePut decides how to manage an existing protective put.
// Rules are evaluated in strict priority order; the first match wins.
func EvaluateProtectivePut(in ProtectivePutInput) models.Verdict {
	rules := []rule{
		{
			when: func() bool { return in.StockPrice >= in.Strike*ppAboveStrikeRatio },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Stock %.2f is 12%%+ above strike %.2f; the hedge is dead weight",
						in.StockPrice, in.Strike),
				}
			},
		},
		{
			when: func() bool { return in.DTE <= ppExpiryOTMDTEMax && in.Moneyness == models.OTM },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("OTM with %d DTE; salvage remaining value before expiry", in.DTE),
				}
			},
		},
		{
			when: func() bool { return in.ExtrinsicPercent < ppDecayExtrinsicPct },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Little time value left: extrinsic %.1f%% of premium paid",
						in.ExtrinsicPercent),
				}
			},
		},
		{
			when: func() bool { return in.StockGainPercent < ppHedgeDropPercent && in.Moneyness == models.ITM },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Hedge is working: shares down %.1f%% with the put ITM",
						in.StockGainPercent),
				}
			},
		},
		{
			when: func() bool { return in.Risk == models.RiskHigh && in.StockPrice > in.BreakevenPrice },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceMedium,
					Reason:     "Aggressive account above breakeven; recycle the hedge cost into upside",
				}
			},
		},
		{
			when: func() bool { return in.HasIVRank && in.IVRank > ppHighIVRank },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("High IV rank (%.0f); protection is worth keeping", in.IVRank),
				}
			},
		},
		{
			when: func() bool { return in.Moneyness == models.ITM && in.DTE >= ppAdequateDTEMin },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("Protection active: ITM with %d DTE", in.DTE),
				}
			},
		},
		{
			when: func() bool {
				return in.Delta >= ppFarOTMDelta && math.Abs(in.UnderlyingChangePct) <= ppStableChangePct
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("Put far OTM (delta %.2f) with the stock stable; hedge is ineffective",
						in.Delta),
				}
			},
		},
	}

	for _, r := range rules {
		if r.when() {
			return r.then()
		}
	}
	return models.Verdict{
		Action:     models.ActionHold,
		Confidence: models.ConfidenceMedium,
		Reason:     "Position neutral; monitor for changes",
	}
}

// ProtectivePutOpportunity is the verdict for eligible shares with no put
// protection while volatility is elevated. Returns NONE in calm markets so
// the caller discards it before persistence.
func ProtectivePutOpportunity(shares float64, vixLevel string) models.Verdict {
	if vixLevel != "elevated" && vixLevel != "extreme" {
		return models.Verdict{Action: models.ActionNone, Confidence: models.ConfidenceLow,
			Reason: "Volatility normal; no protection needed"}
	}
	return models.Verdict{
		Action:     models.ActionBuyNewPut,
		Confidence: models.ConfidenceMedium,
		Reason: fmt.Sprintf("%.0f shares have no downside protection while volatility is %s",
			shares, vixLevel),
	}
}
