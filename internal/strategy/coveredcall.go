package strategy

import (
	"fmt"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// Covered-call engine thresholds. These are deliberate constants rather than
// configuration; the engine's fixed percentages are part of its contract.
const (
	ccAboveStrikeRatio   = 1.05
	ccAboveStrikeDTEMax  = 7
	ccExpiryOTMDTEMax    = 3
	ccDecayExtrinsicPct  = 5
	ccConservativeDTEMax = 14
	ccLockGainsPercent   = 15
	ccHighIVRank         = 50
	ccRollStrikeRatio    = 1.03
	ccRollDailyChangePct = 2
	ccAdequateDTEMin     = 14
)

// CoveredCallConfig tunes the covered-call scanner's opportunity side.
type CoveredCallConfig struct {
	MinYield         float64 `yaml:"min_yield"`         // suppress new calls yielding less (annualized %)
	IncludeWatchlist bool    `yaml:"include_watchlist"` // scan watchlist symbols without holdings
}

// CoveredCallInput is the computed state of one stock + short call pair.
type CoveredCallInput struct {
	StockPrice          float64
	Strike              float64
	DTE                 int
	Moneyness           models.Moneyness
	ExtrinsicPercent    float64 // of the premium received
	StockGainPercent    float64 // unrealized gain on the share leg
	IVRank              float64
	HasIVRank           bool
	UnderlyingChangePct float64 // day change of the underlying
	Risk                models.RiskLevel
}

// EvaluateCoveredCall decides how to manage an existing covered call.
// Rules are evaluated in strict priority order; the first match wins.
func EvaluateCoveredCall(in CoveredCallInput) models.Verdict {
	rules := []rule{
		{
			when: func() bool { return in.StockPrice >= in.Strike*ccAboveStrikeRatio && in.DTE <= ccAboveStrikeDTEMax },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Stock %.2f is 5%%+ above strike %.2f with %d DTE; close before assignment",
						in.StockPrice, in.Strike, in.DTE),
				}
			},
		},
		{
			when: func() bool { return in.DTE <= ccExpiryOTMDTEMax && in.Moneyness == models.OTM },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("OTM with %d DTE; capture remaining premium and free the shares", in.DTE),
				}
			},
		},
		{
			when: func() bool { return in.ExtrinsicPercent < ccDecayExtrinsicPct },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Time decay nearly complete: extrinsic %.1f%% of premium received",
						in.ExtrinsicPercent),
				}
			},
		},
		{
			when: func() bool { return in.Risk == models.RiskLow && in.DTE < ccConservativeDTEMax },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceMedium,
					Reason:     fmt.Sprintf("Conservative account with %d DTE; reduce assignment risk early", in.DTE),
				}
			},
		},
		{
			when: func() bool {
				return in.StockGainPercent > ccLockGainsPercent &&
					(in.Moneyness == models.ATM || in.Moneyness == models.ITM)
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Lock in gains: shares up %.1f%% with the call %s",
						in.StockGainPercent, in.Moneyness),
				}
			},
		},
		{
			when: func() bool {
				return in.HasIVRank && in.IVRank > ccHighIVRank &&
					(in.Moneyness == models.OTM || in.Moneyness == models.ATM)
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("High IV rank (%.0f); rich premium favors staying short", in.IVRank),
				}
			},
		},
		{
			when: func() bool {
				return in.Moneyness == models.ITM && in.StockPrice > in.Strike*ccRollStrikeRatio &&
					in.UnderlyingChangePct > ccRollDailyChangePct
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionRoll,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("ITM and running (%.1f%% today); roll up and out for fresh premium",
						in.UnderlyingChangePct),
				}
			},
		},
		{
			when: func() bool { return in.DTE >= ccAdequateDTEMin && in.Moneyness == models.OTM },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("Adequate DTE (%d) and OTM; let theta work", in.DTE),
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

// CoveredCallOpportunity is the verdict for eligible shares with no call
// written against them.
func CoveredCallOpportunity(uncoveredShares float64) models.Verdict {
	return models.Verdict{
		Action:     models.ActionSellNewCall,
		Confidence: models.ConfidenceMedium,
		Reason: fmt.Sprintf("%.0f shares have no covered call; selling calls would generate income",
			uncoveredShares),
	}
}
