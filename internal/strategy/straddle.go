package strategy

import (
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// Straddle/strangle engine thresholds, chosen to mirror the sibling engines:
// profit-capture exit, time-decay exit, volatility-driven hold.
const (
	strProfitTargetPercent = 50
	strDecayDTEMax         = 21
	strHoldIVRank          = 50
	strHoldDTEMin          = 30
	strAddLossFloorPercent = -25
)

// StraddleConfig tunes the straddle/strangle engine.
type StraddleConfig struct {
	// Reserved for future knobs; keeps the nested config schema strict.
}

// StraddlePair is a long call + long put on the same underlying and
// expiration inside one account.
type StraddlePair struct {
	AccountID string
	RiskLevel models.RiskLevel
	Symbol    string
	Call      models.Position
	Put       models.Position
}

// PairStraddles groups each account's long calls and puts into
// straddle/strangle pairs by underlying and expiration. Each leg is consumed
// by at most one pair.
func PairStraddles(accounts []models.Account) []StraddlePair {
	var out []StraddlePair
	for _, account := range accounts {
		var calls, puts []models.Position
		for _, pos := range account.Positions {
			if pos.Kind != models.KindOption {
				continue
			}
			switch pos.OptionType {
			case models.Call:
				calls = append(calls, pos)
			case models.Put:
				puts = append(puts, pos)
			}
		}

		used := make([]bool, len(puts))
		for _, call := range calls {
			symbol := models.UnderlyingSymbol(call.Ticker)
			for i, put := range puts {
				if used[i] || models.UnderlyingSymbol(put.Ticker) != symbol {
					continue
				}
				if !sameDay(call.Expiration, put.Expiration) {
					continue
				}
				out = append(out, StraddlePair{
					AccountID: account.ID,
					RiskLevel: account.RiskLevel,
					Symbol:    symbol,
					Call:      call,
					Put:       put,
				})
				used[i] = true
				break
			}
		}
	}
	return out
}

// StraddleInput is the computed state of one straddle/strangle pair, priced
// on the combined legs.
type StraddleInput struct {
	CombinedPremium float64 // per-share premium paid for both legs
	CombinedMid     float64 // current per-share value of both legs
	PLPercent       float64 // net unrealized P/L on the pair
	DTE             int     // nearest leg expiration
	IVRank          float64
	HasIVRank       bool
	CallMoneyness   models.Moneyness
	PutMoneyness    models.Moneyness
}

// EvaluateStraddle decides how to manage a long straddle/strangle.
// Rules are evaluated in strict priority order; the first match wins.
func EvaluateStraddle(in StraddleInput) models.Verdict {
	rules := []rule{
		{
			when: func() bool { return in.PLPercent >= strProfitTargetPercent },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Profit target reached: pair up %.1f%% on combined premium",
						in.PLPercent),
				}
			},
		},
		{
			when: func() bool { return in.DTE <= strDecayDTEMax && in.PLPercent >= 0 },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionRoll,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("%d DTE inside the decay window with the pair ahead; roll out to keep exposure",
						in.DTE),
				}
			},
		},
		{
			when: func() bool { return in.DTE <= strDecayDTEMax },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionSellToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Time decay exit: %d DTE with the pair down %.1f%%",
						in.DTE, in.PLPercent),
				}
			},
		},
		{
			when: func() bool { return in.HasIVRank && in.IVRank >= strHoldIVRank && in.DTE >= strHoldDTEMin },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("High IV rank (%.0f) with %d DTE; a move is priced likely", in.IVRank, in.DTE),
				}
			},
		},
		{
			when: func() bool {
				return in.CallMoneyness == models.ATM && in.PutMoneyness == models.ATM &&
					in.DTE >= strHoldDTEMin && in.PLPercent < 0 && in.PLPercent >= strAddLossFloorPercent
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionAdd,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("Both legs ATM with %d DTE and a small drawdown (%.1f%%); averaging in is cheap",
						in.DTE, in.PLPercent),
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
		Reason:     "Pair neutral; monitor for a breakout",
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
