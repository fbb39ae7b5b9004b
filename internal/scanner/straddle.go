package scanner

import (
	"context"
	"fmt"
	"math"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// scanStraddles evaluates long call + long put pairs on the combined legs.
// Both legs need a quote; a missing leg skips the pair.
func (s *Scanner) scanStraddles(ctx context.Context, accounts []models.Account) (models.ScanResult, error) {
	pairs := strategy.PairStraddles(accounts)

	var pending []pendingRec
	scanned := 0
	for _, pair := range pairs {
		scanned++

		callQuote, err := s.market.GetOptionMetrics(ctx, pair.Symbol, pair.Call.Expiration,
			pair.Call.Strike, models.Call)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("call metrics for %s: %w", pair.Call.Ticker, err)
		}
		putQuote, err := s.market.GetOptionMetrics(ctx, pair.Symbol, pair.Put.Expiration,
			pair.Put.Strike, models.Put)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("put metrics for %s: %w", pair.Put.Ticker, err)
		}
		if callQuote == nil || putQuote == nil {
			s.logger.Debugf("Incomplete quotes for %s straddle; skipping", pair.Symbol)
			continue
		}

		ivRank, err := s.market.GetIVRank(ctx, pair.Symbol)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("iv rank for %s: %w", pair.Symbol, err)
		}

		callMid := strategy.Mid(callQuote.Bid, callQuote.Ask, callQuote.Price)
		putMid := strategy.Mid(putQuote.Bid, putQuote.Ask, putQuote.Price)
		combinedPremium := pair.Call.Premium + pair.Put.Premium
		combinedMid := callMid + putMid
		contracts := math.Min(math.Abs(pair.Call.Quantity), math.Abs(pair.Put.Quantity))
		pl, plPercent := strategy.LongOptionPL(combinedPremium, combinedMid, contracts)

		stockPrice := callQuote.UnderlyingPrice
		dte := strategy.DaysToExpiration(pair.Call.Expiration, s.now())

		in := strategy.StraddleInput{
			CombinedPremium: combinedPremium,
			CombinedMid:     combinedMid,
			PLPercent:       plPercent,
			DTE:             dte,
			CallMoneyness:   strategy.MoneynessFor(stockPrice, pair.Call.Strike, models.Call),
			PutMoneyness:    strategy.MoneynessFor(stockPrice, pair.Put.Strike, models.Put),
		}
		if ivRank != nil {
			in.IVRank = *ivRank
			in.HasIVRank = true
		}
		verdict := strategy.EvaluateStraddle(in)

		metrics := models.Metrics{
			UnderlyingPrice:  stockPrice,
			Mid:              combinedMid,
			DaysToExpiration: dte,
			ProfitLoss:       pl,
			ProfitPercent:    plPercent,
		}
		if ivRank != nil {
			metrics.IVRank = *ivRank
		}

		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(pair.AccountID, pair.Symbol, models.StrategyStraddle, verdict, metrics),
			risk: pair.RiskLevel,
		})
	}

	stored, alerts, err := s.finalize(ctx, pending)
	if err != nil {
		return models.ScanResult{}, err
	}
	return models.ScanResult{Scanned: scanned, Stored: stored, AlertsCreated: alerts}, nil
}
