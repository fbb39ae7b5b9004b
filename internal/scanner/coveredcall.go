package scanner

import (
	"context"
	"fmt"
	"math"

	"github.com/sperezintexas/fintech-app-sub000/internal/marketdata"
	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// otmStrikeRatio picks the new-contract strike for opportunities: roughly 5%
// out of the money, closest available rung.
const otmStrikeRatio = 1.05

// scanCoveredCalls evaluates existing stock + short call pairs and proposes
// new calls for eligible uncovered shares.
func (s *Scanner) scanCoveredCalls(ctx context.Context, accounts []models.Account,
	chains map[string]*marketdata.OptionChain) (models.ScanResult, error) {
	pairs, opportunities := strategy.PairPositions(accounts, models.Call, s.cfg.MinStockShares)
	if s.cfg.Symbol != "" {
		opportunities = []models.Opportunity{strategy.SyntheticOpportunity(s.cfg.Symbol, s.cfg.MinStockShares)}
	}

	var pending []pendingRec
	scanned := 0

	for _, pair := range pairs {
		scanned++
		quote, err := s.market.GetOptionMetrics(ctx, pair.Symbol, pair.Expiration, pair.Strike, models.Call)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("call metrics for %s: %w", pair.OptionTicker, err)
		}
		if quote == nil {
			s.logger.Debugf("No quote for %s; skipping", pair.OptionTicker)
			continue
		}

		conditions, err := s.market.GetMarketConditions(ctx, pair.Symbol)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("market conditions for %s: %w", pair.Symbol, err)
		}
		ivRank, err := s.market.GetIVRank(ctx, pair.Symbol)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("iv rank for %s: %w", pair.Symbol, err)
		}

		stockPrice := quote.UnderlyingPrice
		dte := strategy.DaysToExpiration(pair.Expiration, s.now())
		mid := strategy.Mid(quote.Bid, quote.Ask, quote.Price)
		moneyness := strategy.MoneynessFor(stockPrice, pair.Strike, models.Call)
		extrinsic := strategy.ExtrinsicValue(mid, quote.IntrinsicValue)
		extrinsicPct := strategy.ExtrinsicPercent(extrinsic, pair.Premium)
		_, stockGainPct := strategy.StockPL(pair.PurchasePrice, stockPrice, pair.Shares)
		pl, plPercent := strategy.ShortOptionPL(pair.Premium, mid, pair.Contracts)

		changePct := 0.0
		if conditions != nil {
			changePct = conditions.SymbolChangePercent
		}

		in := strategy.CoveredCallInput{
			StockPrice:          stockPrice,
			Strike:              pair.Strike,
			DTE:                 dte,
			Moneyness:           moneyness,
			ExtrinsicPercent:    extrinsicPct,
			StockGainPercent:    stockGainPct,
			UnderlyingChangePct: changePct,
			Risk:                pair.RiskLevel,
		}
		if ivRank != nil {
			in.IVRank = *ivRank
			in.HasIVRank = true
		}
		verdict := strategy.EvaluateCoveredCall(in)

		metrics := models.Metrics{
			UnderlyingPrice:     stockPrice,
			Bid:                 quote.Bid,
			Ask:                 quote.Ask,
			Mid:                 mid,
			DaysToExpiration:    dte,
			Moneyness:           moneyness,
			IntrinsicValue:      quote.IntrinsicValue,
			ExtrinsicValue:      extrinsic,
			ExtrinsicPercent:    extrinsicPct,
			ProfitLoss:          pl,
			ProfitPercent:       plPercent,
			StockProfitPercent:  stockGainPct,
			UnderlyingChangePct: changePct,
			DistanceToStrikePct: strategy.DistanceToStrikePercent(stockPrice, pair.Strike),
		}
		if ivRank != nil {
			metrics.IVRank = *ivRank
		}

		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(pair.AccountID, pair.Symbol, models.StrategyCoveredCall, verdict, metrics),
			risk: pair.RiskLevel,
		})
	}

	for _, opp := range opportunities {
		scanned++
		metrics := models.Metrics{UncoveredShares: opp.Shares}

		candidate, stockPrice := otmCallNear(chains[opp.Symbol])
		if candidate != nil {
			premium := strategy.Mid(candidate.Bid, candidate.Ask, candidate.Last)
			dte := strategy.DaysToExpiration(candidate.Expiration, s.now())
			yield := strategy.AnnualizedYieldPercent(premium, stockPrice, dte)
			if s.cfg.CoveredCall.MinYield > 0 && yield < s.cfg.CoveredCall.MinYield {
				s.logger.Debugf("Skipping %s: best call yields %.1f%% below min %.1f%%",
					opp.Symbol, yield, s.cfg.CoveredCall.MinYield)
				continue
			}
			metrics.UnderlyingPrice = stockPrice
			metrics.Bid = candidate.Bid
			metrics.Ask = candidate.Ask
			metrics.Mid = premium
			metrics.DaysToExpiration = dte
			metrics.AnnualizedYieldPct = yield
			metrics.DistanceToStrikePct = strategy.DistanceToStrikePercent(stockPrice, candidate.Strike)
		}

		verdict := strategy.CoveredCallOpportunity(opp.Shares)
		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(opp.AccountID, opp.Symbol, models.StrategyCoveredCall, verdict, metrics),
			risk: opp.RiskLevel,
		})
	}

	stored, alerts, err := s.finalize(ctx, pending)
	if err != nil {
		return models.ScanResult{}, err
	}
	return models.ScanResult{Scanned: scanned, Stored: stored, AlertsCreated: alerts}, nil
}

// otmCallNear picks the call closest to 5% above the current stock price,
// strictly out of the money. Returns nil when no chain or no OTM rung exists.
func otmCallNear(chain *marketdata.OptionChain) (*marketdata.ChainOption, float64) {
	if chain == nil || chain.Stock.Price <= 0 {
		return nil, 0
	}
	price := chain.Stock.Price
	target := price * otmStrikeRatio

	var best *marketdata.ChainOption
	bestDist := math.MaxFloat64
	for i := range chain.Calls {
		call := &chain.Calls[i]
		if call.Strike <= price {
			continue
		}
		if dist := math.Abs(call.Strike - target); dist < bestDist {
			best, bestDist = call, dist
		}
	}
	return best, price
}
