package scanner

import (
	"context"
	"fmt"
	"math"

	"github.com/sperezintexas/fintech-app-sub000/internal/marketdata"
	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// scanProtectivePuts evaluates existing stock + long put hedges and proposes
// new puts for unhedged shares while volatility is elevated.
func (s *Scanner) scanProtectivePuts(ctx context.Context, accounts []models.Account,
	chains map[string]*marketdata.OptionChain) (models.ScanResult, error) {
	pairs, opportunities := strategy.PairPositions(accounts, models.Put, s.cfg.MinStockShares)
	if s.cfg.Symbol != "" {
		opportunities = []models.Opportunity{strategy.SyntheticOpportunity(s.cfg.Symbol, s.cfg.MinStockShares)}
	}

	var pending []pendingRec
	scanned := 0

	for _, pair := range pairs {
		scanned++
		quote, err := s.market.GetOptionMetrics(ctx, pair.Symbol, pair.Expiration, pair.Strike, models.Put)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("put metrics for %s: %w", pair.OptionTicker, err)
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
		moneyness := strategy.MoneynessFor(stockPrice, pair.Strike, models.Put)
		extrinsic := strategy.ExtrinsicValue(mid, quote.IntrinsicValue)
		extrinsicPct := strategy.ExtrinsicPercent(extrinsic, pair.Premium)
		_, stockGainPct := strategy.StockPL(pair.PurchasePrice, stockPrice, pair.Shares)
		pl, plPercent := strategy.LongOptionPL(pair.Premium, mid, pair.Contracts)

		changePct := 0.0
		if conditions != nil {
			changePct = conditions.SymbolChangePercent
		}

		in := strategy.ProtectivePutInput{
			StockPrice:          stockPrice,
			Strike:              pair.Strike,
			BreakevenPrice:      pair.PurchasePrice + pair.Premium,
			DTE:                 dte,
			Moneyness:           moneyness,
			ExtrinsicPercent:    extrinsicPct,
			StockGainPercent:    stockGainPct,
			Delta:               quote.Delta,
			UnderlyingChangePct: changePct,
			Risk:                pair.RiskLevel,
		}
		if ivRank != nil {
			in.IVRank = *ivRank
			in.HasIVRank = true
		}
		verdict := strategy.EvaluateProtectivePut(in)

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
			Delta:               quote.Delta,
			StockProfitPercent:  stockGainPct,
			UnderlyingChangePct: changePct,
		}
		if ivRank != nil {
			metrics.IVRank = *ivRank
		}

		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(pair.AccountID, pair.Symbol, models.StrategyProtectivePut, verdict, metrics),
			risk: pair.RiskLevel,
		})
	}

	for _, opp := range opportunities {
		scanned++
		conditions, err := s.market.GetMarketConditions(ctx, opp.Symbol)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("market conditions for %s: %w", opp.Symbol, err)
		}
		vixLevel := ""
		if conditions != nil {
			vixLevel = conditions.VIXLevel
		}

		verdict := strategy.ProtectivePutOpportunity(opp.Shares, vixLevel)
		if verdict.Action == models.ActionNone {
			continue
		}

		// Metrics stay zero-valued unless a chain strike was evaluated.
		metrics := models.Metrics{UncoveredShares: opp.Shares}
		if candidate, stockPrice := otmPutNear(chains[opp.Symbol]); candidate != nil {
			premium := strategy.Mid(candidate.Bid, candidate.Ask, candidate.Last)
			metrics.UnderlyingPrice = stockPrice
			metrics.Bid = candidate.Bid
			metrics.Ask = candidate.Ask
			metrics.Mid = premium
			metrics.DaysToExpiration = strategy.DaysToExpiration(candidate.Expiration, s.now())
			metrics.Delta = candidate.Delta
			metrics.DistanceToStrikePct = strategy.DistanceToStrikePercent(stockPrice, candidate.Strike)
		}

		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(opp.AccountID, opp.Symbol, models.StrategyProtectivePut, verdict, metrics),
			risk: opp.RiskLevel,
		})
	}

	stored, alerts, err := s.finalize(ctx, pending)
	if err != nil {
		return models.ScanResult{}, err
	}
	return models.ScanResult{Scanned: scanned, Stored: stored, AlertsCreated: alerts}, nil
}

// otmPutNear picks the put closest to 5% below the current stock price,
// strictly out of the money. Returns nil when no chain or no OTM rung exists.
func otmPutNear(chain *marketdata.OptionChain) (*marketdata.ChainOption, float64) {
	if chain == nil || chain.Stock.Price <= 0 {
		return nil, 0
	}
	price := chain.Stock.Price
	target := price / otmStrikeRatio

	var best *marketdata.ChainOption
	bestDist := math.MaxFloat64
	for i := range chain.Puts {
		put := &chain.Puts[i]
		if put.Strike >= price {
			continue
		}
		if dist := math.Abs(put.Strike - target); dist < bestDist {
			best, bestDist = put, dist
		}
	}
	return best, price
}
