package scanner

import (
	"context"
	"fmt"
	"math"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// scanOptions evaluates every option position standalone with the plain
// hold/close engine. Positions with no market quote are skipped; provider
// errors fail the scanner and are isolated by the orchestrator.
func (s *Scanner) scanOptions(ctx context.Context, accounts []models.Account) (models.ScanResult, error) {
	holdings := strategy.OptionHoldings(accounts, "")

	var pending []pendingRec
	scanned := 0
	for _, holding := range holdings {
		pos := holding.Position
		symbol := models.UnderlyingSymbol(pos.Ticker)
		scanned++

		quote, err := s.market.GetOptionMetrics(ctx, symbol, pos.Expiration, pos.Strike, pos.OptionType)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("option metrics for %s: %w", pos.Ticker, err)
		}
		if quote == nil {
			s.logger.Debugf("No quote for %s; skipping", pos.Ticker)
			continue
		}

		conditions, err := s.market.GetMarketConditions(ctx, symbol)
		if err != nil {
			return models.ScanResult{}, fmt.Errorf("market conditions for %s: %w", symbol, err)
		}

		dte := strategy.DaysToExpiration(pos.Expiration, s.now())
		mid := strategy.Mid(quote.Bid, quote.Ask, quote.Price)
		contracts := math.Abs(pos.Quantity)
		pl, plPercent := strategy.ShortOptionPL(pos.Premium, mid, contracts)
		extrinsic := strategy.ExtrinsicValue(mid, quote.IntrinsicValue)
		extrinsicPct := strategy.ExtrinsicPercent(extrinsic, pos.Premium)

		vixLevel := ""
		changePct := 0.0
		if conditions != nil {
			vixLevel = conditions.VIXLevel
			changePct = conditions.SymbolChangePercent
		}

		verdict := strategy.EvaluateOption(strategy.OptionInput{
			OptionType:        pos.OptionType,
			DTE:               dte,
			PLPercent:         plPercent,
			IntrinsicValue:    quote.IntrinsicValue,
			ImpliedVolatility: quote.ImpliedVolatility * 100,
			ExtrinsicPercent:  extrinsicPct,
			VIXLevel:          vixLevel,
		}, s.cfg.Option)

		metrics := models.Metrics{
			UnderlyingPrice:     quote.UnderlyingPrice,
			Bid:                 quote.Bid,
			Ask:                 quote.Ask,
			Mid:                 mid,
			DaysToExpiration:    dte,
			Moneyness:           strategy.MoneynessFor(quote.UnderlyingPrice, pos.Strike, pos.OptionType),
			IntrinsicValue:      quote.IntrinsicValue,
			ExtrinsicValue:      extrinsic,
			ExtrinsicPercent:    extrinsicPct,
			ProfitLoss:          pl,
			ProfitPercent:       plPercent,
			ImpliedVolatility:   quote.ImpliedVolatility * 100,
			Delta:               quote.Delta,
			UnderlyingChangePct: changePct,
		}

		pending = append(pending, pendingRec{
			rec:  s.newRecommendation(holding.AccountID, symbol, models.StrategyOption, verdict, metrics),
			risk: holding.RiskLevel,
		})
	}

	stored, alerts, err := s.finalize(ctx, pending)
	if err != nil {
		return models.ScanResult{}, err
	}
	return models.ScanResult{Scanned: scanned, Stored: stored, AlertsCreated: alerts}, nil
}
