package strategy

import (
	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// DefaultMinStockShares is the minimum share count for pairing; one option
// contract covers 100 shares.
const DefaultMinStockShares = 100

// PairPositions groups each account's holdings into strategy pairs and
// opportunities. A stock position with at least minShares shares is matched
// with the first option position of the requested type whose derived
// underlying equals the stock's ticker; unmatched eligible stock becomes an
// opportunity. Input order does not affect the resulting set.
func PairPositions(accounts []models.Account, optionType models.OptionType,
	minShares float64) (pairs []models.Pair, opportunities []models.Opportunity) {
	if minShares <= 0 {
		minShares = DefaultMinStockShares
	}

	for _, account := range accounts {
		var stocks []models.Position
		var options []models.Position
		for _, pos := range account.Positions {
			switch {
			case pos.Kind == models.KindStock && pos.Quantity >= minShares:
				stocks = append(stocks, pos)
			case pos.Kind == models.KindOption && pos.OptionType == optionType:
				options = append(options, pos)
			}
		}

		for _, stock := range stocks {
			symbol := models.UnderlyingSymbol(stock.Ticker)
			matched := false
			for _, opt := range options {
				if models.UnderlyingSymbol(opt.Ticker) != symbol {
					continue
				}
				pairs = append(pairs, models.Pair{
					AccountID:     account.ID,
					RiskLevel:     account.RiskLevel,
					Symbol:        symbol,
					Shares:        stock.Quantity,
					PurchasePrice: stock.PurchasePrice,
					OptionTicker:  opt.Ticker,
					OptionType:    opt.OptionType,
					Strike:        opt.Strike,
					Expiration:    opt.Expiration,
					Contracts:     opt.Quantity,
					Premium:       opt.Premium,
				})
				matched = true
				break
			}
			if !matched {
				opportunities = append(opportunities, models.Opportunity{
					AccountID:     account.ID,
					RiskLevel:     account.RiskLevel,
					Symbol:        symbol,
					Shares:        stock.Quantity,
					PurchasePrice: stock.PurchasePrice,
				})
			}
		}
	}
	return pairs, opportunities
}

// SyntheticOpportunity builds the single opportunity used in single-symbol
// mode: exactly the minimum share count with zero cost basis, so the rest of
// the pipeline runs unchanged.
func SyntheticOpportunity(symbol string, minShares float64) models.Opportunity {
	if minShares <= 0 {
		minShares = DefaultMinStockShares
	}
	return models.Opportunity{
		AccountID: "synthetic",
		RiskLevel: models.RiskMedium,
		Symbol:    models.UnderlyingSymbol(symbol),
		Shares:    minShares,
		Synthetic: true,
	}
}

// OptionHoldings returns every option position of the given type across the
// accounts, with the owning account's id and risk level. Used by the plain
// option and straddle scanners, which do not require a stock leg.
func OptionHoldings(accounts []models.Account, optionType models.OptionType) []OptionHolding {
	var out []OptionHolding
	for _, account := range accounts {
		for _, pos := range account.Positions {
			if pos.Kind != models.KindOption {
				continue
			}
			if optionType != "" && pos.OptionType != optionType {
				continue
			}
			out = append(out, OptionHolding{
				AccountID: account.ID,
				RiskLevel: account.RiskLevel,
				Position:  pos,
			})
		}
	}
	return out
}

// OptionHolding is an option position annotated with its owning account.
type OptionHolding struct {
	AccountID string
	RiskLevel models.RiskLevel
	Position  models.Position
}
