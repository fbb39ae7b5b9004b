// Package strategy contains the pure decision layer of the scanner: the
// metrics calculator, the position pairer, and the four rule engines. Nothing
// in this package performs I/O; engines are total functions over their inputs.
package strategy

import (
	"math"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// MoneynessBandPercent is the +/- band around the strike treated as ATM.
const MoneynessBandPercent = 2.0

// DaysToExpiration returns the whole days remaining until expiration,
// never negative. The expiration date is interpreted as noon UTC so a date
// boundary in the caller's timezone cannot roll the count by a day.
func DaysToExpiration(expiration, now time.Time) int {
	exp := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 12, 0, 0, 0, time.UTC)
	days := math.Ceil(exp.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// MoneynessPercent returns the signed distance of the stock from the strike,
// as a percentage of the strike.
func MoneynessPercent(stockPrice, strike float64) float64 {
	if strike == 0 {
		return 0
	}
	return (stockPrice - strike) / strike * 100
}

// MoneynessFor buckets a stock/strike relationship. Calls are ITM when the
// stock is more than the band above the strike; puts invert the convention
// (ITM means the stock is below the strike).
func MoneynessFor(stockPrice, strike float64, optionType models.OptionType) models.Moneyness {
	pct := MoneynessPercent(stockPrice, strike)
	if optionType == models.Put {
		pct = -pct
	}
	switch {
	case pct > MoneynessBandPercent:
		return models.ITM
	case pct < -MoneynessBandPercent:
		return models.OTM
	default:
		return models.ATM
	}
}

// Mid returns the bid/ask midpoint, falling back to last when the book is
// one-sided or empty.
func Mid(bid, ask, last float64) float64 {
	if bid > 0 && ask > 0 {
		return (bid + ask) / 2
	}
	return last
}

// ExtrinsicValue returns the portion of an option's mid price above its
// intrinsic value, floored at zero.
func ExtrinsicValue(mid, intrinsic float64) float64 {
	return math.Max(0, mid-intrinsic)
}

// ExtrinsicPercent expresses extrinsic value as a percentage of the reference
// premium. A zero reference premium reports 100 so "nothing paid, anything
// left" reads as full time value remaining.
func ExtrinsicPercent(extrinsic, referencePremium float64) float64 {
	if referencePremium == 0 {
		return 100
	}
	return extrinsic / referencePremium * 100
}

// ShortOptionPL returns the unrealized P/L in dollars and percent for a short
// option: profit when the current mid is below the credit received. Percent
// is relative to the cost basis contracts * premium * 100.
func ShortOptionPL(premiumReceived, currentMid, contracts float64) (pl, plPercent float64) {
	pl = (premiumReceived - currentMid) * contracts * models.SharesPerContract
	basis := math.Abs(premiumReceived * contracts * models.SharesPerContract)
	if basis == 0 {
		return pl, 0
	}
	return pl, pl / basis * 100
}

// LongOptionPL returns the unrealized P/L in dollars and percent for a long
// option: profit when the current mid is above the premium paid.
func LongOptionPL(premiumPaid, currentMid, contracts float64) (pl, plPercent float64) {
	pl = (currentMid - premiumPaid) * contracts * models.SharesPerContract
	basis := math.Abs(premiumPaid * contracts * models.SharesPerContract)
	if basis == 0 {
		return pl, 0
	}
	return pl, pl / basis * 100
}

// StockPL returns the unrealized P/L in dollars and percent for a share
// holding relative to its cost basis.
func StockPL(purchasePrice, currentPrice, shares float64) (pl, plPercent float64) {
	pl = (currentPrice - purchasePrice) * shares
	basis := math.Abs(purchasePrice * shares)
	if basis == 0 {
		return pl, 0
	}
	return pl, pl / basis * 100
}

// AnnualizedYieldPercent projects an option premium to a yearly yield on the
// underlying price. A non-positive DTE falls back to a monthly roll
// assumption.
func AnnualizedYieldPercent(premium, stockPrice float64, dte int) float64 {
	if stockPrice <= 0 {
		return 0
	}
	if dte <= 0 {
		return premium / stockPrice * 12 * 100
	}
	return premium / stockPrice * (365 / float64(dte)) * 100
}

// DistanceToStrikePercent returns how far the stock sits below the strike as
// a percentage of the stock price (negative when above the strike).
func DistanceToStrikePercent(stockPrice, strike float64) float64 {
	if stockPrice == 0 {
		return 0
	}
	return (strike - stockPrice) / stockPrice * 100
}
