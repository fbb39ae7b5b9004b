// Package models provides the data structures shared across the scanner
// pipeline: holdings, strategy pairs, recommendations and alerts.
package models

import (
	"strings"
	"time"
	"unicode"
)

// SharesPerContract is the standard option contract multiplier.
const SharesPerContract = 100.0

// PositionKind identifies what a holding is.
type PositionKind string

const (
	// KindStock is a plain share holding.
	KindStock PositionKind = "stock"
	// KindOption is an option contract holding.
	KindOption PositionKind = "option"
	// KindCash is uninvested cash.
	KindCash PositionKind = "cash"
)

// OptionType identifies the option side.
type OptionType string

const (
	// Call option type.
	Call OptionType = "call"
	// Put option type.
	Put OptionType = "put"
)

// RiskLevel is an account's configured risk appetite.
type RiskLevel string

const (
	// RiskLow for conservative accounts.
	RiskLow RiskLevel = "low"
	// RiskMedium for balanced accounts.
	RiskMedium RiskLevel = "medium"
	// RiskHigh for aggressive accounts.
	RiskHigh RiskLevel = "high"
)

// Position is a single holding inside an account. Read-only input to the
// scanner core; quantity is shares for stock and contracts for options.
type Position struct {
	Kind          PositionKind `json:"kind"`
	Ticker        string       `json:"ticker"`
	Quantity      float64      `json:"quantity"`
	Strike        float64      `json:"strike,omitempty"`
	Expiration    time.Time    `json:"expiration,omitempty"`
	OptionType    OptionType   `json:"option_type,omitempty"`
	Premium       float64      `json:"premium,omitempty"`        // per-share option premium paid/received
	PurchasePrice float64      `json:"purchase_price,omitempty"` // per-share stock cost basis
}

// Account groups positions under one owner with a risk profile.
type Account struct {
	ID        string     `json:"id"`
	RiskLevel RiskLevel  `json:"risk_level"`
	Positions []Position `json:"positions"`
}

// UnderlyingSymbol derives the underlying equity symbol from a ticker.
// Plain tickers pass through; OCC-style contract codes (e.g.
// "TSLA260130C00475000") are cut at the first digit, which starts the
// embedded expiration date.
func UnderlyingSymbol(ticker string) string {
	t := strings.TrimSpace(ticker)
	for i, r := range t {
		if unicode.IsDigit(r) {
			t = t[:i]
			break
		}
	}
	return strings.ToUpper(t)
}

// Pair is an eligible stock holding matched with an option on the same
// underlying. Recomputed every scan, never persisted.
type Pair struct {
	AccountID     string
	RiskLevel     RiskLevel
	Symbol        string
	Shares        float64
	PurchasePrice float64
	OptionTicker  string
	OptionType    OptionType
	Strike        float64
	Expiration    time.Time
	Contracts     float64
	Premium       float64
}

// Opportunity is an eligible stock holding with no matching option of the
// strategy's type. Synthetic opportunities come from single-symbol mode and
// carry the minimum share count with zero cost basis.
type Opportunity struct {
	AccountID     string
	RiskLevel     RiskLevel
	Symbol        string
	Shares        float64
	PurchasePrice float64
	Synthetic     bool
}
