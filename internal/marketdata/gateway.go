// Package marketdata provides market data access for the scanner pipeline:
// a Gateway interface, a Tradier-backed implementation, a circuit-breaker
// wrapper, and a short-TTL in-memory cache shared within one scan run.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// VIX level buckets.
const (
	VIXLevelLow      = "low"
	VIXLevelNormal   = "normal"
	VIXLevelElevated = "elevated"
	VIXLevelExtreme  = "extreme"
)

// Market trend labels derived from the day's change.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// StockQuote is a point-in-time snapshot for an equity.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
}

// OptionQuote is a point-in-time snapshot for a single option contract.
type OptionQuote struct {
	Price             float64 `json:"price"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	UnderlyingPrice   float64 `json:"underlying_price"`
	ImpliedVolatility float64 `json:"implied_volatility"` // decimal, 0.30 = 30%
	IntrinsicValue    float64 `json:"intrinsic_value"`
	TimeValue         float64 `json:"time_value"`
	Delta             float64 `json:"delta"`
}

// ChainOption is one contract row inside a full option chain.
type ChainOption struct {
	Symbol            string            `json:"symbol"`
	OptionType        models.OptionType `json:"option_type"`
	Strike            float64           `json:"strike"`
	Expiration        time.Time         `json:"expiration"`
	Bid               float64           `json:"bid"`
	Ask               float64           `json:"ask"`
	Last              float64           `json:"last"`
	Delta             float64           `json:"delta"`
	ImpliedVolatility float64           `json:"implied_volatility"`
}

// OptionChain is the full chain for one underlying at one expiration.
type OptionChain struct {
	Stock StockQuote    `json:"stock"`
	Calls []ChainOption `json:"calls"`
	Puts  []ChainOption `json:"puts"`
}

// MarketConditions is a market-wide snapshot, optionally scoped to a symbol.
type MarketConditions struct {
	VIX                 float64 `json:"vix"`
	VIXLevel            string  `json:"vix_level"`
	Trend               string  `json:"trend"`
	SymbolChangePercent float64 `json:"symbol_change_percent,omitempty"`
}

// Gateway is the market data provider contract. "Unavailable" is represented
// as a nil result with a nil error so callers are forced to handle the skip
// path; errors are reserved for provider failures.
type Gateway interface {
	GetStockQuote(ctx context.Context, symbol string) (*StockQuote, error)
	GetOptionMetrics(ctx context.Context, symbol string, expiration time.Time,
		strike float64, optionType models.OptionType) (*OptionQuote, error)
	GetOptionChainDetailed(ctx context.Context, symbol string, expiration time.Time) (*OptionChain, error)
	GetMarketConditions(ctx context.Context, symbol string) (*MarketConditions, error)
	GetIVRank(ctx context.Context, symbol string) (*float64, error)
}

// VIXLevelFor buckets a VIX reading.
func VIXLevelFor(vix float64) string {
	switch {
	case vix < 15:
		return VIXLevelLow
	case vix < 20:
		return VIXLevelNormal
	case vix < 30:
		return VIXLevelElevated
	default:
		return VIXLevelExtreme
	}
}

// TrendFor labels a day-change percentage.
func TrendFor(changePct float64) string {
	switch {
	case changePct > 0.5:
		return TrendUp
	case changePct < -0.5:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// CircuitBreakerGateway wraps a Gateway with circuit breaker functionality so
// a flapping provider trips open instead of slowing every scan.
type CircuitBreakerGateway struct {
	gateway Gateway
	breaker *gobreaker.CircuitBreaker
}

// CircuitBreakerSettings configures circuit breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerGateway creates a CircuitBreakerGateway with sensible defaults.
func NewCircuitBreakerGateway(gateway Gateway, logger *logrus.Logger) *CircuitBreakerGateway {
	return NewCircuitBreakerGatewayWithSettings(gateway, logger, CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerGatewayWithSettings creates a CircuitBreakerGateway with custom settings.
func NewCircuitBreakerGatewayWithSettings(gateway Gateway, logger *logrus.Logger,
	settings CircuitBreakerSettings) *CircuitBreakerGateway {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerGateway{
		gateway: gateway,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// execBreaker is a generic helper for circuit breaker wrapper methods.
func execBreaker[T any](breaker *gobreaker.CircuitBreaker, gateway Gateway,
	fn func(Gateway) (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(gateway) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// GetStockQuote wraps the underlying gateway call with circuit breaker.
func (c *CircuitBreakerGateway) GetStockQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (*StockQuote, error) {
		return g.GetStockQuote(ctx, symbol)
	})
}

// GetOptionMetrics wraps the underlying gateway call with circuit breaker.
func (c *CircuitBreakerGateway) GetOptionMetrics(ctx context.Context, symbol string,
	expiration time.Time, strike float64, optionType models.OptionType) (*OptionQuote, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (*OptionQuote, error) {
		return g.GetOptionMetrics(ctx, symbol, expiration, strike, optionType)
	})
}

// GetOptionChainDetailed wraps the underlying gateway call with circuit breaker.
func (c *CircuitBreakerGateway) GetOptionChainDetailed(ctx context.Context, symbol string,
	expiration time.Time) (*OptionChain, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (*OptionChain, error) {
		return g.GetOptionChainDetailed(ctx, symbol, expiration)
	})
}

// GetMarketConditions wraps the underlying gateway call with circuit breaker.
func (c *CircuitBreakerGateway) GetMarketConditions(ctx context.Context, symbol string) (*MarketConditions, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (*MarketConditions, error) {
		return g.GetMarketConditions(ctx, symbol)
	})
}

// GetIVRank wraps the underlying gateway call with circuit breaker.
func (c *CircuitBreakerGateway) GetIVRank(ctx context.Context, symbol string) (*float64, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (*float64, error) {
		return g.GetIVRank(ctx, symbol)
	})
}

// Ensure CircuitBreakerGateway implements Gateway at compile time.
var _ Gateway = (*CircuitBreakerGateway)(nil)
