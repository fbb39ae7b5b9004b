package marketdata

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// MockGateway implements Gateway for testing. Zero-value fields mean
// "unavailable" (nil result, nil error); errors override results.
type MockGateway struct {
	Quotes       map[string]*StockQuote
	OptionQuotes map[string]*OptionQuote // keyed by optionMetricsKey
	Chains       map[string]*OptionChain // keyed by symbol
	Conditions   *MarketConditions
	IVRanks      map[string]float64

	QuoteErr      error
	MetricsErr    error
	ChainErr      error
	ConditionsErr error
	IVRankErr     error

	chainCalls int64
}

// Ensure MockGateway implements Gateway at compile time.
var _ Gateway = (*MockGateway)(nil)

// NewMockGateway returns an empty mock; populate the maps as needed.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Quotes:       make(map[string]*StockQuote),
		OptionQuotes: make(map[string]*OptionQuote),
		Chains:       make(map[string]*OptionChain),
		IVRanks:      make(map[string]float64),
	}
}

// SetOptionQuote registers a per-contract quote.
func (m *MockGateway) SetOptionQuote(symbol string, expiration time.Time, strike float64,
	optionType models.OptionType, quote *OptionQuote) {
	m.OptionQuotes[optionMetricsKey(symbol, expiration, strike, optionType)] = quote
}

// ChainCalls reports how many chain fetches were made.
func (m *MockGateway) ChainCalls() int64 {
	return atomic.LoadInt64(&m.chainCalls)
}

func (m *MockGateway) GetStockQuote(_ context.Context, symbol string) (*StockQuote, error) {
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	return m.Quotes[symbol], nil
}

func (m *MockGateway) GetOptionMetrics(_ context.Context, symbol string, expiration time.Time,
	strike float64, optionType models.OptionType) (*OptionQuote, error) {
	if m.MetricsErr != nil {
		return nil, m.MetricsErr
	}
	return m.OptionQuotes[optionMetricsKey(symbol, expiration, strike, optionType)], nil
}

func (m *MockGateway) GetOptionChainDetailed(_ context.Context, symbol string, _ time.Time) (*OptionChain, error) {
	atomic.AddInt64(&m.chainCalls, 1)
	if m.ChainErr != nil {
		return nil, m.ChainErr
	}
	return m.Chains[symbol], nil
}

func (m *MockGateway) GetMarketConditions(_ context.Context, _ string) (*MarketConditions, error) {
	if m.ConditionsErr != nil {
		return nil, m.ConditionsErr
	}
	if m.Conditions == nil {
		return &MarketConditions{VIX: 18, VIXLevel: VIXLevelNormal, Trend: TrendNeutral}, nil
	}
	return m.Conditions, nil
}

func (m *MockGateway) GetIVRank(_ context.Context, symbol string) (*float64, error) {
	if m.IVRankErr != nil {
		return nil, m.IVRankErr
	}
	rank, ok := m.IVRanks[symbol]
	if !ok {
		return nil, nil
	}
	return &rank, nil
}
