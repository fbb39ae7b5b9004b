package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// StrikeMatchEpsilon defines the precision tolerance for matching strike prices.
const StrikeMatchEpsilon = 1e-3

// vixSymbol is the index symbol Tradier serves VIX quotes under.
const vixSymbol = "VIX"

// APIError represents a provider error with status code and response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// TradierGateway implements Gateway against the Tradier market data API.
type TradierGateway struct {
	client  *http.Client
	logger  *logrus.Logger
	apiKey  string
	baseURL string
	sandbox bool
}

// NewTradierGateway creates a Tradier-backed market data gateway.
func NewTradierGateway(apiKey string, sandbox bool, logger *logrus.Logger) *TradierGateway {
	baseURL := "https://api.tradier.com/v1"
	if sandbox {
		baseURL = "https://sandbox.tradier.com/v1"
	}
	return &TradierGateway{
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		apiKey:  apiKey,
		baseURL: baseURL,
		sandbox: sandbox,
	}
}

// WithHTTPClient allows overriding the HTTP client (tests, custom transport).
func (t *TradierGateway) WithHTTPClient(c *http.Client) *TradierGateway {
	if c != nil {
		t.client = c
	}
	return t
}

// WithBaseURL overrides the API endpoint (tests).
func (t *TradierGateway) WithBaseURL(baseURL string) *TradierGateway {
	if baseURL != "" {
		t.baseURL = strings.TrimRight(baseURL, "/")
	}
	return t
}

// Ensure TradierGateway implements Gateway at compile time.
var _ Gateway = (*TradierGateway)(nil)

// ============ API Response Structures ============

// Handle single-object vs array responses from Tradier.
type singleOrArray[T any] []T

func (s *singleOrArray[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, (*[]T)(s))
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*s = append(*s, one)
	return nil
}

type quotesResponse struct {
	Quotes struct {
		Quote singleOrArray[quoteItem] `json:"quote"`
	} `json:"quotes"`
}

type quoteItem struct {
	Symbol           string  `json:"symbol"`
	Last             float64 `json:"last"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	ChangePercentage float64 `json:"change_percentage"`
}

type expirationsResponse struct {
	Expirations struct {
		Date singleOrArray[string] `json:"date"`
	} `json:"expirations"`
}

type chainResponse struct {
	Options struct {
		Option singleOrArray[chainOptionItem] `json:"option"`
	} `json:"options"`
}

type chainGreeks struct {
	Delta float64 `json:"delta"`
	MidIV float64 `json:"mid_iv"`
}

type chainOptionItem struct {
	Greeks         *chainGreeks `json:"greeks,omitempty"`
	Symbol         string       `json:"symbol"`
	OptionType     string       `json:"option_type"`
	ExpirationDate string       `json:"expiration_date"`
	Strike         float64      `json:"strike"`
	Bid            float64      `json:"bid"`
	Ask            float64      `json:"ask"`
	Last           float64      `json:"last"`
}

// ============ Gateway implementation ============

// GetStockQuote returns the current quote for an equity symbol, or nil when
// the provider has no quote for it.
func (t *TradierGateway) GetStockQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	params := url.Values{}
	params.Add("symbols", symbol)

	var resp quotesResponse
	endpoint := fmt.Sprintf("%s/markets/quotes?%s", t.baseURL, params.Encode())
	if err := t.makeRequestCtx(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Quotes.Quote) == 0 {
		return nil, nil
	}
	q := resp.Quotes.Quote[0]
	if q.Last <= 0 {
		return nil, nil
	}
	return &StockQuote{
		Symbol:        q.Symbol,
		Price:         q.Last,
		ChangePercent: q.ChangePercentage,
		Bid:           q.Bid,
		Ask:           q.Ask,
	}, nil
}

// GetOptionMetrics returns a snapshot for one contract, or nil when the
// strike is not listed in the chain.
func (t *TradierGateway) GetOptionMetrics(ctx context.Context, symbol string,
	expiration time.Time, strike float64, optionType models.OptionType) (*OptionQuote, error) {
	chain, err := t.GetOptionChainDetailed(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, nil
	}

	rows := chain.Calls
	if optionType == models.Put {
		rows = chain.Puts
	}
	for i := range rows {
		row := &rows[i]
		if math.Abs(row.Strike-strike) > StrikeMatchEpsilon {
			continue
		}
		mid := midPrice(row.Bid, row.Ask, row.Last)
		intrinsic := intrinsicValue(chain.Stock.Price, row.Strike, optionType)
		return &OptionQuote{
			Price:             mid,
			Bid:               row.Bid,
			Ask:               row.Ask,
			UnderlyingPrice:   chain.Stock.Price,
			ImpliedVolatility: row.ImpliedVolatility,
			IntrinsicValue:    intrinsic,
			TimeValue:         math.Max(0, mid-intrinsic),
			Delta:             row.Delta,
		}, nil
	}
	return nil, nil
}

// GetOptionChainDetailed fetches the full chain for one expiration. A zero
// expiration selects the nearest listed expiration.
func (t *TradierGateway) GetOptionChainDetailed(ctx context.Context, symbol string,
	expiration time.Time) (*OptionChain, error) {
	stock, err := t.GetStockQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, nil
	}

	expStr := ""
	if !expiration.IsZero() {
		expStr = expiration.Format("2006-01-02")
	} else {
		expStr, err = t.nearestExpiration(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if expStr == "" {
			return nil, nil
		}
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("expiration", expStr)
	params.Add("greeks", "true")

	var resp chainResponse
	endpoint := fmt.Sprintf("%s/markets/options/chains?%s", t.baseURL, params.Encode())
	if err := t.makeRequestCtx(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Options.Option) == 0 {
		return nil, nil
	}

	chain := &OptionChain{Stock: *stock}
	for _, item := range resp.Options.Option {
		exp, perr := time.Parse("2006-01-02", item.ExpirationDate)
		if perr != nil {
			t.logger.Warnf("Skipping option %s with bad expiration %q", item.Symbol, item.ExpirationDate)
			continue
		}
		row := ChainOption{
			Symbol:     item.Symbol,
			Strike:     item.Strike,
			Expiration: exp,
			Bid:        item.Bid,
			Ask:        item.Ask,
			Last:       item.Last,
		}
		if item.Greeks != nil {
			row.Delta = item.Greeks.Delta
			row.ImpliedVolatility = item.Greeks.MidIV
		}
		switch item.OptionType {
		case "call":
			row.OptionType = models.Call
			chain.Calls = append(chain.Calls, row)
		case "put":
			row.OptionType = models.Put
			chain.Puts = append(chain.Puts, row)
		}
	}
	sort.Slice(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
	sort.Slice(chain.Puts, func(i, j int) bool { return chain.Puts[i].Strike < chain.Puts[j].Strike })
	return chain, nil
}

// GetMarketConditions returns a market-wide snapshot built from the VIX quote
// plus, when a symbol is given, that symbol's day change.
func (t *TradierGateway) GetMarketConditions(ctx context.Context, symbol string) (*MarketConditions, error) {
	vixQuote, err := t.GetStockQuote(ctx, vixSymbol)
	if err != nil {
		return nil, err
	}

	cond := &MarketConditions{}
	if vixQuote != nil {
		cond.VIX = vixQuote.Price
	}
	cond.VIXLevel = VIXLevelFor(cond.VIX)

	if symbol != "" {
		sq, err := t.GetStockQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if sq != nil {
			cond.SymbolChangePercent = sq.ChangePercent
			cond.Trend = TrendFor(sq.ChangePercent)
		}
	}
	if cond.Trend == "" {
		cond.Trend = TrendNeutral
	}
	return cond, nil
}

// GetIVRank approximates an IV rank from the nearest chain's average mid IV.
// This is not a true 52-week ranking; the average implied volatility (as a
// percentage) is clamped into the 0-100 band.
func (t *TradierGateway) GetIVRank(ctx context.Context, symbol string) (*float64, error) {
	chain, err := t.GetOptionChainDetailed(ctx, symbol, time.Time{})
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, nil
	}

	sum := 0.0
	n := 0
	for _, rows := range [][]ChainOption{chain.Calls, chain.Puts} {
		for _, row := range rows {
			if row.ImpliedVolatility > 0 {
				sum += row.ImpliedVolatility
				n++
			}
		}
	}
	if n == 0 {
		return nil, nil
	}
	rank := math.Min(100, (sum/float64(n))*100)
	return &rank, nil
}

func (t *TradierGateway) nearestExpiration(ctx context.Context, symbol string) (string, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("includeAllRoots", "true")

	var resp expirationsResponse
	endpoint := fmt.Sprintf("%s/markets/options/expirations?%s", t.baseURL, params.Encode())
	if err := t.makeRequestCtx(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return "", err
	}
	dates := []string(resp.Expirations.Date)
	if len(dates) == 0 {
		return "", nil
	}
	sort.Strings(dates)
	return dates[0], nil
}

// makeRequestCtx makes an HTTP request with context support for timeout/cancellation.
func (t *TradierGateway) makeRequestCtx(ctx context.Context, method, endpoint string,
	response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+t.apiKey)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", "fintech-app-scanner/1.0 (+tradier)")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.logger.Warnf("Failed to close response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, rerr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)) // 64KB cap to avoid huge payloads
		if rerr != nil {
			return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("%s %s -> failed to read error body", method, endpoint)}
		}
		return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("%s %s -> %s", method, endpoint, string(body))}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(response); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// midPrice returns the bid/ask midpoint, falling back to last when the book
// is one-sided or empty.
func midPrice(bid, ask, last float64) float64 {
	if bid > 0 && ask > 0 {
		return (bid + ask) / 2
	}
	return last
}

// intrinsicValue returns the exercise value of a contract per share.
func intrinsicValue(stockPrice, strike float64, optionType models.OptionType) float64 {
	if optionType == models.Put {
		return math.Max(0, strike-stockPrice)
	}
	return math.Max(0, stockPrice-strike)
}
