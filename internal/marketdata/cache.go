package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// DefaultCacheTTL bounds how stale a cached market snapshot may be.
const DefaultCacheTTL = 30 * time.Minute

// Cache key kinds.
const (
	kindOptionMetrics = "option_metrics"
	kindConditions    = "conditions"
	kindChain         = "chain"
	kindIVRank        = "iv_rank"
	kindQuote         = "quote"
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a process-wide, TTL-bounded in-memory cache for market data.
// The clock is injectable for tests. A single scan run is cooperatively
// scheduled, but concurrent manual triggers may share the instance, so the
// map is guarded the same way the JSON storage guards its data.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL; zero means DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the cache clock (tests).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// GetOrFetch returns the cached value for key when it is within TTL,
// otherwise invokes fetch, stores the result, and returns it. A nil result
// ("unavailable") is cached too so a missing contract is not re-fetched on
// every engine within the same window.
func (c *Cache) GetOrFetch(key string, fetch func() (interface{}, error)) (interface{}, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func optionMetricsKey(symbol string, expiration time.Time, strike float64, optionType models.OptionType) string {
	return fmt.Sprintf("%s:%s:%s:%.3f:%s", kindOptionMetrics, symbol, expiration.Format("2006-01-02"), strike, optionType)
}

func conditionsKey(symbol string) string {
	return fmt.Sprintf("%s:%s", kindConditions, symbol)
}

func chainKey(symbol string, expiration time.Time) string {
	return fmt.Sprintf("%s:%s:%s", kindChain, symbol, expiration.Format("2006-01-02"))
}

func ivRankKey(symbol string) string {
	return fmt.Sprintf("%s:%s", kindIVRank, symbol)
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("%s:%s", kindQuote, symbol)
}

// CachedGateway fronts a Gateway with the Cache so every engine consults the
// cache before a network round trip.
type CachedGateway struct {
	gateway Gateway
	cache   *Cache
}

// NewCachedGateway wraps gateway with cache.
func NewCachedGateway(gateway Gateway, cache *Cache) *CachedGateway {
	return &CachedGateway{gateway: gateway, cache: cache}
}

// Ensure CachedGateway implements Gateway at compile time.
var _ Gateway = (*CachedGateway)(nil)

// Cache exposes the underlying cache (chain prefetch, tests).
func (c *CachedGateway) Cache() *Cache {
	return c.cache
}

// GetStockQuote returns the cached quote within TTL, fetching on miss.
func (c *CachedGateway) GetStockQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	v, err := c.cache.GetOrFetch(quoteKey(symbol), func() (interface{}, error) {
		return c.gateway.GetStockQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	q, _ := v.(*StockQuote)
	return q, nil
}

// GetOptionMetrics returns cached per-contract metrics within TTL.
func (c *CachedGateway) GetOptionMetrics(ctx context.Context, symbol string,
	expiration time.Time, strike float64, optionType models.OptionType) (*OptionQuote, error) {
	v, err := c.cache.GetOrFetch(optionMetricsKey(symbol, expiration, strike, optionType), func() (interface{}, error) {
		return c.gateway.GetOptionMetrics(ctx, symbol, expiration, strike, optionType)
	})
	if err != nil {
		return nil, err
	}
	q, _ := v.(*OptionQuote)
	return q, nil
}

// GetOptionChainDetailed returns the cached chain within TTL.
func (c *CachedGateway) GetOptionChainDetailed(ctx context.Context, symbol string,
	expiration time.Time) (*OptionChain, error) {
	v, err := c.cache.GetOrFetch(chainKey(symbol, expiration), func() (interface{}, error) {
		return c.gateway.GetOptionChainDetailed(ctx, symbol, expiration)
	})
	if err != nil {
		return nil, err
	}
	chain, _ := v.(*OptionChain)
	return chain, nil
}

// GetMarketConditions returns cached market-wide conditions within TTL.
func (c *CachedGateway) GetMarketConditions(ctx context.Context, symbol string) (*MarketConditions, error) {
	v, err := c.cache.GetOrFetch(conditionsKey(symbol), func() (interface{}, error) {
		return c.gateway.GetMarketConditions(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	cond, _ := v.(*MarketConditions)
	return cond, nil
}

// GetIVRank returns the cached IV rank within TTL.
func (c *CachedGateway) GetIVRank(ctx context.Context, symbol string) (*float64, error) {
	v, err := c.cache.GetOrFetch(ivRankKey(symbol), func() (interface{}, error) {
		return c.gateway.GetIVRank(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	rank, _ := v.(*float64)
	return rank, nil
}
