// Package scanner combines the pairer, the metrics calculator, the rule
// engines, and the escalation gate into four strategy scanners, and runs them
// concurrently under a unified orchestrator with per-scanner failure
// isolation.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sperezintexas/fintech-app-sub000/internal/advisor"
	"github.com/sperezintexas/fintech-app-sub000/internal/config"
	"github.com/sperezintexas/fintech-app-sub000/internal/marketdata"
	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/storage"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// chainPrefetchParallel bounds concurrent chain fetches during prefetch.
const chainPrefetchParallel = 4

// Scanner owns the unified scan pipeline: portfolio in, recommendations and
// alerts out.
type Scanner struct {
	store     storage.Interface
	portfolio storage.Interface
	market    marketdata.Gateway
	advisor   *advisor.Client
	cfg       config.ScannerConfig
	logger    *logrus.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Scanner. The portfolio store is read-only input; the scanner
// store receives recommendations and alerts. Both may be the same instance.
func New(store, portfolio storage.Interface, market marketdata.Gateway,
	adv *advisor.Client, cfg config.ScannerConfig, logger *logrus.Logger) *Scanner {
	return &Scanner{
		store:     store,
		portfolio: portfolio,
		market:    market,
		advisor:   adv,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock overrides the scanner clock (tests).
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// WithIDGenerator overrides recommendation/alert id generation (tests).
func (s *Scanner) WithIDGenerator(newID func() string) *Scanner {
	s.newID = newID
	return s
}

// scanOutcome is one scanner's slot in the unified join.
type scanOutcome struct {
	result models.ScanResult
	err    error
}

// RunUnified runs all four strategy scanners concurrently and aggregates
// their results. A failing scanner lands in the result's Errors with zeroed
// counts; the call itself only fails on setup problems (unknown account id).
func (s *Scanner) RunUnified(ctx context.Context, accountID string) (*models.UnifiedResult, error) {
	accounts, err := s.resolveAccounts(accountID)
	if err != nil {
		return nil, err
	}

	chains := s.prefetchChains(ctx, accounts)

	names := [4]string{
		models.ScannerOption,
		models.ScannerCoveredCall,
		models.ScannerProtectivePut,
		models.ScannerStraddle,
	}
	runs := [4]func(context.Context) (models.ScanResult, error){
		func(ctx context.Context) (models.ScanResult, error) { return s.scanOptions(ctx, accounts) },
		func(ctx context.Context) (models.ScanResult, error) { return s.scanCoveredCalls(ctx, accounts, chains) },
		func(ctx context.Context) (models.ScanResult, error) { return s.scanProtectivePuts(ctx, accounts, chains) },
		func(ctx context.Context) (models.ScanResult, error) { return s.scanStraddles(ctx, accounts) },
	}

	// Plain goroutines joined by a WaitGroup: one scanner's failure must not
	// cancel its siblings, which rules out errgroup's first-error semantics.
	var outcomes [4]scanOutcome
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := s.now()
			result, err := runs[i](ctx)
			outcomes[i] = scanOutcome{result: result, err: err}
			if err != nil {
				s.logger.Warnf("%s failed after %v: %v", names[i], time.Since(start), err)
			} else {
				s.logger.Infof("%s finished in %v: scanned=%d stored=%d alerts=%d",
					names[i], time.Since(start), result.Scanned, result.Stored, result.AlertsCreated)
			}
		}(i)
	}
	wg.Wait()

	unified := &models.UnifiedResult{}
	slots := [4]*models.ScanResult{
		&unified.Option, &unified.CoveredCall, &unified.ProtectivePut, &unified.Straddle,
	}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			unified.Errors = append(unified.Errors, models.ScanError{
				Scanner: names[i],
				Message: outcome.err.Error(),
			})
			*slots[i] = models.ScanResult{Scanner: names[i]}
			continue
		}
		result := outcome.result
		result.Scanner = names[i]
		*slots[i] = result
		unified.TotalScanned += result.Scanned
		unified.TotalStored += result.Stored
		unified.TotalAlerts += result.AlertsCreated
	}
	return unified, nil
}

// resolveAccounts returns the portfolio scope of one run. Single-symbol mode
// scans no accounts; the covered-call and protective-put scanners synthesize
// an opportunity for the configured symbol instead.
func (s *Scanner) resolveAccounts(accountID string) ([]models.Account, error) {
	if s.cfg.Symbol != "" {
		return nil, nil
	}
	if accountID != "" {
		account, ok := s.portfolio.GetAccount(accountID)
		if !ok {
			return nil, fmt.Errorf("account %q not found", accountID)
		}
		return []models.Account{account}, nil
	}
	return s.portfolio.GetAccounts(), nil
}

// prefetchChains fetches a full option chain for every distinct symbol the
// covered-call and protective-put opportunity paths will need, in parallel,
// before any scanner starts. A failed fetch is logged and left nil so the
// symbol reads as "chain unavailable" downstream.
func (s *Scanner) prefetchChains(ctx context.Context, accounts []models.Account) map[string]*marketdata.OptionChain {
	seen := make(map[string]bool)
	var symbols []string
	add := func(symbol string) {
		if symbol != "" && !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	if s.cfg.Symbol != "" {
		add(models.UnderlyingSymbol(s.cfg.Symbol))
	}
	_, callOpps := strategy.PairPositions(accounts, models.Call, s.cfg.MinStockShares)
	for _, opp := range callOpps {
		add(opp.Symbol)
	}
	_, putOpps := strategy.PairPositions(accounts, models.Put, s.cfg.MinStockShares)
	for _, opp := range putOpps {
		add(opp.Symbol)
	}

	chains := make(map[string]*marketdata.OptionChain, len(symbols))
	if len(symbols) == 0 {
		return chains
	}

	results := make([]*marketdata.OptionChain, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chainPrefetchParallel)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			chain, err := s.market.GetOptionChainDetailed(gctx, symbol, time.Time{})
			if err != nil {
				s.logger.Warnf("Chain prefetch failed for %s: %v", symbol, err)
				return nil
			}
			results[i] = chain
			return nil
		})
	}
	// Workers never return errors; Wait just joins the fan-out.
	_ = g.Wait()

	for i, symbol := range symbols {
		chains[symbol] = results[i]
	}
	return chains
}

// pendingRec is a preliminary recommendation with its account context,
// waiting for escalation and persistence.
type pendingRec struct {
	rec  models.Recommendation
	risk models.RiskLevel
}

// finalize escalates uncertain recommendations to the advisor, persists the
// batch, and creates alerts for actionable results. NONE-action entries are
// discarded before persistence.
func (s *Scanner) finalize(ctx context.Context, pending []pendingRec) (stored, alerts int, err error) {
	s.escalate(ctx, pending)

	for i := range pending {
		rec := pending[i].rec
		if rec.Action == models.ActionNone {
			continue
		}
		if err := s.store.AddRecommendation(rec); err != nil {
			return stored, alerts, fmt.Errorf("storing recommendation for %s: %w", rec.Symbol, err)
		}
		stored++

		if !rec.Actionable() {
			continue
		}
		created, err := s.store.CreateAlert(models.Alert{
			ID:        s.newID(),
			Type:      rec.Strategy,
			AccountID: rec.AccountID,
			Symbol:    rec.Symbol,
			Action:    rec.Action,
			Reason:    rec.Reason,
			Metrics:   rec.Metrics,
			Severity:  models.SeverityFor(rec.Confidence),
			CreatedAt: s.now(),
		})
		if err != nil {
			return stored, alerts, fmt.Errorf("creating alert for %s: %w", rec.Symbol, err)
		}
		if created {
			alerts++
		}
	}
	return stored, alerts, nil
}

// escalate forwards uncertain recommendations to the advisor and applies the
// advice in place. When the advisor is unavailable the rule verdict is kept
// unchanged, reason included.
func (s *Scanner) escalate(ctx context.Context, pending []pendingRec) {
	if s.advisor == nil || !s.advisor.Available() {
		return
	}

	var candidates []advisor.Candidate
	var indexes []int
	for i := range pending {
		if pending[i].rec.Action == models.ActionNone {
			continue
		}
		if !s.cfg.Escalation.ShouldEscalate(&pending[i].rec) {
			continue
		}
		candidates = append(candidates, advisor.Candidate{
			Recommendation: &pending[i].rec,
			RiskLevel:      pending[i].risk,
		})
		indexes = append(indexes, i)
	}
	if len(candidates) == 0 {
		return
	}

	advices := s.advisor.AdviseBatch(ctx, candidates)
	for j, advice := range advices {
		if advice == nil {
			continue
		}
		rec := &pending[indexes[j]].rec
		s.logger.Debugf("Advisor verdict for %s: %s -> %s (%.2f)",
			rec.Symbol, rec.Action, advice.Action, advice.Confidence)
		rec.Action = advice.Action
		rec.Confidence = confidenceFromScore(advice.Confidence)
		if advice.Reasoning != "" {
			rec.Reason = advice.Reasoning
		}
		rec.Source = models.SourceGrok
	}
}

// confidenceFromScore buckets the advisor's 0-1 confidence.
func confidenceFromScore(score float64) models.Confidence {
	switch {
	case score >= 0.75:
		return models.ConfidenceHigh
	case score >= 0.4:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// newRecommendation stamps the shared fields of a recommendation.
func (s *Scanner) newRecommendation(accountID, symbol string, tag models.Strategy,
	verdict models.Verdict, metrics models.Metrics) models.Recommendation {
	return models.Recommendation{
		ID:         s.newID(),
		AccountID:  accountID,
		Symbol:     symbol,
		Strategy:   tag,
		Action:     verdict.Action,
		Confidence: verdict.Confidence,
		Reason:     verdict.Reason,
		Metrics:    metrics,
		Source:     models.SourceRules,
		CreatedAt:  s.now(),
	}
}
