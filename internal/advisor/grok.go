// Package advisor implements the AI escalation gate: a candidate filter plus
// a single round-trip advisory call against the xAI API with a strict-JSON
// contract, bounded retries, and a mandatory fallback to the rule verdict.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// Defaults for the escalation gate.
const (
	DefaultBaseURL     = "https://api.x.ai/v1"
	DefaultModel       = "grok-4-0709"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxParallel = 6

	defaultDTEMax    = 14
	defaultIVRankMin = 55
	defaultPLPercent = 12
)

// retryDelays are the fixed waits between advisory call attempts.
var retryDelays = []time.Duration{2 * time.Second, 4 * time.Second}

// Config configures the advisory client.
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxParallel int           `yaml:"max_parallel"`
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = DefaultMaxParallel
	}
	return c
}

// EscalationPolicy selects which rule verdicts are worth a second opinion.
// Triggers are additive; none is mandatory.
type EscalationPolicy struct {
	ConfidenceMin models.Confidence `yaml:"confidence_min"` // escalate below this
	DTEMax        int               `yaml:"dte_max"`        // escalate at or below
	IVRankMin     float64           `yaml:"iv_rank_min"`    // escalate at or above
	PLPercent     float64           `yaml:"pl_percent"`     // escalate when |P/L| at or above
}

// WithDefaults fills zero-valued fields.
func (p EscalationPolicy) WithDefaults() EscalationPolicy {
	if p.ConfidenceMin == "" {
		p.ConfidenceMin = models.ConfidenceMedium
	}
	if p.DTEMax == 0 {
		p.DTEMax = defaultDTEMax
	}
	if p.IVRankMin == 0 {
		p.IVRankMin = defaultIVRankMin
	}
	if p.PLPercent == 0 {
		p.PLPercent = defaultPLPercent
	}
	return p
}

// managesContract reports whether a verdict manages an existing contract
// rather than proposing a new one.
func managesContract(a models.Action) bool {
	return a != models.ActionSellNewCall && a != models.ActionBuyNewPut
}

func confidenceRank(c models.Confidence) int {
	switch c {
	case models.ConfidenceHigh:
		return 3
	case models.ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// ShouldEscalate reports whether a preliminary recommendation is uncertain
// enough to forward to the advisor.
func (p EscalationPolicy) ShouldEscalate(rec *models.Recommendation) bool {
	p = p.WithDefaults()
	if confidenceRank(rec.Confidence) < confidenceRank(p.ConfidenceMin) {
		return true
	}
	// The DTE trigger covers verdicts on existing contracts, including
	// expired ones (0 DTE). Proposals for new contracts carry no expiration
	// of their own and are exempt.
	if managesContract(rec.Action) && rec.Metrics.DaysToExpiration <= p.DTEMax {
		return true
	}
	if rec.Metrics.IVRank >= p.IVRankMin {
		return true
	}
	if rec.Metrics.Moneyness == models.ATM {
		return true
	}
	pl := rec.Metrics.ProfitPercent
	if pl < 0 {
		pl = -pl
	}
	return pl >= p.PLPercent
}

// Advice is the advisor's parsed verdict for one candidate.
type Advice struct {
	Action     models.Action
	Confidence float64 // 0-1
	Reasoning  string
}

// Candidate pairs a preliminary recommendation with its account context.
type Candidate struct {
	Recommendation *models.Recommendation
	RiskLevel      models.RiskLevel
}

// Client talks to the xAI chat completions endpoint. A missing API key makes
// every call return the "unavailable" sentinel (nil Advice, nil error) so the
// caller falls back to the rule verdict.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
	config     Config
}

// NewClient creates an advisory client.
func NewClient(config Config, logger *logrus.Logger) *Client {
	config = config.WithDefaults()
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		config:     config,
	}
}

// WithHTTPClient overrides the HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Available reports whether the advisor can make outbound calls.
func (c *Client) Available() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// Advise requests a second opinion for one candidate. Returns (nil, nil)
// when the advisor is unavailable - no credentials, exhausted retries, or an
// unusable response - so the caller keeps the rule verdict.
func (c *Client) Advise(ctx context.Context, candidate Candidate) (*Advice, error) {
	if !c.Available() {
		return nil, nil
	}

	prompt := buildPrompt(candidate)

	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			delay := retryDelays[attempt-1]
			c.logger.Debugf("Advisory call retry %d for %s in %v", attempt, candidate.Recommendation.Symbol, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, nil
			}
		}

		advice, err := c.call(ctx, prompt)
		if err == nil {
			return advice, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	c.logger.Warnf("Advisor unavailable for %s: %v", candidate.Recommendation.Symbol, lastErr)
	return nil, nil
}

// AdviseBatch processes candidates in fixed-size batches of MaxParallel so
// outbound advisory calls stay bounded. The returned slice is positionally
// aligned with the input; nil entries mean "advisor unavailable".
func (c *Client) AdviseBatch(ctx context.Context, candidates []Candidate) []*Advice {
	results := make([]*Advice, len(candidates))
	if !c.Available() {
		return results
	}

	batch := c.config.MaxParallel
	for start := 0; start < len(candidates); start += batch {
		end := start + batch
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				advice, _ := c.Advise(gctx, candidates[i])
				results[i] = advice
				return nil
			})
		}
		// Workers never return errors; Wait just joins the batch.
		_ = g.Wait()
	}
	return results
}

// advisorResponse is the strict JSON contract the model must answer with.
type advisorResponse struct {
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	Explanation    string  `json:"explanation"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are an expert financial advisor for options strategy management. " +
	"Respond ONLY with a JSON object: {\"recommendation\": \"<ACTION>\", \"confidence\": <0-1>, " +
	"\"reasoning\": \"<one sentence>\"}. No prose outside the JSON."

func buildPrompt(candidate Candidate) string {
	rec := candidate.Recommendation
	var b strings.Builder
	fmt.Fprintf(&b, "Position: %s (%s strategy)\n", rec.Symbol, rec.Strategy)
	fmt.Fprintf(&b, "Market snapshot: underlying %.2f, DTE %d, moneyness %s, extrinsic %.1f%%, P/L %.1f%%",
		rec.Metrics.UnderlyingPrice, rec.Metrics.DaysToExpiration, rec.Metrics.Moneyness,
		rec.Metrics.ExtrinsicPercent, rec.Metrics.ProfitPercent)
	if rec.Metrics.IVRank > 0 {
		fmt.Fprintf(&b, ", IV rank %.0f", rec.Metrics.IVRank)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Rule engine verdict: %s (%s) - %s\n", rec.Action, rec.Confidence, rec.Reason)
	if candidate.RiskLevel != "" {
		fmt.Fprintf(&b, "Account risk profile: %s\n", candidate.RiskLevel)
	}
	fmt.Fprintf(&b, "Allowed actions: %s\n", strings.Join(allowedActionStrings(rec.Strategy), ", "))
	b.WriteString("Confirm or override the verdict.")
	return b.String()
}

func (c *Client) call(ctx context.Context, prompt string) (*Advice, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warnf("Failed to close advisor response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("advisor API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("advisor returned no choices")
	}

	return parseAdvice(parsed.Choices[0].Message.Content), nil
}

// parseAdvice extracts the strict-JSON verdict. Unknown or malformed
// recommendation values fall back to HOLD rather than failing the candidate.
func parseAdvice(content string) *Advice {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var resp advisorResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return &Advice{Action: models.ActionHold, Confidence: 0, Reasoning: "Unparseable advisor response"}
	}

	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = resp.Explanation
	}

	action := normalizeAction(resp.Recommendation)
	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &Advice{Action: action, Confidence: confidence, Reasoning: reasoning}
}

var knownActions = map[string]models.Action{
	"HOLD":          models.ActionHold,
	"BUY_TO_CLOSE":  models.ActionBuyToClose,
	"SELL_TO_CLOSE": models.ActionSellToClose,
	"ROLL":          models.ActionRoll,
	"SELL_NEW_CALL": models.ActionSellNewCall,
	"BUY_NEW_PUT":   models.ActionBuyNewPut,
	"ADD":           models.ActionAdd,
}

func normalizeAction(raw string) models.Action {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if action, ok := knownActions[key]; ok {
		return action
	}
	return models.ActionHold
}

func allowedActionStrings(strategy models.Strategy) []string {
	switch strategy {
	case models.StrategyOption:
		return []string{"HOLD", "BUY_TO_CLOSE"}
	case models.StrategyCoveredCall:
		return []string{"HOLD", "BUY_TO_CLOSE", "ROLL", "SELL_NEW_CALL"}
	case models.StrategyProtectivePut:
		return []string{"HOLD", "SELL_TO_CLOSE", "BUY_NEW_PUT"}
	default:
		return []string{"HOLD", "SELL_TO_CLOSE", "ROLL", "ADD"}
	}
}

// isRetryable treats timeouts and transport errors as retryable; HTTP-level
// API errors are not retried here (the outer backoff wrapper owns those).
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "eof")
}
