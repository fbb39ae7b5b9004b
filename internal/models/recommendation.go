package models

import "time"

// Strategy tags the rule engine that produced a recommendation. Also used as
// the alert type and as the storage collection name.
type Strategy string

const (
	// StrategyOption is the plain option hold/close engine.
	StrategyOption Strategy = "option"
	// StrategyCoveredCall is the covered-call management engine.
	StrategyCoveredCall Strategy = "covered_call"
	// StrategyProtectivePut is the protective-put management engine.
	StrategyProtectivePut Strategy = "protective_put"
	// StrategyStraddle is the straddle/strangle management engine.
	StrategyStraddle Strategy = "straddle"
)

// Action is a rule engine verdict. Each engine draws from its own subset.
type Action string

const (
	// ActionHold keeps the position as-is.
	ActionHold Action = "HOLD"
	// ActionBuyToClose closes a short option.
	ActionBuyToClose Action = "BUY_TO_CLOSE"
	// ActionSellToClose closes a long option.
	ActionSellToClose Action = "SELL_TO_CLOSE"
	// ActionRoll closes the current contract and opens a further-dated one.
	ActionRoll Action = "ROLL"
	// ActionSellNewCall opens a covered call against uncovered shares.
	ActionSellNewCall Action = "SELL_NEW_CALL"
	// ActionBuyNewPut opens a protective put for unhedged shares.
	ActionBuyNewPut Action = "BUY_NEW_PUT"
	// ActionAdd increases an existing position.
	ActionAdd Action = "ADD"
	// ActionNone means no recommendation; never stored or alerted.
	ActionNone Action = "NONE"
)

// Confidence grades how strongly the rules matched.
type Confidence string

const (
	// ConfidenceHigh for unambiguous matches.
	ConfidenceHigh Confidence = "HIGH"
	// ConfidenceMedium for directional but debatable matches.
	ConfidenceMedium Confidence = "MEDIUM"
	// ConfidenceLow for weak or default matches.
	ConfidenceLow Confidence = "LOW"
)

// Source records which layer produced the final verdict.
type Source string

const (
	// SourceRules marks a deterministic rule engine verdict.
	SourceRules Source = "rules"
	// SourceGrok marks a verdict confirmed or overridden by the AI advisor.
	SourceGrok Source = "grok"
)

// Moneyness buckets where the underlying trades relative to the strike.
type Moneyness string

const (
	// ITM in the money.
	ITM Moneyness = "ITM"
	// ATM at the money (within the +/-2% band).
	ATM Moneyness = "ATM"
	// OTM out of the money.
	OTM Moneyness = "OTM"
)

// Metrics is the computed market snapshot embedded in every recommendation.
// Fields beyond the shared core are strategy-specific and omitted when unset.
type Metrics struct {
	UnderlyingPrice     float64   `json:"underlying_price"`
	Bid                 float64   `json:"bid,omitempty"`
	Ask                 float64   `json:"ask,omitempty"`
	Mid                 float64   `json:"mid,omitempty"`
	DaysToExpiration    int       `json:"days_to_expiration,omitempty"`
	Moneyness           Moneyness `json:"moneyness,omitempty"`
	IntrinsicValue      float64   `json:"intrinsic_value,omitempty"`
	ExtrinsicValue      float64   `json:"extrinsic_value,omitempty"`
	ExtrinsicPercent    float64   `json:"extrinsic_percent,omitempty"`
	ProfitLoss          float64   `json:"profit_loss,omitempty"`
	ProfitPercent       float64   `json:"profit_percent,omitempty"`
	ImpliedVolatility   float64   `json:"implied_volatility,omitempty"`
	IVRank              float64   `json:"iv_rank,omitempty"`
	Delta               float64   `json:"delta,omitempty"`
	StockProfitPercent  float64   `json:"stock_profit_percent,omitempty"`
	UnderlyingChangePct float64   `json:"underlying_change_pct,omitempty"`
	DistanceToStrikePct float64   `json:"distance_to_strike_pct,omitempty"`
	AnnualizedYieldPct  float64   `json:"annualized_yield_pct,omitempty"`
	UncoveredShares     float64   `json:"uncovered_shares,omitempty"`
}

// Recommendation is the append-only output of one scan for one position.
type Recommendation struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Symbol     string     `json:"symbol"`
	Strategy   Strategy   `json:"strategy"`
	Action     Action     `json:"action"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
	Metrics    Metrics    `json:"metrics"`
	Source     Source     `json:"source"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Actionable reports whether the recommendation warrants an alert.
func (r *Recommendation) Actionable() bool {
	return r.Action != ActionHold && r.Action != ActionNone
}

// Verdict is a rule engine's raw output before it is wrapped into a
// Recommendation.
type Verdict struct {
	Action     Action
	Confidence Confidence
	Reason     string
}
