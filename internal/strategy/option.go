package strategy

import (
	"fmt"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

// OptionConfig tunes the plain option hold/close engine. Zero values mean
// defaults.
type OptionConfig struct {
	HoldDTEMin              int     `yaml:"hold_dte_min"`
	BTCDTEMax               int     `yaml:"btc_dte_max"`
	StopLossPercent         float64 `yaml:"stop_loss_percent"`
	HoldTimeValuePercentMin float64 `yaml:"hold_time_value_percent_min"`
	HighVolatilityPercent   float64 `yaml:"high_volatility_percent"`
}

// Plain option engine defaults.
const (
	defaultHoldDTEMin            = 14
	defaultBTCDTEMax             = 7
	defaultStopLossPercent       = -50
	defaultHoldTimeValueMin      = 20
	defaultHighVolatilityPercent = 30
	defaultLateCloseDTE          = 10
)

// WithDefaults fills zero-valued fields with the engine defaults.
func (c OptionConfig) WithDefaults() OptionConfig {
	if c.HoldDTEMin == 0 {
		c.HoldDTEMin = defaultHoldDTEMin
	}
	if c.BTCDTEMax == 0 {
		c.BTCDTEMax = defaultBTCDTEMax
	}
	if c.StopLossPercent == 0 {
		c.StopLossPercent = defaultStopLossPercent
	}
	if c.HoldTimeValuePercentMin == 0 {
		c.HoldTimeValuePercentMin = defaultHoldTimeValueMin
	}
	if c.HighVolatilityPercent == 0 {
		c.HighVolatilityPercent = defaultHighVolatilityPercent
	}
	return c
}

// OptionInput is the computed state of one short option position.
type OptionInput struct {
	OptionType        models.OptionType
	DTE               int
	PLPercent         float64
	IntrinsicValue    float64
	ImpliedVolatility float64 // percent, 30 = 30%
	ExtrinsicPercent  float64 // of the premium received
	VIXLevel          string
}

// EvaluateOption decides whether to hold or close a plain short option.
// Rules are evaluated in strict priority order; the first match wins.
func EvaluateOption(in OptionInput, cfg OptionConfig) models.Verdict {
	cfg = cfg.WithDefaults()

	rules := []rule{
		{
			when: func() bool { return in.PLPercent <= cfg.StopLossPercent },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason: fmt.Sprintf("Stop loss triggered: P/L %.1f%% at or below %.1f%%",
						in.PLPercent, cfg.StopLossPercent),
				}
			},
		},
		{
			when: func() bool { return in.DTE < cfg.BTCDTEMax },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceHigh,
					Reason:     fmt.Sprintf("Low DTE: %d days below %d-day close threshold", in.DTE, cfg.BTCDTEMax),
				}
			},
		},
		{
			when: func() bool {
				return in.OptionType == models.Put && in.IntrinsicValue <= 0 &&
					in.ImpliedVolatility > cfg.HighVolatilityPercent && in.VIXLevel == "elevated"
			},
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionBuyToClose,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("Elevated volatility: OTM put with IV %.1f%% above %.1f%% while VIX is elevated",
						in.ImpliedVolatility, cfg.HighVolatilityPercent),
				}
			},
		},
		{
			when: func() bool { return in.DTE >= cfg.HoldDTEMin },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceMedium,
					Reason:     fmt.Sprintf("Adequate runway: %d DTE at or above %d-day hold threshold", in.DTE, cfg.HoldDTEMin),
				}
			},
		},
		{
			when: func() bool { return in.PLPercent > 0 },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceMedium,
					Reason:     fmt.Sprintf("Position profitable: P/L %.1f%%", in.PLPercent),
				}
			},
		},
		{
			when: func() bool { return in.ExtrinsicPercent >= cfg.HoldTimeValuePercentMin },
			then: func() models.Verdict {
				return models.Verdict{
					Action:     models.ActionHold,
					Confidence: models.ConfidenceMedium,
					Reason: fmt.Sprintf("Time value remaining: extrinsic %.1f%% of premium at or above %.1f%%",
						in.ExtrinsicPercent, cfg.HoldTimeValuePercentMin),
				}
			},
		},
	}

	for _, r := range rules {
		if r.when() {
			return r.then()
		}
	}

	if in.DTE < defaultLateCloseDTE {
		return models.Verdict{
			Action:     models.ActionBuyToClose,
			Confidence: models.ConfidenceLow,
			Reason:     fmt.Sprintf("Approaching expiration with no hold signal: %d DTE", in.DTE),
		}
	}
	return models.Verdict{
		Action:     models.ActionHold,
		Confidence: models.ConfidenceLow,
		Reason:     "No strong signal; continue monitoring",
	}
}

// rule is one guard + result entry in a priority-ordered chain.
type rule struct {
	when func() bool
	then func() models.Verdict
}
