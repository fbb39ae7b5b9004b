// Package config provides configuration management for the options scanner.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/sperezintexas/fintech-app-sub000/internal/advisor"
	"github.com/sperezintexas/fintech-app-sub000/internal/models"
	"github.com/sperezintexas/fintech-app-sub000/internal/strategy"
)

// Defaults applied by normalize().
const (
	defaultCacheTTL       = "30m"
	defaultAdvisorTimeout = "120s"
	defaultStoragePath    = "data/scanner.json"
	defaultPortfolioPath  = "data/portfolio.json"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	MarketData  MarketDataConfig  `yaml:"marketdata"`
	Advisor     AdvisorConfig     `yaml:"advisor"`
	Storage     StorageConfig     `yaml:"storage"`
	Scanner     ScannerConfig     `yaml:"scanner"`
}

// EnvironmentConfig defines runtime environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// MarketDataConfig defines market data provider settings.
type MarketDataConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Sandbox  bool   `yaml:"sandbox"`
	CacheTTL string `yaml:"cache_ttl"`
}

// AdvisorConfig defines AI advisory gateway settings.
type AdvisorConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MaxParallel int    `yaml:"max_parallel"`
}

// StorageConfig defines storage paths.
type StorageConfig struct {
	Path          string `yaml:"path"`           // scanner output store
	PortfolioPath string `yaml:"portfolio_path"` // account/position store
}

// ScannerConfig defines the unified scanner's per-strategy settings. Every
// field is optional; zero values mean engine defaults.
type ScannerConfig struct {
	Symbol         string                       `yaml:"symbol"` // single-symbol synthetic mode when set
	MinStockShares float64                      `yaml:"min_stock_shares"`
	Option         strategy.OptionConfig        `yaml:"option"`
	CoveredCall    strategy.CoveredCallConfig   `yaml:"covered_call"`
	ProtectivePut  strategy.ProtectivePutConfig `yaml:"protective_put"`
	Straddle       strategy.StraddleConfig      `yaml:"straddle"`
	Escalation     advisor.EscalationPolicy     `yaml:"escalation"`
}

// Load reads and parses the configuration file from the specified path.
// Unknown fields are rejected so a typo cannot silently disable a threshold.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// normalize fills defaults for unset optional fields.
func (c *Config) normalize() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "tradier"
	}
	if c.MarketData.CacheTTL == "" {
		c.MarketData.CacheTTL = defaultCacheTTL
	}
	if c.Advisor.Timeout == "" {
		c.Advisor.Timeout = defaultAdvisorTimeout
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
	if c.Storage.PortfolioPath == "" {
		c.Storage.PortfolioPath = defaultPortfolioPath
	}
	if c.Scanner.MinStockShares == 0 {
		c.Scanner.MinStockShares = strategy.DefaultMinStockShares
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be debug, info, warn or error")
	}

	if c.MarketData.Provider != "tradier" {
		return fmt.Errorf("marketdata.provider %q is not supported", c.MarketData.Provider)
	}
	if c.MarketData.APIKey == "" {
		return fmt.Errorf("marketdata.api_key is required")
	}
	if _, err := time.ParseDuration(c.MarketData.CacheTTL); err != nil {
		return fmt.Errorf("marketdata.cache_ttl invalid: %w", err)
	}

	if _, err := time.ParseDuration(c.Advisor.Timeout); err != nil {
		return fmt.Errorf("advisor.timeout invalid: %w", err)
	}
	if c.Advisor.MaxParallel < 0 {
		return fmt.Errorf("advisor.max_parallel must be >= 0")
	}
	// A missing advisor key is not an error: the client degrades to
	// "unavailable" and rule verdicts stand.

	if c.Scanner.MinStockShares < 0 {
		return fmt.Errorf("scanner.min_stock_shares must be >= 0")
	}
	if c.Scanner.Option.StopLossPercent > 0 {
		return fmt.Errorf("scanner.option.stop_loss_percent must be <= 0 (a loss)")
	}
	if c.Scanner.Option.BTCDTEMax < 0 || c.Scanner.Option.HoldDTEMin < 0 {
		return fmt.Errorf("scanner.option DTE thresholds must be >= 0")
	}
	if c.Scanner.CoveredCall.MinYield < 0 {
		return fmt.Errorf("scanner.covered_call.min_yield must be >= 0")
	}

	switch c.Scanner.Escalation.ConfidenceMin {
	case "", models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
	default:
		return fmt.Errorf("scanner.escalation.confidence_min must be HIGH, MEDIUM or LOW")
	}
	if c.Scanner.Escalation.IVRankMin < 0 || c.Scanner.Escalation.IVRankMin > 100 {
		return fmt.Errorf("scanner.escalation.iv_rank_min must be between 0 and 100")
	}

	return nil
}

// CacheTTL returns the parsed market data cache TTL.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.MarketData.CacheTTL)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// AdvisorClientConfig maps the YAML section onto the advisor client config.
func (c *Config) AdvisorClientConfig() advisor.Config {
	timeout, err := time.ParseDuration(c.Advisor.Timeout)
	if err != nil {
		timeout = advisor.DefaultTimeout
	}
	return advisor.Config{
		Enabled:     c.Advisor.Enabled,
		APIKey:      c.Advisor.APIKey,
		Model:       c.Advisor.Model,
		BaseURL:     c.Advisor.BaseURL,
		Timeout:     timeout,
		MaxParallel: c.Advisor.MaxParallel,
	}
}
