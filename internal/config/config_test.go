package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
marketdata:
  api_key: test-key
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Environment.LogLevel)
	assert.Equal(t, "tradier", cfg.MarketData.Provider)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "data/scanner.json", cfg.Storage.Path)
	assert.Equal(t, "data/portfolio.json", cfg.Storage.PortfolioPath)
	assert.Equal(t, 100.0, cfg.Scanner.MinStockShares)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment:
  log_level: debug
marketdata:
  provider: tradier
  api_key: test-key
  sandbox: true
  cache_ttl: 15m
advisor:
  enabled: true
  api_key: xai-key
  model: grok-4-0709
  timeout: 90s
  max_parallel: 4
storage:
  path: /tmp/scanner.json
scanner:
  min_stock_shares: 200
  symbol: TSLA
  option:
    stop_loss_percent: -40
  covered_call:
    min_yield: 10
  escalation:
    confidence_min: HIGH
    iv_rank_min: 60
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Environment.LogLevel)
	assert.True(t, cfg.MarketData.Sandbox)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 200.0, cfg.Scanner.MinStockShares)
	assert.Equal(t, "TSLA", cfg.Scanner.Symbol)
	assert.Equal(t, -40.0, cfg.Scanner.Option.StopLossPercent)
	assert.Equal(t, 10.0, cfg.Scanner.CoveredCall.MinYield)
	assert.Equal(t, models.ConfidenceHigh, cfg.Scanner.Escalation.ConfidenceMin)

	advisorCfg := cfg.AdvisorClientConfig()
	assert.True(t, advisorCfg.Enabled)
	assert.Equal(t, 90*time.Second, advisorCfg.Timeout)
	assert.Equal(t, 4, advisorCfg.MaxParallel)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_TRADIER_KEY", "expanded-key")
	cfg, err := Load(writeConfig(t, `
marketdata:
  api_key: ${TEST_TRADIER_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.MarketData.APIKey)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, `
marketdata:
  api_key: test-key
scanner:
  option:
    hold_dte_minn: 14
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hold_dte_minn")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Environment.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "unsupported provider",
			mutate:  func(c *Config) { c.MarketData.Provider = "bloomberg" },
			wantErr: "provider",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.MarketData.APIKey = "" },
			wantErr: "api_key",
		},
		{
			name:    "bad cache ttl",
			mutate:  func(c *Config) { c.MarketData.CacheTTL = "soon" },
			wantErr: "cache_ttl",
		},
		{
			name:    "positive stop loss",
			mutate:  func(c *Config) { c.Scanner.Option.StopLossPercent = 10 },
			wantErr: "stop_loss_percent",
		},
		{
			name:    "bad escalation confidence",
			mutate:  func(c *Config) { c.Scanner.Escalation.ConfidenceMin = "MAYBE" },
			wantErr: "confidence_min",
		},
		{
			name:    "iv rank out of range",
			mutate:  func(c *Config) { c.Scanner.Escalation.IVRankMin = 120 },
			wantErr: "iv_rank_min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
