// Command scanner runs one unified options scan: it loads the portfolio,
// evaluates every strategy, persists recommendations, and creates alerts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sperezintexas/fintech-app-sub000/internal/advisor"
	"github.com/sperezintexas/fintech-app-sub000/internal/config"
	"github.com/sperezintexas/fintech-app-sub000/internal/marketdata"
	"github.com/sperezintexas/fintech-app-sub000/internal/retry"
	"github.com/sperezintexas/fintech-app-sub000/internal/scanner"
	"github.com/sperezintexas/fintech-app-sub000/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	accountID := flag.String("account", "", "scan a single account id")
	symbol := flag.String("symbol", "", "single-symbol mode: scan one ticker with synthetic holdings")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "scanner: loading .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *symbol != "" {
		cfg.Scanner.Symbol = *symbol
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.Environment.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := marketdata.NewTradierGateway(cfg.MarketData.APIKey, cfg.MarketData.Sandbox, logger)
	breaker := marketdata.NewCircuitBreakerGateway(gateway, logger)
	cache := marketdata.NewCache(cfg.CacheTTL())
	market := marketdata.NewCachedGateway(breaker, cache)

	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening scanner storage: %w", err)
	}
	portfolio, err := storage.NewStorage(cfg.Storage.PortfolioPath)
	if err != nil {
		return fmt.Errorf("opening portfolio storage: %w", err)
	}

	adv := advisor.NewClient(cfg.AdvisorClientConfig(), logger)
	if !adv.Available() {
		logger.Info("Advisor disabled or no API key; rule verdicts will stand")
	}

	scan := scanner.New(store, portfolio, market, adv, cfg.Scanner, logger)

	err = retry.Do(ctx, logger, retry.DefaultConfig, "unified scan", func(ctx context.Context) error {
		result, err := scan.RunUnified(ctx, *accountID)
		if err != nil {
			return err
		}
		for _, scanErr := range result.Errors {
			logger.Warnf("Scanner %s failed: %s", scanErr.Scanner, scanErr.Message)
		}
		logger.Infof("Unified scan complete: scanned=%d stored=%d alerts=%d errors=%d",
			result.TotalScanned, result.TotalStored, result.TotalAlerts, len(result.Errors))
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}
