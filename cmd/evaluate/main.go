// One-shot evaluation of a single symbol against live market data. Prints
// the full decision, including the gate trace, as JSON. Useful for checking
// why a symbol did or did not alert without running the scan loop.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/logging"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/strategy"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to evaluate")
	withChain := flag.Bool("chain", true, "fetch the option chain for qualified setups")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -symbol SPY [-chain=false]")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}

	logger := logging.New(cfg.LoggingConfig)

	loc, err := time.LoadLocation(cfg.StrategyConfig.Timezone)
	if err != nil {
		fatal("loading timezone: %v", err)
	}
	client := market.NewClient(market.ClientConfig{
		APIKey:         cfg.MarketDataConfig.APIKey,
		BaseURL:        cfg.MarketDataConfig.BaseURL,
		Timeout:        time.Duration(cfg.MarketDataConfig.TimeoutSeconds) * time.Second,
		MaxRetries:     uint64(cfg.MarketDataConfig.MaxRetries),
		RequestsPerSec: cfg.MarketDataConfig.RequestsPerSec,
		Timezone:       loc,
	}, logger)

	engine, err := strategy.NewEngine(cfg, logger)
	if err != nil {
		fatal("building engine: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	bars, err := client.GetBars(ctx, *symbol, "5m", 120)
	if err != nil {
		fatal("fetching bars: %v", err)
	}
	daily, err := client.GetDailySnapshot(ctx, *symbol)
	if err != nil {
		daily = nil
	}
	marketBars, err := client.GetBars(ctx, cfg.ScannerConfig.MarketIndexSymbol, "5m", 120)
	if err != nil {
		marketBars = nil
	}

	decision := engine.EvaluateStock(strategy.Input{
		Symbol:     *symbol,
		Bars:       bars,
		Daily:      daily,
		MarketBars: marketBars,
		Now:        now,
	})

	if decision.Qualifies && *withChain {
		ocfg := engine.OptionsConfig()
		minDTE := ocfg.MinDTESameDay
		maxDTE := ocfg.MaxDTE
		if decision.Plan != nil && decision.Plan.ExpectedWindow == strategy.WindowMultiDay {
			minDTE = ocfg.MinDTE
			maxDTE = ocfg.MaxDTEMultiDay
		}
		chain, err := client.GetChainSnapshot(ctx, *symbol, now, minDTE, maxDTE)
		if err == nil {
			decision = engine.ApplyOptions(decision, chain, daily)
		}
	}

	out := struct {
		Decision strategy.AlertDecision `json:"decision"`
		Trace    *strategy.Trace        `json:"trace,omitempty"`
	}{decision, decision.Trace}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal("encoding output: %v", err)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
