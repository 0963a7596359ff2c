package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/options"
	"github.com/moneysignalai/breakpoint-engine/internal/strategy"
)

// ============================================================================
// ALERT FORMATTING TESTS
// ============================================================================

func sampleDecision() strategy.AlertDecision {
	return strategy.AlertDecision{
		Symbol:     "NVDA",
		Direction:  market.Long,
		Qualifies:  true,
		Kind:       strategy.AlertStockOnly,
		Confidence: 8.6,
		Plan: &strategy.TradePlan{
			Entry:          100.15,
			Stop:           99.75,
			Target1:        100.55,
			Target2:        100.95,
			ExpectedWindow: strategy.WindowSameDay,
		},
		Diag: strategy.Diagnostics{
			BoxHigh:       100.1,
			BoxLow:        99.9,
			RangePct:      0.002,
			ATRRatio:      0.31,
			VolRatio:      0.5,
			BreakPct:      0.0025,
			BreakVolMult:  2.5,
			VWAPConfirmed: true,
			MarketBias:    strategy.BiasBullish,
		},
		EvaluatedAt: time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
	}
}

func TestFormatAlert_StockOnly(t *testing.T) {
	n := FormatAlert(sampleDecision())

	if n.Type != NotifyAlert {
		t.Errorf("Expected alert type, got %s", n.Type)
	}
	if n.Symbol != "NVDA" {
		t.Errorf("Expected symbol NVDA, got %s", n.Symbol)
	}
	if !strings.Contains(n.Title, "🟢") || !strings.Contains(n.Title, "NVDA") {
		t.Errorf("Unexpected title %q", n.Title)
	}
	for _, want := range []string{
		"LONG NVDA breakout",
		"confidence 8.6/10",
		"Entry: 100.15",
		"Stop: 99.75",
		"T1: 100.55 | T2: 100.95",
		"Window: same day",
		"Box 99.90-100.10",
		"2.5x volume",
		"bias bullish",
		"VWAP confirmed",
		"stock-only setup",
	} {
		if !strings.Contains(n.Message, want) {
			t.Errorf("Expected message to contain %q, got:\n%s", want, n.Message)
		}
	}
}

func TestFormatAlert_ShortUsesRedMarker(t *testing.T) {
	d := sampleDecision()
	d.Direction = market.Short
	n := FormatAlert(d)

	if !strings.Contains(n.Title, "🔴") {
		t.Errorf("Expected red marker for SHORT, got %q", n.Title)
	}
}

func TestFormatAlert_WithTiers(t *testing.T) {
	d := sampleDecision()
	d.Kind = strategy.AlertCombined
	d.Tiers = []options.TierPick{
		{
			Tier:     options.TierConservative,
			Contract: market.OptionQuote{ContractSymbol: "NVDA250314C00100000"},
			Delta:    0.58,
			Mid:      2.05,
			DTE:      4,
			ExitPlan: "Scale out 50% at T1, hold remainder to T2 with stop at entry",
		},
		{
			Tier:     options.TierAggressive,
			Contract: market.OptionQuote{ContractSymbol: "NVDA250314C00104000"},
			Delta:    0.30,
			Mid:      0.80,
			DTE:      4,
			ExitPlan: "Take 75% at T1, let the rest run to T2, hard stop at plan stop",
		},
	}
	n := FormatAlert(d)

	if !strings.Contains(n.Message, "Option tiers:") {
		t.Error("Expected tier section")
	}
	if !strings.Contains(n.Message, "Conservative NVDA250314C00100000, delta 0.58") {
		t.Errorf("Expected conservative tier line, got:\n%s", n.Message)
	}
	if !strings.Contains(n.Message, "Aggressive NVDA250314C00104000") {
		t.Errorf("Expected aggressive tier line, got:\n%s", n.Message)
	}
	if strings.Contains(n.Message, "stock-only setup") {
		t.Error("Expected no stock-only note when tiers exist")
	}
}

func TestFormatAlert_UnconfirmedVWAPOmitted(t *testing.T) {
	d := sampleDecision()
	d.Diag.VWAPConfirmed = false
	n := FormatAlert(d)

	if strings.Contains(n.Message, "VWAP confirmed") {
		t.Error("Expected no VWAP note when unconfirmed")
	}
}

func TestFormatAlert_MultiDayWindowLabel(t *testing.T) {
	d := sampleDecision()
	d.Plan.ExpectedWindow = strategy.WindowMultiDay
	n := FormatAlert(d)

	if !strings.Contains(n.Message, "Window: 1-3 days") {
		t.Errorf("Expected multi-day window label, got:\n%s", n.Message)
	}
}
