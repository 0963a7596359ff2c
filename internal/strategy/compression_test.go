package strategy

import (
	"testing"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// ============================================================================
// COMPRESSION DETECTOR TESTS
// ============================================================================

func TestDetectCompression_QualifyingBox(t *testing.T) {
	trace := NewTrace("TEST")
	comp, reason := DetectCompression(compressionBars(longTrigger()), testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectNone {
		t.Fatalf("Expected no rejection, got %q", reason)
	}
	if comp == nil {
		t.Fatal("Expected a compression, got nil")
	}
	if !floatEquals(comp.Box.High, 100.1, 1e-9) {
		t.Errorf("Expected box high 100.1, got %f", comp.Box.High)
	}
	if !floatEquals(comp.Box.Low, 99.9, 1e-9) {
		t.Errorf("Expected box low 99.9, got %f", comp.Box.Low)
	}
	if !floatEquals(comp.Box.RangePct, 0.2/99.9, 1e-9) {
		t.Errorf("Expected range pct %f, got %f", 0.2/99.9, comp.Box.RangePct)
	}
	if comp.Volatility.Ratio > testStrategyConfig().ATRCompressionFactor {
		t.Errorf("Expected compressed ATR ratio, got %f", comp.Volatility.Ratio)
	}
	if !floatEquals(comp.Volume.ContractionFactor, 0.5, 1e-9) {
		t.Errorf("Expected volume contraction 0.5, got %f", comp.Volume.ContractionFactor)
	}
	if trace.Skip != RejectNone {
		t.Errorf("Expected no skip reason in trace, got %q", trace.Skip)
	}
}

func TestDetectCompression_InsufficientBars(t *testing.T) {
	bars := compressionBars(longTrigger())[:10]
	trace := NewTrace("TEST")
	comp, reason := DetectCompression(bars, testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectDataInsufficient {
		t.Errorf("Expected data_insufficient, got %q", reason)
	}
	if comp != nil {
		t.Error("Expected nil compression on rejection")
	}
}

func TestDetectCompression_PriceOutOfRange(t *testing.T) {
	trigger := bar(12, 5, 5.1, 4.9, 5, 1000)
	trace := NewTrace("TEST")
	_, reason := DetectCompression(compressionBars(trigger), testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectPriceOutOfRange {
		t.Errorf("Expected price_out_of_range, got %q", reason)
	}
}

func TestDetectCompression_Illiquid(t *testing.T) {
	daily := &market.DailySnapshot{Symbol: "TEST", AvgDailyVolume: 100_000}
	trace := NewTrace("TEST")
	_, reason := DetectCompression(compressionBars(longTrigger()), daily, true, testStrategyConfig(), trace)

	if reason != RejectIlliquid {
		t.Errorf("Expected illiquid, got %q", reason)
	}
}

func TestDetectCompression_AfterHoursVolumeRelaxation(t *testing.T) {
	// 300k fails the 1M daily gate but clears the relaxed 250k floor
	daily := &market.DailySnapshot{Symbol: "TEST", AvgDailyVolume: 300_000}

	trace := NewTrace("TEST")
	_, reason := DetectCompression(compressionBars(longTrigger()), daily, true, testStrategyConfig(), trace)
	if reason != RejectIlliquid {
		t.Errorf("Expected illiquid during RTH, got %q", reason)
	}

	trace = NewTrace("TEST")
	comp, reason := DetectCompression(compressionBars(longTrigger()), daily, false, testStrategyConfig(), trace)
	if reason != RejectNone {
		t.Errorf("Expected after-hours pass, got %q", reason)
	}
	if comp == nil {
		t.Fatal("Expected a compression after hours")
	}
}

func TestDetectCompression_BoxTooWide(t *testing.T) {
	bars := compressionBars(longTrigger())
	// widen one box bar beyond 1.2% of the low
	bars[8].High = 101.5
	trace := NewTrace("TEST")
	_, reason := DetectCompression(bars, testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectBoxTooWide {
		t.Errorf("Expected box_too_wide, got %q", reason)
	}
}

func TestDetectCompression_BoxTooWideAcrossConfigs(t *testing.T) {
	// range is checked before volatility and volume, so loosening the
	// other knobs never rescues an oversized box
	base := testStrategyConfig()
	for _, cfg := range []struct{ atr, vol float64 }{
		{0.75, 0.80},
		{10.0, 0.80},
		{0.75, 10.0},
		{10.0, 10.0},
	} {
		c := base
		c.ATRCompressionFactor = cfg.atr
		c.VolContractionFactor = cfg.vol

		bars := compressionBars(longTrigger())
		bars[8].High = 101.5
		trace := NewTrace("TEST")
		_, reason := DetectCompression(bars, testDaily(), true, c, trace)
		if reason != RejectBoxTooWide {
			t.Errorf("Expected box_too_wide with atr=%f vol=%f, got %q", cfg.atr, cfg.vol, reason)
		}
	}
}

func TestDetectCompression_ATRNotCompressed(t *testing.T) {
	// prior window as tight as the box: no volatility contraction
	bars := compressionBars(longTrigger())
	for i := 0; i < 6; i++ {
		bars[i].High = 100.1
		bars[i].Low = 99.9
	}
	trace := NewTrace("TEST")
	_, reason := DetectCompression(bars, testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectATRNotCompressed {
		t.Errorf("Expected atr_not_compressed, got %q", reason)
	}
}

func TestDetectCompression_VolumeNotContracted(t *testing.T) {
	bars := compressionBars(longTrigger())
	for i := 6; i < 12; i++ {
		bars[i].Volume = 2000
	}
	trace := NewTrace("TEST")
	_, reason := DetectCompression(bars, testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectVolumeNotContracted {
		t.Errorf("Expected volume_not_contracted, got %q", reason)
	}
}

func TestDetectCompression_BoxIntegrityViolation(t *testing.T) {
	// one box bar spanning more than 3x the mean bar range, while the
	// total box range stays inside the width gate
	bars := compressionBars(insideTrigger())
	bars[8].High = 100.6
	bars[8].Low = 99.5
	trace := NewTrace("TEST")
	_, reason := DetectCompression(bars, testDaily(), true, testStrategyConfig(), trace)

	if reason != RejectBoxIntegrity {
		t.Errorf("Expected box_integrity_violation, got %q", reason)
	}
}

func TestDetectCompression_NilDailyFallsBackToIntraday(t *testing.T) {
	// without a snapshot the projection from intraday volume is tiny,
	// which should fail the liquidity gate rather than divide by zero
	trace := NewTrace("TEST")
	_, reason := DetectCompression(compressionBars(longTrigger()), nil, true, testStrategyConfig(), trace)

	if reason != RejectIlliquid {
		t.Errorf("Expected illiquid with nil snapshot, got %q", reason)
	}
}
