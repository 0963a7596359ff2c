package strategy

import (
	"math"
	"time"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// Shared fixtures: a small box (6 bars) over a wider prior window, sized so
// the ATR and volume contraction gates pass with margin.

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		MinPrice:              10,
		MaxPrice:              1000,
		MinAvgDailyVolume:     1_000_000,
		BoxBars:               6,
		BoxMaxRangePct:        0.012,
		ATRPeriod:             5,
		ATRBaselinePeriod:     20,
		ATRCompressionFactor:  0.75,
		VolContractionFactor:  0.80,
		BoxIntegrityRangeMult: 3.0,
		BreakBufferPct:        0.001,
		MaxExtensionPct:       0.006,
		BreakVolMult:          1.5,
		VWAPConfirm:           true,
		BiasEMAPeriod:         20,
		ChopVWAPCrossings:     3,
		PanicATRMult:          1.5,
		EntryBufferPct:        0.0005,
		StopBufferPct:         0.0015,
		MinConfidence:         7.5,
		Timezone:              "America/New_York",
	}
}

func testOptionsConfig() config.OptionsConfig {
	return config.OptionsConfig{
		Enabled:             true,
		MinDTE:              1,
		MinDTESameDay:       3,
		MaxDTE:              7,
		MaxDTEMultiDay:      10,
		SpreadPctMax:        0.08,
		MinVolume:           200,
		MinOpenInterest:     500,
		MinMidPrice:         0.25,
		IVPctlMaxAny:        0.85,
		IVPctlMaxAggressive: 0.70,
		ConservativeBand:    config.DeltaBand{Low: 0.50, High: 0.65},
		StandardBand:        config.DeltaBand{Low: 0.35, High: 0.50},
		AggressiveBand:      config.DeltaBand{Low: 0.25, High: 0.35},
		StockOnlyPenalty:    1.0,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		StrategyConfig: testStrategyConfig(),
		OptionsConfig:  testOptionsConfig(),
	}
}

func nyLoc() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}

func sessionStart() time.Time {
	return time.Date(2025, 3, 10, 9, 30, 0, 0, nyLoc())
}

func bar(i int, open, high, low, close, volume float64) market.Bar {
	return market.Bar{
		Timestamp: sessionStart().Add(time.Duration(i) * 5 * time.Minute),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// compressionBars builds 6 wide prior bars, 6 tight box bars (high 100.1,
// low 99.9, avg volume 1000), and the given trigger bar last.
func compressionBars(trigger market.Bar) []market.Bar {
	bars := make([]market.Bar, 0, 13)
	for i := 0; i < 6; i++ {
		bars = append(bars, bar(i, 100, 100.6, 99.4, 100, 2000))
	}
	for i := 6; i < 12; i++ {
		bars = append(bars, bar(i, 100, 100.1, 99.9, 100, 1000))
	}
	trigger.Timestamp = sessionStart().Add(12 * 5 * time.Minute)
	bars = append(bars, trigger)
	return bars
}

func longTrigger() market.Bar {
	return bar(12, 100.05, 100.4, 100.05, 100.35, 2500)
}

func shortTrigger() market.Bar {
	return bar(12, 99.95, 99.95, 99.6, 99.65, 2500)
}

func insideTrigger() market.Bar {
	return bar(12, 100, 100.05, 99.95, 100, 1000)
}

func testDaily() *market.DailySnapshot {
	return &market.DailySnapshot{Symbol: "TEST", AvgDailyVolume: 10_000_000}
}

// bullishMarketBars rises steadily so the close sits above VWAP with a
// positive EMA slope and no chop or panic.
func bullishMarketBars() []market.Bar {
	bars := make([]market.Bar, 30)
	for i := range bars {
		c := 400.0 + 0.5*float64(i)
		bars[i] = bar(i, c-0.5, c+0.2, c-0.7, c, 1000)
	}
	return bars
}

// choppyMarketBars oscillates around a flat level so the close keeps
// crossing VWAP.
func choppyMarketBars() []market.Bar {
	bars := make([]market.Bar, 30)
	for i := range bars {
		c := 400.0 + 2.0*math.Pow(-1, float64(i))
		bars[i] = bar(i, 400, c+0.5, c-0.5, c, 1000)
	}
	return bars
}

// panicMarketBars ends with a bar whose true range dwarfs the recent
// average.
func panicMarketBars() []market.Bar {
	bars := make([]market.Bar, 30)
	for i := range bars {
		c := 400.0
		bars[i] = bar(i, c, c+0.3, c-0.3, c, 1000)
	}
	bars[29] = bar(29, 400, 406, 394, 395, 5000)
	return bars
}

func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
