package options

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// ============================================================================
// TIER OPTIMIZER TESTS
// ============================================================================

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

func newTestOptimizer() *Optimizer {
	return NewOptimizer(testOptionsConfig(), zerolog.Nop())
}

func fptr(v float64) *float64 { return &v }

var testNow = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

type quoteSpec struct {
	symbol  string
	right   market.OptionRight
	delta   *float64
	dteDays int
	bid     float64
	ask     float64
	volume  int64
	oi      int64
	ivPctl  *float64
}

func makeQuote(s quoteSpec) market.OptionQuote {
	return market.OptionQuote{
		ContractSymbol: s.symbol,
		Expiry:         testNow.Add(time.Duration(s.dteDays) * 24 * time.Hour),
		Strike:         100,
		Right:          s.right,
		Bid:            s.bid,
		Ask:            s.ask,
		Volume:         s.volume,
		OpenInterest:   s.oi,
		Delta:          s.delta,
		IVPercentile:   s.ivPctl,
	}
}

// goodCall is a liquid call at the given delta with a 4.9% spread.
func goodCall(symbol string, delta float64) market.OptionQuote {
	return makeQuote(quoteSpec{
		symbol: symbol, right: market.Call, delta: fptr(delta),
		dteDays: 5, bid: 2.00, ask: 2.10, volume: 500, oi: 1000,
	})
}

func chainOf(quotes ...market.OptionQuote) *market.ChainSnapshot {
	return &market.ChainSnapshot{Symbol: "TEST", FetchedAt: testNow, Quotes: quotes}
}

func TestSelect_FillsAllThreeTiers(t *testing.T) {
	chain := chainOf(goodCall("C60", 0.60), goodCall("C42", 0.42), goodCall("C30", 0.30))
	result := newTestOptimizer().Select(chain, market.Long, testNow, false, nil)

	if len(result.Picks) != 3 {
		t.Fatalf("Expected 3 picks, got %d", len(result.Picks))
	}
	expected := []struct {
		tier   Tier
		symbol string
	}{
		{TierConservative, "C60"},
		{TierStandard, "C42"},
		{TierAggressive, "C30"},
	}
	for i, want := range expected {
		pick := result.Picks[i]
		if pick.Tier != want.tier {
			t.Errorf("Pick %d: expected tier %s, got %s", i, want.tier, pick.Tier)
		}
		if pick.Contract.ContractSymbol != want.symbol {
			t.Errorf("Pick %d: expected contract %s, got %s", i, want.symbol, pick.Contract.ContractSymbol)
		}
		if pick.Rationale == "" || pick.ExitPlan == "" {
			t.Errorf("Pick %d: expected rationale and exit plan", i)
		}
	}
	for i := 1; i < len(result.Picks); i++ {
		if result.Picks[i].Delta >= result.Picks[i-1].Delta {
			t.Errorf("Expected strictly decreasing deltas, got %f then %f",
				result.Picks[i-1].Delta, result.Picks[i].Delta)
		}
	}
	if result.Evaluated != 3 || result.Eligible != 3 {
		t.Errorf("Expected 3 evaluated and eligible, got %d/%d", result.Evaluated, result.Eligible)
	}
}

func TestSelect_ClosestToBandMidpoint(t *testing.T) {
	// conservative target is 0.575: 0.58 beats 0.52
	chain := chainOf(goodCall("C52", 0.52), goodCall("C58", 0.58))
	result := newTestOptimizer().Select(chain, market.Long, testNow, false, nil)

	if len(result.Picks) == 0 {
		t.Fatal("Expected a conservative pick")
	}
	if result.Picks[0].Contract.ContractSymbol != "C58" {
		t.Errorf("Expected C58 closest to midpoint, got %s", result.Picks[0].Contract.ContractSymbol)
	}
}

func TestSelect_TieBreakPrefersTighterSpread(t *testing.T) {
	// identical deltas, different spreads
	tight := makeQuote(quoteSpec{
		symbol: "TIGHT", right: market.Call, delta: fptr(0.55),
		dteDays: 5, bid: 2.02, ask: 2.08, volume: 500, oi: 1000,
	})
	wide := goodCall("WIDE", 0.55)
	result := newTestOptimizer().Select(chainOf(wide, tight), market.Long, testNow, false, nil)

	if len(result.Picks) == 0 {
		t.Fatal("Expected a pick")
	}
	if result.Picks[0].Contract.ContractSymbol != "TIGHT" {
		t.Errorf("Expected tighter spread to win the tie, got %s", result.Picks[0].Contract.ContractSymbol)
	}
}

func TestSelect_TieBreakFallsBackToOpenInterest(t *testing.T) {
	deep := goodCall("DEEP", 0.55)
	deep.OpenInterest = 5000
	thin := goodCall("THIN", 0.55)
	result := newTestOptimizer().Select(chainOf(thin, deep), market.Long, testNow, false, nil)

	if len(result.Picks) == 0 {
		t.Fatal("Expected a pick")
	}
	if result.Picks[0].Contract.ContractSymbol != "DEEP" {
		t.Errorf("Expected deeper open interest to win the tie, got %s", result.Picks[0].Contract.ContractSymbol)
	}
}

func TestSelect_RightMustMatchDirection(t *testing.T) {
	put := makeQuote(quoteSpec{
		symbol: "P60", right: market.Put, delta: fptr(-0.60),
		dteDays: 5, bid: 2.00, ask: 2.10, volume: 500, oi: 1000,
	})
	result := newTestOptimizer().Select(chainOf(put), market.Long, testNow, false, nil)

	if result.Eligible != 0 || len(result.Picks) != 0 {
		t.Errorf("Expected puts filtered for LONG, got %d eligible", result.Eligible)
	}

	result = newTestOptimizer().Select(chainOf(put), market.Short, testNow, false, nil)
	if result.Eligible != 1 {
		t.Errorf("Expected puts eligible for SHORT, got %d eligible", result.Eligible)
	}
	if len(result.Picks) != 1 || result.Picks[0].Delta != 0.60 {
		t.Error("Expected the put picked by absolute delta")
	}
}

func TestSelect_DTEWindow(t *testing.T) {
	expiringToday := goodCall("D0", 0.60)
	expiringToday.Expiry = testNow.Add(12 * time.Hour)
	farOut := goodCall("D8", 0.60)
	farOut.Expiry = testNow.Add(8 * 24 * time.Hour)

	result := newTestOptimizer().Select(chainOf(expiringToday, farOut), market.Long, testNow, false, nil)
	if result.Eligible != 0 {
		t.Errorf("Expected 0 DTE and 8 DTE excluded same-day, got %d eligible", result.Eligible)
	}

	// the multi-day window stretches the ceiling to 10
	result = newTestOptimizer().Select(chainOf(expiringToday, farOut), market.Long, testNow, true, nil)
	if result.Eligible != 1 {
		t.Errorf("Expected 8 DTE eligible multi-day, got %d eligible", result.Eligible)
	}
	if len(result.Picks) != 1 || result.Picks[0].Contract.ContractSymbol != "D8" {
		t.Error("Expected the 8 DTE contract picked multi-day")
	}
}

func TestSelect_SameDayFloorRejectsShortDated(t *testing.T) {
	nearExpiry := goodCall("D1", 0.60)
	nearExpiry.Expiry = testNow.Add(1 * 24 * time.Hour)

	// a same-day setup must not ride a contract expiring tomorrow
	result := newTestOptimizer().Select(chainOf(nearExpiry), market.Long, testNow, false, nil)
	if result.Eligible != 0 || len(result.Picks) != 0 {
		t.Errorf("Expected 1 DTE rejected for same-day setups, got %d eligible", result.Eligible)
	}

	// the multi-day window keeps the short end open
	result = newTestOptimizer().Select(chainOf(nearExpiry), market.Long, testNow, true, nil)
	if result.Eligible != 1 || len(result.Picks) != 1 {
		t.Errorf("Expected 1 DTE eligible multi-day, got %d eligible", result.Eligible)
	}

	threeDay := goodCall("D3", 0.60)
	threeDay.Expiry = testNow.Add(3 * 24 * time.Hour)
	result = newTestOptimizer().Select(chainOf(nearExpiry, threeDay), market.Long, testNow, false, nil)
	if result.Eligible != 1 || len(result.Picks) != 1 || result.Picks[0].Contract.ContractSymbol != "D3" {
		t.Error("Expected only the 3 DTE contract eligible same-day")
	}
}

func TestSelect_LiquidityGates(t *testing.T) {
	cases := []struct {
		name  string
		quote market.OptionQuote
	}{
		{"wide spread", makeQuote(quoteSpec{
			symbol: "W", right: market.Call, delta: fptr(0.60),
			dteDays: 5, bid: 1.80, ask: 2.30, volume: 500, oi: 1000,
		})},
		{"thin volume", makeQuote(quoteSpec{
			symbol: "V", right: market.Call, delta: fptr(0.60),
			dteDays: 5, bid: 2.00, ask: 2.10, volume: 100, oi: 1000,
		})},
		{"thin open interest", makeQuote(quoteSpec{
			symbol: "O", right: market.Call, delta: fptr(0.60),
			dteDays: 5, bid: 2.00, ask: 2.10, volume: 500, oi: 100,
		})},
		{"cheap mid", makeQuote(quoteSpec{
			symbol: "M", right: market.Call, delta: fptr(0.60),
			dteDays: 5, bid: 0.10, ask: 0.12, volume: 500, oi: 1000,
		})},
		{"one-sided quote", makeQuote(quoteSpec{
			symbol: "B", right: market.Call, delta: fptr(0.60),
			dteDays: 5, bid: 0, ask: 2.10, volume: 500, oi: 1000,
		})},
		{"missing delta", makeQuote(quoteSpec{
			symbol: "ND", right: market.Call, delta: nil,
			dteDays: 5, bid: 2.00, ask: 2.10, volume: 500, oi: 1000,
		})},
		{"degenerate delta", makeQuote(quoteSpec{
			symbol: "D1", right: market.Call, delta: fptr(1.0),
			dteDays: 5, bid: 2.00, ask: 2.10, volume: 500, oi: 1000,
		})},
	}
	for _, tc := range cases {
		result := newTestOptimizer().Select(chainOf(tc.quote), market.Long, testNow, false, nil)
		if result.Eligible != 0 {
			t.Errorf("%s: expected ineligible, got %d eligible", tc.name, result.Eligible)
		}
	}
}

func TestSelect_IVPercentileCeilings(t *testing.T) {
	// 0.90 percentile fails the global ceiling outright
	hot := goodCall("HOT", 0.60)
	hot.IVPercentile = fptr(0.90)
	result := newTestOptimizer().Select(chainOf(hot), market.Long, testNow, false, nil)
	if result.Eligible != 0 {
		t.Errorf("Expected 0.90 percentile ineligible, got %d eligible", result.Eligible)
	}

	// 0.75 passes globally but is barred from the aggressive tier
	warm := goodCall("WARM", 0.30)
	warm.IVPercentile = fptr(0.75)
	result = newTestOptimizer().Select(chainOf(warm), market.Long, testNow, false, nil)
	if result.Eligible != 1 {
		t.Errorf("Expected 0.75 percentile eligible, got %d", result.Eligible)
	}
	if len(result.Picks) != 0 {
		t.Error("Expected no aggressive pick above the aggressive IV ceiling")
	}
}

func TestSelect_SymbolLevelIVFallback(t *testing.T) {
	// the contract has no percentile; the symbol-level figure applies
	quote := goodCall("C60", 0.60)
	result := newTestOptimizer().Select(chainOf(quote), market.Long, testNow, false, fptr(0.95))
	if result.Eligible != 0 {
		t.Errorf("Expected symbol-level 0.95 percentile to block, got %d eligible", result.Eligible)
	}

	// unknown IV never blocks
	result = newTestOptimizer().Select(chainOf(quote), market.Long, testNow, false, nil)
	if result.Eligible != 1 || len(result.Picks) != 1 {
		t.Error("Expected unknown IV to pass")
	}
}

func TestSelect_NoDuplicateAcrossTiers(t *testing.T) {
	// 0.50 sits in both the conservative and standard bands
	chain := chainOf(goodCall("C50", 0.50))
	result := newTestOptimizer().Select(chain, market.Long, testNow, false, nil)

	if len(result.Picks) != 1 {
		t.Fatalf("Expected a single pick, got %d", len(result.Picks))
	}
	if result.Picks[0].Tier != TierConservative {
		t.Errorf("Expected the shared-band contract on the conservative tier, got %s", result.Picks[0].Tier)
	}
}

func TestSelect_NilChain(t *testing.T) {
	result := newTestOptimizer().Select(nil, market.Long, testNow, false, nil)
	if len(result.Picks) != 0 || result.Evaluated != 0 {
		t.Error("Expected empty result for nil chain")
	}
}

func TestSelect_SkipsTiersWithoutCandidates(t *testing.T) {
	// only a standard-band contract available
	chain := chainOf(goodCall("C42", 0.42))
	result := newTestOptimizer().Select(chain, market.Long, testNow, false, nil)

	if len(result.Picks) != 1 {
		t.Fatalf("Expected 1 pick, got %d", len(result.Picks))
	}
	if result.Picks[0].Tier != TierStandard {
		t.Errorf("Expected standard tier, got %s", result.Picks[0].Tier)
	}
}
