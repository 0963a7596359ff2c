package options

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// Tier identifies one of the three risk profiles a pick belongs to.
type Tier string

const (
	TierConservative Tier = "conservative"
	TierStandard     Tier = "standard"
	TierAggressive   Tier = "aggressive"
)

// TierPick is one selected contract with the figures that justified it.
type TierPick struct {
	Tier           Tier               `json:"tier"`
	Contract       market.OptionQuote `json:"contract"`
	Delta          float64            `json:"delta"` // absolute value
	Mid            float64            `json:"mid"`
	SpreadPct      float64            `json:"spread_pct"`
	DTE            int                `json:"dte"`
	Rationale      string             `json:"rationale"`
	ExitPlan       string             `json:"exit_plan"`
}

// Result reports what the optimizer selected and how much of the chain
// survived filtering. Picks never contain duplicate contracts and their
// absolute deltas are strictly decreasing.
type Result struct {
	Picks     []TierPick `json:"picks"`
	Evaluated int        `json:"evaluated"`
	Eligible  int        `json:"eligible"`
}

// Optimizer selects up to three option contracts, one per risk tier, from
// a chain snapshot.
type Optimizer struct {
	cfg config.OptionsConfig
	log zerolog.Logger
}

func NewOptimizer(cfg config.OptionsConfig, logger zerolog.Logger) *Optimizer {
	return &Optimizer{
		cfg: cfg,
		log: logger.With().Str("component", "option_optimizer").Logger(),
	}
}

// Select filters the chain down to eligible contracts and fills the tiers
// in conservative, standard, aggressive order. A tier with no candidate is
// simply skipped; the result may hold zero to three picks.
func (o *Optimizer) Select(chain *market.ChainSnapshot, direction market.Direction, now time.Time, multiDay bool, symbolIVPctl *float64) Result {
	result := Result{}
	if chain == nil {
		return result
	}
	result.Evaluated = len(chain.Quotes)

	// Same-day setups want at least a few days of runway so theta does
	// not dominate; multi-day setups can reach shorter and further out.
	minDTE := o.cfg.MinDTESameDay
	maxDTE := o.cfg.MaxDTE
	if multiDay {
		minDTE = o.cfg.MinDTE
		maxDTE = o.cfg.MaxDTEMultiDay
	}

	eligible := make([]market.OptionQuote, 0, len(chain.Quotes))
	for _, q := range chain.Quotes {
		if o.eligible(q, direction, now, minDTE, maxDTE, symbolIVPctl) {
			eligible = append(eligible, q)
		}
	}
	result.Eligible = len(eligible)
	if len(eligible) == 0 {
		o.log.Debug().
			Str("symbol", chain.Symbol).
			Int("evaluated", result.Evaluated).
			Msg("no eligible contracts after liquidity filtering")
		return result
	}

	picked := make(map[string]bool)
	prevDelta := math.Inf(1)

	for _, tier := range []Tier{TierConservative, TierStandard, TierAggressive} {
		band := o.band(tier)
		best, ok := o.pickFromBand(eligible, picked, band, tier, prevDelta, symbolIVPctl)
		if !ok {
			continue
		}

		delta := math.Abs(*best.Delta)
		pick := TierPick{
			Tier:      tier,
			Contract:  best,
			Delta:     delta,
			Mid:       best.Mid(),
			SpreadPct: best.SpreadPct(),
			DTE:       best.DTE(now),
			Rationale: o.rationale(best, tier, band, now),
			ExitPlan:  exitPlan(tier),
		}
		result.Picks = append(result.Picks, pick)
		picked[best.ContractSymbol] = true
		prevDelta = delta
	}

	return result
}

// eligible applies the liquidity and fit gates shared by every tier.
func (o *Optimizer) eligible(q market.OptionQuote, direction market.Direction, now time.Time, minDTE, maxDTE int, symbolIVPctl *float64) bool {
	if !q.Right.MatchesDirection(direction) {
		return false
	}
	dte := q.DTE(now)
	if dte < minDTE || dte > maxDTE {
		return false
	}
	mid := q.Mid()
	if mid < o.cfg.MinMidPrice {
		return false
	}
	if q.SpreadPct() > o.cfg.SpreadPctMax {
		return false
	}
	if q.Volume < o.cfg.MinVolume || q.OpenInterest < o.cfg.MinOpenInterest {
		return false
	}
	if q.Delta == nil {
		return false
	}
	d := math.Abs(*q.Delta)
	if d <= 0 || d >= 1 {
		return false
	}
	if pctl, ok := ivPercentile(q, symbolIVPctl); ok && pctl > o.cfg.IVPctlMaxAny {
		return false
	}
	return true
}

// pickFromBand selects the contract whose |delta| is closest to the band
// midpoint, among contracts not already picked and strictly below the
// previous tier's delta. Ties break toward the tighter spread, then the
// larger open interest.
func (o *Optimizer) pickFromBand(eligible []market.OptionQuote, picked map[string]bool, band config.DeltaBand, tier Tier, prevDelta float64, symbolIVPctl *float64) (market.OptionQuote, bool) {
	target := (band.Low + band.High) / 2

	var best market.OptionQuote
	bestDist := math.Inf(1)
	found := false

	for _, q := range eligible {
		if picked[q.ContractSymbol] {
			continue
		}
		d := math.Abs(*q.Delta)
		if d < band.Low || d > band.High {
			continue
		}
		if d >= prevDelta {
			continue
		}
		if tier == TierAggressive {
			if pctl, ok := ivPercentile(q, symbolIVPctl); ok && pctl > o.cfg.IVPctlMaxAggressive {
				continue
			}
		}

		dist := math.Abs(d - target)
		if !found || dist < bestDist || (dist == bestDist && betterTieBreak(q, best)) {
			best = q
			bestDist = dist
			found = true
		}
	}

	return best, found
}

// betterTieBreak prefers the tighter spread, then the deeper open interest.
func betterTieBreak(a, b market.OptionQuote) bool {
	sa, sb := a.SpreadPct(), b.SpreadPct()
	if sa != sb {
		return sa < sb
	}
	return a.OpenInterest > b.OpenInterest
}

// ivPercentile resolves the IV percentile for a quote, preferring the
// contract-level figure over the symbol-level one. The second return is
// false when neither is known; unknown IV never blocks a pick.
func ivPercentile(q market.OptionQuote, symbolIVPctl *float64) (float64, bool) {
	if q.IVPercentile != nil {
		return *q.IVPercentile, true
	}
	if symbolIVPctl != nil {
		return *symbolIVPctl, true
	}
	return 0, false
}

func (o *Optimizer) band(tier Tier) config.DeltaBand {
	switch tier {
	case TierConservative:
		return o.cfg.ConservativeBand
	case TierStandard:
		return o.cfg.StandardBand
	default:
		return o.cfg.AggressiveBand
	}
}

func (o *Optimizer) rationale(q market.OptionQuote, tier Tier, band config.DeltaBand, now time.Time) string {
	return fmt.Sprintf("%s: |delta| %.2f in %.2f-%.2f band, spread %.1f%%, volume %d, OI %d, %d DTE",
		tier, math.Abs(*q.Delta), band.Low, band.High, q.SpreadPct()*100, q.Volume, q.OpenInterest, q.DTE(now))
}

func exitPlan(tier Tier) string {
	switch tier {
	case TierConservative:
		return "Scale out 50% at T1, hold remainder to T2 with stop at entry"
	case TierStandard:
		return "Take 50% at T1, trail the rest, exit on close back inside the box"
	default:
		return "Take 75% at T1, let the rest run to T2, hard stop at plan stop"
	}
}
