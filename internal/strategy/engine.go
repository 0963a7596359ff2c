package strategy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/indicators"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/options"
)

// Regular trading hours, exchange-local.
const (
	rthOpenHour    = 9
	rthOpenMinute  = 30
	rthCloseHour   = 16
	rthCloseMinute = 0
)

// Engine runs the full evaluation pipeline for one symbol and cycle. It is
// stateless apart from configuration and safe for concurrent use.
type Engine struct {
	scfg      config.StrategyConfig
	ocfg      config.OptionsConfig
	optimizer *options.Optimizer
	loc       *time.Location
	log       zerolog.Logger
}

// NewEngine builds an engine from validated configuration.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	loc, err := time.LoadLocation(cfg.StrategyConfig.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.StrategyConfig.Timezone, err)
	}
	return &Engine{
		scfg:      cfg.StrategyConfig,
		ocfg:      cfg.OptionsConfig,
		optimizer: options.NewOptimizer(cfg.OptionsConfig, logger),
		loc:       loc,
		log:       logger.With().Str("component", "engine").Logger(),
	}, nil
}

// EvaluateStock runs the stock-side pipeline: compression, breakout, bias
// gate, scoring, and trade plan. The returned decision is threshold-checked
// and carries Kind stock_only when it qualifies; option enrichment is a
// separate step so callers can skip the chain fetch for rejects.
func (e *Engine) EvaluateStock(in Input) AlertDecision {
	trace := NewTrace(in.Symbol)
	decision := AlertDecision{
		Symbol:      in.Symbol,
		Trace:       trace,
		EvaluatedAt: in.Now,
	}

	comp, reason := DetectCompression(in.Bars, in.Daily, e.inRTH(in.Now), e.scfg, trace)
	if reason != RejectNone {
		decision.Reason = reason
		return decision
	}
	decision.Diag.BoxHigh = comp.Box.High
	decision.Diag.BoxLow = comp.Box.Low
	decision.Diag.RangePct = comp.Box.RangePct
	decision.Diag.ATRRatio = comp.Volatility.Ratio
	decision.Diag.VolRatio = comp.Volume.ContractionFactor

	vwap := e.sessionVWAP(in.Bars)
	trigger := in.Bars[len(in.Bars)-1]

	event, reason := EvaluateBreakout(comp, trigger, vwap, e.scfg, trace)
	if reason != RejectNone {
		decision.Reason = reason
		return decision
	}
	decision.Direction = event.Direction
	decision.Diag.BreakPct = event.BreakPct
	decision.Diag.BreakVolMult = event.VolumeMult
	decision.Diag.ExtensionPct = event.ExtensionPct
	decision.Diag.VWAP = event.VWAP
	decision.Diag.VWAPConfirmed = event.VWAPConfirmed

	bias := ClassifyBias(in.MarketBars, e.scfg)
	decision.Diag.MarketBias = bias.Bias
	if reason := GateBias(bias, trace); reason != RejectNone {
		decision.Reason = reason
		return decision
	}

	confidence := Score(event, bias, e.scfg.BreakVolMult)
	trace.Set("confidence", confidence)
	if confidence < e.scfg.MinConfidence {
		trace.Gate(RejectBelowConfidence, false, map[string]float64{
			"confidence": confidence,
			"threshold":  e.scfg.MinConfidence,
		})
		decision.Confidence = confidence
		decision.Reason = RejectBelowConfidence
		return decision
	}

	plan, reason := BuildTradePlan(comp.Box, event.Direction, in.Now, e.loc, e.scfg)
	if reason != RejectNone {
		decision.Reason = reason
		return decision
	}

	decision.Qualifies = true
	decision.Kind = AlertStockOnly
	decision.Confidence = confidence
	decision.Plan = plan

	e.log.Debug().
		Str("symbol", in.Symbol).
		Str("direction", string(event.Direction)).
		Float64("confidence", confidence).
		Msg("stock-side evaluation qualified")

	return decision
}

// ApplyOptions enriches a qualified stock decision with option tiers. When
// the chain yields no eligible contracts the decision stays stock-only but
// takes the stock-only penalty and is re-checked against the confidence
// threshold. The input decision is not mutated.
func (e *Engine) ApplyOptions(decision AlertDecision, chain *market.ChainSnapshot, daily *market.DailySnapshot) AlertDecision {
	if !decision.Qualifies {
		return decision
	}
	if !e.ocfg.Enabled {
		return decision
	}

	var symbolIVPctl *float64
	if daily != nil {
		symbolIVPctl = daily.IVPercentile
	}
	multiDay := decision.Plan != nil && decision.Plan.ExpectedWindow == WindowMultiDay

	result := e.optimizer.Select(chain, decision.Direction, decision.EvaluatedAt, multiDay, symbolIVPctl)
	if len(result.Picks) > 0 {
		decision.Kind = AlertCombined
		decision.Tiers = result.Picks
		return decision
	}

	// No tradable contracts: downgrade rather than discard.
	decision.Confidence = clampScore(decision.Confidence - e.ocfg.StockOnlyPenalty)
	if decision.Trace != nil {
		decision.Trace.Set("stock_only_penalty", e.ocfg.StockOnlyPenalty)
	}
	if decision.Confidence < e.scfg.MinConfidence {
		decision.Qualifies = false
		decision.Kind = ""
		decision.Plan = nil
		decision.Reason = RejectBelowConfidence
		if decision.Trace != nil {
			decision.Trace.Gate(RejectBelowConfidence, false, map[string]float64{
				"confidence": decision.Confidence,
				"threshold":  e.scfg.MinConfidence,
			})
		}
	}
	return decision
}

// Evaluate is the one-shot pipeline over a fully populated input, including
// the option chain. Identical inputs always yield identical decisions.
func (e *Engine) Evaluate(in Input) AlertDecision {
	decision := e.EvaluateStock(in)
	if !decision.Qualifies {
		return decision
	}
	return e.ApplyOptions(decision, in.Chain, in.Daily)
}

// OptionsConfig exposes the optimizer thresholds for callers that size
// their chain fetch to the DTE window.
func (e *Engine) OptionsConfig() config.OptionsConfig {
	return e.ocfg
}

// sessionVWAP computes VWAP over the current session's bars, falling back
// to the full series when session restriction leaves nothing usable.
func (e *Engine) sessionVWAP(bars []market.Bar) float64 {
	session := indicators.SessionBars(bars)
	vwap, err := indicators.CalculateVWAP(session)
	if err == nil {
		return vwap
	}
	vwap, err = indicators.CalculateVWAP(bars)
	if err != nil {
		return 0
	}
	return vwap
}

// inRTH reports whether the timestamp falls inside regular trading hours.
func (e *Engine) inRTH(t time.Time) bool {
	local := t.In(e.loc)
	mins := local.Hour()*60 + local.Minute()
	open := rthOpenHour*60 + rthOpenMinute
	close := rthCloseHour*60 + rthCloseMinute
	return mins >= open && mins < close
}
