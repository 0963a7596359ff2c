package strategy

import (
	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// EvaluateBreakout determines whether the trigger bar breaches a qualifying
// box with sufficient volume and without over-extension.
//
// VWAP confirmation is soft: when requested but not met, the event is
// returned marked unconfirmed and the scorer penalizes it instead of the
// breakout being rejected outright.
func EvaluateBreakout(
	comp *Compression,
	trigger market.Bar,
	vwap float64,
	cfg config.StrategyConfig,
	trace *Trace,
) (*BreakoutEvent, RejectReason) {
	box := comp.Box
	close := trigger.Close

	var direction market.Direction
	var breakPct, extensionPct float64
	switch {
	case close > box.High:
		direction = market.Long
		breakPct = (close - box.High) / box.Low
		extensionPct = (close - box.High) / box.High
	case close < box.Low:
		direction = market.Short
		breakPct = (box.Low - close) / box.Low
		extensionPct = (box.Low - close) / box.Low
	default:
		trace.Gate(RejectNoTrigger, false, map[string]float64{
			"close": close, "box_high": box.High, "box_low": box.Low,
		})
		return nil, RejectNoTrigger
	}
	trace.Gate(RejectNoTrigger, true, nil)
	trace.Set("break_pct", breakPct)
	trace.Set("extension_pct", extensionPct)

	if breakPct < cfg.BreakBufferPct {
		trace.Gate(RejectInsufficientBreak, false, map[string]float64{
			"break_pct": breakPct, "min_break_pct": cfg.BreakBufferPct,
		})
		return nil, RejectInsufficientBreak
	}
	trace.Gate(RejectInsufficientBreak, true, nil)

	if comp.Volume.BoxAvg <= 0 {
		trace.Gate(RejectInsufficientVolume, false, map[string]float64{"box_avg_volume": comp.Volume.BoxAvg})
		return nil, RejectInsufficientVolume
	}
	volumeMult := trigger.Volume / comp.Volume.BoxAvg
	trace.Set("break_vol_mult", volumeMult)
	if volumeMult < cfg.BreakVolMult {
		trace.Gate(RejectInsufficientVolume, false, map[string]float64{
			"break_vol_mult": volumeMult, "min_mult": cfg.BreakVolMult,
		})
		return nil, RejectInsufficientVolume
	}
	trace.Gate(RejectInsufficientVolume, true, nil)

	if extensionPct > cfg.MaxExtensionPct {
		trace.Gate(RejectOverextended, false, map[string]float64{
			"extension_pct": extensionPct, "max_extension_pct": cfg.MaxExtensionPct,
		})
		return nil, RejectOverextended
	}
	trace.Gate(RejectOverextended, true, nil)

	confirmed := true
	if cfg.VWAPConfirm {
		if direction == market.Long {
			confirmed = close > vwap
		} else {
			confirmed = close < vwap
		}
	}
	trace.Set("vwap", vwap)

	return &BreakoutEvent{
		Direction:     direction,
		TriggerBar:    trigger,
		BreakPct:      breakPct,
		VolumeMult:    volumeMult,
		ExtensionPct:  extensionPct,
		VWAP:          vwap,
		VWAPRequested: cfg.VWAPConfirm,
		VWAPConfirmed: confirmed,
	}, RejectNone
}
