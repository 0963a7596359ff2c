package strategy

import (
	"math"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// Scoring model constants. The operator tunes only the minimum-confidence
// threshold; the additive shape itself is fixed.
const (
	baseScore = 7.0

	biasMatchBonus = 0.5

	// breakout quality: linear ramps, each clamped, monotone
	// non-decreasing in volume multiple and break size
	volQualitySlope   = 0.5  // per unit of volume multiple above the gate
	volQualityCap     = 0.75
	breakQualitySlope = 50.0 // per unit of break_pct
	breakQualityCap   = 0.25

	// trigger-candle close position within its own range
	candlePositionBonus  = 0.5
	candleUpperThreshold = 0.8
	candleLowerThreshold = 0.2

	vwapMissPenalty = 0.75

	scoreFloor = 0.0
	scoreCeil  = 10.0
)

// Score combines the detector, evaluator, and gate outputs into a bounded
// confidence value. Pure function: identical inputs yield identical scores.
func Score(event *BreakoutEvent, bias BiasContext, breakVolGate float64) float64 {
	score := baseScore

	if bias.Bias.Matches(event.Direction) {
		score += biasMatchBonus
	}

	score += qualityBonus(event.BreakPct, event.VolumeMult, breakVolGate)

	score += candleBonus(event.TriggerBar, event.Direction)

	if event.VWAPRequested && !event.VWAPConfirmed {
		score -= vwapMissPenalty
	}

	return clampScore(score)
}

// qualityBonus rewards breakouts with conviction: volume above the gate
// and a decisive break, each on a clamped linear ramp.
func qualityBonus(breakPct, volumeMult, breakVolGate float64) float64 {
	volBonus := math.Min(volQualityCap, math.Max(0, (volumeMult-breakVolGate)*volQualitySlope))
	breakBonus := math.Min(breakQualityCap, math.Max(0, breakPct*breakQualitySlope))
	return volBonus + breakBonus
}

// candleBonus rewards a trigger bar that closes near its own extreme in
// the breakout direction. A mid-range close earns nothing.
func candleBonus(bar market.Bar, direction market.Direction) float64 {
	candleRange := bar.Range()
	if candleRange <= 0 {
		return 0
	}
	pos := (bar.Close - bar.Low) / candleRange
	if direction == market.Long && pos >= candleUpperThreshold {
		return candlePositionBonus
	}
	if direction == market.Short && pos <= candleLowerThreshold {
		return candlePositionBonus
	}
	return 0
}

func clampScore(score float64) float64 {
	return math.Max(scoreFloor, math.Min(scoreCeil, score))
}
