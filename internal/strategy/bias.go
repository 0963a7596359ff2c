package strategy

import (
	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/indicators"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// biasSlopeLookback is how many bars back the EMA slope is measured.
const biasSlopeLookback = 5

// ClassifyBias reads the market regime from a higher-timeframe view of the
// index symbol: trend from EMA slope plus VWAP position, chop from VWAP
// crossings, panic from an ATR spike.
//
// An empty or too-short series yields a neutral, veto-free context: the
// gate only vetoes on positive evidence of a hostile regime.
func ClassifyBias(marketBars []market.Bar, cfg config.StrategyConfig) BiasContext {
	ctx := BiasContext{Bias: BiasNeutral, VWAPRelation: VWAPAt}
	if len(marketBars) < 2 {
		return ctx
	}

	vwap, err := indicators.CalculateVWAP(marketBars)
	if err != nil {
		return ctx
	}
	lastClose := marketBars[len(marketBars)-1].Close

	switch {
	case lastClose > vwap:
		ctx.VWAPRelation = VWAPAbove
	case lastClose < vwap:
		ctx.VWAPRelation = VWAPBelow
	}

	slope := 0.0
	if ema, err := indicators.CalculateEMASeries(marketBars, cfg.BiasEMAPeriod); err == nil && len(ema) > biasSlopeLookback {
		slope = ema[len(ema)-1] - ema[len(ema)-1-biasSlopeLookback]
	}

	switch {
	case ctx.VWAPRelation == VWAPAbove && slope > 0:
		ctx.Bias = BiasBullish
	case ctx.VWAPRelation == VWAPBelow && slope < 0:
		ctx.Bias = BiasBearish
	}

	// Chop: price oscillating around VWAP with no directional drift
	crossings := 0
	for i := 1; i < len(marketBars); i++ {
		abovePrev := marketBars[i-1].Close > vwap
		aboveNow := marketBars[i].Close > vwap
		if abovePrev != aboveNow {
			crossings++
		}
	}
	if crossings >= cfg.ChopVWAPCrossings {
		ctx.Chop = true
	}

	// Panic: latest true range far above its own recent average
	if series, err := indicators.CalculateATRSeries(marketBars, cfg.ATRPeriod); err == nil && len(series) > 20 {
		recent := series[len(series)-20:]
		sum := 0.0
		for _, v := range recent {
			sum += v
		}
		avg := sum / float64(len(recent))
		if avg > 0 && series[len(series)-1] > cfg.PanicATRMult*avg {
			ctx.Panic = true
		}
	}

	return ctx
}

// GateBias applies the regime vetoes. Chop and panic reject outright
// regardless of what the compression and breakout stages found.
func GateBias(ctx BiasContext, trace *Trace) RejectReason {
	if ctx.Panic {
		trace.Gate(RejectPanicDetected, false, nil)
		return RejectPanicDetected
	}
	trace.Gate(RejectPanicDetected, true, nil)

	if ctx.Chop {
		trace.Gate(RejectChopDetected, false, nil)
		return RejectChopDetected
	}
	trace.Gate(RejectChopDetected, true, nil)

	return RejectNone
}
