package strategy

import (
	"math"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/indicators"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// afterHoursVolumeFactor relaxes the liquidity gate outside regular trading
// hours, when baseline volume figures run far below the daily average.
const afterHoursVolumeFactor = 0.25

// DetectCompression evaluates whether the bars preceding the trigger bar
// form a qualifying box. bars must be oldest-first with the trigger bar
// last; the box is the BoxBars bars before it.
//
// Every rule failure maps to a specific rejection reason. A nil Compression
// with RejectNone never occurs.
func DetectCompression(
	bars []market.Bar,
	daily *market.DailySnapshot,
	rth bool,
	cfg config.StrategyConfig,
	trace *Trace,
) (*Compression, RejectReason) {
	minBars := 2*cfg.BoxBars + 1
	if len(bars) < minBars {
		trace.Gate(RejectDataInsufficient, false, map[string]float64{
			"bar_count": float64(len(bars)), "required": float64(minBars),
		})
		return nil, RejectDataInsufficient
	}

	lastClose := bars[len(bars)-1].Close

	// Rule 1: price band
	if lastClose < cfg.MinPrice || lastClose > cfg.MaxPrice {
		trace.Gate(RejectPriceOutOfRange, false, map[string]float64{
			"last_close": lastClose, "min_price": cfg.MinPrice, "max_price": cfg.MaxPrice,
		})
		return nil, RejectPriceOutOfRange
	}
	trace.Gate(RejectPriceOutOfRange, true, nil)

	// Rule 2: liquidity sanity
	avgVolume := dailyAvgVolume(daily, bars, cfg.BoxBars)
	minVolume := cfg.MinAvgDailyVolume
	if !rth {
		minVolume *= afterHoursVolumeFactor
	}
	trace.Set("avg_daily_volume", avgVolume)
	if avgVolume <= 0 || avgVolume < minVolume {
		trace.Gate(RejectIlliquid, false, map[string]float64{
			"avg_volume": avgVolume, "min_volume": minVolume,
		})
		return nil, RejectIlliquid
	}
	trace.Gate(RejectIlliquid, true, nil)

	// Rule 3: box range
	box := bars[len(bars)-cfg.BoxBars-1 : len(bars)-1]
	boxHigh, boxLow, err := indicators.HighLow(box)
	if err != nil {
		trace.Gate(RejectDataInsufficient, false, nil)
		return nil, RejectDataInsufficient
	}
	rangePct, err := indicators.RangePct(boxHigh, boxLow)
	if err != nil {
		trace.Gate(RejectDataInsufficient, false, nil)
		return nil, RejectDataInsufficient
	}
	trace.Set("box_high", boxHigh)
	trace.Set("box_low", boxLow)
	trace.Set("range_pct", rangePct)
	if rangePct > cfg.BoxMaxRangePct {
		trace.Gate(RejectBoxTooWide, false, map[string]float64{
			"range_pct": rangePct, "max_range_pct": cfg.BoxMaxRangePct,
		})
		return nil, RejectBoxTooWide
	}
	trace.Gate(RejectBoxTooWide, true, nil)

	// Rule 4: ATR compression
	vol, reason := volatilityProfile(bars, cfg, trace)
	if reason != RejectNone {
		return nil, reason
	}
	trace.Set("atr_ratio", vol.Ratio)
	if vol.Ratio > cfg.ATRCompressionFactor {
		trace.Gate(RejectATRNotCompressed, false, map[string]float64{
			"atr_ratio": vol.Ratio, "max_ratio": cfg.ATRCompressionFactor,
		})
		return nil, RejectATRNotCompressed
	}
	trace.Gate(RejectATRNotCompressed, true, nil)

	// Rule 5: volume contraction
	prior := bars[len(bars)-2*cfg.BoxBars-1 : len(bars)-cfg.BoxBars-1]
	volProfile, reason := volumeProfile(box, prior, trace)
	if reason != RejectNone {
		return nil, reason
	}
	trace.Set("vol_ratio", volProfile.ContractionFactor)
	if volProfile.ContractionFactor > cfg.VolContractionFactor {
		trace.Gate(RejectVolumeNotContracted, false, map[string]float64{
			"vol_ratio": volProfile.ContractionFactor, "max_vol_ratio": cfg.VolContractionFactor,
		})
		return nil, RejectVolumeNotContracted
	}
	trace.Gate(RejectVolumeNotContracted, true, nil)

	// Rule 6: box integrity - a single bar spanning far beyond its peers
	// means the window is one spike, not a coil
	if violated, barRange, meanRange := integrityViolated(box, cfg.BoxIntegrityRangeMult); violated {
		trace.Gate(RejectBoxIntegrity, false, map[string]float64{
			"bar_range": barRange, "mean_range": meanRange, "max_mult": cfg.BoxIntegrityRangeMult,
		})
		return nil, RejectBoxIntegrity
	}
	trace.Gate(RejectBoxIntegrity, true, nil)

	return &Compression{
		Box: BoxWindow{
			Bars:     box,
			High:     boxHigh,
			Low:      boxLow,
			RangePct: rangePct,
		},
		Volatility: vol,
		Volume:     volProfile,
		LastClose:  lastClose,
		AvgVolume:  avgVolume,
	}, RejectNone
}

// dailyAvgVolume prefers the daily snapshot's figure and falls back to a
// rough projection from the intraday sample when no snapshot is available.
func dailyAvgVolume(daily *market.DailySnapshot, bars []market.Bar, boxBars int) float64 {
	if daily != nil {
		if daily.AvgDailyVolume > 0 {
			return daily.AvgDailyVolume
		}
		if daily.Volume > 0 {
			return daily.Volume
		}
	}

	sample := bars
	if n := boxBars * 3; len(sample) > n {
		sample = sample[len(sample)-n:]
	}
	total := 0.0
	for _, b := range sample {
		total += b.Volume
	}
	// a BoxBars*3 window of 5m bars is roughly a third of a session
	return total * 3
}

func volatilityProfile(bars []market.Bar, cfg config.StrategyConfig, trace *Trace) (VolatilityProfile, RejectReason) {
	series, err := indicators.CalculateATRSeries(bars, cfg.ATRPeriod)
	if err != nil || len(series) < cfg.ATRPeriod+1 {
		trace.Gate(RejectDataInsufficient, false, map[string]float64{"atr_points": float64(len(series))})
		return VolatilityProfile{}, RejectDataInsufficient
	}

	recent := series[len(series)-1]
	baselineWindow := series
	if len(series) > cfg.ATRBaselinePeriod {
		baselineWindow = series[len(series)-cfg.ATRBaselinePeriod:]
	}
	baseline := 0.0
	for _, v := range baselineWindow {
		baseline += v
	}
	baseline /= float64(len(baselineWindow))

	if baseline <= 0 || math.IsNaN(baseline) {
		trace.Gate(RejectDataInsufficient, false, map[string]float64{"atr_baseline": baseline})
		return VolatilityProfile{}, RejectDataInsufficient
	}

	return VolatilityProfile{
		RecentATR:   recent,
		BaselineATR: baseline,
		Ratio:       recent / baseline,
	}, RejectNone
}

func volumeProfile(box, prior []market.Bar, trace *Trace) (VolumeProfile, RejectReason) {
	boxAvg := meanVolume(box)
	baselineAvg := meanVolume(prior)
	if len(prior) == 0 {
		baselineAvg = boxAvg
	}

	if baselineAvg <= 0 {
		trace.Gate(RejectVolumeNotContracted, false, map[string]float64{"baseline_avg": baselineAvg})
		return VolumeProfile{}, RejectVolumeNotContracted
	}

	return VolumeProfile{
		BoxAvg:            boxAvg,
		BaselineAvg:       baselineAvg,
		ContractionFactor: boxAvg / baselineAvg,
	}, RejectNone
}

func integrityViolated(box []market.Bar, maxMult float64) (bool, float64, float64) {
	total := 0.0
	for _, b := range box {
		total += b.Range()
	}
	mean := total / float64(len(box))
	if mean <= 0 {
		return false, 0, mean
	}

	for _, b := range box {
		if b.Range() > maxMult*mean {
			return true, b.Range(), mean
		}
	}
	return false, 0, mean
}

func meanVolume(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}
