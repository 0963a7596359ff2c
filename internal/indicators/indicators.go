package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// ErrDataInsufficient is returned when a bar series is too short to fill
// the requested window. Callers treat it as a per-symbol rejection, not a
// fault.
var ErrDataInsufficient = errors.New("insufficient bar data")

// ============================================================================
// ATR (Average True Range)
// ============================================================================

// CalculateATR calculates the simple rolling Average True Range over the
// final period bars.
func CalculateATR(bars []market.Bar, period int) (float64, error) {
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: ATR needs %d bars, have %d", ErrDataInsufficient, period+1, len(bars))
	}

	trSum := 0.0
	startIdx := len(bars) - period

	for i := startIdx; i < len(bars); i++ {
		trSum += trueRange(bars[i], bars[i-1].Close)
	}

	return trSum / float64(period), nil
}

// CalculateATRSeries returns the rolling ATR at each bar after the first,
// oldest first. Element i is the ATR as of bars[i+1].
func CalculateATRSeries(bars []market.Bar, period int) ([]float64, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: ATR series needs at least 2 bars, have %d", ErrDataInsufficient, len(bars))
	}

	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, trueRange(bars[i], bars[i-1].Close))
	}

	series := make([]float64, len(trs))
	sum := 0.0
	for i, tr := range trs {
		sum += tr
		if i >= period {
			sum -= trs[i-period]
			series[i] = sum / float64(period)
		} else {
			series[i] = sum / float64(i+1)
		}
	}
	return series, nil
}

func trueRange(bar market.Bar, prevClose float64) float64 {
	return math.Max(
		bar.High-bar.Low,
		math.Max(
			math.Abs(bar.High-prevClose),
			math.Abs(bar.Low-prevClose),
		),
	)
}

// ============================================================================
// VWAP
// ============================================================================

// CalculateVWAP calculates the volume-weighted average price over the given
// bars. Zero-volume bars contribute nothing; an all-zero-volume window falls
// back to the last close rather than dividing by zero.
func CalculateVWAP(bars []market.Bar) (float64, error) {
	if len(bars) == 0 {
		return 0, fmt.Errorf("%w: VWAP needs at least 1 bar", ErrDataInsufficient)
	}

	totalVolume := 0.0
	weighted := 0.0
	for _, b := range bars {
		if b.Volume <= 0 {
			continue
		}
		totalVolume += b.Volume
		weighted += b.TypicalPrice() * b.Volume
	}

	if totalVolume == 0 {
		return bars[len(bars)-1].Close, nil
	}
	return weighted / totalVolume, nil
}

// SessionBars returns the suffix of bars sharing the calendar date of the
// final bar. VWAP resets at the session start, so the session VWAP is
// CalculateVWAP over this slice.
func SessionBars(bars []market.Bar) []market.Bar {
	if len(bars) == 0 {
		return bars
	}
	last := bars[len(bars)-1].Timestamp
	y, m, d := last.Date()

	start := len(bars) - 1
	for start > 0 {
		py, pm, pd := bars[start-1].Timestamp.Date()
		if py != y || pm != m || pd != d {
			break
		}
		start--
	}
	return bars[start:]
}

// ============================================================================
// VOLUME
// ============================================================================

// CalculateAverageVolume calculates the mean volume over the final period
// bars.
func CalculateAverageVolume(bars []market.Bar, period int) (float64, error) {
	if len(bars) < period {
		return 0, fmt.Errorf("%w: average volume needs %d bars, have %d", ErrDataInsufficient, period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / float64(period), nil
}

// ============================================================================
// EMA
// ============================================================================

// CalculateEMASeries returns the EMA at each bar, oldest first, seeded from
// the first close.
func CalculateEMASeries(bars []market.Bar, period int) ([]float64, error) {
	if len(bars) < period {
		return nil, fmt.Errorf("%w: EMA needs %d bars, have %d", ErrDataInsufficient, period, len(bars))
	}

	multiplier := 2.0 / float64(period+1)
	series := make([]float64, len(bars))
	series[0] = bars[0].Close
	for i := 1; i < len(bars); i++ {
		series[i] = (bars[i].Close-series[i-1])*multiplier + series[i-1]
	}
	return series, nil
}

// ============================================================================
// RANGE
// ============================================================================

// HighLow returns the highest high and lowest low across the bars.
func HighLow(bars []market.Bar) (high float64, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, fmt.Errorf("%w: high/low needs at least 1 bar", ErrDataInsufficient)
	}

	high = bars[0].High
	low = bars[0].Low
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePct returns (high-low)/low. A non-positive low disqualifies the
// window instead of producing a garbage ratio.
func RangePct(high, low float64) (float64, error) {
	if low <= 0 {
		return 0, fmt.Errorf("%w: box low must be positive, got %f", ErrDataInsufficient, low)
	}
	return (high - low) / low, nil
}
