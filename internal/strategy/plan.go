package strategy

import (
	"time"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// Hour of day (local exchange time) after which a same-day resolution is
// no longer expected for fresh entries.
const sameDayCutoffHour = 14

// BuildTradePlan derives entry, stop, and R-multiple targets from the box
// edges. Entry sits just beyond the broken edge, the stop just beyond the
// opposite edge. Returns RejectZeroRisk when the buffered levels collapse.
func BuildTradePlan(box BoxWindow, direction market.Direction, now time.Time, loc *time.Location, cfg config.StrategyConfig) (*TradePlan, RejectReason) {
	var entry, stop float64
	switch direction {
	case market.Long:
		entry = box.High * (1 + cfg.EntryBufferPct)
		stop = box.Low * (1 - cfg.StopBufferPct)
	case market.Short:
		entry = box.Low * (1 - cfg.EntryBufferPct)
		stop = box.High * (1 + cfg.StopBufferPct)
	default:
		return nil, RejectNoTrigger
	}

	var risk float64
	if direction == market.Long {
		risk = entry - stop
	} else {
		risk = stop - entry
	}
	if risk <= 0 {
		return nil, RejectZeroRisk
	}

	var t1, t2 float64
	if direction == market.Long {
		t1 = entry + risk
		t2 = entry + 2*risk
	} else {
		t1 = entry - risk
		t2 = entry - 2*risk
	}

	return &TradePlan{
		Entry:          entry,
		Stop:           stop,
		Target1:        t1,
		Target2:        t2,
		ExpectedWindow: expectedWindow(now, loc),
	}, ""
}

func expectedWindow(now time.Time, loc *time.Location) ExpectedWindow {
	if now.In(loc).Hour() < sameDayCutoffHour {
		return WindowSameDay
	}
	return WindowMultiDay
}
