package market

import "time"

// Direction of a breakout or trade idea
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Bar represents a single intraday OHLCV bar at fixed granularity.
// Timestamps are exchange-local and strictly increasing within a series.
type Bar struct {
	Timestamp time.Time `json:"ts"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Range returns the bar's high-low span.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// TypicalPrice is the (H+L+C)/3 price used for VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// DailySnapshot carries daily-level stats for a symbol.
type DailySnapshot struct {
	Symbol         string   `json:"symbol"`
	AvgDailyVolume float64  `json:"avg_daily_volume"`
	Volume         float64  `json:"volume"`
	IVPercentile   *float64 `json:"iv_percentile,omitempty"`
}

// OptionRight is the contract right type.
type OptionRight string

const (
	Call OptionRight = "CALL"
	Put  OptionRight = "PUT"
)

// MatchesDirection reports whether the right type fits a breakout direction
// (calls for LONG, puts for SHORT).
func (r OptionRight) MatchesDirection(d Direction) bool {
	return (d == Long && r == Call) || (d == Short && r == Put)
}

// OptionQuote is a single contract snapshot from the chain.
type OptionQuote struct {
	ContractSymbol string      `json:"contract_symbol"`
	Expiry         time.Time   `json:"expiry"`
	Strike         float64     `json:"strike"`
	Right          OptionRight `json:"call_put"`
	Bid            float64     `json:"bid"`
	Ask            float64     `json:"ask"`
	Volume         int64       `json:"volume"`
	OpenInterest   int64       `json:"oi"`
	Delta          *float64    `json:"delta,omitempty"`
	IV             *float64    `json:"iv,omitempty"`
	IVPercentile   *float64    `json:"iv_percentile,omitempty"`
}

// Mid returns the bid/ask midpoint, or 0 when the quote is one-sided.
func (q OptionQuote) Mid() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

// SpreadPct returns (ask-bid)/mid. A zero mid yields an effectively
// infinite spread so the quote always fails liquidity gates.
func (q OptionQuote) SpreadPct() float64 {
	mid := q.Mid()
	if mid <= 0 {
		return 1
	}
	return (q.Ask - q.Bid) / mid
}

// DTE returns whole days until expiry as of the given time.
func (q OptionQuote) DTE(now time.Time) int {
	return int(q.Expiry.Sub(now).Hours() / 24)
}

// ChainSnapshot is the full option-chain view used by the optimizer.
type ChainSnapshot struct {
	Symbol    string
	FetchedAt time.Time
	Quotes    []OptionQuote
}
