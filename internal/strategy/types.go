package strategy

import (
	"time"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/options"
)

// RejectReason names the gate that stopped an evaluation. It is a normal
// deterministic outcome, not an error.
type RejectReason string

const (
	RejectNone RejectReason = ""

	// Data availability
	RejectDataInsufficient RejectReason = "data_insufficient"

	// Compression detector
	RejectPriceOutOfRange     RejectReason = "price_out_of_range"
	RejectIlliquid            RejectReason = "illiquid"
	RejectBoxTooWide          RejectReason = "box_too_wide"
	RejectATRNotCompressed    RejectReason = "atr_not_compressed"
	RejectVolumeNotContracted RejectReason = "volume_not_contracted"
	RejectBoxIntegrity        RejectReason = "box_integrity_violation"

	// Breakout evaluator
	RejectNoTrigger          RejectReason = "no_trigger"
	RejectInsufficientBreak  RejectReason = "insufficient_break"
	RejectInsufficientVolume RejectReason = "insufficient_volume"
	RejectOverextended       RejectReason = "overextended"

	// Market bias gate
	RejectChopDetected  RejectReason = "chop_detected"
	RejectPanicDetected RejectReason = "panic_detected"

	// Scoring and plan
	RejectBelowConfidence RejectReason = "below_confidence"
	RejectZeroRisk        RejectReason = "zero_risk"
)

// AlertKind distinguishes what the alert carries.
type AlertKind string

const (
	AlertStockOnly AlertKind = "stock_only"
	AlertOptions   AlertKind = "options"
	AlertCombined  AlertKind = "combined"
)

// ExpectedWindow is the anticipated holding period of a trade plan.
type ExpectedWindow string

const (
	WindowSameDay  ExpectedWindow = "same_day"
	WindowMultiDay ExpectedWindow = "1_3_days"
)

// BiasLabel is the higher-timeframe regime read.
type BiasLabel string

const (
	BiasBullish BiasLabel = "bullish"
	BiasBearish BiasLabel = "bearish"
	BiasNeutral BiasLabel = "neutral"
)

// Matches reports whether the bias agrees with a breakout direction.
func (b BiasLabel) Matches(d market.Direction) bool {
	return (b == BiasBullish && d == market.Long) || (b == BiasBearish && d == market.Short)
}

// VWAPRelation places the latest close relative to VWAP.
type VWAPRelation string

const (
	VWAPAbove VWAPRelation = "above"
	VWAPBelow VWAPRelation = "below"
	VWAPAt    VWAPRelation = "at"
)

// BoxWindow is the last N bars forming the compression reference.
type BoxWindow struct {
	Bars     []market.Bar
	High     float64
	Low      float64
	RangePct float64 // (High-Low)/Low
}

// Midpoint returns the center of the box.
func (b BoxWindow) Midpoint() float64 {
	return (b.High + b.Low) / 2
}

// VolatilityProfile compares recent ATR against a longer baseline.
type VolatilityProfile struct {
	RecentATR   float64
	BaselineATR float64
	Ratio       float64 // RecentATR / BaselineATR
}

// VolumeProfile compares box-average volume against a longer baseline.
type VolumeProfile struct {
	BoxAvg            float64
	BaselineAvg       float64
	ContractionFactor float64 // BoxAvg / BaselineAvg
}

// Compression is the detector's qualifying output.
type Compression struct {
	Box        BoxWindow
	Volatility VolatilityProfile
	Volume     VolumeProfile
	LastClose  float64
	AvgVolume  float64 // daily liquidity figure used for the gate
}

// BreakoutEvent describes the trigger bar's breach of the box.
type BreakoutEvent struct {
	Direction     market.Direction
	TriggerBar    market.Bar
	BreakPct      float64 // close past the nearer edge, normalized by box low
	VolumeMult    float64 // trigger volume / box average volume
	ExtensionPct  float64 // close past the edge, normalized by the edge
	VWAP          float64
	VWAPRequested bool
	VWAPConfirmed bool
}

// BiasContext is the market regime read consumed as a gate.
type BiasContext struct {
	Bias         BiasLabel
	VWAPRelation VWAPRelation
	Chop         bool
	Panic        bool
}

// TradePlan is the derived entry/invalidation/target structure.
type TradePlan struct {
	Entry          float64        `json:"entry"`
	Stop           float64        `json:"stop"`
	Target1        float64        `json:"t1"`
	Target2        float64        `json:"t2"`
	ExpectedWindow ExpectedWindow `json:"expected_window"`
}

// Diagnostics carries the computed per-evaluation figures that are logged,
// persisted, and shown in alert text.
type Diagnostics struct {
	BoxHigh       float64   `json:"box_high"`
	BoxLow        float64   `json:"box_low"`
	RangePct      float64   `json:"range_pct"`
	ATRRatio      float64   `json:"atr_ratio"`
	VolRatio      float64   `json:"vol_ratio"`
	BreakPct      float64   `json:"break_pct"`
	BreakVolMult  float64   `json:"break_vol_mult"`
	ExtensionPct  float64   `json:"extension_pct"`
	VWAP          float64   `json:"vwap"`
	VWAPConfirmed bool      `json:"vwap_ok"`
	MarketBias    BiasLabel `json:"market_bias"`
}

// AlertDecision is the single immutable output of one evaluation cycle.
// It is created fresh per (symbol, cycle) and never mutated after
// construction.
type AlertDecision struct {
	Symbol      string             `json:"symbol"`
	Direction   market.Direction   `json:"direction,omitempty"`
	Qualifies   bool               `json:"qualifies"`
	Kind        AlertKind          `json:"alert_kind"`
	Confidence  float64            `json:"confidence"`
	Reason      RejectReason       `json:"reason,omitempty"`
	Plan        *TradePlan         `json:"plan,omitempty"`
	Tiers       []options.TierPick `json:"tiers,omitempty"`
	Diag        Diagnostics        `json:"diagnostics"`
	Trace       *Trace             `json:"-"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}

// Input bundles everything one evaluation consumes. The evaluator never
// fetches; the caller supplies already-fetched series and snapshots.
type Input struct {
	Symbol     string
	Bars       []market.Bar   // intraday bars, oldest first
	Daily      *market.DailySnapshot
	MarketBars []market.Bar   // higher-timeframe view of the index symbol
	Chain      *market.ChainSnapshot
	Now        time.Time
}
