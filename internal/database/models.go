package database

import (
	"time"

	"github.com/google/uuid"
)

// AlertRecord is the persisted form of a qualified alert.
type AlertRecord struct {
	ID             uuid.UUID `json:"id"`
	Symbol         string    `json:"symbol"`
	Direction      string    `json:"direction"`
	AlertKind      string    `json:"alert_kind"`
	Confidence     float64   `json:"confidence"`
	Entry          float64   `json:"entry"`
	Stop           float64   `json:"stop"`
	Target1        float64   `json:"target1"`
	Target2        float64   `json:"target2"`
	ExpectedWindow string    `json:"expected_window"`
	BoxHigh        float64   `json:"box_high"`
	BoxLow         float64   `json:"box_low"`
	RangePct       float64   `json:"range_pct"`
	ATRRatio       float64   `json:"atr_ratio"`
	VolRatio       float64   `json:"vol_ratio"`
	BreakPct       float64   `json:"break_pct"`
	BreakVolMult   float64   `json:"break_vol_mult"`
	ExtensionPct   float64   `json:"extension_pct"`
	VWAP           float64   `json:"vwap"`
	VWAPConfirmed  bool      `json:"vwap_confirmed"`
	MarketBias     string    `json:"market_bias"`
	Diagnostics    []byte    `json:"diagnostics,omitempty"` // raw JSON trace
	CreatedAt      time.Time `json:"created_at"`

	Options []AlertOptionRecord `json:"options,omitempty"`
}

// AlertOptionRecord is one option tier pick attached to an alert.
type AlertOptionRecord struct {
	ID             int64     `json:"id"`
	AlertID        uuid.UUID `json:"alert_id"`
	Tier           string    `json:"tier"`
	ContractSymbol string    `json:"contract_symbol"`
	Expiry         time.Time `json:"expiry"`
	Strike         float64   `json:"strike"`
	CallPut        string    `json:"call_put"`
	Delta          float64   `json:"delta"`
	Mid            float64   `json:"mid"`
	SpreadPct      float64   `json:"spread_pct"`
	DTE            int       `json:"dte"`
	Volume         int64     `json:"volume"`
	OpenInterest   int64     `json:"open_interest"`
	Rationale      string    `json:"rationale"`
	ExitPlan       string    `json:"exit_plan"`
	CreatedAt      time.Time `json:"created_at"`
}

// GradeRecord is the post-hoc outcome of an alert.
type GradeRecord struct {
	ID          int64     `json:"id"`
	AlertID     uuid.UUID `json:"alert_id"`
	HitT1       bool      `json:"hit_t1"`
	HitT2       bool      `json:"hit_t2"`
	StoppedOut  bool      `json:"stopped_out"`
	MFEPct      *float64  `json:"mfe_pct,omitempty"`
	MAEPct      *float64  `json:"mae_pct,omitempty"`
	MinutesToT1 *int      `json:"minutes_to_t1,omitempty"`
	MinutesToT2 *int      `json:"minutes_to_t2,omitempty"`
	GradedAt    time.Time `json:"graded_at"`
}

// ScanRunRecord is one scan cycle's bookkeeping row.
type ScanRunRecord struct {
	ID             uuid.UUID  `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	SymbolsScanned int        `json:"symbols_scanned"`
	AlertsEmitted  int        `json:"alerts_emitted"`
	Errors         int        `json:"errors"`
}
