package strategy

// GateTrace records one gate's outcome inside an evaluation.
type GateTrace struct {
	Name    string             `json:"name"`
	Passed  bool               `json:"passed"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Trace accumulates gate outcomes and computed values for one evaluation.
// It exists for the debug surface and structured logs; the decision itself
// never depends on it.
type Trace struct {
	Symbol   string             `json:"symbol"`
	Gates    []GateTrace        `json:"gates"`
	Computed map[string]float64 `json:"computed,omitempty"`
	Skip     RejectReason       `json:"skip_reason,omitempty"`
}

// NewTrace starts an empty trace for a symbol.
func NewTrace(symbol string) *Trace {
	return &Trace{Symbol: symbol, Computed: make(map[string]float64)}
}

// Gate records a gate result. The first failing gate sets the skip reason.
func (t *Trace) Gate(name RejectReason, passed bool, details map[string]float64) {
	t.Gates = append(t.Gates, GateTrace{Name: string(name), Passed: passed, Details: details})
	if !passed && t.Skip == RejectNone {
		t.Skip = name
	}
}

// Set stores a computed value.
func (t *Trace) Set(key string, value float64) {
	t.Computed[key] = value
}
