package notification

import (
	"fmt"
	"strings"

	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/strategy"
)

// FormatAlert renders a qualified decision into a notification with the
// trade plan, diagnostics, and any option tiers.
func FormatAlert(d strategy.AlertDecision) *Notification {
	emoji := "🟢"
	if d.Direction == market.Short {
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s breakout, confidence %.1f/10\n", d.Direction, d.Symbol, d.Confidence)

	if d.Plan != nil {
		fmt.Fprintf(&b, "\nEntry: %.2f\nStop: %.2f\nT1: %.2f | T2: %.2f\nWindow: %s\n",
			d.Plan.Entry, d.Plan.Stop, d.Plan.Target1, d.Plan.Target2, windowLabel(d.Plan.ExpectedWindow))
	}

	fmt.Fprintf(&b, "\nBox %.2f-%.2f (%.2f%%), ATR ratio %.2f, vol ratio %.2f\nBreak %.2f%% on %.1fx volume, bias %s",
		d.Diag.BoxLow, d.Diag.BoxHigh, d.Diag.RangePct*100,
		d.Diag.ATRRatio, d.Diag.VolRatio,
		d.Diag.BreakPct*100, d.Diag.BreakVolMult, d.Diag.MarketBias)
	if d.Diag.VWAPConfirmed {
		b.WriteString(", VWAP confirmed")
	}
	b.WriteString("\n")

	if len(d.Tiers) > 0 {
		b.WriteString("\nOption tiers:\n")
		for _, tier := range d.Tiers {
			fmt.Fprintf(&b, "• %s %s, delta %.2f, mid %.2f, %d DTE\n  %s\n",
				strings.ToUpper(string(tier.Tier[0]))+string(tier.Tier[1:]),
				tier.Contract.ContractSymbol, tier.Delta, tier.Mid, tier.DTE, tier.ExitPlan)
		}
	} else if d.Kind == strategy.AlertStockOnly {
		b.WriteString("\nNo tradable option contracts, stock-only setup\n")
	}

	return &Notification{
		Type:      NotifyAlert,
		Title:     fmt.Sprintf("%s Breakout Alert: %s", emoji, d.Symbol),
		Message:   b.String(),
		Symbol:    d.Symbol,
		Timestamp: d.EvaluatedAt,
	}
}

func windowLabel(w strategy.ExpectedWindow) string {
	if w == strategy.WindowSameDay {
		return "same day"
	}
	return "1-3 days"
}
