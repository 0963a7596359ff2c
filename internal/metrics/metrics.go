// Package metrics exposes Prometheus counters for the scan loop and the
// alert pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breakpoint_scan_cycles_total",
		Help: "Completed scan cycles.",
	})

	SymbolsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breakpoint_symbols_evaluated_total",
		Help: "Per-symbol evaluations across all cycles.",
	})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breakpoint_alerts_emitted_total",
		Help: "Qualified alerts by kind.",
	}, []string{"kind"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breakpoint_rejections_total",
		Help: "Rejected evaluations by gate.",
	}, []string{"reason"})

	EvaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breakpoint_evaluation_errors_total",
		Help: "Evaluations aborted by data fetch or internal errors.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "breakpoint_scan_duration_seconds",
		Help:    "Wall time of one full scan cycle.",
		Buckets: prometheus.DefBuckets,
	})

	MarketRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breakpoint_market_requests_total",
		Help: "Market data requests by outcome.",
	}, []string{"outcome"})
)
