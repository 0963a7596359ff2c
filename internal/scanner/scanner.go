package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/cache"
	"github.com/moneysignalai/breakpoint-engine/internal/database"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/metrics"
	"github.com/moneysignalai/breakpoint-engine/internal/notification"
	"github.com/moneysignalai/breakpoint-engine/internal/strategy"
)

// AlertSink receives qualified decisions as they are emitted. The API layer
// plugs its websocket hub in here.
type AlertSink interface {
	Publish(decision strategy.AlertDecision)
}

// Scanner orchestrates the periodic evaluation of the symbol universe.
type Scanner struct {
	client   *market.Client
	engine   *strategy.Engine
	repo     *database.Repository
	cooldown *cache.CooldownCache
	notifier *notification.Manager
	sink     AlertSink
	cfg      config.ScannerConfig
	windows  []config.TimeWindow
	loc      *time.Location
	log      zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastRun    *database.ScanRunRecord
	lastTraces map[string]*strategy.Trace
}

// NewScanner wires the scan loop. The sink may be nil.
func NewScanner(
	client *market.Client,
	engine *strategy.Engine,
	repo *database.Repository,
	cooldown *cache.CooldownCache,
	notifier *notification.Manager,
	sink AlertSink,
	cfg *config.Config,
	logger zerolog.Logger,
) (*Scanner, error) {
	windows, err := config.ParseWindows(cfg.ScannerConfig.AllowedWindows)
	if err != nil {
		return nil, fmt.Errorf("parsing allowed windows: %w", err)
	}
	loc, err := time.LoadLocation(cfg.StrategyConfig.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return &Scanner{
		client:     client,
		engine:     engine,
		repo:       repo,
		cooldown:   cooldown,
		notifier:   notifier,
		sink:       sink,
		cfg:        cfg.ScannerConfig,
		windows:    windows,
		loc:        loc,
		log:        logger.With().Str("component", "scanner").Logger(),
		stopChan:   make(chan struct{}),
		lastTraces: make(map[string]*strategy.Trace),
	}, nil
}

// Start begins the background scan loop
func (sc *Scanner) Start() {
	if !sc.cfg.Enabled {
		sc.log.Info().Msg("scanner is disabled")
		return
	}

	sc.wg.Add(1)
	go sc.runScanLoop()
	sc.log.Info().
		Int("universe", len(sc.cfg.Universe)).
		Int("workers", sc.cfg.WorkerCount).
		Int("interval_sec", sc.cfg.ScanIntervalSec).
		Msg("scanner started")
}

// Stop terminates the scan loop and waits for the current cycle to finish.
func (sc *Scanner) Stop() {
	sc.stopOnce.Do(func() { close(sc.stopChan) })
	sc.wg.Wait()
}

func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(time.Duration(sc.cfg.ScanIntervalSec) * time.Second)
	defer ticker.Stop()

	sc.maybeScan()

	for {
		select {
		case <-ticker.C:
			sc.maybeScan()
		case <-sc.stopChan:
			sc.log.Info().Msg("scanner stopped")
			return
		}
	}
}

// maybeScan runs a cycle unless schedule gating rules it out.
func (sc *Scanner) maybeScan() {
	now := time.Now().In(sc.loc)
	if !sc.shouldScan(now) {
		sc.log.Debug().Time("now", now).Msg("outside scan schedule, skipping cycle")
		return
	}
	sc.Scan(context.Background())
}

// shouldScan applies the RTH and allowed-window schedule.
func (sc *Scanner) shouldScan(now time.Time) bool {
	if sc.cfg.RTHOnly && (now.Weekday() == time.Saturday || now.Weekday() == time.Sunday) {
		return false
	}
	if sc.cfg.ScanOutsideWindow {
		return true
	}
	for _, w := range sc.windows {
		if w.Contains(now) {
			return true
		}
	}
	return false
}

// Scan executes a single scan cycle and blocks until it completes.
func (sc *Scanner) Scan(ctx context.Context) *database.ScanRunRecord {
	return sc.scanWithID(ctx, uuid.New())
}

// TriggerScan starts a scan cycle in the background and returns its run ID
// without waiting for the cycle to finish. Callers poll LastRun for the
// outcome.
func (sc *Scanner) TriggerScan() uuid.UUID {
	id := uuid.New()
	sc.wg.Add(1)
	go func() {
		defer sc.wg.Done()
		sc.scanWithID(context.Background(), id)
	}()
	return id
}

func (sc *Scanner) scanWithID(ctx context.Context, id uuid.UUID) *database.ScanRunRecord {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	started := time.Now()
	run := &database.ScanRunRecord{
		ID:        id,
		StartedAt: started.UTC(),
	}
	if sc.repo != nil {
		if err := sc.repo.RecordScanRun(ctx, run); err != nil {
			sc.log.Error().Err(err).Msg("recording scan run")
		}
	}
	sc.log.Info().Str("scan_id", run.ID.String()).Msg("starting scan cycle")

	// The index view is shared by every symbol in the cycle.
	marketBars, err := sc.client.GetBars(ctx, sc.cfg.MarketIndexSymbol, "5m", 120)
	if err != nil {
		sc.log.Error().Err(err).Str("symbol", sc.cfg.MarketIndexSymbol).Msg("fetching market index bars")
		marketBars = nil
	}

	symbolChan := make(chan string, len(sc.cfg.Universe))
	resultChan := make(chan cycleResult, len(sc.cfg.Universe))

	var wg sync.WaitGroup
	for i := 0; i < sc.cfg.WorkerCount; i++ {
		wg.Add(1)
		go sc.worker(ctx, marketBars, symbolChan, resultChan, &wg)
	}

	for _, symbol := range sc.cfg.Universe {
		symbolChan <- symbol
	}
	close(symbolChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	traces := make(map[string]*strategy.Trace, len(sc.cfg.Universe))
	for res := range resultChan {
		run.SymbolsScanned++
		if res.err != nil {
			run.Errors++
			continue
		}
		if res.decision.Trace != nil {
			traces[res.decision.Symbol] = res.decision.Trace
		}
		if res.decision.Qualifies {
			run.AlertsEmitted++
		}
	}

	if sc.repo != nil {
		if err := sc.repo.FinishScanRun(ctx, run); err != nil {
			sc.log.Error().Err(err).Msg("finishing scan run")
		}
	}

	sc.mu.Lock()
	sc.lastRun = run
	sc.lastTraces = traces
	sc.mu.Unlock()

	metrics.ScanCycles.Inc()
	metrics.ScanDuration.Observe(time.Since(started).Seconds())

	sc.log.Info().
		Str("scan_id", run.ID.String()).
		Int("symbols", run.SymbolsScanned).
		Int("alerts", run.AlertsEmitted).
		Int("errors", run.Errors).
		Dur("took", time.Since(started)).
		Msg("scan cycle complete")

	return run
}

type cycleResult struct {
	decision strategy.AlertDecision
	err      error
}

func (sc *Scanner) worker(ctx context.Context, marketBars []market.Bar, symbols <-chan string, results chan<- cycleResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for symbol := range symbols {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- sc.scanSymbol(ctx, symbol, marketBars)
	}
}

// scanSymbol evaluates one symbol end to end. A panic in evaluation is
// contained to the symbol and counted as an error.
func (sc *Scanner) scanSymbol(ctx context.Context, symbol string, marketBars []market.Bar) (res cycleResult) {
	defer func() {
		if r := recover(); r != nil {
			sc.log.Error().Str("symbol", symbol).Interface("panic", r).Msg("evaluation panic")
			metrics.EvaluationErrors.Inc()
			res = cycleResult{err: fmt.Errorf("panic evaluating %s: %v", symbol, r)}
		}
	}()

	metrics.SymbolsEvaluated.Inc()

	bars, err := sc.client.GetBars(ctx, symbol, "5m", 120)
	if err != nil {
		sc.log.Warn().Err(err).Str("symbol", symbol).Msg("fetching bars")
		metrics.EvaluationErrors.Inc()
		return cycleResult{err: err}
	}
	daily, err := sc.client.GetDailySnapshot(ctx, symbol)
	if err != nil {
		sc.log.Debug().Err(err).Str("symbol", symbol).Msg("no daily snapshot")
		daily = nil
	}

	now := time.Now()
	decision := sc.engine.EvaluateStock(strategy.Input{
		Symbol:     symbol,
		Bars:       bars,
		Daily:      daily,
		MarketBars: marketBars,
		Now:        now,
	})

	if !decision.Qualifies {
		if decision.Reason != strategy.RejectNone {
			metrics.Rejections.WithLabelValues(string(decision.Reason)).Inc()
		}
		return cycleResult{decision: decision}
	}

	if sc.cooldown.InCooldown(ctx, symbol, decision.Direction) {
		sc.log.Debug().Str("symbol", symbol).Msg("alert suppressed by cooldown")
		decision.Qualifies = false
		return cycleResult{decision: decision}
	}

	// Chain fetch only for qualified setups.
	cfg := sc.engine.OptionsConfig()
	minDTE := cfg.MinDTESameDay
	maxDTE := cfg.MaxDTE
	if decision.Plan != nil && decision.Plan.ExpectedWindow == strategy.WindowMultiDay {
		minDTE = cfg.MinDTE
		maxDTE = cfg.MaxDTEMultiDay
	}
	chain, err := sc.client.GetChainSnapshot(ctx, symbol, now, minDTE, maxDTE)
	if err != nil {
		sc.log.Warn().Err(err).Str("symbol", symbol).Msg("fetching option chain, continuing stock-only")
		chain = nil
	}
	decision = sc.engine.ApplyOptions(decision, chain, daily)
	if !decision.Qualifies {
		metrics.Rejections.WithLabelValues(string(decision.Reason)).Inc()
		return cycleResult{decision: decision}
	}

	sc.emit(ctx, decision)
	return cycleResult{decision: decision}
}

// emit persists, notifies, broadcasts, and starts the cooldown for one
// qualified alert.
func (sc *Scanner) emit(ctx context.Context, decision strategy.AlertDecision) {
	metrics.AlertsEmitted.WithLabelValues(string(decision.Kind)).Inc()

	if sc.repo != nil {
		record := toAlertRecord(decision)
		if err := sc.repo.SaveAlert(ctx, record); err != nil {
			sc.log.Error().Err(err).Str("symbol", decision.Symbol).Msg("persisting alert")
		}
	}

	if sc.notifier != nil {
		if err := sc.notifier.Send(notification.FormatAlert(decision)); err != nil {
			sc.log.Error().Err(err).Str("symbol", decision.Symbol).Msg("sending alert notification")
		}
	}

	if sc.sink != nil {
		sc.sink.Publish(decision)
	}

	sc.cooldown.MarkAlerted(ctx, decision.Symbol, decision.Direction)

	sc.log.Info().
		Str("symbol", decision.Symbol).
		Str("direction", string(decision.Direction)).
		Str("kind", string(decision.Kind)).
		Float64("confidence", decision.Confidence).
		Msg("alert emitted")
}

// LastRun returns the most recent cycle's bookkeeping, or nil before the
// first cycle.
func (sc *Scanner) LastRun() *database.ScanRunRecord {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastRun
}

// LastTrace returns the decision trace for a symbol from the most recent
// cycle that evaluated it.
func (sc *Scanner) LastTrace(symbol string) *strategy.Trace {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastTraces[symbol]
}

func toAlertRecord(d strategy.AlertDecision) *database.AlertRecord {
	record := &database.AlertRecord{
		ID:            uuid.New(),
		Symbol:        d.Symbol,
		Direction:     string(d.Direction),
		AlertKind:     string(d.Kind),
		Confidence:    d.Confidence,
		BoxHigh:       d.Diag.BoxHigh,
		BoxLow:        d.Diag.BoxLow,
		RangePct:      d.Diag.RangePct,
		ATRRatio:      d.Diag.ATRRatio,
		VolRatio:      d.Diag.VolRatio,
		BreakPct:      d.Diag.BreakPct,
		BreakVolMult:  d.Diag.BreakVolMult,
		ExtensionPct:  d.Diag.ExtensionPct,
		VWAP:          d.Diag.VWAP,
		VWAPConfirmed: d.Diag.VWAPConfirmed,
		MarketBias:    string(d.Diag.MarketBias),
	}
	if d.Plan != nil {
		record.Entry = d.Plan.Entry
		record.Stop = d.Plan.Stop
		record.Target1 = d.Plan.Target1
		record.Target2 = d.Plan.Target2
		record.ExpectedWindow = string(d.Plan.ExpectedWindow)
	}
	if d.Trace != nil {
		if raw, err := json.Marshal(d.Trace); err == nil {
			record.Diagnostics = raw
		}
	}
	for _, tier := range d.Tiers {
		record.Options = append(record.Options, database.AlertOptionRecord{
			Tier:           string(tier.Tier),
			ContractSymbol: tier.Contract.ContractSymbol,
			Expiry:         tier.Contract.Expiry,
			Strike:         tier.Contract.Strike,
			CallPut:        string(tier.Contract.Right),
			Delta:          tier.Delta,
			Mid:            tier.Mid,
			SpreadPct:      tier.SpreadPct,
			DTE:            tier.DTE,
			Volume:         tier.Contract.Volume,
			OpenInterest:   tier.Contract.OpenInterest,
			Rationale:      tier.Rationale,
			ExitPlan:       tier.ExitPlan,
		})
	}
	return record
}
