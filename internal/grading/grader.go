// Package grading scores emitted alerts against what price actually did:
// target hits, stop-outs, and excursion statistics.
package grading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/database"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// Grader periodically grades ungraded alerts old enough to have resolved.
type Grader struct {
	client *market.Client
	repo   *database.Repository
	cfg    config.GradingConfig
	log    zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewGrader(client *market.Client, repo *database.Repository, cfg config.GradingConfig, logger zerolog.Logger) *Grader {
	return &Grader{
		client:   client,
		repo:     repo,
		cfg:      cfg,
		log:      logger.With().Str("component", "grader").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the background grading loop
func (g *Grader) Start() {
	if !g.cfg.Enabled {
		g.log.Info().Msg("grading is disabled")
		return
	}
	g.wg.Add(1)
	go g.run()
	g.log.Info().Int("interval_min", g.cfg.IntervalMinutes).Msg("grader started")
}

// Stop terminates the grading loop.
func (g *Grader) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
	g.wg.Wait()
}

func (g *Grader) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(time.Duration(g.cfg.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	g.gradePending()

	for {
		select {
		case <-ticker.C:
			g.gradePending()
		case <-g.stopChan:
			g.log.Info().Msg("grader stopped")
			return
		}
	}
}

// gradePending grades every alert past the minimum age inside the lookback
// window.
func (g *Grader) gradePending() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	olderThan := now.Add(-time.Duration(g.cfg.MinAgeMinutes) * time.Minute)
	since := now.AddDate(0, 0, -g.cfg.LookbackDays)

	alerts, err := g.repo.ListUngradedAlerts(ctx, olderThan, since)
	if err != nil {
		g.log.Error().Err(err).Msg("listing ungraded alerts")
		return
	}
	if len(alerts) == 0 {
		return
	}

	graded := 0
	for _, alert := range alerts {
		if err := g.gradeAlert(ctx, alert); err != nil {
			g.log.Warn().Err(err).Str("symbol", alert.Symbol).Msg("grading alert")
			continue
		}
		graded++
	}
	g.log.Info().Int("pending", len(alerts)).Int("graded", graded).Msg("grading pass complete")
}

func (g *Grader) gradeAlert(ctx context.Context, alert *database.AlertRecord) error {
	minutes := int(time.Since(alert.CreatedAt).Minutes())
	if minutes > 3*24*60 {
		minutes = 3 * 24 * 60
	}
	bars, err := g.client.GetBars(ctx, alert.Symbol, "5m", minutes/5+1)
	if err != nil {
		return err
	}

	grade := GradeOutcome(alert, barsSince(bars, alert.CreatedAt))
	return g.repo.SaveGrade(ctx, grade)
}

// GradeOutcome walks the post-alert bars in order and records which levels
// were touched first, plus the excursion extremes relative to entry.
func GradeOutcome(alert *database.AlertRecord, bars []market.Bar) *database.GradeRecord {
	grade := &database.GradeRecord{AlertID: alert.ID}
	if len(bars) == 0 || alert.Entry <= 0 {
		return grade
	}

	long := alert.Direction == string(market.Long)
	var mfe, mae float64
	for _, bar := range bars {
		var favorable, adverse float64
		if long {
			favorable = (bar.High - alert.Entry) / alert.Entry
			adverse = (alert.Entry - bar.Low) / alert.Entry
		} else {
			favorable = (alert.Entry - bar.Low) / alert.Entry
			adverse = (bar.High - alert.Entry) / alert.Entry
		}
		if favorable > mfe {
			mfe = favorable
		}
		if adverse > mae {
			mae = adverse
		}

		elapsed := int(bar.Timestamp.Sub(alert.CreatedAt).Minutes())

		// Stop touched before targets ends the trade.
		if !grade.HitT1 && stopTouched(bar, alert.Stop, long) {
			grade.StoppedOut = true
			break
		}
		if !grade.HitT1 && targetTouched(bar, alert.Target1, long) {
			grade.HitT1 = true
			e := elapsed
			grade.MinutesToT1 = &e
		}
		if grade.HitT1 && !grade.HitT2 && targetTouched(bar, alert.Target2, long) {
			grade.HitT2 = true
			e := elapsed
			grade.MinutesToT2 = &e
			break
		}
	}

	grade.MFEPct = &mfe
	grade.MAEPct = &mae
	return grade
}

func targetTouched(bar market.Bar, target float64, long bool) bool {
	if long {
		return bar.High >= target
	}
	return bar.Low <= target
}

func stopTouched(bar market.Bar, stop float64, long bool) bool {
	if long {
		return bar.Low <= stop
	}
	return bar.High >= stop
}

func barsSince(bars []market.Bar, after time.Time) []market.Bar {
	for i, bar := range bars {
		if bar.Timestamp.After(after) {
			return bars[i:]
		}
	}
	return nil
}
