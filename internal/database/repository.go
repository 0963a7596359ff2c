package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// ALERTS
// ============================================================================

// SaveAlert inserts an alert and its option picks in one transaction.
func (r *Repository) SaveAlert(ctx context.Context, alert *AlertRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning alert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO alerts (id, symbol, direction, alert_kind, confidence,
			entry, stop, target1, target2, expected_window,
			box_high, box_low, range_pct, atr_ratio, vol_ratio,
			break_pct, break_vol_mult, extension_pct, vwap, vwap_confirmed,
			market_bias, diagnostics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at
	`
	err = tx.QueryRow(
		ctx, query,
		alert.ID, alert.Symbol, alert.Direction, alert.AlertKind, alert.Confidence,
		alert.Entry, alert.Stop, alert.Target1, alert.Target2, alert.ExpectedWindow,
		alert.BoxHigh, alert.BoxLow, alert.RangePct, alert.ATRRatio, alert.VolRatio,
		alert.BreakPct, alert.BreakVolMult, alert.ExtensionPct, alert.VWAP, alert.VWAPConfirmed,
		alert.MarketBias, alert.Diagnostics,
	).Scan(&alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}

	for i := range alert.Options {
		opt := &alert.Options[i]
		opt.AlertID = alert.ID
		err = tx.QueryRow(
			ctx, `
			INSERT INTO alert_options (alert_id, tier, contract_symbol, expiry, strike,
				call_put, delta, mid, spread_pct, dte, volume, open_interest, rationale, exit_plan)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at
			`,
			opt.AlertID, opt.Tier, opt.ContractSymbol, opt.Expiry, opt.Strike,
			opt.CallPut, opt.Delta, opt.Mid, opt.SpreadPct, opt.DTE,
			opt.Volume, opt.OpenInterest, opt.Rationale, opt.ExitPlan,
		).Scan(&opt.ID, &opt.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting alert option: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetAlertByID retrieves a single alert with its option picks.
func (r *Repository) GetAlertByID(ctx context.Context, id uuid.UUID) (*AlertRecord, error) {
	query := alertSelect + ` WHERE id = $1`
	row := r.db.Pool.QueryRow(ctx, query, id)
	alert, err := scanAlert(row)
	if err != nil {
		return nil, err
	}
	alert.Options, err = r.alertOptions(ctx, alert.ID)
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// ListAlerts retrieves recent alerts, newest first, with option picks.
func (r *Repository) ListAlerts(ctx context.Context, limit, offset int) ([]*AlertRecord, error) {
	query := alertSelect + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*AlertRecord
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, alert := range alerts {
		alert.Options, err = r.alertOptions(ctx, alert.ID)
		if err != nil {
			return nil, err
		}
	}
	return alerts, nil
}

// ListAlertsBySymbol retrieves recent alerts for one symbol.
func (r *Repository) ListAlertsBySymbol(ctx context.Context, symbol string, limit int) ([]*AlertRecord, error) {
	query := alertSelect + `
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*AlertRecord
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

const alertSelect = `
	SELECT id, symbol, direction, alert_kind, confidence,
	       entry, stop, target1, target2, expected_window,
	       box_high, box_low, range_pct, atr_ratio, vol_ratio,
	       break_pct, break_vol_mult, extension_pct, vwap, vwap_confirmed,
	       market_bias, diagnostics, created_at
	FROM alerts
`

func scanAlert(row pgx.Row) (*AlertRecord, error) {
	alert := &AlertRecord{}
	err := row.Scan(
		&alert.ID, &alert.Symbol, &alert.Direction, &alert.AlertKind, &alert.Confidence,
		&alert.Entry, &alert.Stop, &alert.Target1, &alert.Target2, &alert.ExpectedWindow,
		&alert.BoxHigh, &alert.BoxLow, &alert.RangePct, &alert.ATRRatio, &alert.VolRatio,
		&alert.BreakPct, &alert.BreakVolMult, &alert.ExtensionPct, &alert.VWAP, &alert.VWAPConfirmed,
		&alert.MarketBias, &alert.Diagnostics, &alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (r *Repository) alertOptions(ctx context.Context, alertID uuid.UUID) ([]AlertOptionRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, alert_id, tier, contract_symbol, expiry, strike, call_put,
		       delta, mid, spread_pct, dte, volume, open_interest, rationale, exit_plan, created_at
		FROM alert_options
		WHERE alert_id = $1
		ORDER BY delta DESC
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []AlertOptionRecord
	for rows.Next() {
		var opt AlertOptionRecord
		err := rows.Scan(
			&opt.ID, &opt.AlertID, &opt.Tier, &opt.ContractSymbol, &opt.Expiry,
			&opt.Strike, &opt.CallPut, &opt.Delta, &opt.Mid, &opt.SpreadPct,
			&opt.DTE, &opt.Volume, &opt.OpenInterest, &opt.Rationale, &opt.ExitPlan,
			&opt.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, rows.Err()
}

// ============================================================================
// GRADES
// ============================================================================

// ListUngradedAlerts retrieves alerts old enough to grade with no grade row.
func (r *Repository) ListUngradedAlerts(ctx context.Context, olderThan time.Time, since time.Time) ([]*AlertRecord, error) {
	query := alertSelect + `
		WHERE created_at <= $1
		  AND created_at >= $2
		  AND id NOT IN (SELECT alert_id FROM alert_grades)
		ORDER BY created_at ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, olderThan, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*AlertRecord
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// SaveGrade inserts an outcome grade for an alert. Re-grading replaces the
// previous row.
func (r *Repository) SaveGrade(ctx context.Context, grade *GradeRecord) error {
	query := `
		INSERT INTO alert_grades (alert_id, hit_t1, hit_t2, stopped_out,
			mfe_pct, mae_pct, minutes_to_t1, minutes_to_t2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (alert_id) DO UPDATE SET
			hit_t1 = EXCLUDED.hit_t1,
			hit_t2 = EXCLUDED.hit_t2,
			stopped_out = EXCLUDED.stopped_out,
			mfe_pct = EXCLUDED.mfe_pct,
			mae_pct = EXCLUDED.mae_pct,
			minutes_to_t1 = EXCLUDED.minutes_to_t1,
			minutes_to_t2 = EXCLUDED.minutes_to_t2,
			graded_at = NOW()
		RETURNING id, graded_at
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		grade.AlertID, grade.HitT1, grade.HitT2, grade.StoppedOut,
		grade.MFEPct, grade.MAEPct, grade.MinutesToT1, grade.MinutesToT2,
	).Scan(&grade.ID, &grade.GradedAt)
}

// GetGrade retrieves the grade for one alert, or nil when ungraded.
func (r *Repository) GetGrade(ctx context.Context, alertID uuid.UUID) (*GradeRecord, error) {
	grade := &GradeRecord{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, alert_id, hit_t1, hit_t2, stopped_out,
		       mfe_pct, mae_pct, minutes_to_t1, minutes_to_t2, graded_at
		FROM alert_grades
		WHERE alert_id = $1
	`, alertID).Scan(
		&grade.ID, &grade.AlertID, &grade.HitT1, &grade.HitT2, &grade.StoppedOut,
		&grade.MFEPct, &grade.MAEPct, &grade.MinutesToT1, &grade.MinutesToT2,
		&grade.GradedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return grade, nil
}

// ============================================================================
// SCAN RUNS
// ============================================================================

// RecordScanRun inserts the start-of-cycle row.
func (r *Repository) RecordScanRun(ctx context.Context, run *ScanRunRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO scan_runs (id, started_at, symbols_scanned, alerts_emitted, errors)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.StartedAt, run.SymbolsScanned, run.AlertsEmitted, run.Errors)
	return err
}

// FinishScanRun records the cycle's final counters.
func (r *Repository) FinishScanRun(ctx context.Context, run *ScanRunRecord) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_runs
		SET finished_at = $2, symbols_scanned = $3, alerts_emitted = $4, errors = $5
		WHERE id = $1
	`, run.ID, run.FinishedAt, run.SymbolsScanned, run.AlertsEmitted, run.Errors)
	return err
}

// LatestScanRun returns the most recent scan cycle, or nil when none exist.
func (r *Repository) LatestScanRun(ctx context.Context) (*ScanRunRecord, error) {
	run := &ScanRunRecord{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, symbols_scanned, alerts_emitted, errors
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.SymbolsScanned, &run.AlertsEmitted, &run.Errors)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}
