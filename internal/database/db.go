package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewDB creates a new database connection
func NewDB(cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Str("database", cfg.Database).Msg("connected to PostgreSQL")

	return &DB{Pool: pool, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info().Msg("database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.log.Info().Msg("running database migrations")

	migrations := []string{
		// Alerts emitted by the scanner
		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			direction VARCHAR(5) NOT NULL,
			alert_kind VARCHAR(20) NOT NULL,
			confidence DECIMAL(4, 2) NOT NULL,
			entry DECIMAL(20, 8) NOT NULL,
			stop DECIMAL(20, 8) NOT NULL,
			target1 DECIMAL(20, 8) NOT NULL,
			target2 DECIMAL(20, 8) NOT NULL,
			expected_window VARCHAR(20) NOT NULL,
			box_high DECIMAL(20, 8),
			box_low DECIMAL(20, 8),
			range_pct DECIMAL(10, 6),
			atr_ratio DECIMAL(10, 4),
			vol_ratio DECIMAL(10, 4),
			break_pct DECIMAL(10, 6),
			break_vol_mult DECIMAL(10, 4),
			extension_pct DECIMAL(10, 6),
			vwap DECIMAL(20, 8),
			vwap_confirmed BOOLEAN,
			market_bias VARCHAR(10),
			diagnostics JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at)`,

		// Option picks attached to combined alerts
		`CREATE TABLE IF NOT EXISTS alert_options (
			id SERIAL PRIMARY KEY,
			alert_id UUID NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			tier VARCHAR(20) NOT NULL,
			contract_symbol VARCHAR(40) NOT NULL,
			expiry DATE NOT NULL,
			strike DECIMAL(20, 8) NOT NULL,
			call_put VARCHAR(4) NOT NULL,
			delta DECIMAL(8, 4) NOT NULL,
			mid DECIMAL(20, 8) NOT NULL,
			spread_pct DECIMAL(10, 6) NOT NULL,
			dte INTEGER NOT NULL,
			volume BIGINT NOT NULL,
			open_interest BIGINT NOT NULL,
			rationale TEXT,
			exit_plan TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_options_alert_id ON alert_options(alert_id)`,

		// Post-hoc outcome grades
		`CREATE TABLE IF NOT EXISTS alert_grades (
			id SERIAL PRIMARY KEY,
			alert_id UUID NOT NULL UNIQUE REFERENCES alerts(id) ON DELETE CASCADE,
			hit_t1 BOOLEAN NOT NULL,
			hit_t2 BOOLEAN NOT NULL,
			stopped_out BOOLEAN NOT NULL,
			mfe_pct DECIMAL(10, 6),
			mae_pct DECIMAL(10, 6),
			minutes_to_t1 INTEGER,
			minutes_to_t2 INTEGER,
			graded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Per-cycle scan bookkeeping
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			symbols_scanned INTEGER NOT NULL DEFAULT 0,
			alerts_emitted INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started_at ON scan_runs(started_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.log.Info().Int("statements", len(migrations)).Msg("migrations complete")
	return nil
}
