// Package repository реализует журнал сделок, позиций и дневной
// статистики поверх PostgreSQL.
package repository

import "database/sql"

// schemaStatements - DDL журнала. Выполняется при старте, идемпотентно.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id SERIAL PRIMARY KEY,
		pair_id UUID NOT NULL,
		symbol VARCHAR(30) NOT NULL,
		side VARCHAR(4) NOT NULL,
		position_side VARCHAR(5) NOT NULL,
		order_type VARCHAR(10) NOT NULL DEFAULT 'MARKET',
		quantity DOUBLE PRECISION NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		notional DOUBLE PRECISION NOT NULL,
		order_id VARCHAR(32) NOT NULL,
		realized_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
		commission DOUBLE PRECISION NOT NULL DEFAULT 0,
		status VARCHAR(10) NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_pair_id ON trades (pair_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades (timestamp)`,

	`CREATE TABLE IF NOT EXISTS positions (
		id SERIAL PRIMARY KEY,
		pair_id UUID NOT NULL,
		symbol VARCHAR(30) NOT NULL,
		position_side VARCHAR(5) NOT NULL,
		entry_price DOUBLE PRECISION NOT NULL,
		exit_price DOUBLE PRECISION,
		quantity DOUBLE PRECISION NOT NULL,
		leverage INTEGER NOT NULL,
		notional DOUBLE PRECISION NOT NULL,
		opened_at TIMESTAMPTZ NOT NULL,
		closed_at TIMESTAMPTZ,
		hold_time_minutes DOUBLE PRECISION,
		realized_pnl DOUBLE PRECISION,
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_pair_id ON positions (pair_id)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_active ON positions (is_active) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS daily_stats (
		id SERIAL PRIMARY KEY,
		date TIMESTAMPTZ NOT NULL UNIQUE,
		total_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		hold_weighted_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		num_trades INTEGER NOT NULL DEFAULT 0,
		realized_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
		fees_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
		rh_points_estimated DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema создаёт таблицы журнала, если их ещё нет
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
