// Package store provides the persistence port: two tables (trades,
// traders), predicate queries and batched upserts, backed by SQLite via
// sqlx — the same stack the teacher uses for its order/position tables.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the sqlx database connection and owns schema migration.
type DB struct {
	*sqlx.DB
}

// Open creates (or opens) the SQLite database at path and ensures the
// schema is current.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Str("path", path).Msg("connected to trade store")

	db := &DB{conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS traders (
		id TEXT PRIMARY KEY,
		current_balance TEXT NOT NULL,
		stake_amount TEXT NOT NULL,
		is_busy INTEGER NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		trader_id TEXT NOT NULL,
		market TEXT NOT NULL,
		stake_amount TEXT NOT NULL,
		open_rate TEXT NOT NULL,
		close_rate TEXT,
		quantity TEXT NOT NULL,
		close_profit TEXT,
		close_profit_percent TEXT,
		buy_order_id TEXT,
		sell_order_id TEXT,
		open_order_id TEXT,
		open_date DATETIME NOT NULL,
		close_date DATETIME,
		is_open INTEGER NOT NULL,
		is_buying INTEGER NOT NULL,
		is_selling INTEGER NOT NULL,
		stop_loss_rate TEXT,
		strategy_used TEXT,
		sell_type TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_trades_is_open ON trades(is_open);
	CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(market);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	log.Info().Msg("trade store migrations complete")
	return nil
}
