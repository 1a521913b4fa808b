package store

import (
	"fmt"

	"github.com/alexherrero/tradekeeper/models"
)

// Batch accumulates the trade and trader writes produced during one
// cycle so they can be flushed together, table by table, inside a
// transaction — the cycle orchestrator must see either all of a
// table's writes or none of them, never a partial cycle.
type Batch struct {
	trades  []models.Trade
	traders []models.Trader
}

// NewBatch returns an empty write batch.
func NewBatch() *Batch {
	return &Batch{}
}

// PutTrade stages a trade upsert for the next Flush.
func (b *Batch) PutTrade(t models.Trade) {
	b.trades = append(b.trades, t)
}

// PutTrader stages a trader upsert for the next Flush.
func (b *Batch) PutTrader(t models.Trader) {
	b.traders = append(b.traders, t)
}

// Empty reports whether the batch has nothing staged.
func (b *Batch) Empty() bool {
	return len(b.trades) == 0 && len(b.traders) == 0
}

// Flush writes every staged trade, then every staged trader, each
// table inside its own transaction so a trade failure can't leave a
// half-written trader table or vice versa.
func (b *Batch) Flush(db *DB) error {
	if err := flushTrades(db, b.trades); err != nil {
		return fmt.Errorf("failed to flush trade batch: %w", err)
	}
	if err := flushTraders(db, b.traders); err != nil {
		return fmt.Errorf("failed to flush trader batch: %w", err)
	}
	b.trades = nil
	b.traders = nil
	return nil
}

func flushTrades(db *DB, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	query := `INSERT OR REPLACE INTO trades (` + tradeColumns + `)
		VALUES (:id, :trader_id, :market, :stake_amount, :open_rate, :close_rate, :quantity,
			:close_profit, :close_profit_percent, :buy_order_id, :sell_order_id, :open_order_id,
			:open_date, :close_date, :is_open, :is_buying, :is_selling, :stop_loss_rate, :strategy_used, :sell_type)`

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			tx.Rollback()
			return fmt.Errorf("refusing to persist invalid trade %s: %w", t.ID, err)
		}
		if _, err := tx.NamedExec(query, t); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func flushTraders(db *DB, traders []models.Trader) error {
	if len(traders) == 0 {
		return nil
	}
	query := `INSERT OR REPLACE INTO traders (` + traderColumns + `)
		VALUES (:id, :current_balance, :stake_amount, :is_busy, :last_updated)`

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range traders {
		if _, err := tx.NamedExec(query, t); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert trader %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
