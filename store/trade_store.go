package store

import (
	"fmt"

	"github.com/alexherrero/tradekeeper/models"
)

// TradeStore persists Trade rows and answers the predicate queries the
// cycle orchestrator needs (open trades, trades with an outstanding
// order, trades belonging to a trader).
type TradeStore struct {
	db *DB
}

// NewTradeStore builds a TradeStore over an open database connection.
func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

const tradeColumns = `id, trader_id, market, stake_amount, open_rate, close_rate, quantity,
	close_profit, close_profit_percent, buy_order_id, sell_order_id, open_order_id,
	open_date, close_date, is_open, is_buying, is_selling, stop_loss_rate, strategy_used, sell_type`

// Save upserts a single trade row immediately. The cycle orchestrator
// uses this only for ForceSell, which runs outside a cycle; trade
// writes made during a cycle go through a Batch.
func (s *TradeStore) Save(t models.Trade) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid trade: %w", err)
	}
	query := `INSERT OR REPLACE INTO trades (` + tradeColumns + `)
		VALUES (:id, :trader_id, :market, :stake_amount, :open_rate, :close_rate, :quantity,
			:close_profit, :close_profit_percent, :buy_order_id, :sell_order_id, :open_order_id,
			:open_date, :close_date, :is_open, :is_buying, :is_selling, :stop_loss_rate, :strategy_used, :sell_type)`
	if _, err := s.db.NamedExec(query, t); err != nil {
		return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
	}
	return nil
}

// GetByID retrieves a single trade by its row key.
func (s *TradeStore) GetByID(id string) (*models.Trade, error) {
	var t models.Trade
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`
	if err := s.db.Get(&t, query, id); err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	return &t, nil
}

// Open returns every trade still open, newest first (the row keys
// already sort that way).
func (s *TradeStore) Open() ([]models.Trade, error) {
	var trades []models.Trade
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE is_open = 1 ORDER BY id ASC`
	if err := s.db.Select(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list open trades: %w", err)
	}
	return trades, nil
}

// OpenByMarket reports whether market already has an open trade, used
// by the scanner to exclude markets with an active position.
func (s *TradeStore) OpenByMarket() (map[string]bool, error) {
	open, err := s.Open()
	if err != nil {
		return nil, err
	}
	byMarket := make(map[string]bool, len(open))
	for _, t := range open {
		byMarket[t.Market] = true
	}
	return byMarket, nil
}

// WithOutstandingOrder returns every open trade that is currently
// buying or selling, i.e. has an order outstanding on the venue.
func (s *TradeStore) WithOutstandingOrder() ([]models.Trade, error) {
	var trades []models.Trade
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE is_open = 1 AND (is_buying = 1 OR is_selling = 1) ORDER BY id ASC`
	if err := s.db.Select(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list trades with outstanding orders: %w", err)
	}
	return trades, nil
}

// Closed returns every closed trade, newest first, for reporting.
func (s *TradeStore) Closed() ([]models.Trade, error) {
	var trades []models.Trade
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE is_open = 0 ORDER BY id ASC`
	if err := s.db.Select(&trades, query); err != nil {
		return nil, fmt.Errorf("failed to list closed trades: %w", err)
	}
	return trades, nil
}
