package store

import (
	"fmt"

	"github.com/alexherrero/tradekeeper/models"
)

// TraderStore persists Trader rows (capital slots).
type TraderStore struct {
	db *DB
}

// NewTraderStore builds a TraderStore over an open database connection.
func NewTraderStore(db *DB) *TraderStore {
	return &TraderStore{db: db}
}

const traderColumns = `id, current_balance, stake_amount, is_busy, last_updated`

// Save upserts a single trader row immediately; trader-slot release is
// the one write spec requires outside the end-of-cycle batch.
func (s *TraderStore) Save(t models.Trader) error {
	query := `INSERT OR REPLACE INTO traders (` + traderColumns + `)
		VALUES (:id, :current_balance, :stake_amount, :is_busy, :last_updated)`
	if _, err := s.db.NamedExec(query, t); err != nil {
		return fmt.Errorf("failed to save trader %s: %w", t.ID, err)
	}
	return nil
}

// All returns every trader slot, in ID order.
func (s *TraderStore) All() ([]models.Trader, error) {
	var traders []models.Trader
	query := `SELECT ` + traderColumns + ` FROM traders ORDER BY id ASC`
	if err := s.db.Select(&traders, query); err != nil {
		return nil, fmt.Errorf("failed to list traders: %w", err)
	}
	return traders, nil
}

// Free returns every trader slot not currently busy, in ID order.
func (s *TraderStore) Free() ([]models.Trader, error) {
	var traders []models.Trader
	query := `SELECT ` + traderColumns + ` FROM traders WHERE is_busy = 0 ORDER BY id ASC`
	if err := s.db.Select(&traders, query); err != nil {
		return nil, fmt.Errorf("failed to list free traders: %w", err)
	}
	return traders, nil
}

// Count reports how many trader slots exist, used to decide whether
// bootstrap needs to create the initial slots.
func (s *TraderStore) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM traders`); err != nil {
		return 0, fmt.Errorf("failed to count traders: %w", err)
	}
	return n, nil
}
