package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trader is one capital slot: a budget plus a busy flag. At most one open
// Trade references a given Trader at any time (see spec §3 invariants).
type Trader struct {
	ID             string          `db:"id"`
	CurrentBalance decimal.Decimal `db:"current_balance"`
	StakeAmount    decimal.Decimal `db:"stake_amount"`
	IsBusy         bool            `db:"is_busy"`
	LastUpdated    time.Time       `db:"last_updated"`
}

// NewTrader constructs the Nth trader slot created during bootstrap.
func NewTrader(id string, stake decimal.Decimal, now time.Time) Trader {
	return Trader{
		ID:             id,
		CurrentBalance: stake,
		StakeAmount:    stake,
		IsBusy:         false,
		LastUpdated:    now,
	}
}
