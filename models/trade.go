// Package models holds the shared domain entities for the trade manager:
// Trade (one position attempt) and Trader (one capital slot), plus the
// variant types that describe their lifecycle.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SellType records why a trade was, or was about to be, closed.
type SellType string

const (
	SellNone                   SellType = ""
	SellStopLoss               SellType = "stop_loss"
	SellTrailingStopLoss       SellType = "trailing_stop_loss"
	SellTrailingStopLossUpdate SellType = "trailing_stop_loss_updated"
	SellTimed                  SellType = "timed"
	SellStrategy               SellType = "strategy"
	SellImmediate              SellType = "immediate"
	SellCancelled              SellType = "cancelled"
	SellForced                 SellType = "operator_forced"
)

// terminalSellTypes are the sell types for which a closed trade must
// carry close rate, close profit and close profit percent; see the
// invariant in spec §3.
var terminalSellTypes = map[SellType]bool{
	SellStopLoss:         true,
	SellTrailingStopLoss: true,
	SellTimed:            true,
	SellStrategy:         true,
	SellImmediate:        true,
	SellForced:           true,
}

// Trade represents one position attempt, from buy order placement through
// close. Row keys are derived from a descending timestamp so the store's
// natural sort order places the newest trade first (see NewTradeID).
type Trade struct {
	ID       string `db:"id"`
	TraderID string `db:"trader_id"`
	Market   string `db:"market"`

	StakeAmount        decimal.Decimal  `db:"stake_amount"`
	OpenRate           decimal.Decimal  `db:"open_rate"`
	CloseRate          *decimal.Decimal `db:"close_rate"`
	Quantity           decimal.Decimal  `db:"quantity"`
	CloseProfit        *decimal.Decimal `db:"close_profit"`
	CloseProfitPercent *decimal.Decimal `db:"close_profit_percent"`

	BuyOrderID  *string `db:"buy_order_id"`
	SellOrderID *string `db:"sell_order_id"`
	OpenOrderID *string `db:"open_order_id"`

	OpenDate  time.Time  `db:"open_date"`
	CloseDate *time.Time `db:"close_date"`

	IsOpen    bool `db:"is_open"`
	IsBuying  bool `db:"is_buying"`
	IsSelling bool `db:"is_selling"`

	StopLossRate *decimal.Decimal `db:"stop_loss_rate"`
	StrategyUsed string           `db:"strategy_used"`
	SellReason   SellType         `db:"sell_type"`
}

// NewTradeID derives a row key from a descending timestamp so that
// lexicographic (natural) sort places the newest trades first.
func NewTradeID(now time.Time, suffix string) string {
	// A fixed future epoch minus the current Unix nanosecond count produces
	// a monotonically decreasing, zero-padded key for ascending sort order
	// to read as descending chronological order.
	const descendingEpoch = int64(4102444800000000000) // 2100-01-01 in UnixNano
	return fmt.Sprintf("%019d-%s", descendingEpoch-now.UnixNano(), suffix)
}

// Validate checks the invariants spec §3 requires to hold across every
// persisted snapshot of a Trade. It is called before every store write.
func (t *Trade) Validate() error {
	if t.IsOpen && t.CloseDate != nil {
		return fmt.Errorf("trade %s: is_open=true but close_date is set", t.ID)
	}
	if !t.IsOpen && t.CloseDate == nil {
		return fmt.Errorf("trade %s: is_open=false but close_date is unset", t.ID)
	}
	if t.IsBuying {
		if t.BuyOrderID == nil {
			return fmt.Errorf("trade %s: is_buying=true but buy_order_id is unset", t.ID)
		}
		if t.OpenOrderID == nil || *t.OpenOrderID != *t.BuyOrderID {
			return fmt.Errorf("trade %s: is_buying=true but open_order_id != buy_order_id", t.ID)
		}
	}
	if t.IsSelling {
		if t.SellOrderID == nil {
			return fmt.Errorf("trade %s: is_selling=true but sell_order_id is unset", t.ID)
		}
		if t.OpenOrderID == nil || *t.OpenOrderID != *t.SellOrderID {
			return fmt.Errorf("trade %s: is_selling=true but open_order_id != sell_order_id", t.ID)
		}
	}
	if t.IsBuying && t.IsSelling {
		return fmt.Errorf("trade %s: is_buying and is_selling both true", t.ID)
	}
	if !t.IsOpen && t.SellReason != SellCancelled && terminalSellTypes[t.SellReason] {
		if t.CloseRate == nil || t.CloseProfit == nil || t.CloseProfitPercent == nil {
			return fmt.Errorf("trade %s: closed with sell_type=%s but missing close economics", t.ID, t.SellReason)
		}
	}
	return nil
}

// HasOpenOrder reports whether a order is currently outstanding on the venue.
func (t *Trade) HasOpenOrder() bool {
	return t.OpenOrderID != nil
}

// HasImmediateSellOutstanding reports whether the trade has a pending
// take-profit sell that a strategy or stop-rule may still pre-empt.
func (t *Trade) HasImmediateSellOutstanding() bool {
	return t.IsSelling && t.SellReason == SellImmediate
}
