// Package decision implements the sell-decision engine: a pure
// function of a trade snapshot, the current bid, and the current
// time, returning what the caller should do about the position.
//
// The source this engine is modeled on returns a SellType and signals
// a trailing-stop update by mutating the trade in place — a shape
// that makes one of its own branches unreachable. This package
// instead returns a Decision sum type, so "update the stop" and "sell
// now" can never be confused by the caller.
package decision

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// Kind discriminates the three shapes a Decision can take.
type Kind int

const (
	// NoOp: nothing to do this tick.
	NoOp Kind = iota
	// UpdateStop: the trailing stop ratcheted up; persist StopRate,
	// place no order.
	UpdateStop
	// Sell: close the position for Reason.
	Sell
)

// Decision is the result of evaluating should_sell for one trade.
type Decision struct {
	Kind     Kind
	StopRate decimal.Decimal
	Reason   models.SellType
}

// ROIStep is one rung of the time-based return-on-investment ladder:
// after DurationMinutes have elapsed, sell if profit exceeds
// ProfitThreshold. Steps are evaluated in the order given; the first
// match wins.
type ROIStep struct {
	DurationMinutes int
	ProfitThreshold decimal.Decimal
}

// Config parameterizes ShouldSell. StopLossPct is negative.
type Config struct {
	StopLossPct        decimal.Decimal
	ROILadder          []ROIStep
	EnableTrailingStop bool
	TrailingStopPct    decimal.Decimal
	TrailingStartPct   decimal.Decimal
}

// ShouldSell is the pure sell-decision function described in the
// component design: stop loss, then the ROI ladder, then the trailing
// stop, evaluated strictly in that order because each is allowed to
// pre-empt the ones after it.
func ShouldSell(cfg Config, trade models.Trade, currentBid decimal.Decimal, now time.Time) Decision {
	profit := currentBid.Sub(trade.OpenRate).Div(trade.OpenRate)

	if profit.LessThan(cfg.StopLossPct) {
		return Decision{Kind: Sell, Reason: models.SellStopLoss}
	}

	elapsedMinutes := decimal.NewFromFloat(now.Sub(trade.OpenDate).Minutes())
	for _, step := range cfg.ROILadder {
		if elapsedMinutes.GreaterThan(decimal.NewFromInt(int64(step.DurationMinutes))) && profit.GreaterThan(step.ProfitThreshold) {
			return Decision{Kind: Sell, Reason: models.SellTimed}
		}
	}

	if cfg.EnableTrailingStop {
		if trade.StopLossRate != nil && currentBid.LessThan(*trade.StopLossRate) {
			return Decision{Kind: Sell, Reason: models.SellTrailingStopLoss}
		}

		newStop := trade.OpenRate.Mul(decimal.NewFromInt(1).Add(profit.Sub(cfg.TrailingStopPct)))
		if profit.GreaterThan(cfg.TrailingStartPct) && (trade.StopLossRate == nil || trade.StopLossRate.LessThan(newStop)) {
			return Decision{Kind: UpdateStop, StopRate: newStop}
		}
	}

	return Decision{Kind: NoOp}
}
