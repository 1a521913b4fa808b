// Package pricing computes the target bid the trade manager offers
// when opening a position, as pure functions of the current ticker
// and a configured strategy — no I/O, no state, easy to reason about
// in isolation from the exchange port.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// venuePrecision is the decimal precision Binance-class venues quote
// prices at.
const venuePrecision = 8

// StrategyName selects which target-bid pricing strategy to use.
type StrategyName string

const (
	AskLastBalance StrategyName = "ask_last_balance"
	Percentage     StrategyName = "percentage"
)

// Config parameterizes the target-bid calculation. Only the field the
// selected strategy reads needs to be set.
type Config struct {
	Strategy StrategyName
	// Alpha weights between ask and last under AskLastBalance, in [0,1].
	Alpha decimal.Decimal
	// DiscountPercent is the discount off bid under Percentage, in [0,1].
	DiscountPercent decimal.Decimal
}

// TargetBid computes the price the trade manager will bid to open a
// position, given the current ticker.
func TargetBid(cfg Config, ticker models.Ticker) (decimal.Decimal, error) {
	switch cfg.Strategy {
	case AskLastBalance:
		return askLastBalance(cfg.Alpha, ticker), nil
	case Percentage:
		return percentageDiscount(cfg.DiscountPercent, ticker), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown target-bid strategy: %s", cfg.Strategy)
	}
}

// askLastBalance buys the dip outright when the ask already sits at
// or above the last trade price (nothing to be gained by waiting);
// otherwise it pays a weighted point between ask and last controlled
// by alpha, reaching toward last as the spread to it opens up.
func askLastBalance(alpha decimal.Decimal, ticker models.Ticker) decimal.Decimal {
	if ticker.Ask.GreaterThanOrEqual(ticker.Last) {
		return ticker.Ask
	}
	spread := ticker.Last.Sub(ticker.Ask)
	return ticker.Ask.Add(alpha.Mul(spread))
}

// percentageDiscount bids a fixed discount below the current bid,
// rounded to the venue's quoting precision.
func percentageDiscount(discount decimal.Decimal, ticker models.Ticker) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return ticker.Bid.Mul(one.Sub(discount)).Round(venuePrecision)
}
