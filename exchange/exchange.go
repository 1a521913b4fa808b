// Package exchange defines the venue port the trade manager consumes
// and provides two implementations: a live Binance client and a
// dry-run client that fills instantly against real market data without
// placing real orders.
package exchange

import (
	"context"
	"time"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/shopspring/decimal"
)

// Client is every operation the core trade manager needs from a venue.
// Both BinanceClient and DryRunClient satisfy it so the cycle
// orchestrator never knows which one it's talking to.
type Client interface {
	// MarketSummaries lists every tradable market with its base volume,
	// used by the scanner to rank buy candidates.
	MarketSummaries(ctx context.Context) ([]models.MarketSummary, error)

	// Ticker returns the current bid/ask/last for one market.
	Ticker(ctx context.Context, market string) (models.Ticker, error)

	// TickerHistory returns OHLCV candles for one market since a given
	// time, used by the strategy port to compute its forecast.
	TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error)

	// Balance returns the available amount of one currency.
	Balance(ctx context.Context, currency string) (models.Balance, error)

	// Buy places a limit buy order and returns its venue order id.
	Buy(ctx context.Context, market string, qty, price decimal.Decimal) (string, error)

	// Sell places a limit sell order and returns its venue order id.
	Sell(ctx context.Context, market string, qty, price decimal.Decimal) (string, error)

	// Order returns the current venue-side state of a previously
	// placed order.
	Order(ctx context.Context, orderID, market string) (models.OrderState, error)

	// CancelOrder cancels an outstanding order. DryRunClient accepts
	// any order it placed, filled or not; BinanceClient returns the
	// venue's error for an order that is no longer open.
	CancelOrder(ctx context.Context, orderID, market string) error
}
