package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// DryRunClient simulates instant fills against real market data
// without ever placing a venue order. Quotes, candles and summaries
// are delegated to a live market-data source; only the order-placing
// and balance-bookkeeping side is simulated, in-memory.
type DryRunClient struct {
	quotes Client

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	orders   map[string]simulatedOrder
}

type simulatedOrder struct {
	market string
	status models.OrderStatus
	qty    decimal.Decimal
	price  decimal.Decimal
	time   time.Time
}

// NewDryRunClient builds a dry-run client seeded with starting
// balances per currency. quotes supplies real market data; pass a live
// BinanceClient for realistic signals with zero trading risk.
func NewDryRunClient(quotes Client, startingBalances map[string]decimal.Decimal) *DryRunClient {
	balances := make(map[string]decimal.Decimal, len(startingBalances))
	for k, v := range startingBalances {
		balances[k] = v
	}
	return &DryRunClient{
		quotes:   quotes,
		balances: balances,
		orders:   make(map[string]simulatedOrder),
	}
}

func (c *DryRunClient) MarketSummaries(ctx context.Context) ([]models.MarketSummary, error) {
	return c.quotes.MarketSummaries(ctx)
}

func (c *DryRunClient) Ticker(ctx context.Context, market string) (models.Ticker, error) {
	return c.quotes.Ticker(ctx, market)
}

func (c *DryRunClient) TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error) {
	return c.quotes.TickerHistory(ctx, market, since, period)
}

func (c *DryRunClient) Balance(ctx context.Context, currency string) (models.Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Balance{Currency: currency, Available: c.balances[currency]}, nil
}

func (c *DryRunClient) place(market string, qty, price decimal.Decimal, cost decimal.Decimal, currency string, credit bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.balances[currency]
	if !credit && available.LessThan(cost) {
		return "", fmt.Errorf("dry run: insufficient %s balance: need %s, have %s", currency, cost, available)
	}
	if credit {
		c.balances[currency] = available.Add(cost)
	} else {
		c.balances[currency] = available.Sub(cost)
	}

	id := uuid.NewString()
	c.orders[id] = simulatedOrder{
		market: market,
		status: models.OrderFilled,
		qty:    qty,
		price:  price,
		time:   time.Now(),
	}

	log.Info().
		Str("order_id", id).
		Str("market", market).
		Str("quantity", qty.String()).
		Str("price", price.String()).
		Msg("dry run order filled instantly")

	return id, nil
}

func (c *DryRunClient) Buy(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	quote := quoteCurrency(market)
	cost := qty.Mul(price)
	return c.place(market, qty, price, cost, quote, false)
}

func (c *DryRunClient) Sell(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	quote := quoteCurrency(market)
	proceeds := qty.Mul(price)
	return c.place(market, qty, price, proceeds, quote, true)
}

func quoteCurrency(market string) string {
	for i := len(market) - 1; i >= 0; i-- {
		if market[i] == '/' {
			return market[i+1:]
		}
	}
	return market
}

func (c *DryRunClient) Order(ctx context.Context, orderID, market string) (models.OrderState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.orders[orderID]
	if !ok {
		return models.OrderState{}, fmt.Errorf("dry run: no such order %s", orderID)
	}
	return models.OrderState{
		Status:           order.status,
		OriginalQuantity: order.qty,
		FilledQuantity:   order.qty,
		Price:            order.price,
		Time:             order.time,
	}, nil
}

// CancelOrder is a no-op beyond marking the order cancelled: dry-run
// orders fill the instant they are placed, so there is never anything
// left outstanding to cancel.
func (c *DryRunClient) CancelOrder(ctx context.Context, orderID, market string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.orders[orderID]
	if !ok {
		return fmt.Errorf("dry run: no such order %s", orderID)
	}
	order.status = models.OrderCancelled
	c.orders[orderID] = order
	return nil
}
