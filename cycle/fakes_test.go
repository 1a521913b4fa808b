package cycle

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// fakeExchange is a scriptable exchange.Client double for cycle tests.
// Fields are read under mu so concurrent scanner goroutines can't race.
type fakeExchange struct {
	mu sync.Mutex

	summaries []models.MarketSummary
	tickers   map[string]models.Ticker
	balances  map[string]models.Balance
	orders    map[string]models.OrderState

	buyErr, sellErr, balanceErr, orderErr, cancelErr error

	nextOrderID int
	placedBuys  []placedOrder
	placedSells []placedOrder
	cancelled   []string
}

type placedOrder struct {
	Market string
	Qty    decimal.Decimal
	Price  decimal.Decimal
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		tickers:  make(map[string]models.Ticker),
		balances: make(map[string]models.Balance),
		orders:   make(map[string]models.OrderState),
	}
}

func (f *fakeExchange) MarketSummaries(ctx context.Context) ([]models.MarketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries, nil
}

func (f *fakeExchange) Ticker(ctx context.Context, market string) (models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[market], nil
}

func (f *fakeExchange) TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error) {
	return []models.Candle{{Timestamp: since, Close: decimal.NewFromInt(1)}}, nil
}

func (f *fakeExchange) Balance(ctx context.Context, currency string) (models.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return models.Balance{}, f.balanceErr
	}
	return f.balances[currency], nil
}

func (f *fakeExchange) Buy(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buyErr != nil {
		return "", f.buyErr
	}
	f.nextOrderID++
	id := "buy-order"
	f.placedBuys = append(f.placedBuys, placedOrder{Market: market, Qty: qty, Price: price})
	f.orders[id] = models.OrderState{Status: models.OrderOpen, OriginalQuantity: qty, Price: price}
	return id, nil
}

func (f *fakeExchange) Sell(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sellErr != nil {
		return "", f.sellErr
	}
	f.nextOrderID++
	id := "sell-order"
	f.placedSells = append(f.placedSells, placedOrder{Market: market, Qty: qty, Price: price})
	f.orders[id] = models.OrderState{Status: models.OrderOpen, OriginalQuantity: qty, Price: price}
	return id, nil
}

func (f *fakeExchange) Order(ctx context.Context, orderID, market string) (models.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return models.OrderState{}, f.orderErr
	}
	return f.orders[orderID], nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, orderID, market string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

// holdStrategy never advises a buy or sell; tests that only exercise
// reconciliation logic wire this in so the scanner/sell-on-strategy
// stages are no-ops.
type holdStrategy struct{}

func (holdStrategy) Name() string      { return "hold" }
func (holdStrategy) Timeframe() string { return "1h" }
func (holdStrategy) Forecast(candles []models.Candle) models.Forecast {
	return models.Forecast{Advice: models.AdviceHold}
}

// buyStrategy unconditionally advises Buy, used to drive the scanner
// in the buy-on-signal scenario.
type buyStrategy struct{}

func (buyStrategy) Name() string      { return "always-buy" }
func (buyStrategy) Timeframe() string { return "1h" }
func (buyStrategy) Forecast(candles []models.Candle) models.Forecast {
	return models.Forecast{Advice: models.AdviceBuy}
}
