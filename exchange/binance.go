package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// binanceAPI is the slice of the official client this package actually
// calls, kept narrow so tests can substitute a fake.
type binanceAPI interface {
	ExchangeInfo(ctx context.Context) (*binance.ExchangeInfo, error)
	BookTickers(ctx context.Context) ([]*binance.BookTicker, error)
	Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]*binance.Kline, error)
	Account(ctx context.Context) (*binance.Account, error)
	CreateOrder(ctx context.Context, symbol string, side binance.SideType, qty, price string) (*binance.CreateOrderResponse, error)
	GetOrder(ctx context.Context, symbol, orderID string) (*binance.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
}

type liveBinanceAPI struct {
	client *binance.Client
}

func (a *liveBinanceAPI) ExchangeInfo(ctx context.Context) (*binance.ExchangeInfo, error) {
	return a.client.NewExchangeInfoService().Do(ctx)
}

func (a *liveBinanceAPI) BookTickers(ctx context.Context) ([]*binance.BookTicker, error) {
	return a.client.NewListBookTickersService().Do(ctx)
}

func (a *liveBinanceAPI) Klines(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]*binance.Kline, error) {
	return a.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startTime).
		Limit(limit).
		Do(ctx)
}

func (a *liveBinanceAPI) Account(ctx context.Context) (*binance.Account, error) {
	return a.client.NewGetAccountService().Do(ctx)
}

func (a *liveBinanceAPI) CreateOrder(ctx context.Context, symbol string, side binance.SideType, qty, price string) (*binance.CreateOrderResponse, error) {
	return a.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Quantity(qty).
		Price(price).
		Do(ctx)
}

func (a *liveBinanceAPI) GetOrder(ctx context.Context, symbol, orderID string) (*binance.Order, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order id %q is not a binance order id: %w", orderID, err)
	}
	return a.client.NewGetOrderService().Symbol(symbol).OrderID(id).Do(ctx)
}

func (a *liveBinanceAPI) CancelOrder(ctx context.Context, symbol, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("order id %q is not a binance order id: %w", orderID, err)
	}
	_, err = a.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	return err
}

// BinanceClient implements the Client port against the live Binance
// REST API via adshao/go-binance/v2. It is rate-limited the same way
// the teacher's data-fetching provider is: a minimum spacing between
// requests rather than a token bucket, which is adequate at trade
// manager call volumes.
type BinanceClient struct {
	api         binanceAPI
	rateLimiter time.Time
	minInterval time.Duration
}

// NewBinanceClient builds a BinanceClient. Pass empty credentials to
// use public-only endpoints (market data, no trading).
func NewBinanceClient(apiKey, apiSecret string) *BinanceClient {
	client := binance.NewClient(apiKey, apiSecret)
	return &BinanceClient{
		api:         &liveBinanceAPI{client: client},
		minInterval: 100 * time.Millisecond,
	}
}

func (c *BinanceClient) rateLimit() {
	if !c.rateLimiter.IsZero() {
		if elapsed := time.Since(c.rateLimiter); elapsed < c.minInterval {
			time.Sleep(c.minInterval - elapsed)
		}
	}
	c.rateLimiter = time.Now()
}

// toSymbol converts the core's "BASE/QUOTE" market name to Binance's
// concatenated symbol form, e.g. "ETH/BTC" -> "ETHBTC".
func toSymbol(market string) string {
	return strings.ReplaceAll(strings.ToUpper(market), "/", "")
}

func splitSymbol(symbol, base, quote string) string {
	return fmt.Sprintf("%s/%s", base, quote)
}

func (c *BinanceClient) MarketSummaries(ctx context.Context) ([]models.MarketSummary, error) {
	c.rateLimit()
	info, err := c.api.ExchangeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange info: %w", err)
	}

	tickers, err := c.api.BookTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book tickers: %w", err)
	}
	volumeBySymbol := make(map[string]decimal.Decimal, len(tickers))
	for _, t := range tickers {
		qty, err := decimal.NewFromString(t.BidQuantity)
		if err != nil {
			continue
		}
		volumeBySymbol[t.Symbol] = qty
	}

	summaries := make([]models.MarketSummary, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		summaries = append(summaries, models.MarketSummary{
			MarketName: splitSymbol(s.Symbol, s.BaseAsset, s.QuoteAsset),
			BaseVolume: volumeBySymbol[s.Symbol],
			Pair:       models.CurrencyPair{Base: s.BaseAsset, Quote: s.QuoteAsset},
		})
	}
	return summaries, nil
}

// Ticker reads the best bid and ask from the book-ticker endpoint.
// That endpoint carries no last-trade price, so Last is set to the
// bid/ask midpoint rather than the price of the last trade.
func (c *BinanceClient) Ticker(ctx context.Context, market string) (models.Ticker, error) {
	c.rateLimit()
	symbol := toSymbol(market)
	tickers, err := c.api.BookTickers(ctx)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("failed to fetch ticker for %s: %w", market, err)
	}
	for _, t := range tickers {
		if t.Symbol != symbol {
			continue
		}
		bid, errB := decimal.NewFromString(t.BidPrice)
		ask, errA := decimal.NewFromString(t.AskPrice)
		if errB != nil || errA != nil {
			return models.Ticker{}, fmt.Errorf("failed to parse ticker prices for %s", market)
		}
		last := bid.Add(ask).Div(decimal.NewFromInt(2))
		return models.Ticker{Bid: bid, Ask: ask, Last: last}, nil
	}
	return models.Ticker{}, fmt.Errorf("no ticker returned for %s", market)
}

// binanceInterval maps a period duration to the nearest Binance kline
// interval; the trade manager only ever asks for periods the strategy
// port configures, so this covers the common cases rather than every
// interval Binance supports.
func binanceInterval(period time.Duration) string {
	switch {
	case period <= time.Minute:
		return "1m"
	case period <= 5*time.Minute:
		return "5m"
	case period <= 15*time.Minute:
		return "15m"
	case period <= time.Hour:
		return "1h"
	case period <= 4*time.Hour:
		return "4h"
	default:
		return "1d"
	}
}

func (c *BinanceClient) TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error) {
	c.rateLimit()
	symbol := toSymbol(market)
	klines, err := c.api.Klines(ctx, symbol, binanceInterval(period), since.UnixMilli(), 500)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", market, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		open, errO := decimal.NewFromString(k.Open)
		high, errH := decimal.NewFromString(k.High)
		low, errL := decimal.NewFromString(k.Low)
		close, errC := decimal.NewFromString(k.Close)
		volume, errV := decimal.NewFromString(k.Volume)
		if errO != nil || errH != nil || errL != nil || errC != nil || errV != nil {
			return nil, fmt.Errorf("failed to parse candle for %s", market)
		}
		candles = append(candles, models.Candle{
			Timestamp: time.UnixMilli(k.OpenTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
	}
	return candles, nil
}

func (c *BinanceClient) Balance(ctx context.Context, currency string) (models.Balance, error) {
	c.rateLimit()
	account, err := c.api.Account(ctx)
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to fetch account balances: %w", err)
	}
	for _, b := range account.Balances {
		if b.Asset != currency {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return models.Balance{}, fmt.Errorf("failed to parse balance for %s: %w", currency, err)
		}
		return models.Balance{Currency: currency, Available: free}, nil
	}
	return models.Balance{Currency: currency, Available: decimal.Zero}, nil
}

func (c *BinanceClient) Buy(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	c.rateLimit()
	resp, err := c.api.CreateOrder(ctx, toSymbol(market), binance.SideTypeBuy, qty.String(), price.String())
	if err != nil {
		return "", fmt.Errorf("failed to place buy order on %s: %w", market, err)
	}
	return strconv.FormatInt(resp.OrderID, 10), nil
}

func (c *BinanceClient) Sell(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	c.rateLimit()
	resp, err := c.api.CreateOrder(ctx, toSymbol(market), binance.SideTypeSell, qty.String(), price.String())
	if err != nil {
		return "", fmt.Errorf("failed to place sell order on %s: %w", market, err)
	}
	return strconv.FormatInt(resp.OrderID, 10), nil
}

func binanceStatusToOrderStatus(status binance.OrderStatusType) models.OrderStatus {
	switch status {
	case binance.OrderStatusTypeFilled:
		return models.OrderFilled
	case binance.OrderStatusTypePartiallyFilled:
		return models.OrderPartiallyFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypeExpired, binance.OrderStatusTypeRejected:
		return models.OrderCancelled
	default:
		return models.OrderOpen
	}
}

func (c *BinanceClient) Order(ctx context.Context, orderID, market string) (models.OrderState, error) {
	c.rateLimit()
	order, err := c.api.GetOrder(ctx, toSymbol(market), orderID)
	if err != nil {
		return models.OrderState{}, fmt.Errorf("failed to fetch order %s on %s: %w", orderID, market, err)
	}
	originalQty, errO := decimal.NewFromString(order.OrigQuantity)
	filledQty, errF := decimal.NewFromString(order.ExecutedQuantity)
	price, errP := decimal.NewFromString(order.Price)
	if errO != nil || errF != nil || errP != nil {
		return models.OrderState{}, fmt.Errorf("failed to parse order %s on %s", orderID, market)
	}
	return models.OrderState{
		Status:           binanceStatusToOrderStatus(order.Status),
		OriginalQuantity: originalQty,
		FilledQuantity:   filledQty,
		Price:            price,
		Time:             time.UnixMilli(order.Time),
	}, nil
}

func (c *BinanceClient) CancelOrder(ctx context.Context, orderID, market string) error {
	c.rateLimit()
	if err := c.api.CancelOrder(ctx, toSymbol(market), orderID); err != nil {
		return fmt.Errorf("failed to cancel order %s on %s: %w", orderID, market, err)
	}
	return nil
}
