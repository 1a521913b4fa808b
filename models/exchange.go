package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the state of an order as reported by the exchange.
type OrderStatus string

const (
	OrderOpen            OrderStatus = "open"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCancelled       OrderStatus = "cancelled"
)

// CurrencyPair names the base and quote currency of a market (e.g.
// base="ETH", quote="BTC" for the market "ETH/BTC").
type CurrencyPair struct {
	Base  string
	Quote string
}

// MarketSummary is one row of the exchange's market listing.
type MarketSummary struct {
	MarketName string
	BaseVolume decimal.Decimal
	Pair       CurrencyPair
}

// Ticker is the current best bid/ask/last trade price for a market.
type Ticker struct {
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Last decimal.Decimal
}

// Candle is one OHLCV bar for a market's price history.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// OrderState is the exchange's current view of a previously placed order.
type OrderState struct {
	Status           OrderStatus
	OriginalQuantity decimal.Decimal
	FilledQuantity   decimal.Decimal
	Price            decimal.Decimal
	Time             time.Time
}

// Balance is the available amount of one currency on the venue.
type Balance struct {
	Currency  string
	Available decimal.Decimal
}

// TradeAdvice is the strategy's verdict for one market on one tick.
type TradeAdvice string

const (
	AdviceBuy  TradeAdvice = "buy"
	AdviceHold TradeAdvice = "hold"
	AdviceSell TradeAdvice = "sell"
)

// Forecast is what the strategy port returns for a candle window.
type Forecast struct {
	Advice TradeAdvice
}
