package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexherrero/tradekeeper/models"
)

type fakeClient struct {
	summaries []models.MarketSummary
}

func (f *fakeClient) MarketSummaries(ctx context.Context) ([]models.MarketSummary, error) {
	return f.summaries, nil
}
func (f *fakeClient) Ticker(ctx context.Context, market string) (models.Ticker, error) {
	return models.Ticker{}, nil
}
func (f *fakeClient) TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error) {
	return []models.Candle{{Close: decimal.NewFromFloat(1)}}, nil
}
func (f *fakeClient) Balance(ctx context.Context, currency string) (models.Balance, error) {
	return models.Balance{}, nil
}
func (f *fakeClient) Buy(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	return "", nil
}
func (f *fakeClient) Sell(ctx context.Context, market string, qty, price decimal.Decimal) (string, error) {
	return "", nil
}
func (f *fakeClient) Order(ctx context.Context, orderID, market string) (models.OrderState, error) {
	return models.OrderState{}, nil
}
func (f *fakeClient) CancelOrder(ctx context.Context, orderID, market string) error { return nil }

// alwaysBuy advises Buy for any market with nonempty candle history,
// so the test can isolate the scanner's filtering/ranking logic from
// strategy behavior.
type alwaysBuy struct{}

func (alwaysBuy) Name() string      { return "always-buy" }
func (alwaysBuy) Timeframe() string { return "1h" }
func (alwaysBuy) Forecast(candles []models.Candle) models.Forecast {
	if len(candles) == 0 {
		return models.Forecast{Advice: models.AdviceHold}
	}
	return models.Forecast{Advice: models.AdviceBuy}
}

func TestScan_FiltersByQuoteVolumeBlacklistAndActive(t *testing.T) {
	client := &fakeClient{summaries: []models.MarketSummary{
		{MarketName: "ETH/BTC", BaseVolume: decimal.NewFromFloat(100), Pair: models.CurrencyPair{Base: "ETH", Quote: "BTC"}},
		{MarketName: "LTC/BTC", BaseVolume: decimal.NewFromFloat(5), Pair: models.CurrencyPair{Base: "LTC", Quote: "BTC"}},
		{MarketName: "XRP/BTC", BaseVolume: decimal.NewFromFloat(50), Pair: models.CurrencyPair{Base: "XRP", Quote: "BTC"}},
		{MarketName: "DOGE/BTC", BaseVolume: decimal.NewFromFloat(1000), Pair: models.CurrencyPair{Base: "DOGE", Quote: "BTC"}},
		{MarketName: "ADA/USDT", BaseVolume: decimal.NewFromFloat(1000), Pair: models.CurrencyPair{Base: "ADA", Quote: "USDT"}},
	}}

	cfg := Config{
		QuoteCurrency:  "btc",
		MinimumVolume:  decimal.NewFromFloat(10),
		AlwaysTrade:    []string{"LTC"},
		Blacklist:      []string{"DOGE"},
		CandleLookback: time.Hour,
	}
	active := map[string]bool{"XRP/BTC": true}

	candidates, err := Scan(context.Background(), client, alwaysBuy{}, cfg, active)
	require.NoError(t, err)

	// ETH/BTC passes volume, LTC/BTC passes always-trade despite low
	// volume, XRP/BTC excluded (active), DOGE/BTC excluded (blacklist),
	// ADA/USDT excluded (wrong quote currency). Remaining order must be
	// descending volume: ETH (100) before LTC (5).
	assert.Equal(t, []string{"ETH/BTC", "LTC/BTC"}, candidates)
}

func TestScan_StrategyErrorIsSwallowedAsHold(t *testing.T) {
	client := &erroringHistoryClient{fakeClient: fakeClient{summaries: []models.MarketSummary{
		{MarketName: "ETH/BTC", BaseVolume: decimal.NewFromFloat(100), Pair: models.CurrencyPair{Base: "ETH", Quote: "BTC"}},
	}}}
	cfg := Config{QuoteCurrency: "BTC", MinimumVolume: decimal.Zero, CandleLookback: time.Hour}

	candidates, err := Scan(context.Background(), client, alwaysBuy{}, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates, "a per-market history fetch error must be swallowed as no-signal, not fail the whole scan")
}

type erroringHistoryClient struct {
	fakeClient
}

func (e *erroringHistoryClient) TickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]models.Candle, error) {
	return nil, assert.AnError
}
