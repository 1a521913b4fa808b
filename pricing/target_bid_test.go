package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexherrero/tradekeeper/models"
)

func TestTargetBid_AskLastBalance_BuysTheDip(t *testing.T) {
	cfg := Config{Strategy: AskLastBalance, Alpha: decimal.NewFromFloat(0.5)}
	ticker := models.Ticker{Ask: decimal.NewFromFloat(0.05), Last: decimal.NewFromFloat(0.049)}

	bid, err := TargetBid(cfg, ticker)
	require.NoError(t, err)
	assert.True(t, bid.Equal(ticker.Ask), "ask >= last must return ask exactly")
}

func TestTargetBid_AskLastBalance_WeightsBetweenAskAndLast(t *testing.T) {
	cfg := Config{Strategy: AskLastBalance, Alpha: decimal.NewFromFloat(0.5)}
	ticker := models.Ticker{Ask: decimal.NewFromFloat(0.05), Last: decimal.NewFromFloat(0.06)}

	bid, err := TargetBid(cfg, ticker)
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromFloat(0.055)))
	assert.True(t, bid.GreaterThanOrEqual(ticker.Ask))
	assert.True(t, bid.LessThanOrEqual(ticker.Last))
}

func TestTargetBid_AskLastBalance_MatchesSpecWorkedScenario(t *testing.T) {
	cfg := Config{Strategy: AskLastBalance, Alpha: decimal.NewFromFloat(0.5)}
	ticker := models.Ticker{Bid: decimal.NewFromFloat(0.05), Ask: decimal.NewFromFloat(0.051), Last: decimal.NewFromFloat(0.052)}

	bid, err := TargetBid(cfg, ticker)
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromFloat(0.0515)), "got %s", bid)
}

func TestTargetBid_AskLastBalance_AlphaZeroAlwaysPaysAsk(t *testing.T) {
	cfg := Config{Strategy: AskLastBalance, Alpha: decimal.Zero}
	ticker := models.Ticker{Ask: decimal.NewFromFloat(0.05), Last: decimal.NewFromFloat(0.1)}

	bid, err := TargetBid(cfg, ticker)
	require.NoError(t, err)
	assert.True(t, bid.Equal(ticker.Ask))
}

func TestTargetBid_Percentage_DiscountsBidAndRounds(t *testing.T) {
	cfg := Config{Strategy: Percentage, DiscountPercent: decimal.NewFromFloat(0.01)}
	ticker := models.Ticker{Bid: decimal.NewFromFloat(0.123456789)}

	bid, err := TargetBid(cfg, ticker)
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromFloat(0.12222222)), "got %s", bid)
}

func TestTargetBid_UnknownStrategyErrors(t *testing.T) {
	_, err := TargetBid(Config{Strategy: "nonsense"}, models.Ticker{})
	assert.Error(t, err)
}
