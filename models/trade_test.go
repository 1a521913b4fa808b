package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTrade() Trade {
	now := time.Now()
	orderID := "buy-1"
	return Trade{
		ID:          NewTradeID(now, "ETHBTC"),
		TraderID:    "trader-1",
		Market:      "ETH/BTC",
		OpenRate:    decimal.NewFromFloat(0.05),
		Quantity:    decimal.NewFromFloat(0.1937),
		BuyOrderID:  &orderID,
		OpenOrderID: &orderID,
		OpenDate:    now,
		IsOpen:      true,
		IsBuying:    true,
		SellReason:  SellNone,
	}
}

func TestNewTradeID_SortsNewestFirst(t *testing.T) {
	earlier := NewTradeID(time.Now(), "a")
	time.Sleep(time.Millisecond)
	later := NewTradeID(time.Now(), "b")
	assert.Less(t, later, earlier, "a trade opened later must sort before an earlier one")
}

func TestTrade_Validate_OpenBuyingIsValid(t *testing.T) {
	tr := openTrade()
	require.NoError(t, tr.Validate())
}

func TestTrade_Validate_OpenMismatchedCloseDate(t *testing.T) {
	tr := openTrade()
	closed := time.Now()
	tr.CloseDate = &closed
	assert.Error(t, tr.Validate())
}

func TestTrade_Validate_BuyingWithoutOpenOrder(t *testing.T) {
	tr := openTrade()
	tr.OpenOrderID = nil
	assert.Error(t, tr.Validate())
}

func TestTrade_Validate_BuyingAndSellingMutuallyExclusive(t *testing.T) {
	tr := openTrade()
	sellID := "sell-1"
	tr.IsSelling = true
	tr.SellOrderID = &sellID
	assert.Error(t, tr.Validate())
}

func TestTrade_Validate_ClosedStrategySellRequiresEconomics(t *testing.T) {
	tr := openTrade()
	tr.IsOpen = false
	tr.IsBuying = false
	closed := time.Now()
	tr.CloseDate = &closed
	tr.SellReason = SellStrategy
	assert.Error(t, tr.Validate(), "strategy sell with nil close_profit must fail validation")

	profit := decimal.NewFromFloat(0.001)
	pct := decimal.NewFromFloat(1.0)
	rate := decimal.NewFromFloat(0.055)
	tr.CloseRate = &rate
	tr.CloseProfit = &profit
	tr.CloseProfitPercent = &pct
	assert.NoError(t, tr.Validate())
}

func TestTrade_Validate_CancelledNeedsNoEconomics(t *testing.T) {
	tr := openTrade()
	tr.IsOpen = false
	tr.IsBuying = false
	closed := time.Now()
	tr.CloseDate = &closed
	tr.SellReason = SellCancelled
	assert.NoError(t, tr.Validate())
}

func TestTrade_HasImmediateSellOutstanding(t *testing.T) {
	tr := openTrade()
	tr.IsBuying = false
	tr.IsSelling = true
	tr.SellReason = SellImmediate
	assert.True(t, tr.HasImmediateSellOutstanding())

	tr.SellReason = SellStrategy
	assert.False(t, tr.HasImmediateSellOutstanding())
}
