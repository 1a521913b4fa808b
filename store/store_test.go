package store

import (
	"testing"
	"time"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTraderStore_SaveAndFree(t *testing.T) {
	db := openTestDB(t)
	traders := NewTraderStore(db)

	stake := decimal.NewFromFloat(0.05)
	now := time.Now()
	t1 := models.NewTrader("trader-1", stake, now)
	t2 := models.NewTrader("trader-2", stake, now)
	t2.IsBusy = true

	require.NoError(t, traders.Save(t1))
	require.NoError(t, traders.Save(t2))

	count, err := traders.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	free, err := traders.Free()
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, "trader-1", free[0].ID)
}

func TestTradeStore_SaveRejectsInvalidTrade(t *testing.T) {
	db := openTestDB(t)
	trades := NewTradeStore(db)

	bad := models.Trade{
		ID:       models.NewTradeID(time.Now(), "ETHBTC"),
		TraderID: "trader-1",
		Market:   "ETH/BTC",
		IsOpen:   false,
		// CloseDate intentionally left nil: violates the is_open invariant.
	}
	assert.Error(t, trades.Save(bad))
}

func TestTradeStore_OpenByMarketAndOutstandingOrder(t *testing.T) {
	db := openTestDB(t)
	trades := NewTradeStore(db)

	now := time.Now()
	orderID := "buy-1"
	buying := models.Trade{
		ID:          models.NewTradeID(now, "ETHBTC"),
		TraderID:    "trader-1",
		Market:      "ETH/BTC",
		OpenRate:    decimal.NewFromFloat(0.05),
		Quantity:    decimal.NewFromFloat(1),
		BuyOrderID:  &orderID,
		OpenOrderID: &orderID,
		OpenDate:    now,
		IsOpen:      true,
		IsBuying:    true,
	}
	require.NoError(t, trades.Save(buying))

	closedAt := now.Add(time.Hour)
	rate := decimal.NewFromFloat(0.06)
	profit := decimal.NewFromFloat(0.01)
	pct := decimal.NewFromFloat(20)
	settled := models.Trade{
		ID:                 models.NewTradeID(now.Add(-time.Minute), "LTCBTC"),
		TraderID:            "trader-2",
		Market:              "LTC/BTC",
		OpenRate:            decimal.NewFromFloat(0.01),
		Quantity:            decimal.NewFromFloat(2),
		CloseRate:           &rate,
		CloseProfit:         &profit,
		CloseProfitPercent:  &pct,
		OpenDate:            now.Add(-time.Minute),
		CloseDate:           &closedAt,
		IsOpen:              false,
		SellReason:          models.SellStrategy,
	}
	require.NoError(t, trades.Save(settled))

	byMarket, err := trades.OpenByMarket()
	require.NoError(t, err)
	assert.True(t, byMarket["ETH/BTC"])
	assert.False(t, byMarket["LTC/BTC"])

	outstanding, err := trades.WithOutstandingOrder()
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, buying.ID, outstanding[0].ID)

	closed, err := trades.Closed()
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, settled.ID, closed[0].ID)
}

func TestBatch_FlushWritesBothTablesAtomically(t *testing.T) {
	db := openTestDB(t)
	trades := NewTradeStore(db)
	traders := NewTraderStore(db)

	now := time.Now()
	orderID := "buy-1"
	trade := models.Trade{
		ID:          models.NewTradeID(now, "ETHBTC"),
		TraderID:    "trader-1",
		Market:      "ETH/BTC",
		OpenRate:    decimal.NewFromFloat(0.05),
		Quantity:    decimal.NewFromFloat(1),
		BuyOrderID:  &orderID,
		OpenOrderID: &orderID,
		OpenDate:    now,
		IsOpen:      true,
		IsBuying:    true,
	}
	trader := models.NewTrader("trader-1", decimal.NewFromFloat(0.05), now)
	trader.IsBusy = true

	batch := NewBatch()
	assert.True(t, batch.Empty())
	batch.PutTrade(trade)
	batch.PutTrader(trader)
	assert.False(t, batch.Empty())

	require.NoError(t, batch.Flush(db))
	assert.True(t, batch.Empty())

	stored, err := trades.GetByID(trade.ID)
	require.NoError(t, err)
	assert.Equal(t, "ETH/BTC", stored.Market)

	all, err := traders.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsBusy)
}

func TestBatch_FlushRollsBackInvalidTrade(t *testing.T) {
	db := openTestDB(t)
	trades := NewTradeStore(db)

	now := time.Now()
	orderID := "buy-1"
	good := models.Trade{
		ID:          models.NewTradeID(now, "ETHBTC"),
		TraderID:    "trader-1",
		Market:      "ETH/BTC",
		OpenRate:    decimal.NewFromFloat(0.05),
		Quantity:    decimal.NewFromFloat(1),
		BuyOrderID:  &orderID,
		OpenOrderID: &orderID,
		OpenDate:    now,
		IsOpen:      true,
		IsBuying:    true,
	}
	bad := models.Trade{
		ID:       models.NewTradeID(now.Add(-time.Second), "LTCBTC"),
		TraderID: "trader-2",
		Market:   "LTC/BTC",
		IsOpen:   false,
	}

	batch := NewBatch()
	batch.PutTrade(good)
	batch.PutTrade(bad)

	assert.Error(t, batch.Flush(db))

	_, err := trades.GetByID(good.ID)
	assert.Error(t, err, "a rolled-back transaction must not leave the valid row behind either")
}

func TestNotificationStore_SaveAndRecent(t *testing.T) {
	db := openTestDB(t)
	notifications := NewNotificationStore(db)

	n := models.Notification{
		ID:        "note-1",
		Type:      models.NotificationInfo,
		Message:   "cycle completed",
		CreatedAt: time.Now(),
		Metadata:  map[string]interface{}{"cycle": "signals"},
	}
	require.NoError(t, notifications.Save(n))

	recent, err := notifications.Recent(10, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "cycle completed", recent[0].Message)
	assert.Equal(t, "signals", recent[0].Metadata["cycle"])
}
