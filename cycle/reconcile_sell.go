package cycle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// reconcileSellOrders implements §4.10: for every trade with an
// outstanding order and a sell order placed, poll the venue and, on
// Filled, close the trade and credit the owning trader with realized PnL.
func (o *Orchestrator) reconcileSellOrders(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	for i := range ws.activeTrades {
		trade := &ws.activeTrades[i]
		if trade.OpenOrderID == nil || trade.SellOrderID == nil {
			continue
		}

		state, err := o.client.Order(ctx, *trade.SellOrderID, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to fetch sell order status")
			continue
		}
		if state.Status != models.OrderFilled {
			continue
		}

		now := time.Now()
		closeDate := state.Time
		closeRate := state.Price
		trade.IsOpen = false
		trade.IsSelling = false
		trade.OpenOrderID = nil
		trade.CloseDate = &closeDate
		trade.CloseRate = &closeRate

		closeProfit := state.Price.Mul(state.FilledQuantity).Sub(trade.StakeAmount)
		closeProfitPercent := closeProfit.Div(trade.StakeAmount).Mul(decimal.NewFromInt(100))
		trade.CloseProfit = &closeProfit
		trade.CloseProfitPercent = &closeProfitPercent
		ws.batch.PutTrade(*trade)

		if err := o.creditTrader(ws, trade.TraderID, closeProfit, now); err != nil {
			logger.Error().Err(err).Str("trader_id", trade.TraderID).Msg("failed to credit trader after sell fill")
		}

		o.notifier.Success("sell filled for "+trade.Market, map[string]interface{}{
			"market":               trade.Market,
			"close_profit":         closeProfit.String(),
			"close_profit_percent": closeProfitPercent.String(),
		})
	}

	ws.activeTrades = filterOpen(ws.activeTrades)
	return nil
}

// creditTrader applies realized PnL to the owning trader's balance and
// frees the slot, writing it immediately (bypassing the batch) and
// updating the in-memory roster, the same way releaseTrader does.
func (o *Orchestrator) creditTrader(ws *workingSet, traderID string, profit decimal.Decimal, now time.Time) error {
	for i := range ws.traders {
		if ws.traders[i].ID != traderID {
			continue
		}
		ws.traders[i].CurrentBalance = ws.traders[i].CurrentBalance.Add(profit)
		ws.traders[i].IsBusy = false
		ws.traders[i].LastUpdated = now
		return o.traders.Save(ws.traders[i])
	}
	return nil
}
