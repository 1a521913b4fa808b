package cycle

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// reconcileBuyOrders implements §4.7: for every trade with an
// outstanding buy and no sell yet placed, poll the venue and, on
// Filled, replace the trade's provisional economics with the actual
// fill.
func (o *Orchestrator) reconcileBuyOrders(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	for i := range ws.activeTrades {
		trade := &ws.activeTrades[i]
		if trade.OpenOrderID == nil || trade.SellOrderID != nil {
			continue
		}
		if trade.BuyOrderID == nil {
			continue
		}

		state, err := o.client.Order(ctx, *trade.BuyOrderID, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to fetch buy order status")
			continue
		}
		if state.Status != models.OrderFilled {
			continue
		}

		trade.StakeAmount = state.FilledQuantity.Mul(state.Price)
		trade.Quantity = state.FilledQuantity
		trade.OpenRate = state.Price
		trade.OpenDate = state.Time
		trade.IsBuying = false
		trade.OpenOrderID = nil

		if o.cfg.ImmediatelyPlaceSellOrder {
			one := decimal.NewFromInt(1)
			sellPrice := trade.OpenRate.Mul(one.Add(o.cfg.ImmediatelyPlaceSellOrderAtProfit)).Round(8)

			orderID, err := o.client.Sell(ctx, trade.Market, trade.Quantity, sellPrice)
			if err != nil {
				logger.Error().Err(err).Str("market", trade.Market).Msg("failed to place immediate sell after buy fill")
			} else {
				trade.CloseRate = &sellPrice
				trade.OpenOrderID = &orderID
				trade.SellOrderID = &orderID
				trade.IsSelling = true
				trade.SellReason = models.SellImmediate
			}
		}

		ws.batch.PutTrade(*trade)

		o.notifier.Info("buy filled for "+trade.Market, map[string]interface{}{
			"market":    trade.Market,
			"open_rate": trade.OpenRate.String(),
			"quantity":  trade.Quantity.String(),
		})
	}

	return nil
}
