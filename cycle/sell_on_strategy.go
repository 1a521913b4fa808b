package cycle

import (
	"context"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// sellOnStrategy implements §4.3: held positions, or positions with an
// outstanding immediate sell the strategy is allowed to pre-empt, are
// offered to the strategy; a Buy... no, a Sell advice closes them out
// at the current bid.
func (o *Orchestrator) sellOnStrategy(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	for i := range ws.activeTrades {
		trade := &ws.activeTrades[i]
		if !eligibleForStrategySell(trade) {
			continue
		}

		candles, err := o.recentCandles(ctx, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to fetch candle history for sell-on-strategy")
			continue
		}

		forecast := o.strategy.Forecast(candles)
		if forecast.Advice != models.AdviceSell {
			continue
		}

		if trade.HasImmediateSellOutstanding() {
			if err := o.client.CancelOrder(ctx, *trade.SellOrderID, trade.Market); err != nil {
				logger.Error().Err(err).Str("market", trade.Market).Msg("failed to cancel immediate sell before strategy sell")
				continue
			}
		}

		ticker, err := o.client.Ticker(ctx, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to quote market for strategy sell")
			continue
		}

		orderID, err := o.client.Sell(ctx, trade.Market, trade.Quantity, ticker.Bid)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to place strategy sell")
			continue
		}

		closeRate := ticker.Bid
		trade.CloseRate = &closeRate
		trade.OpenOrderID = &orderID
		trade.SellOrderID = &orderID
		trade.SellReason = models.SellStrategy
		trade.IsSelling = true
		ws.batch.PutTrade(*trade)

		o.notifier.Info("placed strategy sell for "+trade.Market, map[string]interface{}{
			"market": trade.Market,
			"price":  ticker.Bid.String(),
		})
	}

	return nil
}

// eligibleForStrategySell is §4.3's scope: open positions not mid-buy,
// or positions whose only outstanding order is a pre-emptable
// immediate take-profit sell.
func eligibleForStrategySell(trade *models.Trade) bool {
	if !trade.IsOpen {
		return false
	}
	return !trade.HasOpenOrder() || trade.SellReason == models.SellImmediate
}
