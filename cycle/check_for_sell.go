package cycle

import (
	"context"
	"time"

	"github.com/alexherrero/tradekeeper/decision"
	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// checkForSell implements §4.9: for every trade in §4.3's scope,
// evaluate the sell-decision engine against the current bid and act
// on its verdict.
func (o *Orchestrator) checkForSell(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	for i := range ws.activeTrades {
		trade := &ws.activeTrades[i]
		if !eligibleForStrategySell(trade) {
			continue
		}

		ticker, err := o.client.Ticker(ctx, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to quote market for sell check")
			continue
		}

		d := decision.ShouldSell(o.cfg.Sell, *trade, ticker.Bid, time.Now())

		switch d.Kind {
		case decision.NoOp:
			continue

		case decision.UpdateStop:
			stopRate := d.StopRate
			trade.StopLossRate = &stopRate
			trade.SellReason = models.SellTrailingStopLossUpdate
			ws.batch.PutTrade(*trade)

		case decision.Sell:
			if trade.HasImmediateSellOutstanding() {
				if err := o.client.CancelOrder(ctx, *trade.SellOrderID, trade.Market); err != nil {
					logger.Error().Err(err).Str("market", trade.Market).Msg("failed to cancel immediate sell before stop/roi sell")
					continue
				}
			}

			orderID, err := o.client.Sell(ctx, trade.Market, trade.Quantity, ticker.Bid)
			if err != nil {
				logger.Error().Err(err).Str("market", trade.Market).Msg("failed to place stop/roi sell")
				continue
			}

			closeRate := ticker.Bid
			trade.CloseRate = &closeRate
			trade.OpenOrderID = &orderID
			trade.SellOrderID = &orderID
			trade.SellReason = d.Reason
			trade.IsSelling = true
			ws.batch.PutTrade(*trade)

			o.notifier.Info("placed "+string(d.Reason)+" sell for "+trade.Market, map[string]interface{}{
				"market": trade.Market,
				"price":  ticker.Bid.String(),
			})
		}
	}

	return nil
}
