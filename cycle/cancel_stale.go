package cycle

import (
	"context"
	"time"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// cancelStaleBuys implements §4.2: for every trade still buying,
// cancel its outstanding buy order unless the venue reports it
// PartiallyFilled. The owning trader's release is written as an
// immediate single-row update, not into the batch, because the
// free-trader scan later in the same cycle must see it.
func (o *Orchestrator) cancelStaleBuys(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	for i := range ws.activeTrades {
		trade := &ws.activeTrades[i]
		if !trade.IsBuying {
			continue
		}

		state, err := o.client.Order(ctx, *trade.OpenOrderID, trade.Market)
		if err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to fetch buy order status for cancel-stale check")
			continue
		}
		if state.Status == models.OrderPartiallyFilled {
			continue
		}

		if err := o.client.CancelOrder(ctx, *trade.OpenOrderID, trade.Market); err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to cancel stale buy order")
			continue
		}

		now := time.Now()
		trade.IsBuying = false
		trade.IsOpen = false
		trade.SellReason = models.SellCancelled
		trade.CloseDate = &now
		trade.OpenOrderID = nil
		ws.batch.PutTrade(*trade)

		if err := o.releaseTrader(ws, trade.TraderID, now); err != nil {
			logger.Error().Err(err).Str("trader_id", trade.TraderID).Msg("failed to release trader after cancelling stale buy")
		}

		o.notifier.Info("cancelled "+trade.Market+" buy order", map[string]interface{}{"market": trade.Market})
	}

	// Remove newly-closed trades from the in-memory active set so the
	// later free-trader scan and sell checks don't see them.
	ws.activeTrades = filterOpen(ws.activeTrades)
	return nil
}

// releaseTrader marks a trader slot free and persists it immediately
// (bypassing the batch), then updates the in-memory roster so the
// rest of this cycle observes the release right away.
func (o *Orchestrator) releaseTrader(ws *workingSet, traderID string, now time.Time) error {
	for i := range ws.traders {
		if ws.traders[i].ID != traderID {
			continue
		}
		ws.traders[i].IsBusy = false
		ws.traders[i].LastUpdated = now
		return o.traders.Save(ws.traders[i])
	}
	return nil
}

func filterOpen(trades []models.Trade) []models.Trade {
	open := trades[:0]
	for _, t := range trades {
		if t.IsOpen {
			open = append(open, t)
		}
	}
	return open
}
