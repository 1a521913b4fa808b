package cycle

import (
	"context"
	"fmt"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/tracing"
)

// ForceSell places an immediate sell for one trade at the operator's
// request, outside the normal cycle cadence. It takes the same mutex
// the two entry points use so it can never race a CheckStrategySignals
// or UpdateRunningTrades call over the same trade, and it writes the
// result straight to the store rather than through a Batch: unlike a
// cycle, there is no larger set of rows to flush atomically alongside it.
func (o *Orchestrator) ForceSell(ctx context.Context, tradeID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	logger := tracing.Logger(ctx)

	trade, err := o.trades.GetByID(tradeID)
	if err != nil {
		return fmt.Errorf("failed to load trade %s: %w", tradeID, err)
	}
	if !trade.IsOpen {
		return fmt.Errorf("trade %s is already closed", tradeID)
	}
	if trade.IsSelling {
		return fmt.Errorf("trade %s already has a sell order outstanding", tradeID)
	}
	if trade.IsBuying {
		return fmt.Errorf("trade %s has not finished buying yet", tradeID)
	}

	ticker, err := o.client.Ticker(ctx, trade.Market)
	if err != nil {
		return fmt.Errorf("failed to quote %s for forced sell: %w", trade.Market, err)
	}

	orderID, err := o.client.Sell(ctx, trade.Market, trade.Quantity, ticker.Bid)
	if err != nil {
		return fmt.Errorf("failed to place forced sell for %s: %w", trade.Market, err)
	}

	closeRate := ticker.Bid
	trade.CloseRate = &closeRate
	trade.OpenOrderID = &orderID
	trade.SellOrderID = &orderID
	trade.SellReason = models.SellForced
	trade.IsSelling = true

	if err := o.trades.Save(*trade); err != nil {
		return fmt.Errorf("failed to persist forced sell for trade %s: %w", tradeID, err)
	}

	logger.Warn().Str("market", trade.Market).Str("trade_id", tradeID).Msg("operator forced sell")
	o.notifier.Warning("operator forced sell for "+trade.Market, map[string]interface{}{
		"trade_id": tradeID,
		"market":   trade.Market,
		"price":    ticker.Bid.String(),
	})
	return nil
}
