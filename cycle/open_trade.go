package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/pricing"
	"github.com/alexherrero/tradekeeper/scanner"
	"github.com/alexherrero/tradekeeper/tracing"
)

// insufficientFundsError marks a trader assignment that failed because
// the venue balance can't cover its stake. Spec §4.5/§7 treat this as
// fatal for the assignment loop, not merely for the one assignment:
// every remaining candidate in the cycle is skipped rather than tried
// against a balance that's already known to be short.
type insufficientFundsError struct {
	err error
}

func (e *insufficientFundsError) Error() string { return e.err.Error() }
func (e *insufficientFundsError) Unwrap() error { return e.err }

// openNewTrades implements §4.4 and §4.5: scan for buy candidates,
// then assign as many as there are free traders, one assignment per
// pairing, in the scanner's ranked order.
func (o *Orchestrator) openNewTrades(ctx context.Context, ws *workingSet) error {
	logger := tracing.Logger(ctx)

	free := make([]models.Trader, 0, len(ws.traders))
	for _, t := range ws.traders {
		if !t.IsBusy {
			free = append(free, t)
		}
	}
	if len(free) == 0 {
		return nil
	}

	active := make(map[string]bool, len(ws.activeTrades))
	for _, t := range ws.activeTrades {
		active[t.Market] = true
	}

	candidates, err := scanner.Scan(ctx, o.client, o.strategy, o.cfg.Scanner, active)
	if err != nil {
		return fmt.Errorf("buy-opportunity scan failed: %w", err)
	}

	n := len(free)
	if len(candidates) < n {
		n = len(candidates)
	}

	for i := 0; i < n; i++ {
		if err := o.openTrade(ctx, ws, free[i], candidates[i]); err != nil {
			var insufficient *insufficientFundsError
			if errors.As(err, &insufficient) {
				logger.Error().Err(err).Str("market", candidates[i]).Str("trader_id", free[i].ID).
					Msg("insufficient funds, skipping remaining assignments this cycle")
				break
			}
			logger.Error().Err(err).Str("market", candidates[i]).Str("trader_id", free[i].ID).Msg("failed to open new trade")
		}
	}
	return nil
}

// openTrade implements §4.5 for one trader/market assignment.
func (o *Orchestrator) openTrade(ctx context.Context, ws *workingSet, trader models.Trader, market string) error {
	available, err := o.client.Balance(ctx, o.cfg.Scanner.QuoteCurrency)
	if err != nil {
		return fmt.Errorf("failed to fetch quote balance: %w", err)
	}
	if available.Available.LessThan(trader.CurrentBalance) {
		return &insufficientFundsError{err: fmt.Errorf("insufficient %s balance for trader %s: have %s, need %s",
			o.cfg.Scanner.QuoteCurrency, trader.ID, available.Available.String(), trader.CurrentBalance.String())}
	}

	spend := trader.CurrentBalance
	if o.cfg.StakePerTrader.LessThan(spend) {
		spend = o.cfg.StakePerTrader
	}

	ticker, err := o.client.Ticker(ctx, market)
	if err != nil {
		return fmt.Errorf("failed to quote market: %w", err)
	}
	openRate, err := pricing.TargetBid(o.cfg.Pricing, ticker)
	if err != nil {
		return fmt.Errorf("failed to compute target bid: %w", err)
	}

	grossQuantity := spend.Div(openRate)
	one := decimal.NewFromInt(1)
	netQuantity := spend.Mul(one.Sub(o.cfg.FeePercentage)).Div(openRate)

	orderID, err := o.client.Buy(ctx, market, grossQuantity, openRate)
	if err != nil {
		return fmt.Errorf("failed to place buy order: %w", err)
	}

	o.notifier.Info("placed buy order for "+market, map[string]interface{}{
		"market": market,
		"price":  openRate.String(),
		"bid":    ticker.Bid.String(),
		"ask":    ticker.Ask.String(),
	})

	now := time.Now()
	trade := models.Trade{
		ID:           models.NewTradeID(now, market),
		TraderID:     trader.ID,
		Market:       market,
		StakeAmount:  spend,
		OpenRate:     openRate,
		Quantity:     netQuantity,
		BuyOrderID:   &orderID,
		OpenOrderID:  &orderID,
		OpenDate:     now,
		IsOpen:       true,
		IsBuying:     true,
		SellReason:   models.SellNone,
		StrategyUsed: o.strategy.Name(),
	}
	ws.batch.PutTrade(trade)
	ws.activeTrades = append(ws.activeTrades, trade)

	for i := range ws.traders {
		if ws.traders[i].ID != trader.ID {
			continue
		}
		ws.traders[i].IsBusy = true
		ws.traders[i].LastUpdated = now
		ws.batch.PutTrader(ws.traders[i])
		break
	}

	return nil
}
