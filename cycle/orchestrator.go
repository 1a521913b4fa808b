// Package cycle implements the two public entry points that drive the
// trade manager: CheckStrategySignals (cancel stale buys, evaluate
// strategy sells, open new buys) and UpdateRunningTrades (reconcile
// fills, evaluate sell conditions). Both load a working set from the
// store, accumulate writes into per-table batches, and flush
// atomically at the end of the cycle.
package cycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexherrero/tradekeeper/exchange"
	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/notifications"
	"github.com/alexherrero/tradekeeper/store"
	"github.com/alexherrero/tradekeeper/strategy"
	"github.com/alexherrero/tradekeeper/tracing"
)

// Orchestrator owns one user's trade loop: one exchange connection,
// one strategy, one store. The two entry points are mutually
// exclusive on a single instance; cross-instance exclusion is an
// operational concern outside this package's scope.
type Orchestrator struct {
	cfg Config

	client   exchange.Client
	strategy strategy.Strategy

	trades  *store.TradeStore
	traders *store.TraderStore
	db      *store.DB

	notifier *notifications.Manager

	mu sync.Mutex
}

// New builds an Orchestrator. Call Bootstrap once before the first
// cycle to seed trader slots on a cold store.
func New(cfg Config, client exchange.Client, strat strategy.Strategy, db *store.DB, notifier *notifications.Manager) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		client:   client,
		strategy: strat,
		trades:   store.NewTradeStore(db),
		traders:  store.NewTraderStore(db),
		db:       db,
		notifier: notifier,
	}
}

// Bootstrap seeds the trader table with MaxConcurrentTrades idle slots
// if it is empty. Idempotent across repeated calls once the table is
// populated; not race-safe across concurrent first boots on separate
// instances (the design assumes single-writer per user, see §5).
func (o *Orchestrator) Bootstrap(now time.Time) error {
	count, err := o.traders.Count()
	if err != nil {
		return fmt.Errorf("failed to check trader table: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i := 0; i < o.cfg.MaxConcurrentTrades; i++ {
		trader := models.NewTrader(fmt.Sprintf("trader-%d", i+1), o.cfg.StakePerTrader, now)
		if err := o.traders.Save(trader); err != nil {
			return fmt.Errorf("failed to bootstrap trader slot %d: %w", i+1, err)
		}
	}
	return nil
}

// workingSet is the in-memory snapshot a cycle operates over.
type workingSet struct {
	activeTrades []models.Trade
	traders      []models.Trader
	batch        *store.Batch
}

func (o *Orchestrator) loadWorkingSet() (*workingSet, error) {
	active, err := o.trades.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to load active trades: %w", err)
	}
	traders, err := o.traders.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load traders: %w", err)
	}
	return &workingSet{activeTrades: active, traders: traders, batch: store.NewBatch()}, nil
}

// CheckStrategySignals is one decision cycle: optionally cancel stale
// buys, check held positions for strategy-driven sells, then scan for
// new buy opportunities and assign them to free traders.
func (o *Orchestrator) CheckStrategySignals(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	traceID := tracing.NewTraceID()
	ctx = tracing.WithTraceID(ctx, traceID)
	logger := tracing.Logger(ctx)

	ws, err := o.loadWorkingSet()
	if err != nil {
		return err
	}

	if o.cfg.CancelUnboughtEachCycle {
		if err := o.cancelStaleBuys(ctx, ws); err != nil {
			logger.Error().Err(err).Msg("cancel stale buys failed")
		}
	}

	if err := o.sellOnStrategy(ctx, ws); err != nil {
		logger.Error().Err(err).Msg("sell-on-strategy failed")
	}

	if err := o.openNewTrades(ctx, ws); err != nil {
		logger.Error().Err(err).Msg("open new trades failed")
	}

	if err := ws.batch.Flush(o.db); err != nil {
		return fmt.Errorf("failed to flush check_strategy_signals batch: %w", err)
	}
	return nil
}

// UpdateRunningTrades is one reconciliation cycle: poll the exchange
// for buy and sell fills, apply them locally, then evaluate sell
// conditions for whatever is still held.
func (o *Orchestrator) UpdateRunningTrades(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	traceID := tracing.NewTraceID()
	ctx = tracing.WithTraceID(ctx, traceID)
	logger := tracing.Logger(ctx)

	ws, err := o.loadWorkingSet()
	if err != nil {
		return err
	}

	if err := o.reconcileBuyOrders(ctx, ws); err != nil {
		logger.Error().Err(err).Msg("buy order reconciliation failed")
	}
	if err := o.reconcileSellOrders(ctx, ws); err != nil {
		logger.Error().Err(err).Msg("sell order reconciliation failed")
	}
	if err := o.checkForSell(ctx, ws); err != nil {
		logger.Error().Err(err).Msg("sell condition check failed")
	}

	if err := ws.batch.Flush(o.db); err != nil {
		return fmt.Errorf("failed to flush update_running_trades batch: %w", err)
	}
	return nil
}

// Shutdown performs a best-effort graceful stop: it waits for any
// cycle already in flight to finish (by taking the same mutex the two
// entry points use), and, if cancelOpenOrders is true, cancels every
// order still outstanding on the venue so nothing is left dangling
// once the process exits. It does not close open positions — that is
// a strategy decision, not an operational one, and spec §5 treats the
// exchange as the source of truth that the next reconciliation will
// catch up with regardless.
func (o *Orchestrator) Shutdown(ctx context.Context, cancelOpenOrders bool) error {
	acquired := make(chan struct{})
	go func() {
		o.mu.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		defer o.mu.Unlock()
	case <-ctx.Done():
		// The lock will still be granted to the goroutine above once
		// whatever cycle is running finishes; hand it straight back so
		// the next cycle isn't blocked forever on a lock nobody here
		// will release.
		go func() {
			<-acquired
			o.mu.Unlock()
		}()
		return fmt.Errorf("shutdown deadline exceeded waiting for in-flight cycle: %w", ctx.Err())
	}

	if !cancelOpenOrders {
		return nil
	}

	logger := tracing.Logger(ctx)
	outstanding, err := o.trades.WithOutstandingOrder()
	if err != nil {
		return fmt.Errorf("failed to list outstanding orders for shutdown: %w", err)
	}

	var firstErr error
	for _, trade := range outstanding {
		if trade.OpenOrderID == nil {
			continue
		}
		if err := o.client.CancelOrder(ctx, *trade.OpenOrderID, trade.Market); err != nil {
			logger.Error().Err(err).Str("market", trade.Market).Msg("failed to cancel order during shutdown")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info().Str("market", trade.Market).Str("order_id", *trade.OpenOrderID).Msg("cancelled outstanding order during shutdown")
	}
	return firstErr
}
