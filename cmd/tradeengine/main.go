// Command tradeengine wires the trade manager's core (cycle, decision,
// scanner, pricing) to concrete ports (exchange, store, notifications)
// and a small control-plane HTTP surface, then drives the two public
// entry points on independent tickers until told to stop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/api"
	"github.com/alexherrero/tradekeeper/config"
	"github.com/alexherrero/tradekeeper/cycle"
	"github.com/alexherrero/tradekeeper/exchange"
	"github.com/alexherrero/tradekeeper/notifications"
	"github.com/alexherrero/tradekeeper/realtime"
	"github.com/alexherrero/tradekeeper/store"
	"github.com/alexherrero/tradekeeper/strategy"
	"github.com/alexherrero/tradekeeper/tracing"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDryRunning {
		log.Info().Msg("dry-run mode: orders simulate instantly against live market data")
	} else {
		log.Warn().Msg("live trading mode: real orders will be placed")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open trade store")
	}
	defer db.Close()

	wsManager := realtime.NewWebSocketManager()
	go wsManager.Run()

	notifier := notifications.NewManager(store.NewNotificationStore(db), wsManager)

	client, err := buildExchangeClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build exchange client")
	}

	strat, err := buildStrategy(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build strategy")
	}

	orchestrator := cycle.New(cfg.ToCycleConfig(), client, strat, db, notifier)
	if err := orchestrator.Bootstrap(time.Now()); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap trader slots")
	}

	router := api.NewRouter(orchestrator, notifier, cfg, wsManager)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("control-plane API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("control-plane API failed")
		}
	}()

	runCtx, cancelRun := context.WithCancel(context.Background())
	runLoops(runCtx, cfg, orchestrator)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")
	cancelRun()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := orchestrator.Shutdown(shutdownCtx, !cfg.IsDryRunning); err != nil {
		log.Error().Err(err).Msg("orchestrator shutdown reported an error")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("control-plane API forced to shutdown")
	}

	log.Info().Msg("trade engine exited cleanly")
}

// runLoops starts the two cycle entry points on independent tickers,
// per spec §2: reconciliation typically runs more frequently than
// signal evaluation, and the two must never interleave — Orchestrator
// enforces that with its own mutex, so the tickers can run as
// completely independent goroutines here.
func runLoops(ctx context.Context, cfg *config.Config, orchestrator *cycle.Orchestrator) {
	go tickLoop(ctx, "check_strategy_signals", cfg.SignalsInterval, orchestrator.CheckStrategySignals)
	go tickLoop(ctx, "update_running_trades", cfg.ReconcileInterval, orchestrator.UpdateRunningTrades)
}

func tickLoop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				tracing.Logger(ctx).Error().Err(err).Str("cycle", name).Msg("cycle failed; next tick will retry from persisted state")
			}
		}
	}
}

// buildExchangeClient wires the live Binance client, wrapped in a
// dry-run simulator when is_dry_running is configured.
func buildExchangeClient(cfg *config.Config) (exchange.Client, error) {
	live := exchange.NewBinanceClient(cfg.BinanceAPIKey, cfg.BinanceAPISecret)
	if !cfg.IsDryRunning {
		return live, nil
	}
	startingBalances := map[string]decimal.Decimal{
		cfg.QuoteCurrency: cfg.StakePerTrader.Mul(decimal.NewFromInt(int64(cfg.MaxConcurrentTrades))),
	}
	return exchange.NewDryRunClient(live, startingBalances), nil
}

// buildStrategy resolves the configured strategy name against the
// one reference strategy shipped with the engine. Additional
// strategies plug in here the same way.
func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	registry := strategy.NewRegistry()
	ma, err := strategy.NewMACrossover(10, 20, "1h")
	if err != nil {
		return nil, fmt.Errorf("failed to build ma_crossover strategy: %w", err)
	}
	if err := registry.Register(ma); err != nil {
		return nil, err
	}

	strat, ok := registry.Get(cfg.StrategyName)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q; registered: %v", cfg.StrategyName, registry.Names())
	}
	return strat, nil
}
