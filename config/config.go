// Package config loads the trade manager's configuration from
// environment variables and .env files, the way the teacher engine
// does, then translates it into the semantic config structs each
// domain package (scanner, pricing, decision, cycle) actually wants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/cycle"
	"github.com/alexherrero/tradekeeper/decision"
	"github.com/alexherrero/tradekeeper/pricing"
	"github.com/alexherrero/tradekeeper/scanner"
)

// validLogLevels is the set of accepted zerolog log levels.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true,
	"panic": true, "disabled": true,
}

var validPricingStrategies = map[pricing.StrategyName]bool{
	pricing.AskLastBalance: true,
	pricing.Percentage:     true,
}

// ValidationError aggregates every configuration problem found so an
// operator can fix them all in one pass instead of one per restart.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration error(s):\n  - %s",
		len(ve.Errors), strings.Join(ve.Errors, "\n  - "))
}

// ROIStep is one configured rung of the return_on_investment ladder,
// parsed from "duration_minutes:profit_threshold" pairs.
type ROIStep struct {
	DurationMinutes int
	ProfitThreshold decimal.Decimal
}

// Config holds every setting the trade manager needs, loaded from the
// environment. mu protects the fields Reload can change in place.
type Config struct {
	mu sync.RWMutex

	// Server settings for the control-plane API.
	ServerPort int
	ServerHost string
	APIKey     string

	LogLevel     string
	DatabasePath string

	BinanceAPIKey    string
	BinanceAPISecret string
	UseBinanceUS     bool

	IsDryRunning bool

	MaxConcurrentTrades int
	StakePerTrader      decimal.Decimal
	FeePercentage       decimal.Decimal

	QuoteCurrency           string
	MinimumVolume           decimal.Decimal
	AlwaysTradeList         []string
	MarketBlacklist         []string
	CancelUnboughtEachCycle bool
	CandleLookback          time.Duration

	BuyInPriceStrategy  pricing.StrategyName
	AskLastBalanceAlpha decimal.Decimal
	BuyInPricePercent   decimal.Decimal

	ImmediatelyPlaceSellOrder         bool
	ImmediatelyPlaceSellOrderAtProfit decimal.Decimal

	StopLossPercentage        decimal.Decimal
	ReturnOnInvestment        []ROIStep
	EnableTrailingStop        bool
	TrailingStopPercentage    decimal.Decimal
	TrailingStopStartingPct   decimal.Decimal
	StrategyName              string

	// SignalsInterval and ReconcileInterval set the cadence of the two
	// public entry points when main.go drives them on a ticker; spec
	// §2 expects reconciliation to run more frequently than signals.
	SignalsInterval   time.Duration
	ReconcileInterval time.Duration

	EnvFile string
}

// Load reads configuration from the environment (and .env, if
// present) and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	roi, err := parseROILadder(getEnv("RETURN_ON_INVESTMENT", "30:0.02,15:0.015,5:0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETURN_ON_INVESTMENT: %w", err)
	}

	cfg := &Config{
		ServerPort:   getEnvInt("PORT", 8099),
		ServerHost:   getEnv("HOST", "0.0.0.0"),
		APIKey:       os.Getenv("API_KEY"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/tradekeeper.db"),

		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
		UseBinanceUS:     getEnv("BINANCE_USE_US", "true") == "true",

		IsDryRunning: getEnv("IS_DRY_RUNNING", "true") == "true",

		MaxConcurrentTrades: getEnvInt("MAX_CONCURRENT_TRADES", 3),
		StakePerTrader:      getEnvDecimal("STAKE_PER_TRADER", decimal.NewFromFloat(0.01)),
		FeePercentage:       getEnvDecimal("FEE_PERCENTAGE", decimal.NewFromFloat(0.0025)),

		QuoteCurrency:           getEnv("QUOTE_CURRENCY", "BTC"),
		MinimumVolume:           getEnvDecimal("MINIMUM_VOLUME", decimal.NewFromInt(50)),
		AlwaysTradeList:         parseList(getEnv("ALWAYS_TRADE_LIST", "")),
		MarketBlacklist:         parseList(getEnv("MARKET_BLACKLIST", "")),
		CancelUnboughtEachCycle: getEnv("CANCEL_UNBOUGHT_EACH_CYCLE", "true") == "true",
		CandleLookback:          getEnvDuration("CANDLE_LOOKBACK", 48*time.Hour),

		BuyInPriceStrategy:  pricing.StrategyName(getEnv("BUY_IN_PRICE_STRATEGY", string(pricing.AskLastBalance))),
		AskLastBalanceAlpha: getEnvDecimal("ASK_LAST_BALANCE", decimal.NewFromFloat(0.5)),
		BuyInPricePercent:   getEnvDecimal("BUY_IN_PRICE_PERCENTAGE", decimal.NewFromFloat(0.01)),

		ImmediatelyPlaceSellOrder:         getEnv("IMMEDIATELY_PLACE_SELL_ORDER", "false") == "true",
		ImmediatelyPlaceSellOrderAtProfit: getEnvDecimal("IMMEDIATELY_PLACE_SELL_ORDER_AT_PROFIT", decimal.NewFromFloat(0.03)),

		StopLossPercentage:      getEnvDecimal("STOP_LOSS_PERCENTAGE", decimal.NewFromFloat(-0.10)),
		ReturnOnInvestment:      roi,
		EnableTrailingStop:      getEnv("ENABLE_TRAILING_STOP", "true") == "true",
		TrailingStopPercentage:  getEnvDecimal("TRAILING_STOP_PERCENTAGE", decimal.NewFromFloat(0.02)),
		TrailingStopStartingPct: getEnvDecimal("TRAILING_STOP_STARTING_PERCENTAGE", decimal.NewFromFloat(0.02)),

		StrategyName: getEnv("STRATEGY", "ma_crossover"),

		SignalsInterval:   getEnvDuration("SIGNALS_INTERVAL", 5*time.Minute),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 30*time.Second),

		EnvFile: ".env",
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every setting's shape and aggregates every problem
// found, fail-fast per field but exhaustive across fields.
func (c *Config) Validate() error {
	var errs []string

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", c.ServerPort))
	}
	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH is empty: set DATABASE_PATH in .env")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}
	if c.MaxConcurrentTrades < 1 {
		errs = append(errs, "MAX_CONCURRENT_TRADES must be >= 1")
	}
	if c.StakePerTrader.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "STAKE_PER_TRADER must be positive")
	}
	if !validPricingStrategies[c.BuyInPriceStrategy] {
		errs = append(errs, fmt.Sprintf("invalid BUY_IN_PRICE_STRATEGY '%s': must be ask_last_balance or percentage", c.BuyInPriceStrategy))
	}
	if c.QuoteCurrency == "" {
		errs = append(errs, "QUOTE_CURRENCY is empty")
	}
	if c.SignalsInterval <= 0 {
		errs = append(errs, "SIGNALS_INTERVAL must be positive")
	}
	if c.ReconcileInterval <= 0 {
		errs = append(errs, "RECONCILE_INTERVAL must be positive")
	}
	if !c.IsDryRunning {
		if c.BinanceAPIKey == "" {
			errs = append(errs, "live trading requires BINANCE_API_KEY")
		}
		if c.BinanceAPISecret == "" {
			errs = append(errs, "live trading requires BINANCE_API_SECRET")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ToScannerConfig translates this config into the buy-opportunity
// scanner's parameters.
func (c *Config) ToScannerConfig() scanner.Config {
	return scanner.Config{
		QuoteCurrency:  c.QuoteCurrency,
		MinimumVolume:  c.MinimumVolume,
		AlwaysTrade:    c.AlwaysTradeList,
		Blacklist:      c.MarketBlacklist,
		CandleLookback: c.CandleLookback,
	}
}

// ToPricingConfig translates this config into the target-bid pricing
// parameters.
func (c *Config) ToPricingConfig() pricing.Config {
	return pricing.Config{
		Strategy:        c.BuyInPriceStrategy,
		Alpha:           c.AskLastBalanceAlpha,
		DiscountPercent: c.BuyInPricePercent,
	}
}

// ToDecisionConfig translates this config into the sell-decision
// engine's parameters.
func (c *Config) ToDecisionConfig() decision.Config {
	steps := make([]decision.ROIStep, len(c.ReturnOnInvestment))
	for i, s := range c.ReturnOnInvestment {
		steps[i] = decision.ROIStep{DurationMinutes: s.DurationMinutes, ProfitThreshold: s.ProfitThreshold}
	}
	return decision.Config{
		StopLossPct:        c.StopLossPercentage,
		ROILadder:          steps,
		EnableTrailingStop: c.EnableTrailingStop,
		TrailingStopPct:    c.TrailingStopPercentage,
		TrailingStartPct:   c.TrailingStopStartingPct,
	}
}

// ToCycleConfig assembles the complete orchestrator configuration.
func (c *Config) ToCycleConfig() cycle.Config {
	return cycle.Config{
		MaxConcurrentTrades:               c.MaxConcurrentTrades,
		StakePerTrader:                    c.StakePerTrader,
		FeePercentage:                     c.FeePercentage,
		Scanner:                           c.ToScannerConfig(),
		Pricing:                           c.ToPricingConfig(),
		Sell:                              c.ToDecisionConfig(),
		CancelUnboughtEachCycle:           c.CancelUnboughtEachCycle,
		ImmediatelyPlaceSellOrder:         c.ImmediatelyPlaceSellOrder,
		ImmediatelyPlaceSellOrderAtProfit: c.ImmediatelyPlaceSellOrderAtProfit,
		IsDryRunning:                      c.IsDryRunning,
	}
}

// Reload re-reads hot-reloadable settings from the environment. Fields
// that shape which goroutines/connections exist at startup (server
// port/host, database path, dry-run mode) are reported but not
// applied; the caller must restart the process for those. Applied
// values change this Config only: an orchestrator keeps the
// cycle.Config it was built with, so of the applied fields only
// LOG_LEVEL (set globally on zerolog) affects a running engine.
func (c *Config) Reload() (applied []string, restartRequired []string, err error) {
	envFile := c.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Overload(envFile)

	fresh, loadErr := Load()
	if loadErr != nil {
		return nil, nil, fmt.Errorf("reloaded config is invalid: %w", loadErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ServerPort != fresh.ServerPort {
		restartRequired = append(restartRequired, "PORT")
	}
	if c.ServerHost != fresh.ServerHost {
		restartRequired = append(restartRequired, "HOST")
	}
	if c.DatabasePath != fresh.DatabasePath {
		restartRequired = append(restartRequired, "DATABASE_PATH")
	}
	if c.IsDryRunning != fresh.IsDryRunning {
		restartRequired = append(restartRequired, "IS_DRY_RUNNING")
	}

	if c.LogLevel != fresh.LogLevel {
		c.LogLevel = fresh.LogLevel
		if lvl, parseErr := zerolog.ParseLevel(fresh.LogLevel); parseErr == nil {
			zerolog.SetGlobalLevel(lvl)
		}
		applied = append(applied, "LOG_LEVEL")
	}
	if !c.StopLossPercentage.Equal(fresh.StopLossPercentage) {
		c.StopLossPercentage = fresh.StopLossPercentage
		applied = append(applied, "STOP_LOSS_PERCENTAGE")
	}
	if c.EnableTrailingStop != fresh.EnableTrailingStop {
		c.EnableTrailingStop = fresh.EnableTrailingStop
		applied = append(applied, "ENABLE_TRAILING_STOP")
	}
	if !c.TrailingStopPercentage.Equal(fresh.TrailingStopPercentage) {
		c.TrailingStopPercentage = fresh.TrailingStopPercentage
		applied = append(applied, "TRAILING_STOP_PERCENTAGE")
	}
	if !stringSlicesEqual(c.MarketBlacklist, fresh.MarketBlacklist) {
		c.MarketBlacklist = fresh.MarketBlacklist
		applied = append(applied, "MARKET_BLACKLIST")
	}
	if !stringSlicesEqual(c.AlwaysTradeList, fresh.AlwaysTradeList) {
		c.AlwaysTradeList = fresh.AlwaysTradeList
		applied = append(applied, "ALWAYS_TRADE_LIST")
	}

	log.Info().Strs("applied", applied).Strs("restart_required", restartRequired).Msg("configuration reloaded")
	return applied, restartRequired, nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseROILadder parses "duration:threshold,duration:threshold,..."
// into ordered ROIStep rungs; order is preserved since the first
// matching rung wins (spec §4.8).
func parseROILadder(s string) ([]ROIStep, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	steps := make([]ROIStep, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed rung %q: want duration:threshold", p)
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed duration in rung %q: %w", p, err)
		}
		threshold, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("malformed threshold in rung %q: %w", p, err)
		}
		steps = append(steps, ROIStep{DurationMinutes: minutes, ProfitThreshold: threshold})
	}
	return steps, nil
}
