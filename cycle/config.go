package cycle

import (
	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/decision"
	"github.com/alexherrero/tradekeeper/pricing"
	"github.com/alexherrero/tradekeeper/scanner"
)

// Config gathers every semantic configuration key the cycle
// orchestrator needs, translated from the loaded settings by the
// config package before being handed to New.
type Config struct {
	MaxConcurrentTrades int
	StakePerTrader      decimal.Decimal
	FeePercentage       decimal.Decimal

	Scanner scanner.Config
	Pricing pricing.Config
	Sell    decision.Config

	CancelUnboughtEachCycle bool

	ImmediatelyPlaceSellOrder         bool
	ImmediatelyPlaceSellOrderAtProfit decimal.Decimal

	// IsDryRunning is recorded for observability only; the
	// orchestrator is identical either way, the distinction lives
	// entirely in which exchange.Client was wired at startup.
	IsDryRunning bool
}
