package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/models"
)

// MACrossover buys when the short simple moving average crosses above
// the long one, and sells on the reverse crossover. It is the one
// reference strategy shipped with the engine; everything else lives
// behind the Strategy port.
type MACrossover struct {
	shortPeriod int
	longPeriod  int
	timeframe   string
}

// NewMACrossover builds a crossover strategy. shortPeriod must be
// strictly less than longPeriod.
func NewMACrossover(shortPeriod, longPeriod int, timeframe string) (*MACrossover, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, fmt.Errorf("short_period and long_period must be positive, got %d and %d", shortPeriod, longPeriod)
	}
	if shortPeriod >= longPeriod {
		return nil, fmt.Errorf("short_period (%d) must be less than long_period (%d)", shortPeriod, longPeriod)
	}
	return &MACrossover{shortPeriod: shortPeriod, longPeriod: longPeriod, timeframe: timeframe}, nil
}

func (s *MACrossover) Name() string      { return "ma_crossover" }
func (s *MACrossover) Timeframe() string { return s.timeframe }

// Forecast buys on a bullish crossover, sells on a bearish one, and
// holds otherwise — including whenever there isn't enough history to
// compute both moving averages one bar back.
func (s *MACrossover) Forecast(candles []models.Candle) models.Forecast {
	if len(candles) < s.longPeriod+1 {
		return models.Forecast{Advice: models.AdviceHold}
	}

	currentShort := sma(candles, s.shortPeriod, 0)
	currentLong := sma(candles, s.longPeriod, 0)
	prevShort := sma(candles, s.shortPeriod, 1)
	prevLong := sma(candles, s.longPeriod, 1)

	switch {
	case prevShort.LessThanOrEqual(prevLong) && currentShort.GreaterThan(currentLong):
		return models.Forecast{Advice: models.AdviceBuy}
	case prevShort.GreaterThanOrEqual(prevLong) && currentShort.LessThan(currentLong):
		return models.Forecast{Advice: models.AdviceSell}
	default:
		return models.Forecast{Advice: models.AdviceHold}
	}
}

// sma computes the simple moving average of period candles' closes,
// offset bars back from the end of the slice (0 = most recent).
func sma(candles []models.Candle, period, offset int) decimal.Decimal {
	end := len(candles) - offset
	start := end - period
	sum := decimal.Zero
	for i := start; i < end; i++ {
		sum = sum.Add(candles[i].Close)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
