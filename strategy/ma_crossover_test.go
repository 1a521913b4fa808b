package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexherrero/tradekeeper/models"
)

func closesToCandles(closes []float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: time.Now().Add(time.Duration(i) * time.Hour),
			Close:     decimal.NewFromFloat(c),
		}
	}
	return candles
}

func TestNewMACrossover_RejectsBadPeriods(t *testing.T) {
	_, err := NewMACrossover(0, 10, "1h")
	assert.Error(t, err)

	_, err = NewMACrossover(10, 10, "1h")
	assert.Error(t, err)
}

func TestMACrossover_HoldsOnInsufficientHistory(t *testing.T) {
	s, err := NewMACrossover(2, 4, "1h")
	require.NoError(t, err)

	forecast := s.Forecast(closesToCandles([]float64{1, 2, 3}))
	assert.Equal(t, models.AdviceHold, forecast.Advice)
}

func TestMACrossover_DetectsBullishCrossover(t *testing.T) {
	s, err := NewMACrossover(2, 3, "1h")
	require.NoError(t, err)

	// short(2)=avg(last 2), long(3)=avg(last 3). Construct a sequence
	// where short sits below long one bar back, then rises above it.
	closes := []float64{10, 10, 10, 9, 15}
	forecast := s.Forecast(closesToCandles(closes))
	assert.Equal(t, models.AdviceBuy, forecast.Advice)
}

func TestMACrossover_DetectsBearishCrossover(t *testing.T) {
	s, err := NewMACrossover(2, 3, "1h")
	require.NoError(t, err)

	closes := []float64{10, 10, 10, 11, 1}
	forecast := s.Forecast(closesToCandles(closes))
	assert.Equal(t, models.AdviceSell, forecast.Advice)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	s, err := NewMACrossover(2, 3, "1h")
	require.NoError(t, err)

	require.NoError(t, r.Register(s))
	assert.Error(t, r.Register(s), "registering the same name twice must fail")

	got, ok := r.Get("ma_crossover")
	require.True(t, ok)
	assert.Equal(t, s, got)

	assert.Equal(t, []string{"ma_crossover"}, r.Names())
}
