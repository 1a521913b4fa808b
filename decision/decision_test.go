package decision

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/alexherrero/tradekeeper/models"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestShouldSell_StopLossFires(t *testing.T) {
	cfg := Config{StopLossPct: dec(-0.10)}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now()}

	got := ShouldSell(cfg, trade, dec(0.044), time.Now())
	assert.Equal(t, Sell, got.Kind)
	assert.Equal(t, models.SellStopLoss, got.Reason)
}

func TestShouldSell_StopLossPreemptsROIAndTrailing(t *testing.T) {
	cfg := Config{
		StopLossPct:        dec(-0.10),
		ROILadder:          []ROIStep{{DurationMinutes: 0, ProfitThreshold: dec(-1)}},
		EnableTrailingStop: true,
		TrailingStopPct:    dec(0.01),
		TrailingStartPct:   dec(-1),
	}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now().Add(-time.Hour)}

	got := ShouldSell(cfg, trade, dec(0.044), time.Now())
	assert.Equal(t, models.SellStopLoss, got.Reason, "stop loss must win even though the ROI and trailing arms would also fire")
}

func TestShouldSell_ROILadderFirstMatchWins(t *testing.T) {
	cfg := Config{
		StopLossPct: dec(-1),
		ROILadder: []ROIStep{
			{DurationMinutes: 30, ProfitThreshold: dec(0.05)},
			{DurationMinutes: 5, ProfitThreshold: dec(0.01)},
		},
	}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now().Add(-time.Hour)}

	got := ShouldSell(cfg, trade, dec(0.052), time.Now())
	assert.Equal(t, Sell, got.Kind)
	assert.Equal(t, models.SellTimed, got.Reason, "profit 0.04 clears the second rung's 0.01 threshold, not the first rung's 0.05")
}

func TestShouldSell_TrailingStopUpdatesThenTriggers(t *testing.T) {
	cfg := Config{
		StopLossPct:        dec(-1),
		EnableTrailingStop: true,
		TrailingStartPct:   dec(0.02),
		TrailingStopPct:    dec(0.01),
	}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now()}

	first := ShouldSell(cfg, trade, dec(0.054), time.Now())
	assert.Equal(t, UpdateStop, first.Kind)
	assert.True(t, first.StopRate.Equal(dec(0.0535)), "got %s", first.StopRate)

	trade.StopLossRate = &first.StopRate
	second := ShouldSell(cfg, trade, dec(0.053), time.Now())
	assert.Equal(t, Sell, second.Kind)
	assert.Equal(t, models.SellTrailingStopLoss, second.Reason)
}

func TestShouldSell_TrailingStopNeverRatchetsDown(t *testing.T) {
	cfg := Config{
		StopLossPct:        dec(-1),
		EnableTrailingStop: true,
		TrailingStartPct:   dec(0.001),
		TrailingStopPct:    dec(0.02),
	}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now()}
	existingStop := dec(0.05)
	trade.StopLossRate = &existingStop

	// current bid (profit 0.01) sits above the existing stop, so no sell
	// triggers; the computed new_stop (0.0495) sits below the existing
	// stop, so the ratchet must not move backwards either.
	got := ShouldSell(cfg, trade, dec(0.0505), time.Now())
	assert.Equal(t, NoOp, got.Kind)
}

func TestShouldSell_NoOpWhenNothingFires(t *testing.T) {
	cfg := Config{StopLossPct: dec(-1)}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now()}

	got := ShouldSell(cfg, trade, dec(0.0505), time.Now())
	assert.Equal(t, NoOp, got.Kind)
}

func TestShouldSell_IsDeterministic(t *testing.T) {
	cfg := Config{
		StopLossPct:        dec(-0.1),
		EnableTrailingStop: true,
		TrailingStartPct:   dec(0.02),
		TrailingStopPct:    dec(0.01),
	}
	trade := models.Trade{OpenRate: dec(0.05), OpenDate: time.Now()}
	now := time.Now()

	a := ShouldSell(cfg, trade, dec(0.054), now)
	b := ShouldSell(cfg, trade, dec(0.054), now)
	assert.Equal(t, a, b)
}
