package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTrader_StartsIdleAtFullStake(t *testing.T) {
	stake := decimal.NewFromFloat(0.05)
	now := time.Now()
	tr := NewTrader("trader-1", stake, now)

	assert.Equal(t, "trader-1", tr.ID)
	assert.True(t, tr.StakeAmount.Equal(stake))
	assert.True(t, tr.CurrentBalance.Equal(stake))
	assert.False(t, tr.IsBusy)
	assert.Equal(t, now, tr.LastUpdated)
}
