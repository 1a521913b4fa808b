package cycle

import (
	"context"
	"time"

	"github.com/alexherrero/tradekeeper/models"
)

// recentCandles fetches the strategy's lookback window of history for
// one market, using the same lookback the scanner uses when ranking
// buy candidates.
func (o *Orchestrator) recentCandles(ctx context.Context, market string) ([]models.Candle, error) {
	since := time.Now().Add(-o.cfg.Scanner.CandleLookback)
	return o.client.TickerHistory(ctx, market, since, o.cfg.Scanner.CandleLookback)
}
