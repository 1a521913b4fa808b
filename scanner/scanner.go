// Package scanner implements the buy-opportunity scan: filter the
// venue's market listing down to a ranked set of candidates the
// strategy is willing to buy.
package scanner

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexherrero/tradekeeper/exchange"
	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/strategy"
)

// Config parameterizes the scan.
type Config struct {
	// QuoteCurrency is the configured base currency markets must be
	// quoted in, e.g. "BTC". Compared case-insensitively.
	QuoteCurrency string
	MinimumVolume decimal.Decimal
	// AlwaysTrade lists base currencies exempt from the volume filter.
	AlwaysTrade []string
	// Blacklist lists base currencies never considered, regardless of
	// volume.
	Blacklist []string
	// CandleLookback is how far back to fetch candle history when
	// asking the strategy for advice.
	CandleLookback time.Duration
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// Scan returns candidate market names in descending base-volume order,
// restricted to markets the strategy advises buying. activeMarkets
// excludes markets already holding an open trade.
func Scan(ctx context.Context, client exchange.Client, strat strategy.Strategy, cfg Config, activeMarkets map[string]bool) ([]string, error) {
	summaries, err := client.MarketSummaries(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.MarketSummary, 0, len(summaries))
	for _, s := range summaries {
		if !strings.EqualFold(s.Pair.Quote, cfg.QuoteCurrency) {
			continue
		}
		meetsVolume := s.BaseVolume.GreaterThanOrEqual(cfg.MinimumVolume)
		alwaysTrade := containsFold(cfg.AlwaysTrade, s.Pair.Base)
		if !meetsVolume && !alwaysTrade {
			continue
		}
		if activeMarkets[s.MarketName] {
			continue
		}
		if containsFold(cfg.Blacklist, s.Pair.Base) {
			continue
		}
		eligible = append(eligible, s)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].BaseVolume.GreaterThan(eligible[j].BaseVolume)
	})

	return evaluateInOrder(ctx, client, strat, eligible, cfg.CandleLookback)
}

// evaluateInOrder queries the strategy for each market concurrently,
// since a candle-history fetch plus forecast is the expensive part,
// but merges the Buy results back in the caller's descending-volume
// order — concurrent evaluation must never reorder the ranked list.
func evaluateInOrder(ctx context.Context, client exchange.Client, strat strategy.Strategy, markets []models.MarketSummary, lookback time.Duration) ([]string, error) {
	advice := make([]models.TradeAdvice, len(markets))
	since := time.Now().Add(-lookback)

	var wg sync.WaitGroup
	for i, m := range markets {
		wg.Add(1)
		go func(i int, market string) {
			defer wg.Done()
			candles, err := client.TickerHistory(ctx, market, since, lookback)
			if err != nil {
				// Strategy evaluation error is swallowed per market per
				// spec §7; treated as no signal.
				advice[i] = models.AdviceHold
				return
			}
			advice[i] = strat.Forecast(candles).Advice
		}(i, m.MarketName)
	}
	wg.Wait()

	candidates := make([]string, 0, len(markets))
	for i, m := range markets {
		if advice[i] == models.AdviceBuy {
			candidates = append(candidates, m.MarketName)
		}
	}
	return candidates, nil
}
