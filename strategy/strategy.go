// Package strategy defines the advice port the scanner and the
// running-trade sell check consume, plus a registry and one reference
// implementation.
package strategy

import (
	"fmt"

	"github.com/alexherrero/tradekeeper/models"
)

// Strategy turns a candle window into a trade advice. Implementations
// must be side-effect free: the core calls them from concurrent
// per-market goroutines during a scan.
type Strategy interface {
	// Name is the strategy's unique identifier, used to select it by
	// the configured strategy name and persisted on each trade as
	// strategy_used.
	Name() string

	// Timeframe is the candle period the strategy wants, e.g. 1h.
	Timeframe() string

	// Forecast returns the advice for the given candle window, oldest
	// candle first.
	Forecast(candles []models.Candle) models.Forecast
}

// Registry holds every strategy the engine can be configured to run.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy, failing if the name is already taken.
func (r *Registry) Register(s Strategy) error {
	if _, exists := r.strategies[s.Name()]; exists {
		return fmt.Errorf("strategy already registered: %s", s.Name())
	}
	r.strategies[s.Name()] = s
	return nil
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names lists every registered strategy name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}
