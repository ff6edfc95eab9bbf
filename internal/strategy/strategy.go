// Package strategy implements the three pure trip-decision procedures
// spec.md §4.2 names (Consecutive, Percentage, RollingWindow) and the
// registry the Manager resolves them from by name.
//
// Each Strategy is a pure function of (Metrics, Configuration, now): the
// teacher expresses this same idea as Settings.ReadyToTrip func(Counts) bool
// (internal/breaker/circuitbreaker.go); here it is generalized into named,
// registrable values so the Manager can resolve one by
// Configuration.StrategyName() instead of requiring every caller to supply
// a callback. The explicit "now" parameter (rather than a time.Now() call
// inside RollingWindow) is what keeps strategy purity testable: spec.md §8
// property 4 requires identical inputs to give identical outputs.
package strategy

import (
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// Name identifies a registered strategy.
type Name = string

// Well-known strategy names, per spec.md §4.2.
const (
	ConsecutiveFailures Name = "consecutive_failures"
	PercentageFailures  Name = "percentage_failures"
	RollingWindow       Name = "rolling_window"
)

// Strategy decides, from a breaker's current metrics and configuration,
// whether the breaker should trip to Open.
type Strategy func(m model.Metrics, c model.Configuration, now time.Time) bool

// Registry maps strategy names to implementations. The zero value is not
// usable; construct one with NewRegistry, which seeds the three built-ins.
type Registry struct {
	mu         sync.RWMutex
	strategies map[Name]Strategy
}

// NewRegistry returns a Registry pre-populated with Consecutive, Percentage,
// and RollingWindow under their spec.md names.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[Name]Strategy, 3)}
	r.Register(ConsecutiveFailures, Consecutive)
	r.Register(PercentageFailures, Percentage)
	r.Register(RollingWindow, RollingWindowStrategy)
	return r
}

// Register adds or replaces a strategy under name. Used both internally to
// seed the built-ins and by callers registering custom strategies
// (spec.md §4.2 "the manager may accept user-registered additions").
func (r *Registry) Register(name Name, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Resolve looks up a strategy by name.
func (r *Registry) Resolve(name Name) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy: no strategy registered under name %q", name)
	}
	return s, nil
}
