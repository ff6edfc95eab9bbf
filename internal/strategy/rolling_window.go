package strategy

import (
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// RollingWindowStrategy behaves like Percentage, but additionally requires
// the most recent failure to fall within SamplingDuration of now; once the
// last failure ages past the window the breaker stays Closed regardless of
// lifetime rate, intentionally "forgetting" older bursts (spec.md §4.2).
//
// Exported as RollingWindowStrategy (not RollingWindow, which already names
// the registry constant) to keep the constant and the function
// distinguishable at call sites.
func RollingWindowStrategy(m model.Metrics, c model.Configuration, now time.Time) bool {
	if !m.HasSufficientThroughput(c.MinimumThroughput()) {
		return false
	}
	if m.FailureRate() < c.PercentageThreshold() {
		return false
	}
	if m.LastFailureTime.IsZero() {
		return false
	}
	return !m.LastFailureTime.Before(now.Add(-c.SamplingDuration()))
}
