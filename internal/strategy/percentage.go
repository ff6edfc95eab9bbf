package strategy

import (
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// Percentage trips once lifetime throughput has reached the configured
// minimum and the lifetime failure rate has reached the configured
// percentage threshold. Slower to react than Consecutive, tolerant of
// intermittent failures. Grounded on the teacher's adaptive mode
// (internal/breaker/adaptive.go's defaultAdaptiveReadyToTrip), generalized
// from "failureRate > threshold" to the spec's "failureRate >= threshold"
// so it trips exactly at the boundary rather than one unit of rate past it.
func Percentage(m model.Metrics, c model.Configuration, _ time.Time) bool {
	if !m.HasSufficientThroughput(c.MinimumThroughput()) {
		return false
	}
	return m.FailureRate() >= c.PercentageThreshold()
}
