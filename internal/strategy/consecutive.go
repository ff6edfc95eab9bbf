package strategy

import (
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// Consecutive trips once consecutive failures reach the configured
// threshold. It reacts instantly to any single interleaved success (which
// resets the counter) — the fastest detector of a sudden total outage.
// Grounded on the teacher's default ReadyToTrip (internal/breaker/types.go:
// "ConsecutiveFailures > 5"), generalized to a configurable threshold
// compared with >= rather than > so the Nth consecutive failure trips
// exactly at N (spec.md §8 boundary behavior), not N+1.
func Consecutive(m model.Metrics, c model.Configuration, _ time.Time) bool {
	return m.ConsecutiveFailures >= c.FailureThreshold()
}
