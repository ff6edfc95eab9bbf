package model

import "time"

// Metrics is an immutable snapshot of a breaker record's counters and
// timestamps. Zero value is the snapshot of a record that has never seen a
// request: every counter at zero, both timestamps absent.
type Metrics struct {
	ConsecutiveSuccesses uint64
	ConsecutiveFailures  uint64
	TotalSuccesses       uint64
	TotalFailures        uint64

	// LastSuccessTime and LastFailureTime are absent when IsZero().
	LastSuccessTime time.Time
	LastFailureTime time.Time
}

// FailureRate returns totalFailures/(totalSuccesses+totalFailures) as a
// percentage in [0, 100]. Returns 0 when no outcomes have been recorded,
// matching spec.md's "returning 0 when the denominator is 0" rule.
func (m Metrics) FailureRate() float64 {
	total := m.TotalSuccesses + m.TotalFailures
	if total == 0 {
		return 0
	}
	return float64(m.TotalFailures) / float64(total) * 100
}

// HasSufficientThroughput reports whether the record has seen at least n
// total outcomes (successes + failures) in its lifetime.
func (m Metrics) HasSufficientThroughput(n uint64) bool {
	return m.TotalSuccesses+m.TotalFailures >= n
}

// WithSuccess returns the metrics that result from recording one successful
// outcome at the given time: consecutiveFailures resets to 0,
// consecutiveSuccesses and totalSuccesses increment, lastSuccessTime stamps.
func (m Metrics) WithSuccess(at time.Time) Metrics {
	m.ConsecutiveFailures = 0
	m.ConsecutiveSuccesses++
	m.TotalSuccesses++
	m.LastSuccessTime = at
	return m
}

// WithFailure is the symmetric counterpart of WithSuccess for a failed
// outcome.
func (m Metrics) WithFailure(at time.Time) Metrics {
	m.ConsecutiveSuccesses = 0
	m.ConsecutiveFailures++
	m.TotalFailures++
	m.LastFailureTime = at
	return m
}

// ClearConsecutive zeros only the consecutive counters, preserving totals
// and timestamps. This is what a normal Closed transition applies (spec.md
// §9's normative choice).
func (m Metrics) ClearConsecutive() Metrics {
	m.ConsecutiveSuccesses = 0
	m.ConsecutiveFailures = 0
	return m
}

// Zero is the fully-reset metrics snapshot an explicit Reset applies.
func Zero() Metrics {
	return Metrics{}
}
