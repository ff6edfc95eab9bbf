package model

import "time"

// Record is a store's full durable form of one breaker identity: its
// current state, its metrics snapshot, and the two transition timestamps
// spec.md §3 calls out as present "in durable stores" (openedAt, closedAt).
// Memory and cache drivers carry the same fields even though spec.md only
// requires them of the durable schema, since every driver must answer
// GetState/GetMetrics identically and the transition timestamps fall out of
// the same state-transition code path regardless of backend.
type Record struct {
	State CircuitState
	Metrics Metrics

	OpenedAt time.Time
	ClosedAt time.Time
}

// NewRecord is the zero-value record a key gets on first access: Closed,
// zero metrics, no transition timestamps (spec.md §3 "Lifecycle").
func NewRecord() Record {
	return Record{State: StateClosed}
}
