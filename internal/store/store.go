// Package store defines the persistence contract spec.md §4.1 names (Store
// driver) and is implemented by the memory, cache, and durable sub-packages.
// Semantics are identical across drivers; durability and sharing differ.
package store

import (
	"context"
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// Store persists and retrieves breaker state and metrics under a scoping
// key. Implementations must make RecordSuccess, RecordFailure, and every
// Transition* call atomic with respect to concurrent callers racing on the
// same key (spec.md §4.1, §5) — the degree of atomicity differs by driver
// (memory and durable are strict; cache tolerates last-writer-wins, per
// spec.md §5's "Cache driver" paragraph).
type Store interface {
	// GetState returns the current state for key, defaulting to Closed if
	// the key has never been recorded.
	GetState(ctx context.Context, key model.Key) (model.CircuitState, error)

	// GetMetrics returns the current metrics snapshot for key, defaulting
	// to the zero snapshot if the key has never been recorded.
	GetMetrics(ctx context.Context, key model.Key) (model.Metrics, error)

	// RecordSuccess applies the success counter-update rule and stamps
	// lastSuccessTime, returning the metrics after the update.
	RecordSuccess(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error)

	// RecordFailure is the symmetric counterpart of RecordSuccess.
	RecordFailure(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error)

	// TransitionToOpen sets state to Open and stamps openedAt.
	TransitionToOpen(ctx context.Context, key model.Key, at time.Time) error

	// TransitionToHalfOpen sets state to HalfOpen.
	TransitionToHalfOpen(ctx context.Context, key model.Key) error

	// TransitionToClosed sets state to Closed, zeros the consecutive
	// counters, and stamps closedAt (spec.md §9's normative choice: a
	// normal close zeros only the consecutive counters).
	TransitionToClosed(ctx context.Context, key model.Key, at time.Time) error

	// Reset deletes (or zeros) both state and metrics for key: state
	// returns to Closed and metrics returns to the zero snapshot,
	// including totals and timestamps (spec.md §9's normative choice:
	// explicit Reset zeros everything).
	Reset(ctx context.Context, key model.Key) error
}
