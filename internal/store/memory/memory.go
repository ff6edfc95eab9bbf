// Package memory implements the in-process Store driver: a mapping keyed by
// the stringified identity, held in process-local state with no
// cross-process sharing or persistence (spec.md §4.1 "Memory driver").
//
// The teacher's CircuitBreaker (internal/breaker/circuitbreaker.go) keeps
// its counters and state in individual atomic.Uint32/atomic.Int32 fields on
// one struct, updated with lock-free CompareAndSwap loops
// (internal/breaker/state.go). That technique assumed exactly one breaker
// per struct. Here, one driver instance serves arbitrarily many keys, and
// spec.md §8 property 2 ("consecutive exclusivity") requires a success and
// a failure recorded concurrently on the same key to be strictly ordered,
// not merely individually atomic — so each record is guarded by its own
// sync.Mutex rather than by independent atomics per field. This keeps the
// teacher's per-key/per-record granularity (a global lock would serialize
// unrelated keys for no reason) while making the compound
// read-modify-write the spec requires actually atomic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

type record struct {
	mu sync.Mutex
	r  model.Record
}

// Store is the memory driver. The zero value is not usable; use New.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

// New returns an empty memory store.
func New() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) entry(key model.Key) *record {
	id := key.String("", "")
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok = s.records[id]; ok {
		return rec
	}
	rec = &record{r: model.NewRecord()}
	s.records[id] = rec
	return rec
}

func (s *Store) GetState(_ context.Context, key model.Key) (model.CircuitState, error) {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.r.State, nil
}

func (s *Store) GetMetrics(_ context.Context, key model.Key) (model.Metrics, error) {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.r.Metrics, nil
}

func (s *Store) RecordSuccess(_ context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r.Metrics = rec.r.Metrics.WithSuccess(at)
	return rec.r.Metrics, nil
}

func (s *Store) RecordFailure(_ context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r.Metrics = rec.r.Metrics.WithFailure(at)
	return rec.r.Metrics, nil
}

func (s *Store) TransitionToOpen(_ context.Context, key model.Key, at time.Time) error {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r.State = model.StateOpen
	rec.r.OpenedAt = at
	return nil
}

func (s *Store) TransitionToHalfOpen(_ context.Context, key model.Key) error {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r.State = model.StateHalfOpen
	return nil
}

func (s *Store) TransitionToClosed(_ context.Context, key model.Key, at time.Time) error {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r.State = model.StateClosed
	rec.r.Metrics = rec.r.Metrics.ClearConsecutive()
	rec.r.ClosedAt = at
	return nil
}

func (s *Store) Reset(_ context.Context, key model.Key) error {
	rec := s.entry(key)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.r = model.NewRecord()
	return nil
}

// Flush discards every record, releasing them for garbage collection. This
// backs the Manager's worker-recycle hook (spec.md §5 "Long-lived
// processes"): cache and durable drivers are unaffected by Flush.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*record)
}
