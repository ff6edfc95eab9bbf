package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

func key(name string) model.Key { return model.Key{Name: name} }

func TestDefaultsToClosedAndZeroMetrics(t *testing.T) {
	s := New()
	ctx := context.Background()

	state, err := s.GetState(ctx, key("x"))
	if err != nil || state != model.StateClosed {
		t.Fatalf("GetState = %v, %v; want Closed, nil", state, err)
	}
	m, err := s.GetMetrics(ctx, key("x"))
	if err != nil || m != (model.Metrics{}) {
		t.Fatalf("GetMetrics = %+v, %v; want zero snapshot, nil", m, err)
	}
}

func TestRecordSuccessThenFailureExclusivity(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	if _, err := s.RecordFailure(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordFailure(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	m, _ := s.GetMetrics(ctx, k)
	if m.ConsecutiveFailures != 2 || m.ConsecutiveSuccesses != 0 {
		t.Fatalf("metrics = %+v, want 2 consecutive failures", m)
	}

	if _, err := s.RecordSuccess(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	m, _ = s.GetMetrics(ctx, k)
	if m.ConsecutiveSuccesses != 1 || m.ConsecutiveFailures != 0 {
		t.Fatalf("metrics = %+v, want consecutive success reset", m)
	}
	if m.TotalFailures != 2 || m.TotalSuccesses != 1 {
		t.Fatalf("totals = %+v, want 2 failures / 1 success", m)
	}
}

func TestTransitionToClosedZerosOnlyConsecutive(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	s.RecordFailure(ctx, k, now)
	s.RecordSuccess(ctx, k, now)
	s.RecordSuccess(ctx, k, now)

	if err := s.TransitionToClosed(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	m, _ := s.GetMetrics(ctx, k)
	if m.ConsecutiveSuccesses != 0 || m.ConsecutiveFailures != 0 {
		t.Fatalf("consecutive counters not cleared: %+v", m)
	}
	if m.TotalSuccesses != 2 || m.TotalFailures != 1 {
		t.Fatalf("totals should survive a normal close: %+v", m)
	}
}

func TestResetZeroesEverything(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	s.RecordFailure(ctx, k, now)
	s.TransitionToOpen(ctx, k, now)

	if err := s.Reset(ctx, k); err != nil {
		t.Fatal(err)
	}
	state, _ := s.GetState(ctx, k)
	if state != model.StateClosed {
		t.Fatalf("state after Reset = %v, want Closed", state)
	}
	m, _ := s.GetMetrics(ctx, k)
	if m != (model.Metrics{}) {
		t.Fatalf("metrics after Reset = %+v, want zero snapshot", m)
	}
}

func TestScopeIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	u1 := model.Key{Name: "x", Scope: model.Scope{Context: &model.Ref{Type: "User", ID: "1"}}}
	u2 := model.Key{Name: "x", Scope: model.Scope{Context: &model.Ref{Type: "User", ID: "2"}}}

	for i := 0; i < 5; i++ {
		s.RecordFailure(ctx, u1, now)
	}
	s.TransitionToOpen(ctx, u1, now)

	state1, _ := s.GetState(ctx, u1)
	state2, _ := s.GetState(ctx, u2)
	if state1 != model.StateOpen {
		t.Fatalf("u1 state = %v, want Open", state1)
	}
	if state2 != model.StateClosed {
		t.Fatalf("u2 state = %v, want Closed (isolated from u1)", state2)
	}
	m2, _ := s.GetMetrics(ctx, u2)
	if m2 != (model.Metrics{}) {
		t.Fatalf("u2 metrics = %+v, want zero snapshot (isolated)", m2)
	}
}

func TestConcurrentRecordersDoNotLoseUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s.RecordFailure(ctx, k, now)
		}()
	}
	wg.Wait()

	m, _ := s.GetMetrics(ctx, k)
	if m.TotalFailures != n {
		t.Fatalf("TotalFailures = %d, want %d (concurrent recorders must not race)", m.TotalFailures, n)
	}
}

func TestFlushDiscardsRecords(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := key("x")
	s.RecordFailure(ctx, k, time.Now())

	s.Flush()

	m, _ := s.GetMetrics(ctx, k)
	if m != (model.Metrics{}) {
		t.Fatalf("metrics after Flush = %+v, want zero snapshot", m)
	}
}
