package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/circuitscope/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "circuitscope")
}

func key(name string) model.Key { return model.Key{Name: name} }

func TestDefaultsToClosedAndZeroMetrics(t *testing.T) {
	s := newTestStore(t)
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

func TestRecordSuccessAndFailureAccumulate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	s.RecordFailure(ctx, k, now)
	s.RecordFailure(ctx, k, now)
	s.RecordSuccess(ctx, k, now)

	m, err := s.GetMetrics(ctx, k)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalFailures != 2 || m.TotalSuccesses != 1 {
		t.Fatalf("totals = %+v, want 2 failures / 1 success", m)
	}
	if m.ConsecutiveSuccesses != 1 || m.ConsecutiveFailures != 0 {
		t.Fatalf("consecutive counters = %+v, want success streak of 1", m)
	}
}

func TestTransitionToOpenPersistsAcrossGets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	if err := s.TransitionToOpen(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	state, err := s.GetState(ctx, k)
	if err != nil || state != model.StateOpen {
		t.Fatalf("GetState = %v, %v; want Open, nil", state, err)
	}
}

func TestTransitionToClosedClearsOnlyConsecutive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	k := key("x")
	now := time.Now()

	s.RecordFailure(ctx, k, now)
	s.RecordSuccess(ctx, k, now)
	s.RecordSuccess(ctx, k, now)

	if err := s.TransitionToClosed(ctx, k, now); err != nil {
		t.Fatal(err)
	}
	state, _ := s.GetState(ctx, k)
	if state != model.StateClosed {
		t.Fatalf("state = %v, want Closed", state)
	}
	m, _ := s.GetMetrics(ctx, k)
	if m.ConsecutiveSuccesses != 0 {
		t.Fatalf("consecutive successes = %d, want 0 after close", m.ConsecutiveSuccesses)
	}
	if m.TotalSuccesses != 2 || m.TotalFailures != 1 {
		t.Fatalf("totals should survive a normal close: %+v", m)
	}
}

func TestResetDeletesBothKeys(t *testing.T) {
	s := newTestStore(t)
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
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	u1 := model.Key{Name: "x", Scope: model.Scope{Context: &model.Ref{Type: "User", ID: "1"}}}
	u2 := model.Key{Name: "x", Scope: model.Scope{Context: &model.Ref{Type: "User", ID: "2"}}}

	s.RecordFailure(ctx, u1, now)
	s.TransitionToOpen(ctx, u1, now)

	state2, _ := s.GetState(ctx, u2)
	if state2 != model.StateClosed {
		t.Fatalf("u2 state = %v, want Closed (isolated from u1)", state2)
	}
	m2, _ := s.GetMetrics(ctx, u2)
	if m2 != (model.Metrics{}) {
		t.Fatalf("u2 metrics = %+v, want zero snapshot (isolated)", m2)
	}
}
