package strategy

import (
	"testing"
	"time"

	"github.com/vnykmshr/circuitscope/internal/model"
)

func TestConsecutiveTripsAtThresholdNotEarlier(t *testing.T) {
	cfg := model.NewConfiguration("x").WithFailureThreshold(5)
	now := time.Now()

	for n := uint64(0); n < 5; n++ {
		m := model.Metrics{ConsecutiveFailures: n}
		if Consecutive(m, cfg, now) {
			t.Fatalf("tripped early at %d consecutive failures", n)
		}
	}
	m := model.Metrics{ConsecutiveFailures: 5}
	if !Consecutive(m, cfg, now) {
		t.Fatalf("did not trip at threshold (5)")
	}
}

func TestConsecutiveResetsOnSuccess(t *testing.T) {
	cfg := model.NewConfiguration("x").WithFailureThreshold(5)
	m := model.Metrics{}.WithFailure(time.Now()).WithFailure(time.Now()).WithFailure(time.Now()).WithFailure(time.Now())
	m = m.WithSuccess(time.Now())
	if Consecutive(m, cfg, time.Now()) {
		t.Fatalf("should not trip after interleaved success reset the streak")
	}
}

func TestPercentageGatesOnThroughput(t *testing.T) {
	cfg := model.NewConfiguration("x").
		WithStrategyName(PercentageFailures).
		WithPercentageThreshold(50).
		WithMinimumThroughput(10)

	m := model.Metrics{TotalFailures: 3, TotalSuccesses: 2} // 60% but only 5 outcomes
	if Percentage(m, cfg, time.Now()) {
		t.Fatalf("tripped below minimum throughput")
	}

	m = model.Metrics{TotalFailures: 6, TotalSuccesses: 4} // 60% of 10
	if !Percentage(m, cfg, time.Now()) {
		t.Fatalf("did not trip at sufficient throughput and rate")
	}
}

func TestRollingWindowForgetsOldBursts(t *testing.T) {
	cfg := model.NewConfiguration("x").
		WithStrategyName(RollingWindow).
		WithPercentageThreshold(50).
		WithMinimumThroughput(10).
		WithSamplingDuration(60 * time.Second)

	now := time.Now()
	old := now.Add(-2 * time.Minute)
	m := model.Metrics{TotalFailures: 6, TotalSuccesses: 4, LastFailureTime: old}

	if RollingWindowStrategy(m, cfg, now) {
		t.Fatalf("tripped even though last failure aged past the sampling window")
	}

	recent := now.Add(-10 * time.Second)
	m.LastFailureTime = recent
	if !RollingWindowStrategy(m, cfg, now) {
		t.Fatalf("did not trip with a recent failure within the window and sufficient rate")
	}
}

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []Name{ConsecutiveFailures, PercentageFailures, RollingWindow} {
		if _, err := r.Resolve(name); err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
	}
	if _, err := r.Resolve("nope"); err == nil {
		t.Fatalf("expected error resolving unregistered strategy")
	}
}

func TestRegistryAcceptsCustomStrategy(t *testing.T) {
	r := NewRegistry()
	r.Register("always_trip", func(model.Metrics, model.Configuration, time.Time) bool { return true })
	s, err := r.Resolve("always_trip")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !s(model.Metrics{}, model.NewConfiguration("x"), time.Now()) {
		t.Fatalf("custom strategy did not behave as registered")
	}
}
