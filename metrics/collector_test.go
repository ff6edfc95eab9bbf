package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/circuitscope/internal/model"
)

type fakeBreaker struct {
	key     model.Key
	state   model.CircuitState
	metrics model.Metrics
	err     error
}

func (f *fakeBreaker) Key() model.Key { return f.key }

func (f *fakeBreaker) State(context.Context) (model.CircuitState, error) {
	return f.state, f.err
}

func (f *fakeBreaker) Metrics(context.Context) (model.Metrics, error) {
	return f.metrics, f.err
}

func TestCollectorExportsRegisteredBreaker(t *testing.T) {
	c := NewCollector(nil)
	tenant := model.Ref{Type: "Tenant", ID: "acme"}
	c.Register(&fakeBreaker{
		key: model.Key{Name: "payments", Scope: model.Scope{Context: &tenant}},
		metrics: model.Metrics{
			TotalSuccesses:       7,
			TotalFailures:        3,
			ConsecutiveSuccesses: 2,
		},
	})

	if err := testutil.CollectAndCompare(c, strings.NewReader(`
# HELP circuitscope_breaker_successes_total Total successful calls recorded.
# TYPE circuitscope_breaker_successes_total counter
circuitscope_breaker_successes_total{boundary_id="",boundary_type="",context_id="acme",context_type="Tenant",name="payments"} 7
`), "circuitscope_breaker_successes_total"); err != nil {
		t.Fatalf("unexpected metric output: %v", err)
	}
}

func TestCollectorSkipsBreakerOnReadError(t *testing.T) {
	c := NewCollector(nil)
	c.Register(&fakeBreaker{
		key: model.Key{Name: "broken"},
		err: errors.New("store unavailable"),
	})

	count := testutil.CollectAndCount(c)
	if count != 0 {
		t.Fatalf("expected 0 metrics from an erroring breaker, got %d", count)
	}
}

func TestUnregisterRemovesBreaker(t *testing.T) {
	c := NewCollector(nil)
	key := model.Key{Name: "payments"}
	c.Register(&fakeBreaker{key: key})

	if testutil.CollectAndCount(c) == 0 {
		t.Fatalf("expected metrics before Unregister")
	}

	c.Unregister(key)
	if got := testutil.CollectAndCount(c); got != 0 {
		t.Fatalf("expected 0 metrics after Unregister, got %d", got)
	}
}

func TestCollectorPassesPrometheusLint(t *testing.T) {
	c := NewCollector(nil)
	c.Register(&fakeBreaker{key: model.Key{Name: "payments"}})

	lint, err := testutil.CollectAndLint(c)
	if err != nil {
		t.Fatalf("CollectAndLint: %v", err)
	}
	if len(lint) != 0 {
		t.Fatalf("lint problems: %+v", lint)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
