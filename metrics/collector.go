// Package metrics exports breaker state and counters as Prometheus
// metrics, generalizing the teacher's single-breaker sample collector
// (examples/prometheus/main.go) into a registry that can describe any
// number of breakers, labeled by name and scope.
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vnykmshr/circuitscope/internal/breaker"
	"github.com/vnykmshr/circuitscope/internal/model"
)

var (
	stateDesc = prometheus.NewDesc(
		"circuitscope_breaker_state",
		"Current breaker state (0=closed, 1=open, 2=half-open).",
		labelNames, nil,
	)
	totalSuccessesDesc = prometheus.NewDesc(
		"circuitscope_breaker_successes_total",
		"Total successful calls recorded.",
		labelNames, nil,
	)
	totalFailuresDesc = prometheus.NewDesc(
		"circuitscope_breaker_failures_total",
		"Total failed calls recorded.",
		labelNames, nil,
	)
	consecutiveSuccessesDesc = prometheus.NewDesc(
		"circuitscope_breaker_consecutive_successes",
		"Current consecutive successful calls.",
		labelNames, nil,
	)
	consecutiveFailuresDesc = prometheus.NewDesc(
		"circuitscope_breaker_consecutive_failures",
		"Current consecutive failed calls.",
		labelNames, nil,
	)
	failureRateDesc = prometheus.NewDesc(
		"circuitscope_breaker_failure_rate",
		"Percentage (0-100) of recorded calls that failed since the last reset.",
		labelNames, nil,
	)
)

var labelNames = []string{"name", "context_type", "context_id", "boundary_type", "boundary_id"}

// Breaker is the subset of *breaker.Breaker the collector needs, so tests
// can register a fake without constructing a real store-backed one.
type Breaker interface {
	Key() model.Key
	State(ctx context.Context) (model.CircuitState, error)
	Metrics(ctx context.Context) (model.Metrics, error)
}

var _ Breaker = (*breaker.Breaker)(nil)

// Collector is a prometheus.Collector over a dynamic set of breakers. The
// zero value is not usable; construct with NewCollector.
type Collector struct {
	mu       sync.RWMutex
	breakers map[string]Breaker
	logger   *zap.Logger
}

// NewCollector returns an empty Collector. Register breakers with Register.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		breakers: make(map[string]Breaker),
		logger:   logger,
	}
}

// Register adds b to the set this Collector exports. Registering a
// breaker with an identity already present replaces the prior entry.
func (c *Collector) Register(b Breaker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakers[b.Key().String("", "")] = b
}

// Unregister removes the breaker at key, if present.
func (c *Collector) Unregister(key model.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.breakers, key.String("", ""))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- stateDesc
	ch <- totalSuccessesDesc
	ch <- totalFailuresDesc
	ch <- consecutiveSuccessesDesc
	ch <- consecutiveFailuresDesc
	ch <- failureRateDesc
}

// Collect implements prometheus.Collector. A breaker whose store call
// fails is skipped and logged rather than aborting the whole scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	snapshot := make([]Breaker, 0, len(c.breakers))
	for _, b := range c.breakers {
		snapshot = append(snapshot, b)
	}
	c.mu.RUnlock()

	ctx := context.Background()
	for _, b := range snapshot {
		c.collectOne(ctx, ch, b)
	}
}

func (c *Collector) collectOne(ctx context.Context, ch chan<- prometheus.Metric, b Breaker) {
	key := b.Key()
	labels := labelValues(key)

	state, err := b.State(ctx)
	if err != nil {
		c.logger.Warn("metrics: skipping breaker, state read failed",
			zap.String("breaker", key.Name), zap.Error(err))
		return
	}
	m, err := b.Metrics(ctx)
	if err != nil {
		c.logger.Warn("metrics: skipping breaker, metrics read failed",
			zap.String("breaker", key.Name), zap.Error(err))
		return
	}

	ch <- prometheus.MustNewConstMetric(stateDesc, prometheus.GaugeValue, float64(state), labels...)
	ch <- prometheus.MustNewConstMetric(totalSuccessesDesc, prometheus.CounterValue, float64(m.TotalSuccesses), labels...)
	ch <- prometheus.MustNewConstMetric(totalFailuresDesc, prometheus.CounterValue, float64(m.TotalFailures), labels...)
	ch <- prometheus.MustNewConstMetric(consecutiveSuccessesDesc, prometheus.GaugeValue, float64(m.ConsecutiveSuccesses), labels...)
	ch <- prometheus.MustNewConstMetric(consecutiveFailuresDesc, prometheus.GaugeValue, float64(m.ConsecutiveFailures), labels...)
	ch <- prometheus.MustNewConstMetric(failureRateDesc, prometheus.GaugeValue, m.FailureRate(), labels...)
}

func labelValues(key model.Key) []string {
	contextType, contextID := refParts(key.Scope.Context)
	boundaryType, boundaryID := refParts(key.Scope.Boundary)
	return []string{key.Name, contextType, contextID, boundaryType, boundaryID}
}

func refParts(ref *model.Ref) (typeTag, id string) {
	if ref == nil {
		return "", ""
	}
	return ref.Type, ref.ID
}
