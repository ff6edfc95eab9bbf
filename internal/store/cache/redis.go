// Package cache implements the Store driver backed by an external
// key-value repository (spec.md §4.1 "Cache driver"), using
// github.com/redis/go-redis/v9 as the concrete client — grounded on
// other_examples' ADKA2006-Vibranium_Quadsquad Redis-backed circuit breaker
// (a JSON-serialized state blob under a prefixed key) and on
// jordigilh-kubernaut's go.mod dependency on the same client.
//
// Two logical keys per identity, exactly as spec.md specifies: "…:state"
// and "…:metrics". Counter updates are read-modify-write with no CAS/WATCH;
// concurrent recorders on the same key observe last-writer-wins. spec.md §5
// accepts this explicitly: strategies are threshold-based and timeouts are
// coarser than request rates, so exact totals are not a safety property.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// Client is the subset of *redis.Client the driver needs, so tests can run
// against either a real client or github.com/alicebob/miniredis/v2.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is the Redis-backed cache driver.
type Store struct {
	client Client
	prefix string
}

// New returns a cache Store using client, namespacing all keys under
// prefix (spec.md §4.1's "optional prefix" in the key algebra).
func New(client Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// stateBlob and metricsBlob are the JSON encodings stored at each of the
// two per-identity keys.
type stateBlob struct {
	State    model.CircuitState `json:"state"`
	OpenedAt int64               `json:"opened_at,omitempty"`
	ClosedAt int64               `json:"closed_at,omitempty"`
}

type metricsBlob struct {
	ConsecutiveSuccesses uint64 `json:"consecutive_successes"`
	ConsecutiveFailures  uint64 `json:"consecutive_failures"`
	TotalSuccesses       uint64 `json:"total_successes"`
	TotalFailures        uint64 `json:"total_failures"`
	LastSuccessTime      int64  `json:"last_success_time,omitempty"`
	LastFailureTime      int64  `json:"last_failure_time,omitempty"`
}

func toMetricsBlob(m model.Metrics) metricsBlob {
	b := metricsBlob{
		ConsecutiveSuccesses: m.ConsecutiveSuccesses,
		ConsecutiveFailures:  m.ConsecutiveFailures,
		TotalSuccesses:       m.TotalSuccesses,
		TotalFailures:        m.TotalFailures,
	}
	if !m.LastSuccessTime.IsZero() {
		b.LastSuccessTime = m.LastSuccessTime.Unix()
	}
	if !m.LastFailureTime.IsZero() {
		b.LastFailureTime = m.LastFailureTime.Unix()
	}
	return b
}

func (b metricsBlob) toModel() model.Metrics {
	m := model.Metrics{
		ConsecutiveSuccesses: b.ConsecutiveSuccesses,
		ConsecutiveFailures:  b.ConsecutiveFailures,
		TotalSuccesses:       b.TotalSuccesses,
		TotalFailures:        b.TotalFailures,
	}
	if b.LastSuccessTime != 0 {
		m.LastSuccessTime = time.Unix(b.LastSuccessTime, 0)
	}
	if b.LastFailureTime != 0 {
		m.LastFailureTime = time.Unix(b.LastFailureTime, 0)
	}
	return m
}

func (s *Store) stateKey(key model.Key) string   { return key.String(s.prefix, model.AttributeState) }
func (s *Store) metricsKey(key model.Key) string { return key.String(s.prefix, model.AttributeMetrics) }

func (s *Store) getStateBlob(ctx context.Context, key model.Key) (stateBlob, error) {
	raw, err := s.client.Get(ctx, s.stateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return stateBlob{State: model.StateClosed}, nil
	}
	if err != nil {
		return stateBlob{}, err
	}
	var b stateBlob
	if err := json.Unmarshal(raw, &b); err != nil {
		return stateBlob{}, err
	}
	return b, nil
}

func (s *Store) putStateBlob(ctx context.Context, key model.Key, b stateBlob) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(key), raw, 0).Err()
}

func (s *Store) getMetricsBlob(ctx context.Context, key model.Key) (metricsBlob, error) {
	raw, err := s.client.Get(ctx, s.metricsKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return metricsBlob{}, nil
	}
	if err != nil {
		return metricsBlob{}, err
	}
	var b metricsBlob
	if err := json.Unmarshal(raw, &b); err != nil {
		return metricsBlob{}, err
	}
	return b, nil
}

func (s *Store) putMetricsBlob(ctx context.Context, key model.Key, b metricsBlob) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.metricsKey(key), raw, 0).Err()
}

func (s *Store) GetState(ctx context.Context, key model.Key) (model.CircuitState, error) {
	b, err := s.getStateBlob(ctx, key)
	if err != nil {
		return model.StateClosed, err
	}
	return b.State, nil
}

func (s *Store) GetMetrics(ctx context.Context, key model.Key) (model.Metrics, error) {
	b, err := s.getMetricsBlob(ctx, key)
	if err != nil {
		return model.Metrics{}, err
	}
	return b.toModel(), nil
}

func (s *Store) RecordSuccess(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	b, err := s.getMetricsBlob(ctx, key)
	if err != nil {
		return model.Metrics{}, err
	}
	updated := toMetricsBlob(b.toModel().WithSuccess(at))
	if err := s.putMetricsBlob(ctx, key, updated); err != nil {
		return model.Metrics{}, err
	}
	return updated.toModel(), nil
}

func (s *Store) RecordFailure(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	b, err := s.getMetricsBlob(ctx, key)
	if err != nil {
		return model.Metrics{}, err
	}
	updated := toMetricsBlob(b.toModel().WithFailure(at))
	if err := s.putMetricsBlob(ctx, key, updated); err != nil {
		return model.Metrics{}, err
	}
	return updated.toModel(), nil
}

func (s *Store) TransitionToOpen(ctx context.Context, key model.Key, at time.Time) error {
	b, err := s.getStateBlob(ctx, key)
	if err != nil {
		return err
	}
	b.State = model.StateOpen
	b.OpenedAt = at.Unix()
	return s.putStateBlob(ctx, key, b)
}

func (s *Store) TransitionToHalfOpen(ctx context.Context, key model.Key) error {
	b, err := s.getStateBlob(ctx, key)
	if err != nil {
		return err
	}
	b.State = model.StateHalfOpen
	return s.putStateBlob(ctx, key, b)
}

func (s *Store) TransitionToClosed(ctx context.Context, key model.Key, at time.Time) error {
	sb, err := s.getStateBlob(ctx, key)
	if err != nil {
		return err
	}
	sb.State = model.StateClosed
	sb.ClosedAt = at.Unix()
	if err := s.putStateBlob(ctx, key, sb); err != nil {
		return err
	}

	mb, err := s.getMetricsBlob(ctx, key)
	if err != nil {
		return err
	}
	cleared := toMetricsBlob(mb.toModel().ClearConsecutive())
	return s.putMetricsBlob(ctx, key, cleared)
}

func (s *Store) Reset(ctx context.Context, key model.Key) error {
	return s.client.Del(ctx, s.stateKey(key), s.metricsKey(key)).Err()
}
