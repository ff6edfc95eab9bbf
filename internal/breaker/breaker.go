// Package breaker implements the protected-call engine: the Closed/Open/
// HalfOpen state machine, strategy consultation, exception classification,
// fallback resolution, and event dispatch built around a pluggable Store.
//
// The teacher (internal/breaker/circuitbreaker.go) keeps counters and state
// as atomic fields directly on CircuitBreaker and calls time.Now()
// in-line throughout state.go. Here state and counters live in a Store
// keyed by (name, scope) so one process can run arbitrarily many
// independent breakers, and time comes from an injectable Clock so
// cooldown/rolling-window behavior is testable without real sleeps.
package breaker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/circuitscope/internal/model"
	"github.com/vnykmshr/circuitscope/internal/store"
	"github.com/vnykmshr/circuitscope/internal/strategy"
)

// Breaker is one configured, scoped circuit breaker identity. It holds no
// mutable state itself; State()/Metrics()/Call all read and write through
// its Store.
type Breaker struct {
	key    model.Key
	config model.Configuration

	store    store.Store
	strategy strategy.Strategy
	clock    Clock

	exceptions ExceptionFilter
	fallback   FallbackResolver

	eventsEnabled bool
	listeners     []Listener

	logger *zap.Logger
}

// Option configures a Breaker at construction, the same "construct-once,
// apply defaults" discipline as the teacher's Settings-driven New, reshaped
// into functional options since there is no longer a single Settings
// struct — configuration, store, and strategy are already separate
// first-class values by the time a Breaker is built.
type Option func(*Breaker)

// WithClock overrides the default SystemClock.
func WithClock(c Clock) Option {
	return func(b *Breaker) { b.clock = c }
}

// WithExceptionFilter overrides the default record-everything filter.
func WithExceptionFilter(f ExceptionFilter) Option {
	return func(b *Breaker) { b.exceptions = f }
}

// WithFallback overrides the default (fallbacks enabled, no handlers)
// resolver.
func WithFallback(r FallbackResolver) Option {
	return func(b *Breaker) { b.fallback = r }
}

// WithEventsEnabled toggles event dispatch. Enabled by default.
func WithEventsEnabled(enabled bool) Option {
	return func(b *Breaker) { b.eventsEnabled = enabled }
}

// WithListener registers a listener for every emitted event. Call
// multiple times to register more than one.
func WithListener(l Listener) Option {
	return func(b *Breaker) { b.listeners = append(b.listeners, l) }
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Breaker) { b.logger = logger }
}

// New returns a Breaker for key, reading and writing through st and
// consulting strat to decide whether accumulated failures should trip it.
func New(key model.Key, config model.Configuration, st store.Store, strat strategy.Strategy, opts ...Option) *Breaker {
	b := &Breaker{
		key:           key,
		config:        config,
		store:         st,
		strategy:      strat,
		clock:         SystemClock,
		exceptions:    NewExceptionFilter(),
		fallback:      NewFallbackResolver(),
		eventsEnabled: true,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Key returns this breaker's identity (name plus scope), for callers that
// need to label or index it externally (e.g. a metrics exporter).
func (b *Breaker) Key() model.Key {
	return b.key
}

// State returns the current state for this breaker's identity.
func (b *Breaker) State(ctx context.Context) (model.CircuitState, error) {
	return b.store.GetState(ctx, b.key)
}

// Metrics returns the current metrics snapshot for this breaker's identity.
func (b *Breaker) Metrics(ctx context.Context) (model.Metrics, error) {
	return b.store.GetMetrics(ctx, b.key)
}

// Reset zeroes the store for this identity and emits Closed.
func (b *Breaker) Reset(ctx context.Context) error {
	if err := b.store.Reset(ctx, b.key); err != nil {
		return err
	}
	b.emit(EventClosed, model.StateClosed)
	return nil
}

func (b *Breaker) emit(eventType EventType, state model.CircuitState) {
	if !b.eventsEnabled {
		return
	}
	event := Event{Type: eventType, Name: b.key.Name, State: state}
	for _, listener := range b.listeners {
		b.safeEmit(listener, event)
	}
}

func (b *Breaker) cooldownElapsed(m model.Metrics, now time.Time) bool {
	return m.LastFailureTime.IsZero() || now.Sub(m.LastFailureTime) >= b.config.Timeout()
}

func (b *Breaker) resolveFallback(ctx context.Context) (interface{}, error) {
	handler := b.fallback.handlerFor(b.key.Name)
	if handler == nil {
		return nil, nil
	}
	return b.safeFallback(handler, b.key.Name)
}

// Call executes op under this breaker's protection: if the circuit is
// Open and the cooldown has not elapsed, op is never invoked and Call
// returns an *OpenError; otherwise op runs and its outcome updates the
// store and may trip or reset the circuit. T is the result type of the
// protected operation — a generic package-level function rather than a
// method, since Go methods cannot carry their own type parameters.
func Call[T any](ctx context.Context, b *Breaker, op func(context.Context) (T, error)) (T, error) {
	var zero T

	state, err := b.store.GetState(ctx, b.key)
	if err != nil {
		return zero, err
	}
	b.emit(EventRequestAttempted, state)

	if state == model.StateOpen {
		metrics, err := b.store.GetMetrics(ctx, b.key)
		if err != nil {
			return zero, err
		}
		now := b.clock.Now()
		if b.cooldownElapsed(metrics, now) {
			if err := b.store.TransitionToHalfOpen(ctx, b.key); err != nil {
				return zero, err
			}
			b.emit(EventHalfOpened, model.StateHalfOpen)
			state = model.StateHalfOpen
		} else {
			fallbackValue, fallbackErr := b.resolveFallback(ctx)
			if fallbackErr != nil {
				return zero, fallbackErr
			}
			return zero, &OpenError{Name: b.key.Name, Fallback: fallbackValue}
		}
	}

	result, opErr := op(ctx)
	now := b.clock.Now()

	if opErr == nil {
		metrics, err := b.store.RecordSuccess(ctx, b.key, now)
		if err != nil {
			return zero, err
		}
		newState := state
		if state == model.StateHalfOpen && metrics.ConsecutiveSuccesses >= b.config.SuccessThreshold() {
			if err := b.store.TransitionToClosed(ctx, b.key, now); err != nil {
				return zero, err
			}
			newState = model.StateClosed
			b.emit(EventClosed, newState)
		}
		b.emit(EventRequestSucceeded, newState)
		return result, nil
	}

	if b.exceptions.ShouldRecord(opErr) {
		metrics, err := b.store.RecordFailure(ctx, b.key, now)
		if err != nil {
			return result, opErr
		}
		newState := state
		b.emit(EventRequestFailed, newState)

		// A HalfOpen failure re-opens unconditionally: the probe already
		// answered the "has it recovered" question, so the strategy is not
		// re-consulted (spec's half-open contract, matching the teacher's
		// own transitionBackToOpen never re-checking readyToTrip).
		shouldOpen := state == model.StateHalfOpen || (state == model.StateClosed && b.strategy(metrics, b.config, now))
		if shouldOpen {
			if err := b.store.TransitionToOpen(ctx, b.key, now); err == nil {
				b.emit(EventOpened, model.StateOpen)
			}
		}
	}

	return result, opErr
}
