// Package circuitscope is a scoped, multi-driver circuit-breaker engine.
//
// # Overview
//
// Unlike a circuit breaker that protects one fixed dependency, circuitscope
// breakers are identified by a name plus an optional two-sided scope — a
// context (e.g. the tenant or user making the call) and a boundary (e.g.
// the region or shard the call is bound for). The same logical breaker
// name can therefore hold independent state per tenant, per shard, or
// both, without the caller managing a map of breaker instances by hand.
//
// # Quick Start
//
// Build a Manager once, backed by a driver (here, in-process memory):
//
//	mgr := manager.New("default",
//	    manager.WithDriver("memory", func(map[string]interface{}) (store.Store, error) {
//	        return memory.New(), nil
//	    }),
//	    manager.WithStoreConfig("default", manager.StoreConfig{Driver: "memory"}),
//	)
//
// Scope it to a tenant and build a breaker:
//
//	tenant := model.Ref{Type: "Tenant", ID: "acme"}
//	b, err := mgr.For(tenant).Make("billing-api", nil, "")
//
// Call through it:
//
//	result, err := circuitscope.Call(ctx, b, func(ctx context.Context) (Response, error) {
//	    return billingClient.Charge(ctx, req)
//	})
//	var openErr *circuitscope.OpenError
//	if errors.As(err, &openErr) {
//	    // breaker is open; openErr.Fallback holds the resolved fallback value, if any
//	}
//
// # States
//
// A breaker is Closed (requests pass, failures counted), Open (requests
// rejected immediately, fallback resolved if configured), or HalfOpen
// (probing requests allowed after the cooldown elapses; the configured
// SuccessThreshold of consecutive successes closes, one failure reopens).
//
// # Package Variable Pattern
//
// New, NewManager and the other constructors are exposed as package
// variables rather than wrapper functions, matching the facade style this
// module started from: a cleaner import path for callers (circuitscope.New
// vs breaker.New) with no wrapper overhead. Types such as Breaker and
// Manager are type aliases. Call is the one exception: it is generic, so
// it is a thin wrapper function (see its doc comment).
package circuitscope

import (
	"context"

	"github.com/vnykmshr/circuitscope/internal/breaker"
	"github.com/vnykmshr/circuitscope/internal/model"
	"github.com/vnykmshr/circuitscope/internal/store"
	"github.com/vnykmshr/circuitscope/internal/strategy"
	"github.com/vnykmshr/circuitscope/manager"
)

// Breaker protects one call path identified by a name and scope. See
// internal/breaker.Breaker for the full method set.
type Breaker = breaker.Breaker

// Option configures a Breaker at construction. See internal/breaker.Option.
type Option = breaker.Option

// Clock abstracts time for deterministic cooldown/rolling-window testing.
// See internal/breaker.Clock.
type Clock = breaker.Clock

// ManualClock is a Clock test double that only advances when told to.
type ManualClock = breaker.ManualClock

// Event is a single breaker lifecycle notification. See
// internal/breaker.Event.
type Event = breaker.Event

// EventType names the kind of lifecycle notification an Event carries.
type EventType = breaker.EventType

// Listener receives Events a Breaker emits.
type Listener = breaker.Listener

// ExceptionFilter decides whether an error returned by a protected
// operation counts as a recorded failure. See internal/breaker.ExceptionFilter.
type ExceptionFilter = breaker.ExceptionFilter

// FallbackFunc resolves a value to return when a breaker is Open. See
// internal/breaker.FallbackFunc.
type FallbackFunc = breaker.FallbackFunc

// FallbackResolver maps breaker names to FallbackFuncs. See
// internal/breaker.FallbackResolver.
type FallbackResolver = breaker.FallbackResolver

// OpenError is returned by Call when a breaker is Open and the protected
// operation was not attempted.
type OpenError = breaker.OpenError

// CircuitState is the tri-state tag a breaker can be in: StateClosed,
// StateOpen, or StateHalfOpen.
type CircuitState = model.CircuitState

// Metrics is the counters and timestamps tracked per breaker identity.
type Metrics = model.Metrics

// Configuration holds one breaker's thresholds, timeout, and strategy
// selection. Build one with NewConfiguration and its With* methods.
type Configuration = model.Configuration

// Ref names one side (context or boundary) of a breaker's scope: a
// model type-tag paired with an identifier.
type Ref = model.Ref

// Scope is the (context?, boundary?) pair identifying an independent
// breaker record within one name.
type Scope = model.Scope

// Key is the canonical identity of one breaker record: name plus Scope.
type Key = model.Key

// Store is the persistence contract a breaker's state and metrics are
// read from and written to. See internal/store.Store and its memory,
// cache, and durable implementations.
type Store = store.Store

// Strategy decides, from a breaker's metrics and configuration, whether
// it should trip to Open. See internal/strategy.Strategy.
type Strategy = strategy.Strategy

// Manager is the scoped builder that resolves a named store and strategy
// into a ready Breaker. See package manager.
type Manager = manager.Manager

// State constants, re-exported for callers that don't otherwise need the
// model package.
const (
	StateClosed   = model.StateClosed
	StateOpen     = model.StateOpen
	StateHalfOpen = model.StateHalfOpen
)

// Event type constants.
const (
	EventOpened           = breaker.EventOpened
	EventClosed           = breaker.EventClosed
	EventHalfOpened       = breaker.EventHalfOpened
	EventRequestAttempted = breaker.EventRequestAttempted
	EventRequestSucceeded = breaker.EventRequestSucceeded
	EventRequestFailed    = breaker.EventRequestFailed
)

// Built-in strategy names, resolved by Configuration.StrategyName against
// a Manager's strategy registry.
const (
	ConsecutiveFailures = strategy.ConsecutiveFailures
	PercentageFailures  = strategy.PercentageFailures
	RollingWindow       = strategy.RollingWindow
)

// NewConfiguration returns a Configuration named name, seeded with the
// package's default thresholds, timeout, and strategy.
var NewConfiguration = model.NewConfiguration

// New constructs a Breaker directly, bypassing Manager. Most callers
// should build breakers through a Manager instead, so that store and
// scope are resolved consistently across a process; New is for tests and
// single-breaker programs that have no need for a Manager.
var New = breaker.New

// Call invokes op through b: if b is Open and its cooldown has not
// elapsed, op is not attempted and Call returns the zero value of T plus
// an *OpenError; otherwise op runs and its outcome is recorded against
// b's identity (unless b's ExceptionFilter ignores the error) before being
// returned unchanged.
//
// Call is a plain generic function, not a package variable like New — Go
// methods and variables cannot themselves carry type parameters, so this
// thin wrapper is the only way to re-export a generic function through a
// facade package.
func Call[T any](ctx context.Context, b *Breaker, op func(context.Context) (T, error)) (T, error) {
	return breaker.Call(ctx, b, op)
}

// NewManualClock returns a Clock fixed at t until Advance is called,
// for deterministic tests of cooldown and rolling-window behavior.
var NewManualClock = breaker.NewManualClock

// NewExceptionFilter returns an ExceptionFilter that records every error
// by default; chain WithIgnore/WithRecord to narrow it.
var NewExceptionFilter = breaker.NewExceptionFilter

// NewFallbackResolver returns a FallbackResolver with no handlers
// registered and no default, equivalent to Disabled() until configured.
var NewFallbackResolver = breaker.NewFallbackResolver

// NewManager returns a Manager whose Make calls resolve against
// defaultStore unless overridden later with UseStore.
var NewManager = manager.New
