// Package manager implements the fluent scope builder and driver/strategy
// registries spec.md §4.4 describes: it resolves a named store
// configuration to a cached driver instance, resolves a strategy by name,
// and composes a (Configuration, Store, Strategy, Scope) into a Breaker.
//
// Grounded on the teacher's autobreaker.go facade pattern (one package
// exposing constructors as plain values: "var New = breaker.New") — here
// generalized from a single exported constructor to an immutable builder
// chain, per spec.md's Design Notes instruction to replace global
// configuration reads with an explicit value threaded through construction.
package manager

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vnykmshr/circuitscope/internal/breaker"
	"github.com/vnykmshr/circuitscope/internal/model"
	"github.com/vnykmshr/circuitscope/internal/store"
	"github.com/vnykmshr/circuitscope/internal/strategy"
)

// DriverFactory builds a Store from a named store configuration's raw
// options (as parsed from YAML by the config package: connection
// strings, table names, prefixes, and the like).
type DriverFactory func(options map[string]interface{}) (store.Store, error)

// StoreConfig names which registered driver a given store configuration
// uses, plus the options passed to its factory.
type StoreConfig struct {
	Driver  string
	Options map[string]interface{}
}

// Manager is the root of the Manager/scope-builder chain. The zero value
// is not usable; construct with New.
type Manager struct {
	mu *sync.Mutex // guards storeCache and drivers; shared by every clone, like the maps it guards

	drivers      map[string]DriverFactory
	storeConfigs map[string]StoreConfig
	storeCache   map[string]store.Store

	strategies *strategy.Registry

	activeStore string
	scope       model.Scope

	contextMap      MorphKeyMap
	contextEnforce  bool
	boundaryMap     MorphKeyMap
	boundaryEnforce bool

	logger *zap.Logger
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithDriver registers a driver factory under name (e.g. "memory",
// "cache", "durable"), available to every store configuration naming it.
func WithDriver(name string, factory DriverFactory) Option {
	return func(m *Manager) { m.drivers[name] = factory }
}

// WithStoreConfig registers a named store configuration (e.g. "default",
// "redis-cache"), referencing one of the registered drivers.
func WithStoreConfig(name string, cfg StoreConfig) Option {
	return func(m *Manager) { m.storeConfigs[name] = cfg }
}

// WithContextMorphKeyMap sets the context-side morph-key map and its
// enforce mode (spec.md §4.5).
func WithContextMorphKeyMap(m MorphKeyMap, enforce bool) Option {
	return func(mgr *Manager) { mgr.contextMap = m; mgr.contextEnforce = enforce }
}

// WithBoundaryMorphKeyMap sets the boundary-side morph-key map and its
// enforce mode.
func WithBoundaryMorphKeyMap(m MorphKeyMap, enforce bool) Option {
	return func(mgr *Manager) { mgr.boundaryMap = m; mgr.boundaryEnforce = enforce }
}

// WithLogger overrides the default no-op logger, threaded into every
// Breaker this Manager builds.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New returns a Manager whose Make calls resolve stores against
// defaultStore unless a later UseStore call overrides it.
func New(defaultStore string, opts ...Option) *Manager {
	m := &Manager{
		mu:           &sync.Mutex{},
		drivers:      make(map[string]DriverFactory),
		storeConfigs: make(map[string]StoreConfig),
		storeCache:   make(map[string]store.Store),
		strategies:   strategy.NewRegistry(),
		activeStore:  defaultStore,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// clone returns a shallow copy of m: maps and registries are shared (they
// are append-mostly and guarded internally), but the scope/active-store
// fields are independent, which is what makes For/Boundary/UseStore safe
// to chain without mutating the receiver.
func (m *Manager) clone() *Manager {
	cp := *m
	return &cp
}

// For returns a new Manager with its scope's context side set to ctx. An
// absent Ref (the zero value) clears the context side. The receiver is
// unaffected.
func (m *Manager) For(ctx model.Ref) *Manager {
	cp := m.clone()
	if ctx == (model.Ref{}) {
		cp.scope.Context = nil
	} else {
		ref := ctx
		cp.scope.Context = &ref
	}
	return cp
}

// Boundary returns a new Manager with its scope's boundary side set to b.
// The receiver is unaffected.
func (m *Manager) Boundary(b model.Ref) *Manager {
	cp := m.clone()
	if b == (model.Ref{}) {
		cp.scope.Boundary = nil
	} else {
		ref := b
		cp.scope.Boundary = &ref
	}
	return cp
}

// UseStore returns a new Manager whose Make calls resolve against the
// named store configuration instead of the current one.
func (m *Manager) UseStore(name string) *Manager {
	cp := m.clone()
	cp.activeStore = name
	return cp
}

// RegisterDriver adds a driver factory after construction (e.g. a custom
// driver supplied by the host application).
func (m *Manager) RegisterDriver(name string, factory DriverFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[name] = factory
}

// RegisterStrategy adds a custom strategy, delegating to the Manager's
// strategy registry.
func (m *Manager) RegisterStrategy(name strategy.Name, s strategy.Strategy) {
	m.strategies.Register(name, s)
}

func (m *Manager) resolveStore() (store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.storeCache[m.activeStore]; ok {
		return cached, nil
	}

	cfg, ok := m.storeConfigs[m.activeStore]
	if !ok {
		return nil, &UndefinedStoreError{Store: m.activeStore}
	}
	factory, ok := m.drivers[cfg.Driver]
	if !ok {
		return nil, &UnsupportedDriverError{Driver: cfg.Driver}
	}
	st, err := factory(cfg.Options)
	if err != nil {
		return nil, err
	}
	m.storeCache[m.activeStore] = st
	return st, nil
}

func (m *Manager) validateScope() error {
	if m.scope.Context != nil {
		if err := validateMorphKey("context", m.scope.Context.Type, m.contextMap, m.contextEnforce); err != nil {
			return err
		}
	}
	if m.scope.Boundary != nil {
		if err := validateMorphKey("boundary", m.scope.Boundary.Type, m.boundaryMap, m.boundaryEnforce); err != nil {
			return err
		}
	}
	return nil
}

// Make builds a Breaker named name, in the Manager's current scope,
// against its currently active store. config defaults to
// model.NewConfiguration(name) when nil; strategyName defaults to
// config's own StrategyName when empty.
func (m *Manager) Make(name string, config *model.Configuration, strategyName string, opts ...breaker.Option) (*breaker.Breaker, error) {
	if err := m.validateScope(); err != nil {
		return nil, err
	}

	cfg := model.NewConfiguration(name)
	if config != nil {
		cfg = *config
	}
	if strategyName != "" {
		cfg = cfg.WithStrategyName(strategyName)
	}

	strat, err := m.strategies.Resolve(cfg.StrategyName())
	if err != nil {
		return nil, err
	}

	st, err := m.resolveStore()
	if err != nil {
		return nil, err
	}

	key := model.Key{Name: name, Scope: m.scope}
	allOpts := append([]breaker.Option{breaker.WithLogger(m.logger)}, opts...)
	return breaker.New(key, cfg, st, strat, allOpts...), nil
}

// Flush clears cached store instances, per spec.md §5's worker-recycle
// hook. Memory-driver instances are discarded entirely (their state is
// process-local and gone regardless); cache and durable instances are
// simply re-resolved (and, for durable, re-pooled) on next use since their
// state lives outside the process.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, st := range m.storeCache {
		if flusher, ok := st.(interface{ Flush() }); ok {
			flusher.Flush()
		}
		delete(m.storeCache, name)
	}
}
