// Package config loads the full configuration surface spec.md §6 names —
// store definitions, per-field Configuration defaults, strategy selection,
// event/fallback/exception gating, and morph-key maps — from YAML, and
// wires it into a ready-to-use manager.Manager.
//
// Grounded on the pack's YAML-configuration idiom rather than the
// teacher's own code (the teacher has no external configuration surface
// at all — one process, one in-memory Settings struct). yaml.v3 is used
// because it is the library every other repo in the retrieval pack reaches
// for (itsneelabh-gomind, jordigilh-kubernaut, Marincor-gendure all depend
// on it).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/circuitscope/internal/breaker"
	"github.com/vnykmshr/circuitscope/internal/model"
	"github.com/vnykmshr/circuitscope/manager"
)

// StoreSurface is one entry of the top-level "stores" map.
type StoreSurface struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

// TableNamesSurface overrides the durable driver's table names.
type TableNamesSurface struct {
	CircuitBreakers       string `yaml:"circuit_breakers,omitempty"`
	CircuitBreakerEvents  string `yaml:"circuit_breaker_events,omitempty"`
}

// ConfigurationDefaults mirrors model.Configuration's with-er fields, all
// optional; zero values leave model.NewConfiguration's own defaults in
// place (see Surface.Configuration). Durations are plain strings
// ("30s", "5m") since time.Duration has no YAML scalar decoding of its
// own; Surface.Configuration parses them with time.ParseDuration.
type ConfigurationDefaults struct {
	FailureThreshold    *uint64  `yaml:"failure_threshold,omitempty"`
	SuccessThreshold    *uint64  `yaml:"success_threshold,omitempty"`
	Timeout             string   `yaml:"timeout,omitempty"`
	SamplingDuration    string   `yaml:"sampling_duration,omitempty"`
	MinimumThroughput   *uint64  `yaml:"minimum_throughput,omitempty"`
	PercentageThreshold *float64 `yaml:"percentage_threshold,omitempty"`
}

// StrategiesSurface names the default strategy and documents which names
// are expected to be available. Custom strategy *implementations* cannot
// be expressed in YAML (they are Go functions); "available" is parsed but
// not checked against the strategy registry — it is informational only.
type StrategiesSurface struct {
	Default   string   `yaml:"default,omitempty"`
	Available []string `yaml:"available,omitempty"`
}

// EventsSurface gates event dispatch.
type EventsSurface struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// FallbacksSurface names fallback handlers by the key the host registers
// them under in code; YAML cannot express the handler function itself, so
// this only records which names are expected to exist, for validation.
type FallbacksSurface struct {
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Default  string   `yaml:"default,omitempty"`
	Handlers []string `yaml:"handlers,omitempty"`
}

// ExceptionsSurface names ignore/record type-tags. The core classifies
// Go errors via errors.Is against sentinels the host registers in code;
// these lists are descriptive (for config validation/documentation), not
// themselves wired into the exception filter, since a YAML string cannot
// name a Go error value.
type ExceptionsSurface struct {
	Ignore []string `yaml:"ignore,omitempty"`
	Record []string `yaml:"record,omitempty"`
}

// Surface is the root of the configuration document (spec.md §6's
// "Configuration surface").
type Surface struct {
	Default                    string                 `yaml:"default"`
	Stores                     map[string]StoreSurface `yaml:"stores"`
	PrimaryKeyType             string                 `yaml:"primary_key_type,omitempty"`
	TableNames                 TableNamesSurface      `yaml:"table_names,omitempty"`
	Defaults                   ConfigurationDefaults  `yaml:"defaults,omitempty"`
	Strategies                 StrategiesSurface      `yaml:"strategies,omitempty"`
	Events                     EventsSurface          `yaml:"events,omitempty"`
	Fallbacks                  FallbacksSurface       `yaml:"fallbacks,omitempty"`
	Exceptions                 ExceptionsSurface      `yaml:"exceptions,omitempty"`
	MorphKeyMap                manager.MorphKeyMap    `yaml:"morphKeyMap,omitempty"`
	EnforceMorphKeyMap         bool                   `yaml:"enforceMorphKeyMap,omitempty"`
	BoundaryMorphKeyMap        manager.MorphKeyMap    `yaml:"boundaryMorphKeyMap,omitempty"`
	EnforceBoundaryMorphKeyMap bool                   `yaml:"enforceBoundaryMorphKeyMap,omitempty"`
}

// Load reads and parses a configuration document from path.
func Load(path string) (*Surface, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Surface
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if s.Default == "" {
		return nil, fmt.Errorf("config: %s: \"default\" store name is required", path)
	}
	return &s, nil
}

// Configuration builds a model.Configuration named name, seeded from the
// surface's defaults block and, when set, the default strategy name.
func (s *Surface) Configuration(name string) (model.Configuration, error) {
	cfg := model.NewConfiguration(name)

	d := s.Defaults
	if d.FailureThreshold != nil {
		cfg = cfg.WithFailureThreshold(*d.FailureThreshold)
	}
	if d.SuccessThreshold != nil {
		cfg = cfg.WithSuccessThreshold(*d.SuccessThreshold)
	}
	if d.Timeout != "" {
		timeout, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return model.Configuration{}, fmt.Errorf("config: defaults.timeout: %w", err)
		}
		cfg = cfg.WithTimeout(timeout)
	}
	if d.SamplingDuration != "" {
		sampling, err := time.ParseDuration(d.SamplingDuration)
		if err != nil {
			return model.Configuration{}, fmt.Errorf("config: defaults.sampling_duration: %w", err)
		}
		cfg = cfg.WithSamplingDuration(sampling)
	}
	if d.MinimumThroughput != nil {
		cfg = cfg.WithMinimumThroughput(*d.MinimumThroughput)
	}
	if d.PercentageThreshold != nil {
		cfg = cfg.WithPercentageThreshold(*d.PercentageThreshold)
	}
	if s.Strategies.Default != "" {
		cfg = cfg.WithStrategyName(s.Strategies.Default)
	}
	return cfg, nil
}

// eventsEnabled reports whether event dispatch should be on, defaulting to
// true (matching the teacher's own always-on OnStateChange callback).
func (s *Surface) eventsEnabled() bool {
	if s.Events.Enabled == nil {
		return true
	}
	return *s.Events.Enabled
}

// BreakerOptions returns the breaker.Options this surface implies,
// independent of any single store/strategy choice, for passing into
// manager.Manager.Make alongside a per-call config and strategy name.
func (s *Surface) BreakerOptions() []breaker.Option {
	return []breaker.Option{
		breaker.WithEventsEnabled(s.eventsEnabled()),
	}
}
