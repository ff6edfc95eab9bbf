package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "circuitscope.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const minimalYAML = `
default: primary
stores:
  primary:
    driver: memory
`

func TestLoadMinimalSurface(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Default != "primary" {
		t.Fatalf("Default = %q, want primary", s.Default)
	}
	store, ok := s.Stores["primary"]
	if !ok {
		t.Fatalf("expected \"primary\" store entry")
	}
	if store.Driver != "memory" {
		t.Fatalf("Driver = %q, want memory", store.Driver)
	}
}

func TestLoadMissingDefaultIsError(t *testing.T) {
	path := writeConfig(t, "stores:\n  primary:\n    driver: memory\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing default store name")
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load("/nonexistent/circuitscope.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestConfigurationAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
default: primary
stores:
  primary:
    driver: memory
defaults:
  failure_threshold: 10
  timeout: 30s
strategies:
  default: percentage_failures
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg, err := s.Configuration("checkout")
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if cfg.FailureThreshold() != 10 {
		t.Fatalf("FailureThreshold = %d, want 10", cfg.FailureThreshold())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("Timeout = %s, want 30s", cfg.Timeout())
	}
	if cfg.StrategyName() != "percentage_failures" {
		t.Fatalf("StrategyName = %q, want percentage_failures", cfg.StrategyName())
	}
}

func TestConfigurationWithoutDefaultsUsesBuiltins(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg, err := s.Configuration("checkout")
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if cfg.Name() != "checkout" {
		t.Fatalf("Name = %q, want checkout", cfg.Name())
	}
}

func TestBuildManagerWiresMemoryStore(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	m, err := s.BuildManager(nil)
	if err != nil {
		t.Fatalf("BuildManager: %v", err)
	}

	cfg, err := s.Configuration("checkout")
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	b, err := m.Make("checkout", &cfg, "", s.BreakerOptions()...)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if b == nil {
		t.Fatalf("expected non-nil breaker")
	}
}

func TestBuildManagerRejectsUnconfiguredCacheStore(t *testing.T) {
	path := writeConfig(t, `
default: primary
stores:
  primary:
    driver: cache
    prefix: circuitscope
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	m, err := s.BuildManager(nil)
	if err != nil {
		t.Fatalf("BuildManager: %v", err)
	}

	cfg, err := s.Configuration("checkout")
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if _, err := m.Make("checkout", &cfg, ""); err == nil {
		t.Fatalf("expected error resolving a cache store with no connection")
	}
}

func TestMorphKeyMapsParseFromYAML(t *testing.T) {
	path := writeConfig(t, `
default: primary
stores:
  primary:
    driver: memory
morphKeyMap:
  Tenant: uuid
enforceMorphKeyMap: true
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.EnforceMorphKeyMap {
		t.Fatalf("expected EnforceMorphKeyMap true")
	}
	if s.MorphKeyMap["Tenant"] != "uuid" {
		t.Fatalf("MorphKeyMap[Tenant] = %q, want uuid", s.MorphKeyMap["Tenant"])
	}
}
