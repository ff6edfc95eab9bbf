package model

import "time"

// Default configuration values, per spec.md §3.
const (
	DefaultFailureThreshold    = 5
	DefaultSuccessThreshold    = 2
	DefaultTimeout             = 60 * time.Second
	DefaultSamplingDuration    = 120 * time.Second
	DefaultMinimumThroughput   = 10
	DefaultPercentageThreshold = 50
	DefaultStrategyName        = "consecutive_failures"
)

// Configuration is an immutable breaker configuration value. Construct one
// with NewConfiguration and adjust it with the With* builder methods, each
// of which returns a new value rather than mutating the receiver — the same
// discipline the teacher applies to Settings, generalized from a
// construct-once struct to a value threaded explicitly through the Manager.
type Configuration struct {
	name                string
	failureThreshold    uint64
	successThreshold    uint64
	timeout             time.Duration
	samplingDuration    time.Duration
	minimumThroughput   uint64
	percentageThreshold float64
	strategyName        string
}

// NewConfiguration returns a Configuration for name with every default
// applied.
func NewConfiguration(name string) Configuration {
	return Configuration{
		name:                name,
		failureThreshold:    DefaultFailureThreshold,
		successThreshold:    DefaultSuccessThreshold,
		timeout:             DefaultTimeout,
		samplingDuration:    DefaultSamplingDuration,
		minimumThroughput:   DefaultMinimumThroughput,
		percentageThreshold: DefaultPercentageThreshold,
		strategyName:        DefaultStrategyName,
	}
}

func (c Configuration) Name() string                  { return c.name }
func (c Configuration) FailureThreshold() uint64       { return c.failureThreshold }
func (c Configuration) SuccessThreshold() uint64       { return c.successThreshold }
func (c Configuration) Timeout() time.Duration         { return c.timeout }
func (c Configuration) SamplingDuration() time.Duration { return c.samplingDuration }
func (c Configuration) MinimumThroughput() uint64      { return c.minimumThroughput }
func (c Configuration) PercentageThreshold() float64   { return c.percentageThreshold }
func (c Configuration) StrategyName() string           { return c.strategyName }

// WithFailureThreshold returns a copy with FailureThreshold set.
func (c Configuration) WithFailureThreshold(n uint64) Configuration {
	c.failureThreshold = n
	return c
}

// WithSuccessThreshold returns a copy with SuccessThreshold set.
func (c Configuration) WithSuccessThreshold(n uint64) Configuration {
	c.successThreshold = n
	return c
}

// WithTimeout returns a copy with Timeout set.
func (c Configuration) WithTimeout(d time.Duration) Configuration {
	c.timeout = d
	return c
}

// WithSamplingDuration returns a copy with SamplingDuration set.
func (c Configuration) WithSamplingDuration(d time.Duration) Configuration {
	c.samplingDuration = d
	return c
}

// WithMinimumThroughput returns a copy with MinimumThroughput set.
func (c Configuration) WithMinimumThroughput(n uint64) Configuration {
	c.minimumThroughput = n
	return c
}

// WithPercentageThreshold returns a copy with PercentageThreshold set (0-100).
func (c Configuration) WithPercentageThreshold(pct float64) Configuration {
	c.percentageThreshold = pct
	return c
}

// WithStrategyName returns a copy naming a different registered strategy.
func (c Configuration) WithStrategyName(name string) Configuration {
	c.strategyName = name
	return c
}
