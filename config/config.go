package config

import (
	"fmt"
	"time"

	"github.com/kbukum/guardkit/logger"
	"github.com/kbukum/guardkit/resilience"
)

// Config is the root configuration tree for a service embedding guardkit.
// Projects extend it by embedding it in their own config structs:
//
//	type MyConfig struct {
//	    gkconfig.Config `yaml:",inline" mapstructure:",squash"`
//	    Database        database.Config `yaml:"database" mapstructure:"database"`
//	}
type Config struct {
	Service     string        `yaml:"service" mapstructure:"service" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`

	// Guards maps dependency names to their guard settings.
	Guards map[string]GuardSettings `yaml:"guards" mapstructure:"guards" validate:"dive"`
}

// GuardSettings configures the guard chain for one protected dependency.
// Nil sections leave the corresponding primitive out of the chain.
type GuardSettings struct {
	Throttle       *ThrottleSettings `yaml:"throttle" mapstructure:"throttle"`
	Bulkhead       *BulkheadSettings `yaml:"bulkhead" mapstructure:"bulkhead"`
	CircuitBreaker *BreakerSettings  `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry          *RetrySettings    `yaml:"retry" mapstructure:"retry"`
	Timeout        time.Duration     `yaml:"timeout" mapstructure:"timeout" validate:"min=0"`
}

// ThrottleSettings configures a token-bucket throttle.
type ThrottleSettings struct {
	Capacity   float64 `yaml:"capacity" mapstructure:"capacity" validate:"gt=0"`
	RefillRate float64 `yaml:"refill_rate" mapstructure:"refill_rate" validate:"min=0"`
	Tokens     float64 `yaml:"tokens" mapstructure:"tokens" validate:"min=0"`
}

// BulkheadSettings configures concurrency and queue limits.
type BulkheadSettings struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gt=0"`
	MaxQueue      int `yaml:"max_queue" mapstructure:"max_queue" validate:"min=0"`
}

// BreakerSettings configures a circuit breaker.
type BreakerSettings struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"gt=0"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold" validate:"min=0"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"min=0"`
	Window           time.Duration `yaml:"window" mapstructure:"window" validate:"min=0"`
}

// RetrySettings configures retry with backoff and jitter.
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gt=0"`
	Backoff     string        `yaml:"backoff" mapstructure:"backoff" validate:"omitempty,oneof=constant linear exponential"`
	BaseDelay   time.Duration `yaml:"base_delay" mapstructure:"base_delay" validate:"min=0"`
	MaxDelay    time.Duration `yaml:"max_delay" mapstructure:"max_delay" validate:"min=0"`
	Jitter      string        `yaml:"jitter" mapstructure:"jitter" validate:"omitempty,oneof=none full equal"`
}

// ApplyDefaults fills unset fields. Override in embedding structs and call
// c.Config.ApplyDefaults() first.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()

	for name, g := range c.Guards {
		g.applyDefaults()
		c.Guards[name] = g
	}
}

func (g *GuardSettings) applyDefaults() {
	if g.Throttle != nil {
		if g.Throttle.Capacity <= 0 {
			g.Throttle.Capacity = 20
		}
		if g.Throttle.Tokens <= 0 {
			g.Throttle.Tokens = 1
		}
	}
	if g.Bulkhead != nil {
		if g.Bulkhead.MaxConcurrent <= 0 {
			g.Bulkhead.MaxConcurrent = 10
		}
	}
	if g.CircuitBreaker != nil {
		if g.CircuitBreaker.FailureThreshold <= 0 {
			g.CircuitBreaker.FailureThreshold = 5
		}
		if g.CircuitBreaker.SuccessThreshold <= 0 {
			g.CircuitBreaker.SuccessThreshold = 2
		}
		if g.CircuitBreaker.Timeout <= 0 {
			g.CircuitBreaker.Timeout = 30 * time.Second
		}
		if g.CircuitBreaker.Window <= 0 {
			g.CircuitBreaker.Window = 60 * time.Second
		}
	}
	if g.Retry != nil {
		if g.Retry.MaxAttempts <= 0 {
			g.Retry.MaxAttempts = 3
		}
		if g.Retry.Backoff == "" {
			g.Retry.Backoff = "exponential"
		}
		if g.Retry.BaseDelay <= 0 {
			g.Retry.BaseDelay = 100 * time.Millisecond
		}
		if g.Retry.MaxDelay <= 0 {
			g.Retry.MaxDelay = 10 * time.Second
		}
		if g.Retry.Jitter == "" {
			g.Retry.Jitter = "full"
		}
	}
}

// Validate checks the configuration tree. Override in embedding structs
// and call c.Config.Validate() first.
func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Guard builds a resilience.Guard for the named dependency, or nil when
// no settings exist for it.
func (c *Config) Guard(name string) *resilience.Guard {
	g, ok := c.Guards[name]
	if !ok {
		return nil
	}
	return resilience.BuildGuard(g.GuardConfig(name))
}

// GuardConfig converts the settings into a resilience.GuardConfig.
func (g GuardSettings) GuardConfig(name string) resilience.GuardConfig {
	cfg := resilience.GuardConfig{
		Name:    name,
		Timeout: g.Timeout,
	}
	if g.Throttle != nil {
		cfg.Throttle = &resilience.ThrottleConfig{
			Name:       name,
			Capacity:   g.Throttle.Capacity,
			RefillRate: g.Throttle.RefillRate,
			Tokens:     g.Throttle.Tokens,
		}
	}
	if g.Bulkhead != nil {
		cfg.Bulkhead = &resilience.BulkheadConfig{
			Name:          name,
			MaxConcurrent: g.Bulkhead.MaxConcurrent,
			MaxQueue:      g.Bulkhead.MaxQueue,
		}
	}
	if g.CircuitBreaker != nil {
		cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{
			Name:             name,
			FailureThreshold: g.CircuitBreaker.FailureThreshold,
			SuccessThreshold: g.CircuitBreaker.SuccessThreshold,
			Timeout:          g.CircuitBreaker.Timeout,
			Window:           g.CircuitBreaker.Window,
		}
	}
	if g.Retry != nil {
		cfg.Retry = &resilience.RetryPolicy{
			MaxAttempts: g.Retry.MaxAttempts,
			Backoff:     g.Retry.backoff(),
			Jitter:      g.Retry.jitter(),
		}
	}
	return cfg
}

func (r *RetrySettings) backoff() resilience.BackoffStrategy {
	switch r.Backoff {
	case "constant":
		return resilience.ConstantBackoff{Delay: r.BaseDelay}
	case "linear":
		return resilience.LinearBackoff{Base: r.BaseDelay, Max: r.MaxDelay}
	default:
		return resilience.ExponentialBackoff{Base: r.BaseDelay, Max: r.MaxDelay}
	}
}

func (r *RetrySettings) jitter() resilience.JitterStrategy {
	switch r.Jitter {
	case "none":
		return resilience.NoJitter{}
	case "equal":
		return resilience.EqualJitter{}
	default:
		return resilience.FullJitter{}
	}
}
