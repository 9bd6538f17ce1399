package observability

import (
	"context"

	"github.com/kbukum/guardkit/resilience"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service and its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// BreakerHealth reports a circuit breaker's state as component health: an
// open circuit means the dependency behind it is down, half-open means
// recovering.
type BreakerHealth struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerHealth creates a health checker for a circuit breaker.
func NewBreakerHealth(name string, breaker *resilience.CircuitBreaker) *BreakerHealth {
	return &BreakerHealth{name: name, breaker: breaker}
}

// CheckHealth implements HealthChecker.
func (bh *BreakerHealth) CheckHealth(_ context.Context) Health {
	state := bh.breaker.State()
	h := Health{
		Name:    bh.name,
		Details: map[string]string{"state": state.String()},
	}

	switch state {
	case resilience.StateOpen:
		h.Status = HealthStatusDown
		h.Message = "circuit open"
	case resilience.StateHalfOpen:
		h.Status = HealthStatusDegraded
		h.Message = "circuit recovering"
	default:
		h.Status = HealthStatusUp
	}
	return h
}
