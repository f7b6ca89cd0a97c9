package ai

import (
	"jobpilot/internal/config"
	"jobpilot/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// breaker wraps a typed gobreaker. A nil breaker is valid and executes
// functions directly, which is how disabled circuit breakers are represented.
type breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// newBreaker creates a circuit breaker for a named operation family.
// Returns nil when the breaker is disabled in configuration.
func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn with circuit breaker protection
func (b *breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
