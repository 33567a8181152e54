package exporter

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int32

const (
	// CircuitClosed means the circuit is operating normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen means calls are rejected without reaching the backend.
	CircuitOpen
	// CircuitHalfOpen means a single probe call is allowed through.
	CircuitHalfOpen
)

// String returns the state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker trips after maxFailures consecutive failures and allows a
// probe after resetTimeout. Thread-safe for concurrent use.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mu                  sync.Mutex
	state               atomic.Int32 // CircuitState
	consecutiveFailures int
	lastFailure         time.Time
}

// NewCircuitBreaker creates a circuit breaker. A maxFailures of 0 disables
// the breaker (always closed).
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
	cb.state.Store(int32(CircuitClosed))
	return cb
}

// Allow reports whether a call may proceed, transitioning open to half-open
// after the reset timeout.
func (cb *CircuitBreaker) Allow() bool {
	if cb.maxFailures <= 0 {
		return true
	}
	if CircuitState(cb.state.Load()) == CircuitClosed {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch CircuitState(cb.state.Load()) {
	case CircuitOpen:
		if time.Since(cb.lastFailure) >= cb.resetTimeout {
			cb.state.Store(int32(CircuitHalfOpen))
			return true
		}
		return false
	case CircuitHalfOpen:
		// One probe at a time; further calls wait for its outcome.
		return false
	default:
		return true
	}
}

// RecordSuccess closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb.maxFailures <= 0 {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
	cb.state.Store(int32(CircuitClosed))
}

// RecordFailure counts a failure, opening the circuit when the threshold is
// reached or a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	if cb.maxFailures <= 0 {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures++
	cb.lastFailure = time.Now()
	if CircuitState(cb.state.Load()) == CircuitHalfOpen || cb.consecutiveFailures >= cb.maxFailures {
		cb.state.Store(int32(CircuitOpen))
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(cb.state.Load())
}
