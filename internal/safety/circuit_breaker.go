package safety

import (
	"sync"
	"time"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // successes needed to close from half-open
	Timeout          time.Duration // how long the breaker stays open
}

// CircuitBreaker stops calls to a failing dependency for a cool-down period.
// Only errors that count as failures trip it; see Call.
type CircuitBreaker struct {
	mu            sync.Mutex
	name          string
	config        CircuitBreakerConfig
	clock         clock.Clock
	state         CircuitBreakerState
	failures      uint32
	successes     uint32
	nextAttempt   time.Time
	onStateChange func(from, to CircuitBreakerState)
}

// NewCircuitBreaker creates a breaker. Zero config fields take defaults;
// a nil clock uses the system clock.
func NewCircuitBreaker(name string, config CircuitBreakerConfig, clk clock.Clock) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout == 0 {
		config.Timeout = time.Minute
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		clock:  clk,
		state:  StateClosed,
	}
}

// SetStateChangeCallback registers a callback run after every transition.
// It is called without the breaker lock held.
func (cb *CircuitBreaker) SetStateChangeCallback(callback func(from, to CircuitBreakerState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = callback
}

// Call runs fn unless the breaker is open. A retryable RiskError, or any
// error that is not a RiskError, counts as a failure; a non-retryable
// RiskError means the dependency answered and leaves the breaker alone.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	from := cb.state
	if cb.state == StateOpen {
		if cb.clock.Now().Before(cb.nextAttempt) {
			cb.mu.Unlock()
			return rerrors.NewRiskError(rerrors.ErrorCategoryNetwork, cb.name, "circuit_breaker",
				"circuit breaker is open").
				WithRetryable(false).
				WithContext("retry_at", cb.nextAttempt.Format(time.RFC3339))
		}
		cb.state = StateHalfOpen
		cb.successes = 0
	}
	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	from := cb.state

	if err != nil && countsAsFailure(err) {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.nextAttempt = cb.clock.Now().Add(cb.config.Timeout)
			cb.successes = 0
		}
	} else {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = StateClosed
				cb.successes = 0
			}
		}
	}

	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to CircuitBreakerState) {
	if from == to {
		return
	}
	cb.mu.Lock()
	callback := cb.onStateChange
	cb.mu.Unlock()
	if callback != nil {
		callback(from, to)
	}
}

func countsAsFailure(err error) bool {
	if re, ok := rerrors.As(err); ok {
		return re.IsRetryable()
	}
	return true
}

// State returns the current state. An open breaker whose timeout has passed
// still reports OPEN until the next call tries it.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.mu.Unlock()
	cb.notify(from, StateClosed)
}
