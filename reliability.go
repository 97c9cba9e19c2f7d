package main

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// RateLimiter throttles outbound requests to the scorecard host so a burst of
// due matches doesn't hammer it.
type RateLimiter struct {
	requests    []time.Time
	maxRequests int
	window      time.Duration
	mu          sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests:    make([]time.Time, 0),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Wait blocks until it's safe to make another request
func (rl *RateLimiter) Wait() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Remove old requests outside the window
	cutoff := now.Add(-rl.window)
	validRequests := make([]time.Time, 0)
	for _, reqTime := range rl.requests {
		if reqTime.After(cutoff) {
			validRequests = append(validRequests, reqTime)
		}
	}
	rl.requests = validRequests

	// If we're at the limit, wait until we can make another request
	if len(rl.requests) >= rl.maxRequests {
		oldestRequest := rl.requests[0]
		waitTime := rl.window - now.Sub(oldestRequest)
		if waitTime > 0 {
			log.Printf("Rate limit reached, waiting %v", waitTime)
			time.Sleep(waitTime)
		}
	}

	rl.requests = append(rl.requests, now)
}

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker implements the circuit breaker pattern for external calls
// (scorecard fetches, Discord delivery).
type CircuitBreaker struct {
	name          string
	maxFailures   int
	resetTimeout  time.Duration
	state         CircuitBreakerState
	failures      int
	lastFailTime  time.Time
	nextRetryTime time.Time
	mu            sync.RWMutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
	}
}

// Execute runs a function with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	if cb.state == CircuitOpen && now.After(cb.nextRetryTime) {
		cb.state = CircuitHalfOpen
		log.Printf("Circuit breaker %s transitioning to Half-Open", cb.name)
	}

	if cb.state == CircuitOpen {
		return fmt.Errorf("circuit breaker %s is open, failing fast", cb.name)
	}

	err := fn()

	if err != nil {
		cb.recordFailure()
		return fmt.Errorf("circuit breaker %s: %w", cb.name, err)
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	cb.lastFailTime = time.Now()

	if cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
		cb.nextRetryTime = time.Now().Add(cb.resetTimeout)
		log.Printf("Circuit breaker %s opened due to %d failures", cb.name, cb.failures)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		log.Printf("Circuit breaker %s closed after successful call", cb.name)
	}
	cb.failures = 0
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(config RetryConfig, operation func() error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Printf("Operation succeeded on attempt %d", attempt)
			}
			return nil
		}

		lastErr = err

		if attempt == config.MaxAttempts {
			log.Printf("Operation failed after %d attempts: %v", config.MaxAttempts, err)
			break
		}

		log.Printf("Operation failed on attempt %d: %v, retrying in %v", attempt, err, delay)
		time.Sleep(delay)

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// EnhancedLogger provides structured logging with different levels
type EnhancedLogger struct {
	prefix string
}

// NewEnhancedLogger creates a new enhanced logger
func NewEnhancedLogger(prefix string) *EnhancedLogger {
	return &EnhancedLogger{prefix: prefix}
}

// LogError logs an error with context
func (el *EnhancedLogger) LogError(operation string, err error, context map[string]interface{}) {
	log.Printf("ERROR [%s] %s failed: %v | Context: %s", el.prefix, operation, err, formatContext(context))
}

// LogWarning logs a warning with context
func (el *EnhancedLogger) LogWarning(operation string, message string, context map[string]interface{}) {
	log.Printf("WARN [%s] %s: %s | Context: %s", el.prefix, operation, message, formatContext(context))
}

// LogInfo logs informational messages
func (el *EnhancedLogger) LogInfo(operation string, message string, context map[string]interface{}) {
	log.Printf("INFO [%s] %s: %s | Context: %s", el.prefix, operation, message, formatContext(context))
}

func formatContext(context map[string]interface{}) string {
	contextStr := ""
	for key, value := range context {
		contextStr += fmt.Sprintf("%s=%v ", key, value)
	}
	return contextStr
}
