// Package circuitbreaker guards calls to an optional external dependency so
// a failing provider is skipped quickly instead of stalling every request.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes before closing.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// OnStateChange is called with the lock held; keep it cheap.
	OnStateChange func(from, to State)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	config          Config
}

// New creates a circuit breaker, filling unset thresholds with defaults.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Breaker{state: StateClosed, config: config}
}

// Execute runs fn unless the circuit is open. Context cancellation by the
// caller is not counted as a provider failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)

	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	b.afterCall(err)

	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		elapsed := b.config.Now().Sub(b.lastFailureTime)
		if elapsed < b.config.Timeout {
			return fmt.Errorf("%w: retry after %v", ErrCircuitOpen, b.config.Timeout-elapsed)
		}
		b.transitionTo(StateHalfOpen)
	}

	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.lastFailureTime = b.config.Now()

		if b.state == StateHalfOpen || b.failureCount >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
		return
	}

	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	switch newState {
	case StateClosed, StateOpen:
		b.failureCount = 0
		b.successCount = 0
	case StateHalfOpen:
		b.successCount = 0
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
