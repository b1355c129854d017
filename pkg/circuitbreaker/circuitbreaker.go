// Package circuitbreaker guards outbound provider calls so that a
// failing embedding or generation backend stops receiving traffic for a
// cooldown period instead of being hammered.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	// Closed lets requests through.
	Closed State = iota
	// Open rejects requests until the cooldown elapses.
	Open
	// HalfOpen lets trial requests through to probe recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the breaker rejects requests.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after a run of consecutive failures and closes again
// after enough consecutive successes in the half-open state.
type Breaker struct {
	failureThreshold uint32
	successThreshold uint32
	cooldown         time.Duration

	failures  uint32
	successes uint32
	openedAt  time.Time
	state     State
	mutex     sync.Mutex
}

// New creates a closed breaker.
func New(failureThreshold, successThreshold uint32, cooldown time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		state:            Closed,
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Do runs fn unless the breaker is open, recording the outcome.
func (b *Breaker) Do(fn func() error) error {
	b.mutex.Lock()
	if b.state == Open && time.Since(b.openedAt) > b.cooldown {
		b.state = HalfOpen
		b.successes = 0
	}
	if b.state == Open {
		b.mutex.Unlock()
		return ErrOpen
	}
	b.mutex.Unlock()

	err := fn()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit. Caller holds the lock.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
	b.failures = 0
	b.successes = 0
}
