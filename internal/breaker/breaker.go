package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit is open and the call was
// rejected without being attempted. Callers can branch on it with errors.Is
// to distinguish "not attempted" from "attempted and failed".
var ErrCircuitOpen = errors.New("circuit open")

// State is the breaker's position in its lifecycle.
type State int

const (
	// Closed is normal operation: calls pass through.
	Closed State = iota
	// Open rejects calls immediately until the recovery timeout elapses.
	Open
	// HalfOpen allows a trial call after the recovery timeout.
	HalfOpen
)

// String returns the state name.
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

// Breaker wraps calls with circuit-breaking fault tolerance. It cycles
// closed -> open on reaching the failure threshold, open -> half-open after
// the recovery timeout, and half-open -> closed or back to open depending on
// the trial call. The zero value is not usable; use New.
type Breaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	now              func() time.Time

	// mu is held across the wrapped call so the state check, the call, and
	// the bookkeeping form one critical section; concurrent callers sharing
	// a breaker cannot double-trip it or lose failures.
	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock injects a time source, letting tests drive the recovery timeout
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a closed breaker that opens after failureThreshold consecutive
// failures and allows a trial call once recoveryTimeout has elapsed since
// the last failure.
func New(failureThreshold int, recoveryTimeout time.Duration, opts ...Option) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 60 * time.Second
	}
	b := &Breaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
		state:            Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Call invokes fn under the breaker. While the circuit is open and the
// recovery timeout has not elapsed, Call returns ErrCircuitOpen without
// invoking fn. Otherwise fn runs; success closes the circuit and resets the
// failure count, failure updates the bookkeeping and the original error is
// always returned to the caller.
func (b *Breaker) Call(fn func() (any, error)) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.now().Sub(b.lastFailure) < b.recoveryTimeout {
			return nil, ErrCircuitOpen
		}
		b.state = HalfOpen
	}

	result, err := fn()
	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.failures >= b.failureThreshold {
			b.state = Open
		}
		return nil, err
	}

	b.failures = 0
	b.state = Closed
	return result, nil
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
