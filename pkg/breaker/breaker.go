package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Allow while the breaker is rejecting calls.
var ErrOpen = errors.New("breaker: circuit open")

// Breaker is a shared failure counter for the delivery pipeline. It is
// constructed once per process and passed by reference to every delivery
// call, replacing hidden process-wide static state with an explicit,
// mutex-guarded component. Concurrent workers may report outcomes
// simultaneously.
//
// After Threshold consecutive failures the breaker opens and Allow rejects
// calls for the Cooldown window; the first call after the window closes is
// let through as a probe.
type Breaker struct {
	mu        sync.Mutex
	failures  int
	openedAt  time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a Breaker that opens after threshold consecutive failures and
// stays open for the cooldown duration. A threshold of zero or below
// disables the breaker entirely: Allow always succeeds.
func New(threshold int, cooldown time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. Returns ErrOpen while the
// breaker is open and the cooldown window has not elapsed.
func (b *Breaker) Allow() error {
	if b == nil || b.threshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// Half-open: admit one probe. A failure re-opens immediately,
		// a success resets the counter.
		b.failures = b.threshold - 1
		return nil
	}
	return ErrOpen
}

// Success resets the consecutive failure counter.
func (b *Breaker) Success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

// Failure records a failed call. Reaching the threshold opens the breaker.
func (b *Breaker) Failure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.failures++
	if b.failures >= b.threshold {
		b.openedAt = b.now()
	}
	b.mu.Unlock()
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
