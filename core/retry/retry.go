package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Error variables define retry execution failures.
var (
	ErrInvalidPolicy = errors.New("retry: invalid policy")
)

// Policy bounds a retry loop: how many attempts, how long to wait between
// them, and how much randomness to spread simultaneous retries apart.
type Policy struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	BaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	Multiplier  float64       `env:"RETRY_MULTIPLIER" envDefault:"2"`
	MaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"5s"`
	Jitter      float64       `env:"RETRY_JITTER" envDefault:"0.1"`
}

// DefaultPolicy returns the delivery retry schedule: three attempts with
// exponential backoff from one second, capped at five, with 10% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    5 * time.Second,
		Jitter:      0.1,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: MaxAttempts must be at least 1", ErrInvalidPolicy)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidPolicy)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("%w: Multiplier must be at least 1", ErrInvalidPolicy)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("%w: Jitter must be in [0, 1)", ErrInvalidPolicy)
	}
	return nil
}

// Delay returns the expected backoff before the given retry, without
// jitter. attempt is 1-based: Delay(1) is the wait after the first failed
// attempt. The sequence grows by Multiplier and is capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// jittered spreads the expected delay multiplicatively within
// [d*(1-Jitter), d*(1+Jitter)] so simultaneous failures do not retry in
// lockstep.
func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	factor := 1 - p.Jitter + 2*p.Jitter*rand.Float64()
	return time.Duration(float64(d) * factor)
}

// Do runs fn under the policy. After a failure, retryable decides whether
// waiting and trying again can help; a false verdict (or a nil predicate)
// stops immediately and returns the error unchanged, so permanent failures
// surface after exactly one attempt.
//
// The context governs the waits between attempts, not the attempts
// themselves; fn receives the context and bounds its own work.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w: %w", err, lastErr)
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt >= p.MaxAttempts {
			return lastErr
		}

		if err := sleep(ctx, p.jittered(p.Delay(attempt))); err != nil {
			return fmt.Errorf("%w: %w", err, lastErr)
		}
	}
}

// sleep waits for d or until the context is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
