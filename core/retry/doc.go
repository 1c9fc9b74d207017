// Package retry provides bounded retry execution with exponential backoff
// and jitter for transient delivery failures.
//
// A Policy describes the schedule: attempt count, base delay, growth
// multiplier, delay cap, and jitter fraction. Do runs an operation under a
// policy and consults a caller-supplied predicate to decide whether a
// failure is worth retrying, so permanent failures (bad credentials,
// rejected recipients) fail fast after a single attempt while network blips
// and timeouts get fresh attempts on fresh connections.
//
// Usage:
//
//	policy := retry.DefaultPolicy()
//	err := retry.Do(ctx, policy, func(err error) bool {
//		return smtp.Classify(err).Transient
//	}, func(ctx context.Context) error {
//		return deliverOnce(ctx)
//	})
//
// The context bounds the waits between attempts. Cancelling it during a
// backoff wait aborts the loop and returns the context error wrapped
// around the last attempt's failure.
package retry
