// Package delivery orchestrates end-to-end message delivery: compose the
// wire format, open a fresh connection, negotiate TLS, authenticate,
// transmit, and retry transient failures with backoff.
//
// The Orchestrator is the single entry point the HTTP surface and any
// worker call into. Each delivery attempt owns a brand-new connection;
// nothing is pooled or reused, so a failed attempt can never poison a later
// one. Failures are classified (timeout, auth, network, tls, unknown) and
// only transient categories are retried.
//
// An optional circuit breaker short-circuits sends while the relay is
// known-bad, and an AttemptLogger persists one Record per delivery for the
// audit trail. ConfigSource abstracts where the relay settings come from:
// EnvSource reads the environment, the database settings store provides the
// fallback, and Chain tries them in order.
//
// Usage:
//
//	orch := delivery.New(
//		delivery.WithBreaker(breaker.New(5, time.Minute)),
//		delivery.WithAttemptLogger(store),
//		delivery.WithLogger(log),
//	)
//
//	res, err := orch.Send(ctx, cfg, mail.Message{
//		From:    "noreply@example.com",
//		To:      "user@example.com",
//		Subject: "Welcome",
//		Text:    "Hello!",
//	})
package delivery
