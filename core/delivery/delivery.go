package delivery

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/relaykit/core/logger"
	"github.com/dmitrymomot/relaykit/core/mail"
	"github.com/dmitrymomot/relaykit/core/retry"
	"github.com/dmitrymomot/relaykit/core/smtp"
	"github.com/dmitrymomot/relaykit/pkg/breaker"
)

// Result summarizes a finished delivery: how the connection was secured,
// which mechanism authenticated it, how many attempts it took, and the last
// server reply code seen.
type Result struct {
	ID            string
	TLSMode       smtp.TLSMode
	AuthMethod    string
	Attempts      int
	Elapsed       time.Duration
	LastReplyCode int
}

// Orchestrator runs deliveries end to end: compose, connect, authenticate,
// transmit, retry on transient failures, and record the outcome. It is safe
// for concurrent use; every attempt opens its own connection.
type Orchestrator struct {
	policy   retry.Policy
	breaker  *breaker.Breaker
	attempts AttemptLogger
	hostname string
	log      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetryPolicy replaces the default retry schedule.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithBreaker guards deliveries with a circuit breaker: consecutive
// failures open it and short-circuit sends until the cooldown passes.
func WithBreaker(b *breaker.Breaker) Option {
	return func(o *Orchestrator) { o.breaker = b }
}

// WithAttemptLogger sets the delivery record sink.
func WithAttemptLogger(l AttemptLogger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.attempts = l
		}
	}
}

// WithHostname sets the hostname used in generated Message-ID headers.
func WithHostname(hostname string) Option {
	return func(o *Orchestrator) {
		if hostname != "" {
			o.hostname = hostname
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// New creates an Orchestrator with the default retry policy and no
// persistence.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policy:   retry.DefaultPolicy(),
		attempts: NopAttemptLogger{},
		hostname: "localhost",
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		o.hostname = h
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send delivers msg through the relay described by cfg. Transient failures
// are retried on fresh connections under the orchestrator's policy;
// permanent ones surface after a single attempt. A Record is written for
// every delivery that reached the wire, success or failure.
func (o *Orchestrator) Send(ctx context.Context, cfg smtp.Config, msg mail.Message) (Result, error) {
	res := Result{ID: ulid.Make().String(), TLSMode: smtp.TLSModeNone}

	if o.breaker != nil {
		if err := o.breaker.Allow(); err != nil {
			return res, err
		}
	}

	if err := msg.Validate(); err != nil {
		return res, err
	}
	wire, err := mail.Compose(msg, o.hostname)
	if err != nil {
		return res, err
	}

	start := time.Now()
	err = retry.Do(ctx, o.policy, transient, func(ctx context.Context) error {
		res.Attempts++
		aerr := o.attempt(ctx, cfg, msg, wire, &res)
		if aerr != nil {
			o.log.WarnContext(ctx, "delivery attempt failed",
				slog.String("id", res.ID),
				logger.Relay(cfg.Addr()),
				logger.Attempt(res.Attempts),
				logger.Category(string(smtp.Classify(aerr).Category)),
				logger.Error(aerr),
			)
		}
		return aerr
	})
	res.Elapsed = time.Since(start)

	if o.breaker != nil {
		if err == nil {
			o.breaker.Success()
		} else {
			o.breaker.Failure()
		}
	}

	o.record(ctx, msg, res, err)

	if err != nil {
		return res, err
	}

	o.log.InfoContext(ctx, "message delivered",
		slog.String("id", res.ID),
		logger.Relay(cfg.Addr()),
		logger.Recipient(msg.To),
		logger.TLSMode(string(res.TLSMode)),
		logger.AuthMethod(res.AuthMethod),
		logger.Attempt(res.Attempts),
		logger.Elapsed(start),
	)
	return res, nil
}

// attempt runs one full conversation on a brand-new connection. Whatever
// the conversation reached is captured into res even when it fails, so the
// record reflects the furthest state.
func (o *Orchestrator) attempt(ctx context.Context, cfg smtp.Config, msg mail.Message, wire []byte, res *Result) error {
	conn, err := smtp.Connect(ctx, cfg, o.log)
	if err != nil {
		return err
	}
	// finalCode freezes the decisive reply code before QUIT shifts it.
	finalCode := 0
	defer func() {
		res.TLSMode = conn.TLSMode()
		res.AuthMethod = conn.AuthMethod()
		if finalCode != 0 {
			res.LastReplyCode = finalCode
		} else {
			res.LastReplyCode = conn.LastReplyCode()
		}
		_ = conn.Close()
	}()

	if _, err := conn.Authenticate(); err != nil {
		return err
	}
	if err := conn.MailFrom(msg.From); err != nil {
		return err
	}
	if err := conn.RcptTo(msg.To); err != nil {
		return err
	}
	if err := conn.Data(wire); err != nil {
		return err
	}

	finalCode = conn.LastReplyCode()
	conn.Quit()
	return nil
}

// Verify opens a connection and authenticates without sending anything.
// Health checks use it to prove the relay configuration end to end.
func (o *Orchestrator) Verify(ctx context.Context, cfg smtp.Config) (Result, error) {
	res := Result{ID: ulid.Make().String(), TLSMode: smtp.TLSModeNone, Attempts: 1}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	conn, err := smtp.Connect(ctx, cfg, o.log)
	if err != nil {
		return res, err
	}
	finalCode := 0
	defer func() {
		res.TLSMode = conn.TLSMode()
		res.AuthMethod = conn.AuthMethod()
		if finalCode != 0 {
			res.LastReplyCode = finalCode
		} else {
			res.LastReplyCode = conn.LastReplyCode()
		}
		_ = conn.Close()
	}()

	if _, err := conn.Authenticate(); err != nil {
		return res, err
	}

	finalCode = conn.LastReplyCode()
	conn.Quit()
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, msg mail.Message, res Result, derr error) {
	rec := Record{
		ID:            res.ID,
		Recipient:     msg.To,
		Subject:       msg.Subject,
		Status:        StatusDelivered,
		TLSMode:       string(res.TLSMode),
		AuthMethod:    res.AuthMethod,
		Attempts:      res.Attempts,
		ElapsedMS:     res.Elapsed.Milliseconds(),
		LastReplyCode: res.LastReplyCode,
		CreatedAt:     time.Now().UTC(),
	}
	if derr != nil {
		cls := smtp.Classify(derr)
		rec.Status = StatusFailed
		rec.Category = string(cls.Category)
		rec.Diagnostic = derr.Error()
	}

	if err := o.attempts.Record(ctx, rec); err != nil {
		o.log.ErrorContext(ctx, "writing delivery record",
			slog.String("id", rec.ID), logger.Error(err))
	}
}

// transient is the retry predicate: only failures the classifier marks
// transient (timeouts, network drops) earn another attempt.
func transient(err error) bool {
	return smtp.Classify(err).Transient
}
