package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/mail"
	"github.com/dmitrymomot/relaykit/core/smtp"
	"github.com/dmitrymomot/relaykit/core/template"
)

// Sender is the delivery surface the API calls into. Satisfied by
// *delivery.Orchestrator.
type Sender interface {
	Send(ctx context.Context, cfg smtp.Config, msg mail.Message) (delivery.Result, error)
	Verify(ctx context.Context, cfg smtp.Config) (delivery.Result, error)
}

// SuppressionChecker answers whether a recipient is on the do-not-send
// list.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, recipient string) (bool, error)
}

// RateLimiter gates outbound sends. Satisfied by *ratelimiter.Limiter.
type RateLimiter interface {
	Allow(recipient string) error
}

// Handler is the HTTP surface of the delivery service.
type Handler struct {
	sender      Sender
	source      delivery.ConfigSource
	templates   *template.Resolver
	suppression SuppressionChecker
	limiter     RateLimiter
	checks      map[string]func(context.Context) error
	defaultFrom string
	verifyWait  time.Duration
	log         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTemplates enables template-backed sends.
func WithTemplates(r *template.Resolver) Option {
	return func(h *Handler) { h.templates = r }
}

// WithSuppression consults the do-not-send list before every delivery.
func WithSuppression(s SuppressionChecker) Option {
	return func(h *Handler) { h.suppression = s }
}

// WithRateLimiter throttles sends per recipient domain.
func WithRateLimiter(l RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithHealthcheck registers a named dependency probe reported by /health.
func WithHealthcheck(name string, check func(context.Context) error) Option {
	return func(h *Handler) { h.checks[name] = check }
}

// WithVerifyTimeout bounds the SMTP verification triggered by
// /health?verify=smtp.
func WithVerifyTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.verifyWait = d
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the API handler. defaultFrom is the sender address
// stamped on every outgoing message.
func NewHandler(sender Sender, source delivery.ConfigSource, defaultFrom string, opts ...Option) *Handler {
	h := &Handler{
		sender:      sender,
		source:      source,
		checks:      make(map[string]func(context.Context) error),
		defaultFrom: defaultFrom,
		verifyWait:  15 * time.Second,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the route table wrapped in request logging.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", h.handleSend)
	mux.HandleFunc("GET /health", h.handleHealth)
	return Logging(h.log)(mux)
}
