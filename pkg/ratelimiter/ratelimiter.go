package ratelimiter

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Package-level error definitions for rate limiter operations.
var (
	ErrInvalidRecipient  = errors.New("ratelimiter: recipient has no domain part")
	ErrRateLimitExceeded = errors.New("ratelimiter: rate limit exceeded")
)

// Limiter throttles outbound deliveries with a global token bucket plus one
// bucket per recipient domain. Large consumer providers throttle aggressively
// per connecting IP, so per-domain pacing keeps a burst to one provider from
// starving deliveries to everyone else.
type Limiter struct {
	mu      sync.Mutex
	global  *rate.Limiter
	domains map[string]*rate.Limiter

	domainRate  rate.Limit
	domainBurst int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithGlobalRate sets the process-wide delivery rate and burst.
func WithGlobalRate(r rate.Limit, burst int) Option {
	return func(l *Limiter) {
		if r > 0 && burst > 0 {
			l.global = rate.NewLimiter(r, burst)
		}
	}
}

// WithDomainRate sets the per-recipient-domain rate and burst applied to
// domains without an explicit override.
func WithDomainRate(r rate.Limit, burst int) Option {
	return func(l *Limiter) {
		if r > 0 && burst > 0 {
			l.domainRate = r
			l.domainBurst = burst
		}
	}
}

// WithDomainOverride pins a specific domain to its own rate and burst.
func WithDomainOverride(domain string, r rate.Limit, burst int) Option {
	return func(l *Limiter) {
		if domain != "" && r > 0 && burst > 0 {
			l.domains[strings.ToLower(domain)] = rate.NewLimiter(r, burst)
		}
	}
}

// New creates a Limiter. Defaults: 10 deliveries/second globally with burst
// 10, and 5/second with burst 5 per recipient domain.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		global:      rate.NewLimiter(10, 10),
		domains:     make(map[string]*rate.Limiter),
		domainRate:  5,
		domainBurst: 5,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until both the global and the recipient-domain buckets grant a
// token, or the context is done.
func (l *Limiter) Wait(ctx context.Context, recipient string) error {
	domain, err := domainOf(recipient)
	if err != nil {
		return err
	}

	if err := l.global.Wait(ctx); err != nil {
		return err
	}
	return l.domainLimiter(domain).Wait(ctx)
}

// Allow reports whether a delivery to the recipient may proceed right now
// without blocking. The global token is only consumed when the domain bucket
// also grants one.
func (l *Limiter) Allow(recipient string) error {
	domain, err := domainOf(recipient)
	if err != nil {
		return err
	}

	dl := l.domainLimiter(domain)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.global.Tokens() < 1 || dl.Tokens() < 1 {
		return ErrRateLimitExceeded
	}
	l.global.Allow()
	dl.Allow()
	return nil
}

func (l *Limiter) domainLimiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dl, ok := l.domains[domain]; ok {
		return dl
	}
	dl := rate.NewLimiter(l.domainRate, l.domainBurst)
	l.domains[domain] = dl
	return dl
}

func domainOf(recipient string) (string, error) {
	at := strings.LastIndex(recipient, "@")
	if at < 0 || at == len(recipient)-1 {
		return "", ErrInvalidRecipient
	}
	return strings.ToLower(recipient[at+1:]), nil
}
