package smtp

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Category buckets a delivery failure for retry decisions and diagnostics.
type Category string

const (
	CategoryTimeout Category = "timeout"
	CategoryAuth    Category = "auth"
	CategoryNetwork Category = "network"
	CategoryTLS     Category = "tls"
	CategoryUnknown Category = "unknown"
)

// Classification is the derived view of a failure: its category, whether a
// retry can help, and a remediation hint for the operator. It is never
// persisted as domain state.
type Classification struct {
	Category   Category
	Transient  bool
	Suggestion string
}

// Classify maps a delivery error to its Classification. It is a pure
// function over the error chain and message; unmatched errors land in
// CategoryUnknown and are not retried.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Category: CategoryUnknown}
	}

	switch {
	case isTimeout(err):
		return Classification{
			Category:   CategoryTimeout,
			Transient:  true,
			Suggestion: "check connectivity to the relay or increase the delivery timeouts",
		}

	case isAuth(err):
		return Classification{
			Category:   CategoryAuth,
			Transient:  false,
			Suggestion: "verify the SMTP credentials; large consumer providers often require an App Password instead of the account password",
		}

	case isTLS(err):
		return Classification{
			Category:   CategoryTLS,
			Transient:  false,
			Suggestion: "try implicit TLS on port 465 or adjust the encryption setting for this relay",
		}

	case isNetwork(err):
		return Classification{
			Category:   CategoryNetwork,
			Transient:  true,
			Suggestion: "check relay availability and network connectivity",
		}

	default:
		return Classification{
			Category:   CategoryUnknown,
			Transient:  false,
			Suggestion: "inspect the delivery logs for the raw server response",
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isAuth(err error) bool {
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrNoSupportedAuthMethod) {
		return true
	}
	var re *ReplyError
	if errors.As(err, &re) && re.Code == 535 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "authentication failed")
}

func isTLS(err error) bool {
	return errors.Is(err, ErrStartTLSNotSupported) || errors.Is(err, ErrTLSHandshakeFailed)
}

func isNetwork(err error) bool {
	if errors.Is(err, ErrConnectionDropped) || errors.Is(err, ErrConnectionFailed) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "no such host")
}
