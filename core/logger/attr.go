package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit nil checks,
// following the principle of making zero values useful.

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID creates an attribute for HTTP request IDs.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// ============================================================================
// SMTP Delivery
// ============================================================================

// Relay creates an attribute for the target relay host.
func Relay(host string) slog.Attr {
	return slog.String("relay", host)
}

// ReplyCode creates an attribute for the last SMTP reply code.
// Returns empty Attr when no reply was received yet.
func ReplyCode(code int) slog.Attr {
	if code == 0 {
		return slog.Attr{}
	}
	return slog.Int("reply_code", code)
}

// Attempt creates an attribute for the delivery attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// TLSMode creates an attribute for the negotiated TLS mode.
func TLSMode(mode string) slog.Attr {
	return slog.String("tls_mode", mode)
}

// AuthMethod creates an attribute for the authentication mechanism used.
func AuthMethod(method string) slog.Attr {
	if method == "" {
		return slog.Attr{}
	}
	return slog.String("auth_method", method)
}

// Category creates an attribute for an error classification category.
func Category(category string) slog.Attr {
	return slog.String("category", category)
}

// Recipient creates an attribute for a recipient address.
// Callers are expected to mask the address before logging where the
// address itself is sensitive; this helper does not redact.
func Recipient(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("recipient", addr)
}
