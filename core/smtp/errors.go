package smtp

import (
	"errors"
	"fmt"
)

// Error variables define SMTP conversation failures. They are wrapped with
// detailed context using fmt.Errorf and %w and drive the error classifier.
var (
	ErrInvalidConfig         = errors.New("smtp: invalid connection configuration")
	ErrConnectionFailed      = errors.New("smtp: connection failed")
	ErrConnectionDropped     = errors.New("smtp: connection dropped before reply completed")
	ErrUnexpectedReply       = errors.New("smtp: unexpected server reply")
	ErrMalformedReply        = errors.New("smtp: malformed server reply")
	ErrStartTLSNotSupported  = errors.New("smtp: STARTTLS not advertised by server")
	ErrTLSHandshakeFailed    = errors.New("smtp: TLS handshake failed")
	ErrTLSAlreadyActive      = errors.New("smtp: TLS already active")
	ErrAuthFailed            = errors.New("smtp: authentication failed")
	ErrNoSupportedAuthMethod = errors.New("smtp: no supported authentication method")
	ErrNotAuthenticated      = errors.New("smtp: command requires an authenticated session")
	ErrConnClosed            = errors.New("smtp: connection closed")
)

// ReplyError is a server reply whose code rejected the issued command.
type ReplyError struct {
	Code    int
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("smtp: server returned %d %s", e.Code, e.Message)
}

// Permanent reports whether the reply indicates a permanent failure (5xx).
func (e *ReplyError) Permanent() bool {
	return e.Code >= 500 && e.Code < 600
}

// Temporary reports whether the reply indicates a transient failure (4xx).
func (e *ReplyError) Temporary() bool {
	return e.Code >= 400 && e.Code < 500
}
