package smtp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Supported SASL mechanisms, in preference order.
const (
	AuthMethodPlain = "PLAIN"
	AuthMethodLogin = "LOGIN"
)

// Authenticate selects and executes an AUTH mechanism against the
// negotiated capabilities and returns the mechanism that succeeded.
//
// PLAIN is preferred when advertised. A 535 rejection of AUTH PLAIN while
// LOGIN is also advertised is handled as a known provider quirk (observed
// with large consumer mail providers): LOGIN is retried once on the same
// connection. This fallback is deliberately narrow; other failures are not
// retried with alternative mechanisms.
//
// Some relays omit the AUTH capability line entirely yet still accept
// LOGIN, so an empty mechanism list falls through to AUTH LOGIN rather
// than failing outright.
func (c *Conn) Authenticate() (string, error) {
	switch c.state {
	case StateCapabilitiesKnown, StateTLSUpgraded:
	case StateClosed:
		return "", ErrConnClosed
	default:
		return "", fmt.Errorf("%w: authenticate called in state %d", ErrUnexpectedReply, c.state)
	}

	mechs := c.caps.AuthMechanisms

	switch {
	case c.caps.HasAuthMechanism(AuthMethodPlain):
		err := c.authPlain()
		if err == nil {
			return c.markAuthenticated(AuthMethodPlain), nil
		}

		var re *ReplyError
		if errors.As(err, &re) && re.Code == 535 && c.caps.HasAuthMechanism(AuthMethodLogin) {
			c.log.Debug("AUTH PLAIN rejected with 535, falling back to LOGIN",
				"username", c.maskedUsername())
			if lerr := c.authLogin(); lerr != nil {
				return "", lerr
			}
			return c.markAuthenticated(AuthMethodLogin), nil
		}
		return "", err

	case c.caps.HasAuthMechanism(AuthMethodLogin), len(mechs) == 0:
		if err := c.authLogin(); err != nil {
			return "", err
		}
		return c.markAuthenticated(AuthMethodLogin), nil

	default:
		return "", fmt.Errorf("%w: server advertised [%s]",
			ErrNoSupportedAuthMethod, strings.Join(mechs, " "))
	}
}

func (c *Conn) markAuthenticated(method string) string {
	c.authMethod = method
	c.state = StateAuthenticated
	return method
}

// authPlain issues AUTH PLAIN with the initial response inline. The payload
// encodes the UTF-8 byte representation of the credentials, preserving
// non-ASCII passwords.
func (c *Conn) authPlain() error {
	payload := b64("\x00" + c.cfg.Username + "\x00" + c.cfg.Password)

	reply, err := c.cmd("AUTH PLAIN "+payload, "AUTH PLAIN "+redacted)
	if err != nil {
		return err
	}
	if reply.Code != 235 {
		return fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Code: reply.Code, Message: reply.Message})
	}
	return nil
}

// authLogin runs the challenge/response LOGIN flow: 334 for the command,
// 334 after the username, 235 after the password.
func (c *Conn) authLogin() error {
	reply, err := c.cmd("AUTH LOGIN", "")
	if err != nil {
		return err
	}
	if reply.Code != 334 {
		return fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Code: reply.Code, Message: reply.Message})
	}

	reply, err = c.cmd(b64(c.cfg.Username), redacted)
	if err != nil {
		return err
	}
	if reply.Code != 334 {
		return fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Code: reply.Code, Message: reply.Message})
	}

	reply, err = c.cmd(b64(c.cfg.Password), redacted)
	if err != nil {
		return err
	}
	if reply.Code != 235 {
		return fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Code: reply.Code, Message: reply.Message})
	}
	return nil
}

// redacted replaces credential-bearing lines in debug traces.
const redacted = "[redacted]"

// b64 encodes the UTF-8 bytes of s, not raw character codes.
func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
