package smtp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantCategory  Category
		wantTransient bool
	}{
		{
			name:          "nil error",
			err:           nil,
			wantCategory:  CategoryUnknown,
			wantTransient: false,
		},
		{
			name:          "context deadline",
			err:           context.DeadlineExceeded,
			wantCategory:  CategoryTimeout,
			wantTransient: true,
		},
		{
			name:          "net timeout",
			err:           fmt.Errorf("smtp: reading reply: %w", timeoutError{}),
			wantCategory:  CategoryTimeout,
			wantTransient: true,
		},
		{
			name:          "auth sentinel",
			err:           fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Code: 535, Message: "bad credentials"}),
			wantCategory:  CategoryAuth,
			wantTransient: false,
		},
		{
			name:          "no supported mechanism",
			err:           fmt.Errorf("%w: server advertised [CRAM-MD5]", ErrNoSupportedAuthMethod),
			wantCategory:  CategoryAuth,
			wantTransient: false,
		},
		{
			name:          "bare 535 reply",
			err:           &ReplyError{Code: 535, Message: "5.7.8 authentication failed"},
			wantCategory:  CategoryAuth,
			wantTransient: false,
		},
		{
			name:          "starttls not advertised",
			err:           fmt.Errorf("%w: relay did not advertise it", ErrStartTLSNotSupported),
			wantCategory:  CategoryTLS,
			wantTransient: false,
		},
		{
			name:          "handshake failure",
			err:           fmt.Errorf("%w: x509 validation", ErrTLSHandshakeFailed),
			wantCategory:  CategoryTLS,
			wantTransient: false,
		},
		{
			name:          "dropped connection",
			err:           fmt.Errorf("%w: EOF", ErrConnectionDropped),
			wantCategory:  CategoryNetwork,
			wantTransient: true,
		},
		{
			name:          "dial failure",
			err:           fmt.Errorf("%w: dial tcp: connect: connection refused", ErrConnectionFailed),
			wantCategory:  CategoryNetwork,
			wantTransient: true,
		},
		{
			name:          "dns failure",
			err:           &net.DNSError{Err: "no such host", Name: "smtp.nowhere.invalid"},
			wantCategory:  CategoryNetwork,
			wantTransient: true,
		},
		{
			name:          "connection reset by message",
			err:           errors.New("write: connection reset by peer"),
			wantCategory:  CategoryNetwork,
			wantTransient: true,
		},
		{
			name:          "permanent rejection is unknown",
			err:           &ReplyError{Code: 550, Message: "mailbox unavailable"},
			wantCategory:  CategoryUnknown,
			wantTransient: false,
		},
		{
			name:          "unrecognized error",
			err:           errors.New("something odd happened"),
			wantCategory:  CategoryUnknown,
			wantTransient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.err)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantTransient, got.Transient)
			if tt.err != nil {
				assert.NotEmpty(t, got.Suggestion)
			}
		})
	}
}

func TestClassify_TimeoutWinsOverNetwork(t *testing.T) {
	t.Parallel()

	// An OpError wrapping a timeout classifies as timeout, not network.
	err := &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}
	got := Classify(err)
	assert.Equal(t, CategoryTimeout, got.Category)
	assert.True(t, got.Transient)
}

func TestClassify_AuthSuggestsAppPassword(t *testing.T) {
	t.Parallel()

	got := Classify(&ReplyError{Code: 535, Message: "5.7.8 Username and Password not accepted"})
	assert.Equal(t, CategoryAuth, got.Category)
	assert.Contains(t, got.Suggestion, "App Password")
}
