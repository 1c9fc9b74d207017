package smtp

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantCode    int
		wantLines   []string
		wantMessage string
	}{
		{
			name:        "single line",
			input:       "250 OK\r\n",
			wantCode:    250,
			wantLines:   []string{"OK"},
			wantMessage: "OK",
		},
		{
			name:        "multi line collapses to one reply",
			input:       "250-FIRST\r\n250-SECOND\r\n250 THIRD\r\n",
			wantCode:    250,
			wantLines:   []string{"FIRST", "SECOND", "THIRD"},
			wantMessage: "FIRST SECOND THIRD",
		},
		{
			name:        "blank padding between fragments is skipped",
			input:       "250-FIRST\r\n\r\n250 LAST\r\n",
			wantCode:    250,
			wantLines:   []string{"FIRST", "LAST"},
			wantMessage: "FIRST LAST",
		},
		{
			name:        "bare code line is terminal",
			input:       "250\r\n",
			wantCode:    250,
			wantLines:   []string{""},
			wantMessage: "",
		},
		{
			name:        "lf only line endings",
			input:       "220 mail.example.com ready\n",
			wantCode:    220,
			wantLines:   []string{"mail.example.com ready"},
			wantMessage: "mail.example.com ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reply, err := ReadReply(bufio.NewReader(strings.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, reply.Code)
			assert.Equal(t, tt.wantLines, reply.Lines)
			assert.Equal(t, tt.wantMessage, reply.Message)
		})
	}
}

func TestReadReply_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "non numeric code", input: "2x0 hello\r\n"},
		{name: "line too short", input: "25\r\n"},
		{name: "invalid separator", input: "250_hello\r\n"},
		{name: "code out of range", input: "099 hello\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadReply(bufio.NewReader(strings.NewReader(tt.input)))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestReadReply_DroppedConnection(t *testing.T) {
	t.Parallel()

	// Stream ends before the terminal line arrives.
	for _, input := range []string{"", "250-FIRST\r\n", "250-FIRST\r\n250-SEC"} {
		_, err := ReadReply(bufio.NewReader(strings.NewReader(input)))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConnectionDropped)
		assert.False(t, errors.Is(err, ErrMalformedReply))
	}
}

func TestReply_Predicates(t *testing.T) {
	t.Parallel()

	ok := &Reply{Code: 250, Message: "OK"}
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsIntermediate())
	assert.NoError(t, ok.Err())

	challenge := &Reply{Code: 334, Message: "VXNlcm5hbWU6"}
	assert.False(t, challenge.IsSuccess())
	assert.True(t, challenge.IsIntermediate())
	assert.NoError(t, challenge.Err())

	perm := &Reply{Code: 550, Message: "mailbox unavailable"}
	err := perm.Err()
	require.Error(t, err)
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 550, re.Code)
	assert.True(t, re.Permanent())
	assert.False(t, re.Temporary())

	tmp := &Reply{Code: 421, Message: "try again later"}
	require.ErrorAs(t, tmp.Err(), &re)
	assert.True(t, re.Temporary())
	assert.False(t, re.Permanent())
}
