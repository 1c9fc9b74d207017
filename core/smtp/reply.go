package smtp

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Reply is a parsed SMTP server reply: one or more CRLF-terminated lines
// sharing a three-digit code. All lines except the last use the "nnn-"
// continuation form; the last uses "nnn " (or a bare "nnn").
type Reply struct {
	Code    int
	Lines   []string
	Message string
}

// IsSuccess reports a 2xx reply.
func (r *Reply) IsSuccess() bool {
	return r.Code >= 200 && r.Code < 300
}

// IsIntermediate reports a 3xx reply (e.g. 334 AUTH challenge, 354 DATA go-ahead).
func (r *Reply) IsIntermediate() bool {
	return r.Code >= 300 && r.Code < 400
}

// Err returns the reply as a *ReplyError when it rejected the command,
// nil otherwise.
func (r *Reply) Err() error {
	if r.IsSuccess() || r.IsIntermediate() {
		return nil
	}
	return &ReplyError{Code: r.Code, Message: r.Message}
}

// ReadReply reads one complete SMTP reply from the stream. It keeps reading
// until a terminal line is seen, because providers frequently emit
// multi-line EHLO capability lists and multi-line error explanations. Blank
// padding lines between continuation fragments are skipped.
//
// A stream that ends before the terminal line arrives is reported as
// ErrConnectionDropped (a network failure), distinct from ErrMalformedReply
// which marks genuine protocol corruption. Read timeouts keep their net.Error
// identity so the classifier can see them.
func ReadReply(br *bufio.Reader) (*Reply, error) {
	var (
		lines []string
		code  int
	)

	for {
		raw, err := br.ReadString('\n')
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, fmt.Errorf("smtp: reading reply: %w", err)
			}
			return nil, fmt.Errorf("%w: %v", ErrConnectionDropped, err)
		}

		line := strings.TrimRight(raw, "\r\n")

		// Some providers pad multi-line replies with blank lines; these are
		// not terminal.
		if line == "" {
			continue
		}

		if len(line) < 3 {
			return nil, fmt.Errorf("%w: line too short: %q", ErrMalformedReply, line)
		}

		lineCode, err := strconv.Atoi(line[:3])
		if err != nil || lineCode < 100 || lineCode > 599 {
			return nil, fmt.Errorf("%w: invalid reply code: %q", ErrMalformedReply, line)
		}
		if code == 0 {
			code = lineCode
		}

		// A bare "nnn" line is terminal with empty text.
		if len(line) == 3 {
			lines = append(lines, "")
			break
		}

		sep := line[3]
		if sep != ' ' && sep != '-' {
			return nil, fmt.Errorf("%w: invalid separator: %q", ErrMalformedReply, line)
		}

		lines = append(lines, line[4:])
		if sep == ' ' {
			break
		}
	}

	return &Reply{
		Code:    code,
		Lines:   lines,
		Message: strings.Join(lines, " "),
	}, nil
}
