package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Compose renders the message into RFC 5322 wire form, ready for the SMTP
// DATA phase. All line endings are CRLF and body parts are quoted-printable
// encoded; dot-stuffing is applied by the transport when the bytes are
// written to the wire.
//
// hostname is the sending host used in the Message-ID header; when empty
// the domain of the From address is used.
func Compose(msg Message, hostname string) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if hostname == "" {
		hostname = domainOf(msg.From)
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", msg.From)
	writeHeader(&buf, "To", msg.To)
	writeHeader(&buf, "Subject", encodeSubject(msg.Subject))
	writeHeader(&buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID(hostname))
	writeHeader(&buf, "MIME-Version", "1.0")

	switch {
	case msg.Text != "" && msg.HTML != "":
		boundary := newBoundary()
		writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		buf.WriteString("\r\n")

		// text/plain first; clients render the last part they understand.
		if err := writePart(&buf, boundary, "text/plain", msg.Text); err != nil {
			return nil, err
		}
		if err := writePart(&buf, boundary, "text/html", msg.HTML); err != nil {
			return nil, err
		}
		buf.WriteString("--" + boundary + "--\r\n")

	case msg.HTML != "":
		if err := writeBody(&buf, "text/html", msg.HTML); err != nil {
			return nil, err
		}

	default:
		if err := writeBody(&buf, "text/plain", msg.Text); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeBody(buf *bytes.Buffer, contentType, body string) error {
	writeHeader(buf, "Content-Type", contentType+`; charset="UTF-8"`)
	writeHeader(buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")
	return writeQuotedPrintable(buf, body)
}

func writePart(buf *bytes.Buffer, boundary, contentType, body string) error {
	buf.WriteString("--" + boundary + "\r\n")
	if err := writeBody(buf, contentType, body); err != nil {
		return err
	}
	buf.WriteString("\r\n")
	return nil
}

func writeQuotedPrintable(buf *bytes.Buffer, body string) error {
	w := quotedprintable.NewWriter(buf)
	if _, err := w.Write([]byte(NormalizeCRLF(body))); err != nil {
		return fmt.Errorf("%w: %v", ErrComposeFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrComposeFailed, err)
	}
	buf.WriteString("\r\n")
	return nil
}

// encodeSubject applies RFC 2047 base64 encoding when the subject contains
// non-ASCII characters; plain ASCII subjects pass through untouched.
func encodeSubject(subject string) string {
	return mime.BEncoding.Encode("UTF-8", subject)
}

// messageID builds a unique Message-ID from a timestamp, a random component
// and the sending hostname.
func messageID(hostname string) string {
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), uuid.NewString(), hostname)
}

// newBoundary generates a MIME boundary that cannot collide with
// caller-supplied body content.
func newBoundary() string {
	return "=_relaykit_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeCRLF converts all line endings to CRLF. Handles LF, bare CR, and
// CRLF inputs; bare LF is protocol-invalid inside SMTP DATA.
func NormalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func domainOf(addr string) string {
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}
