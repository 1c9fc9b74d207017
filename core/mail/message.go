package mail

import (
	"fmt"
	"regexp"
)

// Message is the logical email handed to the delivery pipeline. Subject,
// Text and HTML arrive fully resolved; template lookup and variable
// substitution happen before a Message is built. The value is immutable for
// the duration of a delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string // optional; when set the wire form is multipart/alternative
}

// emailRegex is a simple regex for validating email addresses.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks that the message carries everything a delivery needs.
func (m Message) Validate() error {
	if m.From == "" || !emailRegex.MatchString(m.From) {
		return fmt.Errorf("%w: From must be a valid email address", ErrInvalidMessage)
	}
	if m.To == "" || !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: To must be a valid email address", ErrInvalidMessage)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidMessage)
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("%w: message body is required", ErrInvalidMessage)
	}
	return nil
}
