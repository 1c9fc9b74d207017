// Package mail defines the logical email message and its RFC 5322/MIME wire
// form. A Message carries a fully resolved subject and body; Compose turns it
// into CRLF-terminated, quoted-printable encoded bytes ready for the SMTP
// DATA phase.
//
// Basic usage:
//
//	msg := mail.Message{
//		From:    "noreply@example.com",
//		To:      "user@example.com",
//		Subject: "Order confirmed",
//		Text:    "Thanks for your order.",
//		HTML:    "<p>Thanks for your order.</p>",
//	}
//
//	wire, err := mail.Compose(msg, "mail.example.com")
//	if err != nil {
//		// Handle validation or composition error
//	}
//
// When both Text and HTML are present the wire form is multipart/alternative
// with the plain part first; otherwise a single part is emitted. Subjects
// containing non-ASCII characters are RFC 2047 base64 encoded. Dot-stuffing
// is not applied here: it belongs to SMTP DATA framing and is performed by
// the transport while writing to the socket.
package mail
