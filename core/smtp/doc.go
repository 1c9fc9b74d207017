// Package smtp implements the client side of the SMTP protocol over raw TCP:
// connection negotiation, TLS upgrade, authentication, and the mail
// transaction including DATA dot-stuffing.
//
// Unlike net/smtp, this implementation exposes the negotiated capability set,
// distinguishes TLS modes by port convention (587 STARTTLS, 465 implicit),
// handles the provider quirk of rejecting AUTH PLAIN with 535 while accepting
// AUTH LOGIN, and classifies every failure into a small taxonomy that the
// retry layer consumes.
//
// Basic usage:
//
//	cfg := smtp.Config{
//		Host:     "smtp.example.com",
//		Port:     587,
//		Username: "postmaster@example.com",
//		Password: "app-password",
//	}
//
//	conn, err := smtp.Connect(ctx, cfg, logger)
//	if err != nil {
//		// classified via smtp.Classify(err)
//	}
//	defer conn.Close()
//
//	if _, err := conn.Authenticate(); err != nil {
//		// category "auth"
//	}
//
//	if err := conn.MailFrom(from); err != nil { ... }
//	if err := conn.RcptTo(to); err != nil { ... }
//	if err := conn.Data(wire); err != nil { ... }
//	conn.Quit()
//
// A Conn is single-use: one connection per delivery attempt, never shared
// between goroutines and never reused after a failure, since a failed
// command can leave protocol state inconsistent. Every blocking step is
// bounded by a deadline (connect 10s, command 8s, DATA transfer 20s);
// within an established conversation cancellation is timeout-only.
//
// Credential-bearing command lines are replaced with a redaction marker in
// debug traces; usernames appear only in masked form.
package smtp
