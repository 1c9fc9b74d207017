package delivery

import (
	"context"
	"log/slog"
	"time"
)

// Delivery outcome statuses as stored in the attempt log.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Record is the audit trail entry written after a delivery finished, one
// per delivery regardless of how many attempts it took.
type Record struct {
	ID            string
	Recipient     string
	Subject       string
	Status        string
	Category      string
	Diagnostic    string
	TLSMode       string
	AuthMethod    string
	Attempts      int
	ElapsedMS     int64
	LastReplyCode int
	CreatedAt     time.Time
}

// AttemptLogger persists delivery records. The database-backed store
// implements it in production; NopAttemptLogger and SlogAttemptLogger serve
// tests and development.
type AttemptLogger interface {
	Record(ctx context.Context, rec Record) error
}

// NopAttemptLogger drops every record.
type NopAttemptLogger struct{}

func (NopAttemptLogger) Record(context.Context, Record) error { return nil }

// SlogAttemptLogger writes records to the structured log instead of a
// database. Useful for development setups without persistence.
type SlogAttemptLogger struct {
	Log *slog.Logger
}

func (l SlogAttemptLogger) Record(ctx context.Context, rec Record) error {
	if l.Log == nil {
		return nil
	}
	l.Log.InfoContext(ctx, "delivery record",
		slog.String("id", rec.ID),
		slog.String("recipient", rec.Recipient),
		slog.String("status", rec.Status),
		slog.String("category", rec.Category),
		slog.String("tls_mode", rec.TLSMode),
		slog.String("auth_method", rec.AuthMethod),
		slog.Int("attempts", rec.Attempts),
		slog.Int64("elapsed_ms", rec.ElapsedMS),
		slog.Int("last_reply_code", rec.LastReplyCode),
	)
	return nil
}
