// Package logger provides structured logging attribute helpers built on Go's
// standard slog package. All helpers return slog.Attr values and follow the
// empty-Attr pattern: nil or zero inputs produce an empty attribute that slog
// silently drops, so call sites never need nil checks.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/relaykit/core/logger"
//
//	log.Info("delivery finished",
//		logger.Relay("smtp.example.com"),
//		logger.TLSMode("starttls"),
//		logger.Attempt(2),
//		logger.Elapsed(start),
//		logger.Error(err),
//	)
//
// The SMTP delivery helpers (Relay, ReplyCode, Attempt, TLSMode, AuthMethod,
// Category) produce the canonical attribute keys used across the delivery
// pipeline so log lines stay queryable regardless of which component emitted
// them.
package logger
