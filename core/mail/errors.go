package mail

import "errors"

// Error variables define message validation and composition failures that can
// be wrapped with detailed context using fmt.Errorf and %w.
var (
	ErrInvalidMessage = errors.New("invalid email message")
	ErrComposeFailed  = errors.New("failed to compose email message")
)
