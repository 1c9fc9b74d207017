package delivery

import "errors"

// Error variables define delivery orchestration failures.
var (
	ErrNoConfigSource = errors.New("delivery: no configuration source succeeded")
	ErrSuppressed     = errors.New("delivery: recipient is suppressed")
)
