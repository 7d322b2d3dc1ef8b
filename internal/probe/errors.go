package probe

import "errors"

var (
	// ErrInvalidCases marks a scenario or template file that cannot be used.
	ErrInvalidCases = errors.New("invalid probe input")
	// ErrUnhealthy is returned when /healthz does not answer 200.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrMismatch is returned when at least one case failed.
	ErrMismatch = errors.New("responses did not match expectations")
)
