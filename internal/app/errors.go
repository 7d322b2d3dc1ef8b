package service

import "errors"

// Sentinel errors for the service.
var (
	// ErrNotStarted reports a call that needs Start first.
	ErrNotStarted = errors.New("service not started")
)
