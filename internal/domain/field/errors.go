package field

import "errors"

// Sentinel kinds for field errors.
var (
	ErrUnknownType = errors.New("unknown field type")
)
