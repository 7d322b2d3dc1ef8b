package storage

import (
	"errors"
	"fmt"
)

// Sentinel kinds for storage errors. These allow errors.Is from callers.
var (
	// ErrStoreUnavailable reports that the backing medium could not be
	// reached or read.
	ErrStoreUnavailable = errors.New("template store unavailable")
	// ErrStoreCorrupt reports stored data that cannot become a template.
	ErrStoreCorrupt = errors.New("template store corrupt")
	// ErrUnknownKind reports an unsupported storage_type.
	ErrUnknownKind = errors.New("unknown storage kind")
	// ErrNotSupported reports an optional capability the backend lacks.
	ErrNotSupported = errors.New("operation not supported by store")
	// ErrClosed reports use of a store after Close.
	ErrClosed = errors.New("store closed")
)

// Error carries the failed operation and its sentinel kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("storage %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(op string, err error) error {
	return &Error{Op: op, Kind: ErrStoreUnavailable, Err: err}
}

func corrupt(op string, err error) error {
	return &Error{Op: op, Kind: ErrStoreCorrupt, Err: err}
}

func corruptf(op string, err error, format string, args ...any) error {
	return corrupt(op, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

// Reason classifies err into a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrStoreCorrupt):
		return "corrupt"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotSupported):
		return "not_supported"
	default:
		return "unknown"
	}
}
