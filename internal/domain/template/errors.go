package template

import "errors"

// Sentinel kinds for template errors. These allow errors.Is from callers.
var (
	// ErrInvalidRecord reports a stored record that cannot become a Template.
	ErrInvalidRecord = errors.New("invalid template record")
	// ErrEmptyName reports a template without a name.
	ErrEmptyName = errors.New("template name is required")
)
