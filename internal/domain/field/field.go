// Package field defines form field types and the classifier that infers
// them from submitted values.
package field

import (
	"fmt"
	"maps"
	"strings"
)

// Type is the inferred kind of a submitted field value.
type Type string

// Known field types, in classification priority order.
const (
	Date  Type = "date"
	Phone Type = "phone"
	Email Type = "email"
	Text  Type = "text"
)

// All returns every field type in the order the classifier evaluates them.
func All() []Type {
	return []Type{Date, Phone, Email, Text}
}

// String returns the wire tag of the type.
func (t Type) String() string { return string(t) }

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case Date, Phone, Email, Text:
		return true
	}
	return false
}

// Parse converts a wire tag into a Type. Tags are case-insensitive and
// surrounding whitespace is ignored.
func Parse(tag string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(tag)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return t, nil
}

// Types maps field names to their types.
type Types map[string]Type

// Clone returns an independent copy of ts. A nil map clones to an empty one.
func (ts Types) Clone() Types {
	if ts == nil {
		return Types{}
	}
	return maps.Clone(ts)
}

// Tags renders ts as plain name -> tag strings.
func (ts Types) Tags() map[string]string {
	out := make(map[string]string, len(ts))
	for name, t := range ts {
		out[name] = string(t)
	}
	return out
}
