// Package template defines registered form templates: a name plus the field
// types a submission must carry to be recognised as that form.
package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/formmatch/internal/domain/field"
)

// NameKey is the record key holding the template name. Every other key of
// a record declares a field.
const NameKey = "name"

// Template is an immutable, named field-type signature.
type Template struct {
	name   string
	fields field.Types
}

// New validates and creates a Template. The name must be non-empty and every
// declared type must be known. fields may be empty, which yields a catch-all
// template.
func New(name string, fields field.Types) (Template, error) {
	if strings.TrimSpace(name) == "" {
		return Template{}, ErrEmptyName
	}
	for key, t := range fields {
		if key == NameKey {
			return Template{}, fmt.Errorf("%w: field %q is reserved", ErrInvalidRecord, key)
		}
		if !t.Valid() {
			return Template{}, fmt.Errorf("%w: field %q: %w", ErrInvalidRecord, key, field.ErrUnknownType)
		}
	}
	return Template{name: name, fields: fields.Clone()}, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(name string, fields field.Types) Template {
	t, err := New(name, fields)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t Template) Name() string { return t.name }

// Fields returns a copy of the declared field types.
func (t Template) Fields() field.Types { return t.fields.Clone() }

// Len returns the number of declared fields.
func (t Template) Len() int { return len(t.fields) }

// FieldType returns the declared type of name, if any.
func (t Template) FieldType(name string) (field.Type, bool) {
	ft, ok := t.fields[name]
	return ft, ok
}

// FieldNames returns the declared field names in lexical order.
func (t Template) FieldNames() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCatchAll reports whether the template declares no fields. Such a
// template matches every submission.
func (t Template) IsCatchAll() bool { return len(t.fields) == 0 }

// String implements fmt.Stringer.
func (t Template) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, name := range t.FieldNames() {
		parts = append(parts, name+":"+string(t.fields[name]))
	}
	return t.name + "{" + strings.Join(parts, ",") + "}"
}
