package template

import (
	"errors"
	"fmt"

	"github.com/okian/formmatch/internal/domain/field"
)

// Record is the persisted shape of a template: {"name": ..., "<field>": "<type>", ...}.
type Record map[string]any

// FromRecord builds a Template from a stored record. The "name" key is
// required and must be a non-empty string; every other key must map to a
// known type tag.
func FromRecord(rec map[string]any) (Template, error) {
	if rec == nil {
		return Template{}, fmt.Errorf("%w: record is empty", ErrInvalidRecord)
	}
	rawName, ok := rec[NameKey]
	if !ok {
		return Template{}, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}
	name, ok := rawName.(string)
	if !ok {
		return Template{}, fmt.Errorf("%w: name must be a string, got %T", ErrInvalidRecord, rawName)
	}
	if name == "" {
		return Template{}, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}

	fields := make(field.Types, len(rec)-1)
	for key, raw := range rec {
		if key == NameKey {
			continue
		}
		tag, ok := raw.(string)
		if !ok {
			return Template{}, fmt.Errorf("%w: field %q must be a type tag, got %T", ErrInvalidRecord, key, raw)
		}
		t, err := field.Parse(tag)
		if err != nil {
			return Template{}, fmt.Errorf("%w: field %q: %w", ErrInvalidRecord, key, err)
		}
		fields[key] = t
	}

	tpl, err := New(name, fields)
	if err != nil && !errors.Is(err, ErrInvalidRecord) {
		return Template{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return tpl, err
}

// ToRecord renders t in its persisted shape.
func (t Template) ToRecord() Record {
	rec := make(Record, len(t.fields)+1)
	rec[NameKey] = t.name
	for name, ft := range t.fields {
		rec[name] = string(ft)
	}
	return rec
}
