// Package model contains domain models passed between layers.
package model

import (
	"maps"

	"github.com/okian/formmatch/internal/domain/field"
)

// SubmittedForm is a single submission: the raw values as received and the
// field types inferred from them. Types are computed once by
// NewSubmittedForm and never change.
type SubmittedForm struct {
	raw      map[string]string
	inferred field.Types
	fallback []string
}

// NewSubmittedForm copies raw and classifies every value with c.
func NewSubmittedForm(raw map[string]string, c field.Classifier) SubmittedForm {
	f := SubmittedForm{
		raw:      maps.Clone(raw),
		inferred: make(field.Types, len(raw)),
	}
	if f.raw == nil {
		f.raw = map[string]string{}
	}
	for name, value := range f.raw {
		v := c.Explain(value)
		f.inferred[name] = v.Type
		if v.Fallback {
			f.fallback = append(f.fallback, name)
		}
	}
	return f
}

// Len returns the number of submitted fields.
func (f SubmittedForm) Len() int { return len(f.raw) }

// Raw returns a copy of the submitted values.
func (f SubmittedForm) Raw() map[string]string { return maps.Clone(f.raw) }

// InferredTypes returns a copy of the inferred field types.
func (f SubmittedForm) InferredTypes() field.Types { return f.inferred.Clone() }

// FallbackFields lists the fields typed text only because no validator,
// not even the text one, accepted their value. Order is unspecified.
func (f SubmittedForm) FallbackFields() []string {
	return append([]string(nil), f.fallback...)
}
