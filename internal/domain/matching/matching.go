// Package matching finds the registered template that a submission's
// inferred field types satisfy.
package matching

import (
	"github.com/okian/formmatch/internal/domain/field"
	"github.com/okian/formmatch/internal/domain/template"
)

// Kind discriminates the variants of Result.
type Kind int

// Result variants.
const (
	KindTemplateMatched Kind = iota + 1
	KindFieldTypesOnly
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTemplateMatched:
		return "template_matched"
	case KindFieldTypesOnly:
		return "field_types_only"
	default:
		return "unknown"
	}
}

// Result is either the name of the matched template or, when nothing
// matched, the inferred type of every submitted field.
type Result struct {
	kind         Kind
	templateName string
	fieldTypes   field.Types
}

// TemplateMatched builds the matched variant.
func TemplateMatched(name string) Result {
	return Result{kind: KindTemplateMatched, templateName: name}
}

// FieldTypesOnly builds the unmatched variant. types is copied.
func FieldTypesOnly(types field.Types) Result {
	return Result{kind: KindFieldTypesOnly, fieldTypes: types.Clone()}
}

// Kind returns the variant held by r.
func (r Result) Kind() Kind { return r.kind }

// TemplateName returns the matched template name and true for the matched
// variant.
func (r Result) TemplateName() (string, bool) {
	return r.templateName, r.kind == KindTemplateMatched
}

// FieldTypes returns the inferred types and true for the unmatched variant.
func (r Result) FieldTypes() (field.Types, bool) {
	if r.kind != KindFieldTypesOnly {
		return nil, false
	}
	return r.fieldTypes.Clone(), true
}

// Satisfies reports whether every field declared by tpl is present in
// inferred with the same type. Fields of inferred that tpl does not declare
// are ignored.
func Satisfies(tpl template.Template, inferred field.Types) bool {
	for _, name := range tpl.FieldNames() {
		want, _ := tpl.FieldType(name)
		if got, ok := inferred[name]; !ok || got != want {
			return false
		}
	}
	return true
}

// Match returns the first template in templates, in the given order, that
// inferred satisfies. If none does, the result carries the whole inferred
// mapping. A template with no fields matches anything, so it shadows every
// template after it.
func Match(inferred field.Types, templates []template.Template) Result {
	if i := Find(inferred, templates); i >= 0 {
		return TemplateMatched(templates[i].Name())
	}
	return FieldTypesOnly(inferred)
}

// Find returns the index of the first template satisfied by inferred, or -1.
func Find(inferred field.Types, templates []template.Template) int {
	for i, tpl := range templates {
		if Satisfies(tpl, inferred) {
			return i
		}
	}
	return -1
}
