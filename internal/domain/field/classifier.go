package field

import (
	"regexp"
	"time"
)

// Validator reports whether a value satisfies one field type.
type Validator func(value string) bool

// Accepted date layouts, tried in order. Day and month take one or two
// digits, the year exactly four.
var dateLayouts = []string{"2.1.2006", "2006-1-2"}

// Each pattern tolerates one trailing newline after the match.
var (
	phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{0,2} [0-9]{3} [0-9]{3} [0-9]{2} [0-9]{2}\n?$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\n?$`)
	textPattern  = regexp.MustCompile(`^[\p{L}\p{N}\p{M}_\s.,!?'-]{1,256}\n?$`)
)

// IsDate accepts values that fully parse under one of the date layouts.
func IsDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// IsPhone accepts international numbers grouped as "+C XXX XXX XX XX".
func IsPhone(value string) bool { return phonePattern.MatchString(value) }

// IsEmail accepts addresses of the form local@domain.tld.
func IsEmail(value string) bool { return emailPattern.MatchString(value) }

// IsText accepts 1-256 word, space and basic punctuation characters.
func IsText(value string) bool { return textPattern.MatchString(value) }

type rule struct {
	t     Type
	valid Validator
}

// rules is evaluated top to bottom; the first accepting validator wins.
var rules = []rule{
	{Date, IsDate},
	{Phone, IsPhone},
	{Email, IsEmail},
	{Text, IsText},
}

// Matches reports whether value satisfies the validator of t.
// Unknown types never match.
func Matches(t Type, value string) bool {
	for _, r := range rules {
		if r.t == t {
			return r.valid(value)
		}
	}
	return false
}

// Verdict is the outcome of classifying a single value.
type Verdict struct {
	Type Type
	// Fallback is set when no validator accepted the value, including Text,
	// and the value was typed Text by default.
	Fallback bool
}

// Classifier infers field types from raw values. The zero value is ready
// to use; it holds no state and is safe for concurrent use.
type Classifier struct{}

// Explain classifies value and reports whether Text was applied as a
// default rather than by its own validator.
func (Classifier) Explain(value string) Verdict {
	for _, r := range rules {
		if r.valid(value) {
			return Verdict{Type: r.t}
		}
	}
	return Verdict{Type: Text, Fallback: true}
}

// Classify returns the type of value. It never fails: anything that is not
// a date, phone or email is text.
func (c Classifier) Classify(value string) Type {
	return c.Explain(value).Type
}

// ClassifyAll classifies every value of raw.
func (c Classifier) ClassifyAll(raw map[string]string) Types {
	out := make(Types, len(raw))
	for name, value := range raw {
		out[name] = c.Classify(value)
	}
	return out
}

// Classify is shorthand for Classifier{}.Classify.
func Classify(value string) Type {
	return Classifier{}.Classify(value)
}
