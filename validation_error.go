package formguard

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dmitrymomot/formguard/pkg/form"
)

// ValidationError maps field names to the messages shown for them.
type ValidationError url.Values

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if msgs := e[f]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msgs[0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func NewValidationError() ValidationError {
	return make(ValidationError)
}

// FromFieldErrors collects form errors. Anonymous units are keyed by their
// generated key.
func FromFieldErrors(errs ...form.FieldError) ValidationError {
	out := NewValidationError()
	for _, fe := range errs {
		name := fe.Name
		if name == "" {
			name = fe.Field
		}
		out.Add(name, fe.Message)
	}
	return out
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

// Get returns the first message for field.
func (e ValidationError) Get(field string) string {
	return url.Values(e).Get(field)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Merge appends every message of other.
func (e ValidationError) Merge(other ValidationError) {
	for f, msgs := range other {
		for _, m := range msgs {
			e.Add(f, m)
		}
	}
}
