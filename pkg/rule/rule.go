package rule

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
)

// Params carries message substitution values for a failed rule.
type Params map[string]any

// Outcome is the result of running a rule against a unit.
type Outcome struct {
	Valid  bool
	Params Params
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{Valid: true}
}

// Fail returns a failing outcome with substitution parameters.
func Fail(params Params) Outcome {
	if params == nil {
		params = Params{}
	}
	return Outcome{Params: params}
}

// Selector decides whether a rule applies to an element.
type Selector func(*html.Node) bool

// Validator checks a resolved value.
type Validator func(v field.Value, u *field.Unit) Outcome

// MessageFunc renders a default message from the failure parameters. The
// returned text may contain __NAME__ placeholders.
type MessageFunc func(Params) string

// Literal returns a MessageFunc that always yields msg.
func Literal(msg string) MessageFunc {
	return func(Params) string { return msg }
}

// CSS builds a selector from a CSS selector string. It panics on an invalid
// selector, which is a wiring mistake.
func CSS(selector string) Selector {
	return Selector(dom.MustCompile(selector))
}

// Rule describes one validation rule.
type Rule struct {
	Name           string
	Selector       Selector
	Validate       Validator
	DefaultMessage MessageFunc

	// LegacyTemplate is the id of the standalone template element used by
	// older markup. Empty means "fg-<name>-message".
	LegacyTemplate string
}

// Applies reports whether the rule selects the unit's representative element.
func (r Rule) Applies(u *field.Unit) bool {
	rep := u.Representative()
	if rep == nil || r.Selector == nil {
		return false
	}
	return r.Selector(rep)
}

// LegacyTemplateID returns the id of the rule's standalone template.
func (r Rule) LegacyTemplateID() string {
	if r.LegacyTemplate != "" {
		return r.LegacyTemplate
	}
	return "fg-" + r.Name + "-message"
}

// Default renders the rule's own default message, or "" when it has none.
func (r Rule) Default(params Params) string {
	if r.DefaultMessage == nil {
		return ""
	}
	return r.DefaultMessage(params)
}

func (r Rule) check() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	case r.Selector == nil:
		return fmt.Errorf("%w %q: missing selector", ErrInvalidRule, r.Name)
	case r.Validate == nil:
		return fmt.Errorf("%w %q: missing validate function", ErrInvalidRule, r.Name)
	}
	return nil
}
