package field

import (
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Kind classifies a unit by the shape of its element set.
type Kind int

const (
	KindSingle Kind = iota
	KindArray
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindArray:
		return "array"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Unit is one logical validation target backed by one or more elements.
type Unit struct {
	// Key identifies the unit within its root: the logical name, or a
	// generated key for anonymous elements.
	Key string
	// Name is the logical name, empty for anonymous units.
	Name     string
	Kind     Kind
	Elements []*html.Node
}

// NewUnit builds a unit and computes its kind from the element set.
func NewUnit(key, name string, elements []*html.Node) *Unit {
	return &Unit{
		Key:      key,
		Name:     name,
		Kind:     kindOf(elements),
		Elements: elements,
	}
}

func kindOf(elements []*html.Node) Kind {
	if len(elements) < 2 {
		return KindSingle
	}
	for _, el := range elements {
		if !isChoiceInput(el) {
			return KindArray
		}
	}
	return KindChoice
}

// Representative returns the element rule selectors and inline message
// overrides are evaluated against.
func (u *Unit) Representative() *html.Node {
	if u == nil || len(u.Elements) == 0 {
		return nil
	}
	return u.Elements[0]
}

// Len returns the number of member elements.
func (u *Unit) Len() int { return len(u.Elements) }

// Anonymous reports whether the unit was built from an unnamed element.
func (u *Unit) Anonymous() bool { return u.Name == "" }

// Value resolves the unit's current value.
func (u *Unit) Value() Value { return Resolve(u) }

// Has reports whether n is one of the unit's elements.
func (u *Unit) Has(n *html.Node) bool {
	for _, el := range u.Elements {
		if el == n {
			return true
		}
	}
	return false
}

// DisplayElements returns the elements that show the unit's error state.
// Each member contributes its display redirection target when it declares
// one and the target exists, or itself otherwise.
func (u *Unit) DisplayElements() []*html.Node {
	out := make([]*html.Node, 0, len(u.Elements))
	seen := make(map[*html.Node]struct{}, len(u.Elements))
	for _, el := range u.Elements {
		target := el
		if sel, ok := dom.Attr(el, AttrDisplay); ok && sel != "" {
			if n, err := dom.Query(top(el), sel); err == nil && n != nil {
				target = n
			}
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Validatable reports whether at least one display element is visible and
// enabled. Units that are not validatable are skipped by validation.
func (u *Unit) Validatable() bool {
	for _, el := range u.DisplayElements() {
		if Active(el) {
			return true
		}
	}
	return false
}
