package field

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Value is the canonical value of a unit: a scalar string for single
// controls, or an ordered list for grouped and multi-choice controls.
type Value struct {
	items []string
	list  bool
}

// Scalar returns a single-string value.
func Scalar(s string) Value {
	return Value{items: []string{s}}
}

// List returns a list value. An empty list is valid.
func List(items ...string) Value {
	return Value{items: append([]string{}, items...), list: true}
}

// IsList reports whether the value came from a grouped or multi-choice unit.
func (v Value) IsList() bool { return v.list }

// String returns the scalar, or the list members joined by commas.
func (v Value) String() string {
	if !v.list {
		if len(v.items) == 0 {
			return ""
		}
		return v.items[0]
	}
	return strings.Join(v.items, ",")
}

// Strings returns the members. A scalar yields a one-element slice.
func (v Value) Strings() []string {
	if !v.list && len(v.items) == 0 {
		return []string{""}
	}
	return append([]string{}, v.items...)
}

// Blank reports whether every member is empty or whitespace-only.
// An empty list is blank.
func (v Value) Blank() bool {
	for _, s := range v.items {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Length returns the summed rune length of every member.
func (v Value) Length() int {
	total := 0
	for _, s := range v.items {
		total += utf8.RuneCountInString(s)
	}
	return total
}

// Resolve computes the current value of u from the DOM.
func Resolve(u *Unit) Value {
	if u == nil || len(u.Elements) == 0 {
		return Scalar("")
	}
	switch u.Kind {
	case KindChoice:
		checked := make([]string, 0, len(u.Elements))
		for _, el := range u.Elements {
			if dom.HasAttr(el, "checked") {
				checked = append(checked, checkValue(el))
			}
		}
		return List(checked...)
	case KindArray:
		items := make([]string, 0, len(u.Elements))
		for _, el := range u.Elements {
			items = append(items, elementValue(el).String())
		}
		return List(items...)
	default:
		return elementValue(u.Elements[0])
	}
}

func elementValue(el *html.Node) Value {
	el = valueSource(el)
	switch dom.Tag(el) {
	case "textarea":
		return Scalar(dom.Text(el))
	case "select":
		return selectValue(el)
	case "input":
		if isChoiceInput(el) {
			if dom.HasAttr(el, "checked") {
				return Scalar(checkValue(el))
			}
			return Scalar("")
		}
		return Scalar(dom.AttrOr(el, "value", ""))
	}
	if isContentEditable(el) {
		return Scalar(strings.TrimSpace(dom.Text(el)))
	}
	return Scalar(dom.AttrOr(el, "value", ""))
}

func selectValue(sel *html.Node) Value {
	options := dom.Find(sel, func(n *html.Node) bool { return dom.Tag(n) == "option" })
	if dom.HasAttr(sel, "multiple") {
		selected := make([]string, 0, len(options))
		for _, o := range options {
			if dom.HasAttr(o, "selected") {
				selected = append(selected, optionValue(o))
			}
		}
		return List(selected...)
	}
	for _, o := range options {
		if dom.HasAttr(o, "selected") {
			return Scalar(optionValue(o))
		}
	}
	if len(options) > 0 {
		return Scalar(optionValue(options[0]))
	}
	return Scalar("")
}

func optionValue(o *html.Node) string {
	if v, ok := dom.Attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(dom.Text(o))
}

func checkValue(el *html.Node) string {
	return dom.AttrOr(el, "value", "on")
}

// valueSource follows the value redirection attribute. An unresolvable
// selector falls back to the element itself.
func valueSource(el *html.Node) *html.Node {
	sel, ok := dom.Attr(el, AttrValueFrom)
	if !ok || sel == "" {
		return el
	}
	src, err := dom.Query(top(el), sel)
	if err != nil || src == nil {
		return el
	}
	return src
}

func top(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func isChoiceInput(el *html.Node) bool {
	if dom.Tag(el) != "input" {
		return false
	}
	switch strings.ToLower(dom.AttrOr(el, "type", "")) {
	case "checkbox", "radio":
		return true
	}
	return false
}

func isContentEditable(el *html.Node) bool {
	v, ok := dom.Attr(el, "contenteditable")
	return ok && !strings.EqualFold(strings.TrimSpace(v), "false")
}
