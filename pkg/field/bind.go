package field

import (
	"net/url"
	"slices"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Bind writes submitted values into the elements of each named unit.
//
// Checkboxes, radios and multi-selects absent from values are cleared, which
// mirrors how browsers omit unchecked controls from a submission. Other
// controls absent from values keep their current state. Anonymous units are
// never bound.
func Bind(units []*Unit, values url.Values) {
	bind(units, values, true)
}

// Overlay writes values into the units they name and leaves every other unit
// as the markup has it, checked and selected controls included.
func Overlay(units []*Unit, values url.Values) {
	bind(units, values, false)
}

func bind(units []*Unit, values url.Values, clearAbsent bool) {
	for _, u := range units {
		if u.Anonymous() {
			continue
		}
		submitted, present := values[u.Name]
		if !present && !clearAbsent {
			continue
		}
		switch u.Kind {
		case KindChoice:
			for _, el := range u.Elements {
				setChecked(valueSource(el), slices.Contains(submitted, checkValue(el)))
			}
		case KindArray:
			if !present {
				continue
			}
			for i, el := range u.Elements {
				v := ""
				if i < len(submitted) {
					v = submitted[i]
				}
				setElementValue(valueSource(el), []string{v})
			}
		default:
			el := valueSource(u.Elements[0])
			if !present && !clearsWhenAbsent(el) {
				continue
			}
			setElementValue(el, submitted)
		}
	}
}

func clearsWhenAbsent(el *html.Node) bool {
	return isChoiceInput(el) || (dom.Tag(el) == "select" && dom.HasAttr(el, "multiple"))
}

func setElementValue(el *html.Node, submitted []string) {
	first := ""
	if len(submitted) > 0 {
		first = submitted[0]
	}
	switch dom.Tag(el) {
	case "textarea":
		dom.SetText(el, first)
	case "select":
		multiple := dom.HasAttr(el, "multiple")
		picked := false
		for _, o := range dom.Find(el, func(n *html.Node) bool { return dom.Tag(n) == "option" }) {
			on := slices.Contains(submitted, optionValue(o))
			if on && !multiple {
				on = !picked
				picked = picked || on
			}
			setFlag(o, "selected", on)
		}
	case "input":
		if isChoiceInput(el) {
			setChecked(el, slices.Contains(submitted, checkValue(el)))
			return
		}
		dom.SetAttr(el, "value", first)
	default:
		if isContentEditable(el) {
			dom.SetText(el, first)
			return
		}
		dom.SetAttr(el, "value", first)
	}
}

func setChecked(el *html.Node, on bool) {
	setFlag(el, "checked", on)
}

func setFlag(el *html.Node, attr string, on bool) {
	if on {
		if !dom.HasAttr(el, attr) {
			dom.SetAttr(el, attr, "")
		}
		return
	}
	dom.RemoveAttr(el, attr)
}
