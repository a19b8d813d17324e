package field

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Visible reports whether neither n nor any of its ancestors is hidden by the
// hidden attribute, aria-hidden="true" or an inline display/visibility style.
// A hidden input is never visible.
func Visible(n *html.Node) bool {
	if n == nil {
		return false
	}
	if dom.Tag(n) == "input" && strings.EqualFold(dom.AttrOr(n, "type", ""), "hidden") {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if !dom.IsElement(p) {
			continue
		}
		if dom.HasAttr(p, "hidden") {
			return false
		}
		if strings.EqualFold(dom.AttrOr(p, "aria-hidden", ""), "true") {
			return false
		}
		if dom.StyleProperty(p, "display") == "none" {
			return false
		}
		if dom.StyleProperty(p, "visibility") == "hidden" {
			return false
		}
	}
	return true
}

// Enabled reports whether n is not disabled, either directly or through a
// disabled fieldset ancestor.
func Enabled(n *html.Node) bool {
	if n == nil {
		return false
	}
	if dom.HasAttr(n, "disabled") {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if dom.Tag(p) == "fieldset" && dom.HasAttr(p, "disabled") {
			return false
		}
	}
	return true
}

// Active reports whether n is both visible and enabled.
func Active(n *html.Node) bool {
	return Visible(n) && Enabled(n)
}
