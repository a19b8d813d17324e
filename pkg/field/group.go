package field

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Grouper partitions the controls under a root into units. It remembers the
// generated key of every anonymous element it has seen, so re-grouping the
// same subtree keeps anonymous units stable across refreshes.
type Grouper struct {
	anon map[*html.Node]string
}

// NewGrouper creates a grouper with an empty anonymous-key memory.
func NewGrouper() *Grouper {
	return &Grouper{anon: make(map[*html.Node]string)}
}

// Group returns the units under root in first-appearance document order.
func Group(root *html.Node) []*Unit {
	return NewGrouper().Group(root)
}

// Candidates returns the visible, enabled form controls under root.
func Candidates(root *html.Node) []*html.Node {
	m := dom.MustCompile(controlSelector)
	return dom.Find(root, func(n *html.Node) bool {
		return m(n) && !excluded(n) && Active(n)
	})
}

// Group partitions the controls under root.
func (g *Grouper) Group(root *html.Node) []*Unit {
	var (
		order   []string
		names   = make(map[string]string)
		members = make(map[string][]*html.Node)
		live    = make(map[*html.Node]struct{})
	)
	for _, el := range Candidates(root) {
		name := NameOf(el)
		key := name
		if name == "" {
			key = g.anonKey(el)
			live[el] = struct{}{}
		}
		if _, ok := members[key]; !ok {
			order = append(order, key)
			names[key] = name
		}
		members[key] = append(members[key], el)
	}

	// Forget anonymous elements that left the subtree.
	for el := range g.anon {
		if _, ok := live[el]; !ok && !dom.Contains(root, el) {
			delete(g.anon, el)
		}
	}

	units := make([]*Unit, 0, len(order))
	for _, key := range order {
		units = append(units, NewUnit(key, names[key], members[key]))
	}
	return units
}

func (g *Grouper) anonKey(el *html.Node) string {
	if key, ok := g.anon[el]; ok {
		return key
	}
	key := "anon-" + uuid.NewString()
	g.anon[el] = key
	return key
}

// NameOf returns the logical name of a control, or "".
func NameOf(el *html.Node) string {
	if name := strings.TrimSpace(dom.AttrOr(el, "name", "")); name != "" {
		return name
	}
	return strings.TrimSpace(dom.AttrOr(el, AttrName, ""))
}

func excluded(n *html.Node) bool {
	if dom.Tag(n) == "input" {
		switch strings.ToLower(dom.AttrOr(n, "type", "")) {
		case "submit", "button", "reset", "image", "hidden":
			return true
		}
	}
	if v, ok := dom.Attr(n, "contenteditable"); ok && strings.EqualFold(strings.TrimSpace(v), "false") {
		return true
	}
	return false
}
