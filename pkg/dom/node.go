package dom

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Tag returns the lower-case tag name of an element, or "" for other nodes.
func Tag(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Attr returns the value of the attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when the attribute is absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces the attribute key.
func SetAttr(n *html.Node, key, val string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes every occurrence of the attribute key.
func RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

// AttrsWithPrefix returns every attribute whose key starts with prefix,
// keyed by the remainder of the key.
func AttrsWithPrefix(n *html.Node, prefix string) map[string]string {
	out := make(map[string]string)
	if n == nil {
		return out
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.HasPrefix(a.Key, prefix) && len(a.Key) > len(prefix) {
			out[a.Key[len(prefix):]] = a.Val
		}
	}
	return out
}

// Classes returns the element's class list.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

func HasClass(n *html.Node, class string) bool {
	return slices.Contains(Classes(n), class)
}

// AddClass adds each whitespace-separated class that is not already present.
func AddClass(n *html.Node, classes ...string) {
	if !IsElement(n) {
		return
	}
	current := Classes(n)
	changed := false
	for _, group := range classes {
		for _, c := range strings.Fields(group) {
			if !slices.Contains(current, c) {
				current = append(current, c)
				changed = true
			}
		}
	}
	if changed {
		SetAttr(n, "class", strings.Join(current, " "))
	}
}

// RemoveClass removes each whitespace-separated class. The class attribute
// is dropped entirely once it becomes empty.
func RemoveClass(n *html.Node, classes ...string) {
	if !IsElement(n) {
		return
	}
	drop := make(map[string]struct{})
	for _, group := range classes {
		for _, c := range strings.Fields(group) {
			drop[c] = struct{}{}
		}
	}
	current := Classes(n)
	kept := slices.DeleteFunc(current, func(c string) bool {
		_, ok := drop[c]
		return ok
	})
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// StyleProperty returns the value of an inline style property, lower-cased
// and trimmed, or "" when the element does not declare it.
func StyleProperty(n *html.Node, prop string) string {
	style, ok := Attr(n, "style")
	if !ok {
		return ""
	}
	for decl := range strings.SplitSeq(style, ";") {
		name, val, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			v := strings.ToLower(strings.TrimSpace(val))
			return strings.TrimSpace(strings.TrimSuffix(v, "!important"))
		}
	}
	return ""
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode, html.DocumentNode:
				walk(c.FirstChild)
			}
		}
	}
	walk(n.FirstChild)
	return b.String()
}

// SetText replaces all children of n with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// SetInnerHTML parses markup in the context of n and replaces its children.
func SetInnerHTML(n *html.Node, markup string) error {
	if !IsElement(n) {
		return ErrNilNode
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAfter inserts n as the next sibling of ref.
func InsertAfter(ref, n *html.Node) {
	if ref == nil || ref.Parent == nil || n == nil {
		return
	}
	Detach(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Wrap puts wrapper in the place of n and moves n inside it.
func Wrap(n, wrapper *html.Node) {
	if n == nil || n.Parent == nil || wrapper == nil {
		return
	}
	Detach(wrapper)
	parent := n.Parent
	parent.InsertBefore(wrapper, n)
	parent.RemoveChild(n)
	wrapper.AppendChild(n)
}

// Unwrap moves the children of wrapper in front of it and removes it.
func Unwrap(wrapper *html.Node) {
	if wrapper == nil || wrapper.Parent == nil {
		return
	}
	parent := wrapper.Parent
	for c := wrapper.FirstChild; c != nil; {
		next := c.NextSibling
		wrapper.RemoveChild(c)
		parent.InsertBefore(c, wrapper)
		c = next
	}
	parent.RemoveChild(wrapper)
}

// Contains reports whether n is ancestor itself or one of its descendants.
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// CommonAncestor returns the deepest node that contains every node, or nil.
func CommonAncestor(nodes ...*html.Node) *html.Node {
	if len(nodes) == 0 {
		return nil
	}
	if len(nodes) == 1 {
		return nodes[0].Parent
	}
	for candidate := nodes[0].Parent; candidate != nil; candidate = candidate.Parent {
		all := true
		for _, n := range nodes[1:] {
			if !Contains(candidate, n) {
				all = false
				break
			}
		}
		if all {
			return candidate
		}
	}
	return nil
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// Find returns every element under root, root included, accepted by match.
func Find(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if IsElement(n) && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Closest returns the nearest element from n up to and including stop that
// match accepts. A nil stop searches up to the document node.
func Closest(n, stop *html.Node, match func(*html.Node) bool) *html.Node {
	for ; n != nil; n = n.Parent {
		if IsElement(n) && match(n) {
			return n
		}
		if n == stop {
			return nil
		}
	}
	return nil
}

// ByID returns the first element under root with the given id.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(n) && AttrOr(n, "id", "") == id {
			found = n
			return false
		}
		return true
	})
	return found
}
