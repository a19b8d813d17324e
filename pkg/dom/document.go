package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document owns an HTML node tree together with its event listeners.
type Document struct {
	root *html.Node

	mu sync.Mutex

	listeners map[*html.Node][]*listener
	byID      map[ListenerID]*listener
	nextID    ListenerID
}

// New wraps an existing node tree. The node is usually an html.DocumentNode
// but any element works as long as all dispatch targets live under it.
func New(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node][]*listener),
		byID:      make(map[ListenerID]*listener),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return New(root), nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the top node of the tree.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or the root when the tree has none.
func (d *Document) Body() *html.Node {
	if body, _ := Query(d.root, "body"); body != nil {
		return body
	}
	return d.root
}

// Render writes the whole tree as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the whole tree. Render errors are swallowed.
func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

// Do runs fn while holding the document mutex. Callbacks fired from other
// goroutines (timers, background loaders) must mutate the tree only inside Do.
// Do is not reentrant: fn must not call Do again.
func (d *Document) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}
