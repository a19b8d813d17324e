package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/cache"
)

// Matcher reports whether a single element satisfies a compiled selector.
type Matcher func(*html.Node) bool

// SelectorCacheSize bounds the compiled selectors kept by Compile.
const SelectorCacheSize = 1024

var selectorCache = cache.NewLRU[string, cascadia.Selector](SelectorCacheSize)

// Compile compiles a CSS selector. The most recently used selectors are
// cached by their source text, so repeated lookups are cheap.
func Compile(selector string) (Matcher, error) {
	if sel, ok := selectorCache.Get(selector); ok {
		return Matcher(sel), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, selector, err)
	}
	selectorCache.Put(selector, sel)
	return Matcher(sel), nil
}

// MustCompile is like Compile but panics on an invalid selector.
func MustCompile(selector string) Matcher {
	m, err := Compile(selector)
	if err != nil {
		panic(err)
	}
	return m
}

// Matches reports whether n matches selector. An invalid selector never matches.
func Matches(n *html.Node, selector string) bool {
	if !IsElement(n) {
		return false
	}
	m, err := Compile(selector)
	if err != nil {
		return false
	}
	return m(n)
}

// QueryAll returns every element under root, root included, matching selector.
func QueryAll(root *html.Node, selector string) ([]*html.Node, error) {
	m, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	return Find(root, m), nil
}

// Query returns the first element under root matching selector, or nil.
func Query(root *html.Node, selector string) (*html.Node, error) {
	m, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(n) && m(n) {
			found = n
			return false
		}
		return true
	})
	return found, nil
}

// MustQuery is like Query but panics on an invalid selector or no match.
// It exists for tests and examples.
func MustQuery(root *html.Node, selector string) *html.Node {
	n, err := Query(root, selector)
	if err != nil {
		panic(err)
	}
	if n == nil {
		panic(fmt.Sprintf("dom: no element matches %q", selector))
	}
	return n
}
