package form

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/render"
)

// Root attributes.
const (
	AttrRoot     = "data-fg-validate"
	AttrPrefix   = "data-fg-"
	AttrLive     = "data-fg-live"
	AttrDebounce = "data-fg-debounce"
	AttrSubmit   = "data-fg-submit"
	AttrClick    = "data-fg-click"
	AttrStyle    = "data-fg-style"
	AttrTrigger  = "data-fg-trigger"
)

// DefaultDebounce is the live-validation delay used when the root does not
// set data-fg-debounce.
const DefaultDebounce = 300 * time.Millisecond

// Config is the behaviour of one validation root.
type Config struct {
	// Live validates a unit on blur, change and (debounced) input.
	Live     bool
	Debounce time.Duration
	// Submit validates on submit and cancels the submission on failure.
	Submit bool
	// Click validates when a [data-fg-trigger] element is clicked.
	Click bool
	Style string
}

// DefaultConfig returns the configuration of a root without attributes.
func DefaultConfig() Config {
	return Config{
		Debounce: DefaultDebounce,
		Submit:   true,
		Click:    true,
		Style:    render.StyleDefault,
	}
}

// ParseAttrs reads every data-fg-* attribute of n, keyed by the part after
// the prefix. Values are coerced by shape: "true" and "false" become bools,
// all-digit strings become ints, anything else stays a string.
func ParseAttrs(n *html.Node) map[string]any {
	out := make(map[string]any)
	if n == nil {
		return out
	}
	for _, a := range n.Attr {
		if a.Namespace != "" || !strings.HasPrefix(a.Key, AttrPrefix) || len(a.Key) == len(AttrPrefix) {
			continue
		}
		out[a.Key[len(AttrPrefix):]] = coerce(a.Val)
	}
	return out
}

func coerce(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if v != "" && strings.Trim(v, "0123456789") == "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}

// ConfigFromAttrs builds a Config from the root's attributes. A boolean
// attribute present without a value counts as true.
func ConfigFromAttrs(n *html.Node) Config {
	cfg := DefaultConfig()
	attrs := ParseAttrs(n)
	cfg.Live = flag(attrs, "live", cfg.Live)
	cfg.Submit = flag(attrs, "submit", cfg.Submit)
	cfg.Click = flag(attrs, "click", cfg.Click)
	if ms, ok := attrs["debounce"].(int); ok {
		cfg.Debounce = time.Duration(ms) * time.Millisecond
	}
	if style, ok := attrs["style"].(string); ok && strings.TrimSpace(style) != "" {
		cfg.Style = strings.TrimSpace(style)
	}
	return cfg
}

func flag(attrs map[string]any, key string, def bool) bool {
	switch v := attrs[key].(type) {
	case bool:
		return v
	case string:
		if v == "" {
			return true
		}
	}
	return def
}
