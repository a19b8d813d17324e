package render

import (
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// Markup attributes written or read by the renderer.
const (
	AttrError     = "data-fg-error"
	AttrWrapper   = "data-fg-wrapper"
	AttrContainer = "data-fg-container"
	AttrInvalid   = "aria-invalid"
)

// record is the error currently shown by a renderer.
type record struct {
	markup string
	node   *html.Node
	// added holds the classes this renderer put on each display element,
	// so they can be removed even after a style switch.
	added map[*html.Node][]string
	// ownAria lists the elements whose aria-invalid was set by the renderer.
	ownAria []*html.Node
}

// Renderer paints and clears the error of one unit.
type Renderer struct {
	unit      *field.Unit
	root      *html.Node
	marker    string
	container *html.Node
	style     Style
	logger    *slog.Logger
	current   *record
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStyleProfile sets the initial style directly.
func WithStyleProfile(s Style) Option {
	return func(r *Renderer) { r.style = s.normalize() }
}

// New creates a renderer for u inside root. rootID namespaces the ownership
// marker so that units with the same key in different roots never collide.
// The message container is resolved once, here.
func New(u *field.Unit, root *html.Node, rootID string, opts ...Option) (*Renderer, error) {
	if u == nil || len(u.Elements) == 0 {
		return nil, ErrNilUnit
	}
	def, err := LookupStyle(StyleDefault)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		unit:   u,
		root:   root,
		marker: rootID + ":" + u.Key,
		style:  def,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.container = findContainer(u, root)
	return r, nil
}

func findContainer(u *field.Unit, root *html.Node) *html.Node {
	rep := u.Representative()
	if c := dom.Closest(rep.Parent, root, func(n *html.Node) bool {
		return dom.HasAttr(n, AttrContainer)
	}); c != nil {
		return c
	}
	if u.Kind == field.KindChoice {
		return dom.CommonAncestor(u.Elements...)
	}
	return nil
}

// Marker returns the value of the data-fg-error attribute this renderer owns.
func (r *Renderer) Marker() string { return r.marker }

// Unit returns the unit the renderer paints.
func (r *Renderer) Unit() *field.Unit { return r.unit }

// Style returns the active style name.
func (r *Renderer) Style() string { return r.style.Name }

// SetStyle switches the profile used by later Render calls. An error that is
// already shown keeps its look until it is cleared.
func (r *Renderer) SetStyle(name string) error {
	s, err := LookupStyle(name)
	if err != nil {
		return err
	}
	r.style = s
	return nil
}

// HasError reports whether an error is shown.
func (r *Renderer) HasError() bool { return r.current != nil }

// Message returns the markup of the shown error, or "".
func (r *Renderer) Message() string {
	if r.current == nil {
		return ""
	}
	return r.current.markup
}

// Render shows markup as the unit's error, replacing any error already shown.
func (r *Renderer) Render(markup string) {
	r.Clear()

	display := r.unit.DisplayElements()
	rec := &record{markup: markup, added: make(map[*html.Node][]string, len(display))}

	for _, el := range display {
		var added []string
		for _, c := range strings.Fields(r.style.ErrorClass) {
			if !dom.HasClass(el, c) {
				added = append(added, c)
			}
		}
		dom.AddClass(el, added...)
		rec.added[el] = added
		if !dom.HasAttr(el, AttrInvalid) {
			rec.ownAria = append(rec.ownAria, el)
		}
		dom.SetAttr(el, AttrInvalid, "true")
	}

	anchor := display[len(display)-1]
	if r.style.Wraps() && len(display) == 1 && anchor.Parent != nil {
		wrapper := dom.NewElement(r.style.WrapperTag,
			html.Attribute{Key: "class", Val: r.style.WrapperClass},
			html.Attribute{Key: AttrWrapper, Val: r.marker},
		)
		dom.Wrap(anchor, wrapper)
	}

	node := dom.NewElement(r.style.MessageTag, html.Attribute{Key: AttrError, Val: r.marker})
	if r.style.MessageClass != "" {
		dom.SetAttr(node, "class", r.style.MessageClass)
	}
	if err := dom.SetInnerHTML(node, markup); err != nil {
		r.logger.Warn("error message is not valid markup, rendering as text",
			logger.Field(r.unit.Key), logger.Error(err))
		dom.SetText(node, markup)
	}

	switch {
	case r.container != nil:
		r.container.AppendChild(node)
	case anchor.Parent != nil:
		dom.InsertAfter(anchor, node)
	default:
		r.logger.Warn("display element is detached, error message not inserted", logger.Field(r.unit.Key))
	}
	rec.node = node
	r.current = rec
}

// Clear removes the shown error and every node carrying this renderer's
// marker. It is a no-op when nothing is shown.
func (r *Renderer) Clear() {
	if rec := r.current; rec != nil {
		for el, classes := range rec.added {
			dom.RemoveClass(el, classes...)
		}
		for _, el := range rec.ownAria {
			dom.RemoveAttr(el, AttrInvalid)
		}
		r.current = nil
	}

	top := r.root
	for top != nil && top.Parent != nil {
		top = top.Parent
	}
	owned := func(attr string) []*html.Node {
		return dom.Find(top, func(n *html.Node) bool {
			v, ok := dom.Attr(n, attr)
			return ok && v == r.marker
		})
	}
	for _, n := range owned(AttrError) {
		dom.Detach(n)
	}
	wrappers := owned(AttrWrapper)
	slices.Reverse(wrappers)
	for _, w := range wrappers {
		dom.Unwrap(w)
	}
}
