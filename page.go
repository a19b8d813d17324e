package formguard

import (
	"context"
	"io"
	"net/url"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/broadcast"
	"github.com/dmitrymomot/formguard/pkg/component"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/form"
)

// Page is one loaded document and the forms found in it. Its methods run
// inside Document.Do, so live-validation timers never interleave with them.
type Page struct {
	engine     *Engine
	doc        *dom.Document
	components *component.Registry
	closed     bool
}

// Document returns the underlying document.
func (p *Page) Document() *dom.Document { return p.doc }

// Scan binds every marked root under node. A nil node scans the whole
// document. It returns the number of new forms.
func (p *Page) Scan(node *html.Node) int {
	var n int
	p.doc.Do(func() {
		if p.closed {
			return
		}
		if node == nil {
			node = p.doc.Root()
		}
		n = p.components.Scan(node)
	})
	return n
}

// Forms returns the page's forms in creation order.
func (p *Page) Forms() []*form.Form {
	var out []*form.Form
	p.doc.Do(func() { out = p.forms() })
	return out
}

func (p *Page) forms() []*form.Form {
	var out []*form.Form
	for _, e := range p.components.Instances() {
		if f, ok := e.Component.(*form.Form); ok {
			out = append(out, f)
		}
	}
	return out
}

// Form returns the form with the given id.
func (p *Page) Form(id string) (*form.Form, bool) {
	for _, f := range p.Forms() {
		if f.ID() == id {
			return f, true
		}
	}
	return nil, false
}

// Validate validates every form and reports whether all of them passed.
func (p *Page) Validate() bool {
	valid := true
	p.doc.Do(func() {
		for _, f := range p.forms() {
			if !f.Validate() {
				valid = false
			}
		}
	})
	return valid
}

// Errors returns the messages currently shown, keyed by field name.
func (p *Page) Errors() ValidationError {
	out := NewValidationError()
	p.doc.Do(func() {
		for _, f := range p.forms() {
			out.Merge(FromFieldErrors(f.Errors()...))
		}
	})
	return out
}

// FieldErrors returns each form's errors keyed by form id. Forms without
// errors are left out.
func (p *Page) FieldErrors() map[string][]form.FieldError {
	out := make(map[string][]form.FieldError)
	p.doc.Do(func() {
		for _, f := range p.forms() {
			if errs := f.Errors(); len(errs) > 0 {
				out[f.ID()] = errs
			}
		}
	})
	return out
}

// Bind writes submitted values into every form, clearing choice controls
// the submission omits.
func (p *Page) Bind(values url.Values) error {
	return p.bind(func(f *form.Form) error { return f.Bind(values) })
}

// Overlay writes values into the controls they name in every form. Controls
// not named keep their markup state.
func (p *Page) Overlay(values url.Values) error {
	return p.bind(func(f *form.Form) error { return f.Overlay(values) })
}

func (p *Page) bind(fn func(*form.Form) error) error {
	var err error
	p.doc.Do(func() {
		if p.closed {
			err = ErrClosed
			return
		}
		for _, f := range p.forms() {
			if err = fn(f); err != nil {
				return
			}
		}
	})
	return err
}

// SetState pushes shared state ("style", "live") to every form.
func (p *Page) SetState(s component.State) {
	p.doc.Do(func() { p.components.SetState(s) })
}

// Subscribe streams the page's signals until ctx is done.
func (p *Page) Subscribe(ctx context.Context) *broadcast.Subscription {
	return p.components.Subscribe(ctx)
}

// Render writes the document, errors included.
func (p *Page) Render(w io.Writer) error {
	var err error
	p.doc.Do(func() { err = p.doc.Render(w) })
	return err
}

func (p *Page) String() string {
	var s string
	p.doc.Do(func() { s = p.doc.String() })
	return s
}

// Close destroys every form and releases the page's bus.
func (p *Page) Close() {
	p.doc.Do(func() {
		if p.closed {
			return
		}
		p.closed = true
		p.components.Close()
	})
}
