package formguard

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

// Component renders the page as a templ component, so a validated page can
// be embedded in a templ layout or written by any templ-aware response.
func (p *Page) Component() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return p.Render(w)
	})
}

// FormComponent renders only the form with the given id. An unknown id
// renders nothing.
func (p *Page) FormComponent(id string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		f, ok := p.Form(id)
		if !ok {
			return nil
		}
		var markup string
		p.doc.Do(func() { markup = dom.OuterHTML(f.Root()) })
		_, err := io.WriteString(w, markup)
		return err
	})
}
