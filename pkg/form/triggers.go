package form

import (
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// attach registers the delegated listeners on the root.
func (f *Form) attach() {
	listen := func(typ string, fn dom.Handler) {
		f.listeners = append(f.listeners, f.doc.Listen(f.root, typ, fn))
	}
	listen(dom.EventSubmit, f.onSubmit)
	listen(dom.EventClick, f.onClick)
	listen(dom.EventBlur, f.onLive)
	listen(dom.EventChange, f.onLive)
	listen(dom.EventInput, f.onInput)
	listen(SignalFieldAdded, f.onFieldAdded)
}

func (f *Form) onSubmit(ev *dom.Event) {
	if !f.cfg.Submit {
		return
	}
	if !f.Validate() {
		ev.PreventDefault()
	}
}

func (f *Form) onClick(ev *dom.Event) {
	if !f.cfg.Click {
		return
	}
	trigger := dom.Closest(ev.Target, f.root, func(n *html.Node) bool {
		return dom.HasAttr(n, AttrTrigger)
	})
	if trigger == nil {
		return
	}
	if !f.Validate() {
		ev.PreventDefault()
	}
}

func (f *Form) onLive(ev *dom.Event) {
	if !f.cfg.Live {
		return
	}
	if b := f.bindingFor(ev.Target); b != nil {
		if _, err := f.ValidateUnit(b.unit.Key); err != nil {
			f.logger.Debug("live validation skipped", logger.Root(f.id), logger.Error(err))
		}
	}
}

func (f *Form) onInput(ev *dom.Event) {
	if !f.cfg.Live {
		return
	}
	b := f.bindingFor(ev.Target)
	if b == nil {
		return
	}
	key := b.unit.Key
	f.debouncer.Schedule(key, func() {
		if _, err := f.ValidateUnit(key); err != nil {
			f.logger.Debug("debounced validation skipped", logger.Root(f.id), logger.Field(key), logger.Error(err))
		}
	})
}

func (f *Form) onFieldAdded(*dom.Event) {
	if err := f.Refresh(); err != nil {
		f.logger.Error("refresh after field added failed", logger.Root(f.id), logger.Error(err))
	}
}

// bindingFor returns the binding owning n, or one of n's ancestors.
func (f *Form) bindingFor(n *html.Node) *binding {
	for ; n != nil && n != f.root.Parent; n = n.Parent {
		for _, key := range f.order {
			if b, ok := f.bindings[key]; ok && b.unit.Has(n) {
				return b
			}
		}
	}
	return nil
}
