package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// Native event types the engine listens for.
const (
	EventSubmit = "submit"
	EventClick  = "click"
	EventBlur   = "blur"
	EventChange = "change"
	EventInput  = "input"
)

// Event is a synthetic DOM event.
type Event struct {
	Type   string
	Detail map[string]any

	// Target is the node the event was dispatched on; CurrentTarget is the
	// node whose listener is currently running.
	Target        *html.Node
	CurrentTarget *html.Node

	prevented bool
	stopped   bool
}

// NewEvent creates an event of the given type with optional detail.
func NewEvent(typ string, detail map[string]any) *Event {
	return &Event{Type: typ, Detail: detail}
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// StopPropagation stops the event from reaching further ancestors. Remaining
// listeners on the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

// Handler handles a dispatched event.
type Handler func(ev *Event)

// ListenerID identifies a registered listener for later removal.
type ListenerID uint64

type listener struct {
	id      ListenerID
	node    *html.Node
	typ     string
	fn      Handler
	removed bool
}

// Listen registers fn for events of type typ reaching n.
func (d *Document) Listen(n *html.Node, typ string, fn Handler) ListenerID {
	if n == nil || fn == nil {
		return 0
	}
	d.nextID++
	l := &listener{id: d.nextID, node: n, typ: typ, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	d.byID[l.id] = l
	return l.id
}

// Unlisten removes a listener. It reports whether the listener existed.
func (d *Document) Unlisten(id ListenerID) bool {
	l, ok := d.byID[id]
	if !ok {
		return false
	}
	l.removed = true
	delete(d.byID, id)
	d.listeners[l.node] = slices.DeleteFunc(d.listeners[l.node], func(x *listener) bool {
		return x.id == id
	})
	if len(d.listeners[l.node]) == 0 {
		delete(d.listeners, l.node)
	}
	return true
}

// ListenerCount returns the number of registered listeners.
func (d *Document) ListenerCount() int {
	return len(d.byID)
}

// Dispatch delivers ev to target and then to each ancestor of target. It
// returns false when a listener prevented the default action.
func (d *Document) Dispatch(target *html.Node, ev *Event) bool {
	if target == nil || ev == nil {
		return true
	}
	ev.Target = target
	for n := target; n != nil && !ev.stopped; n = n.Parent {
		registered := d.listeners[n]
		if len(registered) == 0 {
			continue
		}
		// Listeners added during dispatch wait for the next event.
		snapshot := slices.Clone(registered)
		ev.CurrentTarget = n
		for _, l := range snapshot {
			if l.removed || l.typ != ev.Type {
				continue
			}
			l.fn(ev)
		}
	}
	ev.CurrentTarget = nil
	return !ev.prevented
}

// Emit dispatches a new event of type typ carrying detail.
func (d *Document) Emit(target *html.Node, typ string, detail map[string]any) bool {
	return d.Dispatch(target, NewEvent(typ, detail))
}
