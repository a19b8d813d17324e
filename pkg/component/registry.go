package component

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/broadcast"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// AttrInstance holds the id of the instance bound to an element.
const AttrInstance = "data-fg-instance"

// Signals dispatched by the registry.
const (
	SignalCreated = "fg:created"
	SignalScanned = "fg:scanned"
)

// ScanObserver receives scan measurements.
type ScanObserver interface {
	ObserveScan(created, failed int)
}

type registration struct {
	marker  string
	factory Factory
}

type instance struct {
	Entry
	listeners []dom.ListenerID
}

// Registry tracks component instances of one document. Like the document,
// it is not safe for concurrent use; wrap calls in Document.Do when events
// arrive from other goroutines.
type Registry struct {
	doc       *dom.Document
	logger    *slog.Logger
	bus       *broadcast.Bus
	ownBus    bool
	forward   []string
	observer  ScanObserver
	factories []registration
	instances []*instance
	byRoot    map[*html.Node]*instance
	state     State
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBus publishes signals to b instead of a registry-owned bus. The
// caller keeps ownership of b.
func WithBus(b *broadcast.Bus) Option {
	return func(r *Registry) {
		if b != nil {
			r.bus = b
		}
	}
}

// WithForward republishes the given signals when they reach an instance root.
func WithForward(signals ...string) Option {
	return func(r *Registry) { r.forward = append(r.forward, signals...) }
}

func WithObserver(o ScanObserver) Option {
	return func(r *Registry) { r.observer = o }
}

// New creates an empty registry for doc.
func New(doc *dom.Document, opts ...Option) *Registry {
	r := &Registry{
		doc:    doc,
		logger: logger.Discard(),
		byRoot: make(map[*html.Node]*instance),
		state:  State{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		r.bus = broadcast.New(broadcast.WithLogger(r.logger))
		r.ownBus = true
	}
	return r
}

// Register binds a factory to a marker attribute. Markers are scanned in
// registration order.
func (r *Registry) Register(marker string, f Factory) error {
	marker = strings.TrimSpace(marker)
	switch {
	case marker == "":
		return ErrEmptyMarker
	case f == nil:
		return fmt.Errorf("%w for %q", ErrNilFactory, marker)
	}
	for _, reg := range r.factories {
		if reg.marker == marker {
			return fmt.Errorf("%w: %q", ErrDuplicateMarker, marker)
		}
	}
	r.factories = append(r.factories, registration{marker: marker, factory: f})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(marker string, f Factory) {
	if err := r.Register(marker, f); err != nil {
		panic(fmt.Sprintf("failed to register component: %v", err))
	}
}

// Scan instantiates every marked element under root, root included, that
// does not hold an instance yet. It returns the number of instances created.
func (r *Registry) Scan(root *html.Node) int {
	if root == nil {
		return 0
	}
	created, failed := 0, 0
	for _, reg := range r.factories {
		marked := dom.Find(root, func(n *html.Node) bool { return dom.HasAttr(n, reg.marker) })
		for _, el := range marked {
			if r.holds(el) {
				r.logger.Debug("element already holds an instance, skipping",
					logger.Component(reg.marker), slog.String("id", dom.AttrOr(el, AttrInstance, "")))
				continue
			}
			if err := r.create(reg, el); err != nil {
				failed++
				r.logger.Error("failed to create component", logger.Component(reg.marker), logger.Error(err))
				continue
			}
			created++
		}
	}

	detail := map[string]any{"created": created, "failed": failed}
	r.doc.Emit(root, SignalScanned, detail)
	r.bus.Publish(broadcast.Signal{Type: SignalScanned, Detail: detail})
	if r.observer != nil {
		r.observer.ObserveScan(created, failed)
	}
	r.logger.Debug("scan finished", logger.Count(created), slog.Int("failed", failed))
	return created
}

func (r *Registry) holds(el *html.Node) bool {
	_, tracked := r.byRoot[el]
	return tracked && dom.HasAttr(el, AttrInstance)
}

func (r *Registry) create(reg registration, el *html.Node) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("component %q panicked: %v", reg.marker, rec)
		}
	}()

	// A stale entry whose marker attribute was stripped is replaced.
	if old, ok := r.byRoot[el]; ok {
		r.release(old)
	}

	c, err := reg.factory(el)
	if err != nil {
		return fmt.Errorf("component %q: %w", reg.marker, err)
	}
	if c == nil {
		return fmt.Errorf("%w: %q", ErrNilComponent, reg.marker)
	}
	if err := c.Init(); err != nil {
		return fmt.Errorf("component %q init: %w", reg.marker, err)
	}

	inst := &instance{Entry: Entry{
		ID:        uuid.NewString(),
		Marker:    reg.marker,
		Root:      el,
		Component: c,
	}}
	dom.SetAttr(el, AttrInstance, inst.ID)
	r.instances = append(r.instances, inst)
	r.byRoot[el] = inst

	for _, sig := range r.forward {
		inst.listeners = append(inst.listeners, r.doc.Listen(el, sig, func(ev *dom.Event) {
			r.bus.Publish(broadcast.Signal{Type: ev.Type, Root: inst.ID, Marker: inst.Marker, Detail: ev.Detail})
		}))
	}
	if len(r.state) > 0 {
		c.OnStateChange(r.state.Clone())
	}

	detail := map[string]any{"id": inst.ID, "marker": inst.Marker}
	r.doc.Emit(el, SignalCreated, detail)
	r.bus.Publish(broadcast.Signal{Type: SignalCreated, Root: inst.ID, Marker: inst.Marker, Detail: detail})
	return nil
}

// Instances returns the tracked instances in creation order.
func (r *Registry) Instances() []Entry {
	out := make([]Entry, len(r.instances))
	for i, inst := range r.instances {
		out[i] = inst.Entry
	}
	return out
}

// Get returns the instance bound to n.
func (r *Registry) Get(n *html.Node) (Entry, bool) {
	inst, ok := r.byRoot[n]
	if !ok {
		return Entry{}, false
	}
	return inst.Entry, true
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int { return len(r.instances) }

// Destroy destroys every instance whose root is n or lies under n and
// returns how many were destroyed.
func (r *Registry) Destroy(n *html.Node) int {
	var doomed []*instance
	for _, inst := range r.instances {
		if dom.Contains(n, inst.Root) {
			doomed = append(doomed, inst)
		}
	}
	for _, inst := range doomed {
		r.release(inst)
	}
	return len(doomed)
}

func (r *Registry) release(inst *instance) {
	for _, id := range inst.listeners {
		r.doc.Unlisten(id)
	}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("component destroy panicked", logger.Component(inst.Marker), slog.Any("panic", rec))
			}
		}()
		inst.Component.Destroy()
	}()
	dom.RemoveAttr(inst.Root, AttrInstance)
	delete(r.byRoot, inst.Root)
	for i, x := range r.instances {
		if x == inst {
			r.instances = append(r.instances[:i], r.instances[i+1:]...)
			break
		}
	}
}

// SetState merges s into the shared state and pushes a copy of the result
// to every instance.
func (r *Registry) SetState(s State) {
	maps.Copy(r.state, s)
	for _, inst := range r.instances {
		inst.Component.OnStateChange(r.state.Clone())
	}
}

// State returns a copy of the shared state.
func (r *Registry) State() State { return r.state.Clone() }

// Subscribe returns a subscription to the registry's signals.
func (r *Registry) Subscribe(ctx context.Context) *broadcast.Subscription {
	return r.bus.Subscribe(ctx)
}

// Close destroys every instance and closes the bus when the registry owns it.
func (r *Registry) Close() {
	for len(r.instances) > 0 {
		r.release(r.instances[len(r.instances)-1])
	}
	if r.ownBus {
		r.bus.Close()
	}
}
