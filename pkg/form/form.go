package form

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/component"
	"github.com/dmitrymomot/formguard/pkg/debounce"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/lifecycle"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/message"
	"github.com/dmitrymomot/formguard/pkg/render"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

// Signals dispatched by a form.
const (
	SignalPreValidate = "fg:pre-validate"
	SignalValidated   = "fg:validated"
	SignalValid       = "fg:valid"
	SignalInvalid     = "fg:invalid"
	SignalError       = "fg:error"
	SignalClear       = "fg:clear"
	SignalFieldAdded  = "fg:field-added"
)

// FieldError is the error currently shown for one unit.
type FieldError struct {
	Field   string
	Name    string
	Rule    string
	Message string
	Tier    message.Tier
}

// Observer receives validation measurements.
type Observer interface {
	ObserveValidation(formID string, valid bool, failed int, elapsed time.Duration)
	ObserveFailure(ruleName string)
}

type binding struct {
	unit     *field.Unit
	rules    []rule.Rule
	renderer *render.Renderer
	failure  *FieldError
}

// Form validates one root element.
type Form struct {
	doc      *dom.Document
	root     *html.Node
	id       string
	registry *rule.Registry
	resolver *message.Resolver
	logger   *slog.Logger
	observer Observer

	cfg       Config
	overrides []func(*Config)
	afterFunc debounce.AfterFunc

	grouper   *field.Grouper
	order     []string
	bindings  map[string]*binding
	listeners []dom.ListenerID
	debouncer *debounce.Debouncer
	machine   *lifecycle.Machine
}

// Option configures a Form. Options take precedence over root attributes.
type Option func(*Form)

func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithID sets the identifier used to namespace error markers.
func WithID(id string) Option {
	return func(f *Form) {
		if id = strings.TrimSpace(id); id != "" {
			f.id = id
		}
	}
}

func WithLive(live bool) Option {
	return func(f *Form) { f.overrides = append(f.overrides, func(c *Config) { c.Live = live }) }
}

func WithDebounce(d time.Duration) Option {
	return func(f *Form) { f.overrides = append(f.overrides, func(c *Config) { c.Debounce = d }) }
}

func WithSubmit(on bool) Option {
	return func(f *Form) { f.overrides = append(f.overrides, func(c *Config) { c.Submit = on }) }
}

func WithClick(on bool) Option {
	return func(f *Form) { f.overrides = append(f.overrides, func(c *Config) { c.Click = on }) }
}

func WithStyle(name string) Option {
	return func(f *Form) { f.overrides = append(f.overrides, func(c *Config) { c.Style = name }) }
}

// WithAfterFunc replaces the timer used for debounced live validation.
func WithAfterFunc(fn debounce.AfterFunc) Option {
	return func(f *Form) { f.afterFunc = fn }
}

func WithObserver(o Observer) Option {
	return func(f *Form) { f.observer = o }
}

// New creates a form for root. The form does nothing until Init. A nil
// resolver gets a default one; a nil document, root or registry is an error.
func New(doc *dom.Document, root *html.Node, registry *rule.Registry, resolver *message.Resolver, opts ...Option) (*Form, error) {
	switch {
	case doc == nil:
		return nil, ErrNilDocument
	case root == nil:
		return nil, ErrNilRoot
	case registry == nil:
		return nil, ErrNilRegistry
	}
	if resolver == nil {
		resolver = message.NewResolver()
	}
	f := &Form{
		doc:      doc,
		root:     root,
		registry: registry,
		resolver: resolver,
		logger:   logger.Discard(),
		grouper:  field.NewGrouper(),
		bindings: make(map[string]*binding),
		machine:  lifecycle.NewForm(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.id == "" {
		f.id = rootID(root)
	}
	f.cfg = ConfigFromAttrs(root)
	for _, o := range f.overrides {
		o(&f.cfg)
	}
	if _, err := render.LookupStyle(f.cfg.Style); err != nil {
		f.logger.Warn("unknown error style, using default", logger.Root(f.id), logger.Style(f.cfg.Style))
		f.cfg.Style = render.StyleDefault
	}
	var dopts []debounce.Option
	if f.afterFunc != nil {
		dopts = append(dopts, debounce.WithAfterFunc(f.afterFunc))
	}
	dopts = append(dopts, debounce.WithRunner(doc.Do))
	f.debouncer = debounce.New(f.cfg.Debounce, dopts...)
	return f, nil
}

func rootID(root *html.Node) string {
	if id := strings.TrimSpace(dom.AttrOr(root, "id", "")); id != "" {
		return id
	}
	if name := strings.TrimSpace(dom.AttrOr(root, AttrRoot, "")); name != "" {
		return name
	}
	return "fg-" + uuid.NewString()
}

// Init binds the units under the root and attaches the triggers. Calling it
// again is a no-op.
func (f *Form) Init() error {
	switch f.machine.Current() {
	case lifecycle.Destroyed:
		return ErrDestroyed
	case lifecycle.Uninitialized:
	default:
		return nil
	}
	if err := f.refresh(); err != nil {
		return err
	}
	f.attach()
	if err := f.machine.Fire(lifecycle.Init); err != nil {
		return fmt.Errorf("form %s: %w", f.id, err)
	}
	f.logger.Debug("form initialised", logger.Root(f.id), logger.Count(len(f.order)))
	return nil
}

func (f *Form) ensureReady() error {
	if f.machine.Is(lifecycle.Destroyed) {
		return ErrDestroyed
	}
	if f.machine.Is(lifecycle.Uninitialized) {
		return f.Init()
	}
	return nil
}

// ID returns the identifier used in error markers.
func (f *Form) ID() string { return f.id }

func (f *Form) Root() *html.Node { return f.root }

// Config returns the effective configuration.
func (f *Form) Config() Config { return f.cfg }

// State returns the lifecycle state.
func (f *Form) State() lifecycle.State { return f.machine.Current() }

// OnTransition registers fn for lifecycle transitions.
func (f *Form) OnTransition(fn lifecycle.Listener) { f.machine.OnTransition(fn) }

// Validate validates every unit and reports whether all passed. Every unit
// is evaluated so that all errors show at once. A destroyed form is never
// valid.
func (f *Form) Validate() bool {
	if err := f.ensureReady(); err != nil {
		return false
	}
	start := time.Now()
	nested := f.begin()

	f.doc.Emit(f.root, SignalPreValidate, map[string]any{"form": f.id})
	valid, failed := true, 0
	for _, key := range slices.Clone(f.order) {
		b, ok := f.bindings[key]
		if !ok {
			continue
		}
		if !f.check(b) {
			valid = false
			failed++
		}
	}
	f.doc.Emit(f.root, SignalValidated, map[string]any{"form": f.id, "valid": valid})
	if valid {
		f.doc.Emit(f.root, SignalValid, map[string]any{"form": f.id})
	} else {
		f.doc.Emit(f.root, SignalInvalid, map[string]any{"form": f.id, "errors": f.Errors()})
	}

	f.finish(nested)
	if f.observer != nil {
		f.observer.ObserveValidation(f.id, valid, failed, time.Since(start))
	}
	f.logger.Debug("form validated", logger.Root(f.id), slog.Bool("valid", valid), logger.Count(failed))
	return valid
}

// ValidateUnit validates the unit registered under key.
func (f *Form) ValidateUnit(key string) (bool, error) {
	if err := f.ensureReady(); err != nil {
		return false, err
	}
	b, ok := f.bindings[key]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownUnit, key)
	}
	nested := f.begin()
	valid := f.check(b)
	f.finish(nested)
	return valid, nil
}

// begin enters the validating state. It reports whether validation was
// already running, in which case the matching finish is skipped.
func (f *Form) begin() bool {
	if f.machine.Is(lifecycle.Validating) {
		return true
	}
	if err := f.machine.Fire(lifecycle.Begin); err != nil {
		f.logger.Warn("unexpected lifecycle state", logger.Root(f.id), logger.Error(err))
	}
	return false
}

func (f *Form) finish(nested bool) {
	if nested || !f.machine.Is(lifecycle.Validating) {
		return
	}
	if err := f.machine.Fire(lifecycle.Finish); err != nil {
		f.logger.Warn("unexpected lifecycle state", logger.Root(f.id), logger.Error(err))
	}
}

// check runs the unit's rules. A unit that is hidden or disabled passes
// and loses any error it still shows.
func (f *Form) check(b *binding) bool {
	f.clear(b)
	if !b.unit.Validatable() {
		return true
	}

	value := b.unit.Value()
	for _, rl := range b.rules {
		out, ok := f.run(rl, value, b.unit)
		if !ok || out.Valid {
			continue
		}
		res := f.resolver.Resolve(rl, b.unit, f.root, out.Params)
		b.renderer.Render(res.Message)
		b.failure = &FieldError{
			Field:   b.unit.Key,
			Name:    b.unit.Name,
			Rule:    rl.Name,
			Message: res.Message,
			Tier:    res.Tier,
		}
		if f.observer != nil {
			f.observer.ObserveFailure(rl.Name)
		}
		f.doc.Emit(b.unit.Representative(), SignalError, map[string]any{
			"form":    f.id,
			"field":   b.unit.Key,
			"rule":    rl.Name,
			"message": res.Message,
		})
		return false
	}
	return true
}

// run executes one rule. A nil validator or a panic skips the rule.
func (f *Form) run(rl rule.Rule, v field.Value, u *field.Unit) (out rule.Outcome, ok bool) {
	if rl.Validate == nil {
		f.logger.Warn("skipping rule without validate function", logger.Root(f.id), logger.Rule(rl.Name))
		return rule.Outcome{}, false
	}
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error("rule panicked, skipping", logger.Root(f.id), logger.Rule(rl.Name),
				logger.Field(u.Key), slog.Any("panic", rec))
			out, ok = rule.Outcome{}, false
		}
	}()
	return rl.Validate(v, u), true
}

func (f *Form) clear(b *binding) {
	had := b.renderer.HasError()
	b.renderer.Clear()
	b.failure = nil
	if had {
		f.doc.Emit(b.unit.Representative(), SignalClear, map[string]any{"form": f.id, "field": b.unit.Key})
	}
}

// ClearErrors removes every error shown by the form.
func (f *Form) ClearErrors() error {
	if f.machine.Is(lifecycle.Destroyed) {
		return ErrDestroyed
	}
	for _, key := range f.order {
		if b, ok := f.bindings[key]; ok {
			f.clear(b)
		}
	}
	return nil
}

// Errors returns the errors currently shown, in unit order. Units that are
// hidden or disabled never report an error.
func (f *Form) Errors() []FieldError {
	var out []FieldError
	for _, key := range f.order {
		b, ok := f.bindings[key]
		if !ok || b.failure == nil || !b.renderer.HasError() || !b.unit.Validatable() {
			continue
		}
		out = append(out, *b.failure)
	}
	return out
}

// Units returns the bound units in document order.
func (f *Form) Units() []*field.Unit {
	out := make([]*field.Unit, 0, len(f.order))
	for _, key := range f.order {
		if b, ok := f.bindings[key]; ok {
			out = append(out, b.unit)
		}
	}
	return out
}

// Bind writes submitted values into the form's controls.
func (f *Form) Bind(values url.Values) error {
	if err := f.ensureReady(); err != nil {
		return err
	}
	field.Bind(f.Units(), values)
	return nil
}

// Overlay writes values into the controls they name and leaves the others
// untouched.
func (f *Form) Overlay(values url.Values) error {
	if err := f.ensureReady(); err != nil {
		return err
	}
	field.Overlay(f.Units(), values)
	return nil
}

// Refresh regroups the root after its subtree changed. Elements joining an
// existing key are merged into that unit, new keys are bound, and keys that
// left the DOM are released along with their errors.
func (f *Form) Refresh() error {
	if f.machine.Is(lifecycle.Destroyed) {
		return ErrDestroyed
	}
	return f.refresh()
}

func (f *Form) refresh() error {
	units := f.grouper.Group(f.root)
	order := make([]string, 0, len(units))
	seen := make(map[string]struct{}, len(units))

	for _, u := range units {
		order = append(order, u.Key)
		seen[u.Key] = struct{}{}

		b, ok := f.bindings[u.Key]
		if ok && slices.Equal(b.unit.Elements, u.Elements) {
			b.rules = f.registry.Matching(b.unit)
			continue
		}
		r, err := render.New(u, f.root, f.id, render.WithLogger(f.logger))
		if err != nil {
			return fmt.Errorf("form %s: unit %s: %w", f.id, u.Key, err)
		}
		if err := r.SetStyle(f.cfg.Style); err != nil {
			return fmt.Errorf("form %s: %w", f.id, err)
		}
		if ok {
			f.clear(b)
			b.unit, b.renderer = u, r
			b.rules = f.registry.Matching(u)
			continue
		}
		f.bindings[u.Key] = &binding{unit: u, renderer: r, rules: f.registry.Matching(u)}
	}

	for key, b := range f.bindings {
		if _, ok := seen[key]; ok {
			continue
		}
		f.debouncer.Cancel(key)
		b.renderer.Clear()
		delete(f.bindings, key)
	}
	f.order = order
	return nil
}

// RefreshRules recomputes which rules apply to each unit, for example after
// the markup changed rule attributes.
func (f *Form) RefreshRules() error {
	if f.machine.Is(lifecycle.Destroyed) {
		return ErrDestroyed
	}
	for _, b := range f.bindings {
		b.rules = f.registry.Matching(b.unit)
	}
	return nil
}

// Rules returns the names of the rules applying to the unit under key.
func (f *Form) Rules(key string) []string {
	b, ok := f.bindings[key]
	if !ok {
		return nil
	}
	names := make([]string, len(b.rules))
	for i, rl := range b.rules {
		names[i] = rl.Name
	}
	return names
}

// SetErrorStyle switches the style used by later renders.
func (f *Form) SetErrorStyle(name string) error {
	if f.machine.Is(lifecycle.Destroyed) {
		return ErrDestroyed
	}
	if _, err := render.LookupStyle(name); err != nil {
		return err
	}
	f.cfg.Style = name
	for _, b := range f.bindings {
		if err := b.renderer.SetStyle(name); err != nil {
			return err
		}
	}
	return nil
}

// OnStateChange applies shared state. It understands "style" (string) and
// "live" (bool).
func (f *Form) OnStateChange(s component.State) {
	if f.machine.Is(lifecycle.Destroyed) {
		return
	}
	if style, ok := s["style"].(string); ok && style != "" {
		if err := f.SetErrorStyle(style); err != nil {
			f.logger.Warn("ignoring shared style", logger.Root(f.id), logger.Style(style), logger.Error(err))
		}
	}
	if live, ok := s["live"].(bool); ok {
		f.cfg.Live = live
	}
}

// Destroy detaches the triggers, stops pending live validation and removes
// every error. The form cannot be used afterwards.
func (f *Form) Destroy() {
	if f.machine.Is(lifecycle.Destroyed) {
		return
	}
	f.debouncer.Stop()
	for _, id := range f.listeners {
		f.doc.Unlisten(id)
	}
	f.listeners = nil
	for _, b := range f.bindings {
		b.renderer.Clear()
	}
	f.bindings = make(map[string]*binding)
	f.order = nil
	if err := f.machine.Fire(lifecycle.Destroy); err != nil {
		f.logger.Warn("unexpected lifecycle state", logger.Root(f.id), logger.Error(err))
	}
	f.logger.Debug("form destroyed", logger.Root(f.id))
}
