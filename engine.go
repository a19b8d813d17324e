package formguard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/broadcast"
	"github.com/dmitrymomot/formguard/pkg/component"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/form"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/message"
	"github.com/dmitrymomot/formguard/pkg/metrics"
	"github.com/dmitrymomot/formguard/pkg/render"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

// DefaultForward lists the form signals a page republishes on its bus.
var DefaultForward = []string{
	form.SignalValidated,
	form.SignalValid,
	form.SignalInvalid,
	form.SignalError,
	form.SignalClear,
}

// Engine builds pages that share one rule registry and message resolver.
// It is safe to share across goroutines; pages are not.
type Engine struct {
	logger   *slog.Logger
	rules    *rule.Registry
	resolver *message.Resolver
	metrics  *metrics.Collector
	bus      *broadcast.Bus
	style    string
	forward  []string
	formOpts []form.Option

	extra   []rule.Rule
	customs map[string]rule.CustomFunc
	catalog message.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRules adds rules after the built-in ones.
func WithRules(rules ...rule.Rule) Option {
	return func(e *Engine) { e.extra = append(e.extra, rules...) }
}

// WithCustom registers a predicate for data-fg-custom="name".
func WithCustom(name string, fn rule.CustomFunc) Option {
	return func(e *Engine) { e.customs[name] = fn }
}

// WithCatalog replaces rule default messages.
func WithCatalog(c message.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithStyle sets the error style for roots that do not declare one.
func WithStyle(name string) Option {
	return func(e *Engine) { e.style = name }
}

// WithBus publishes page signals to b. Without it each page gets its own bus.
func WithBus(b *broadcast.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithForward replaces the list of form signals republished on the bus.
func WithForward(signals ...string) Option {
	return func(e *Engine) { e.forward = signals }
}

// WithFormOptions passes options to every form the engine creates.
func WithFormOptions(opts ...form.Option) Option {
	return func(e *Engine) { e.formOpts = append(e.formOpts, opts...) }
}

// New creates an engine with the built-in rules.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  logger.Discard(),
		customs: make(map[string]rule.CustomFunc),
		forward: DefaultForward,
	}
	for _, opt := range opts {
		opt(e)
	}

	ropts := []rule.Option{rule.WithLogger(e.logger), rule.WithRules(e.extra...)}
	for name, fn := range e.customs {
		ropts = append(ropts, rule.WithCustom(name, fn))
	}
	e.rules = rule.Default(ropts...)
	if len(e.catalog) > 0 {
		n := e.catalog.Apply(e.rules)
		e.logger.Debug("applied message catalog", logger.Count(n))
	}

	mopts := []message.Option{message.WithLogger(e.logger)}
	if e.metrics != nil {
		mopts = append(mopts, message.WithObserver(e.metrics.ObserveTier))
	}
	e.resolver = message.NewResolver(mopts...)

	if e.style != "" {
		if _, err := render.LookupStyle(e.style); err != nil {
			e.logger.Warn("unknown engine style, using root styles only", logger.Style(e.style), logger.Error(err))
			e.style = ""
		}
	}
	return e
}

// Rules returns the engine's rule registry.
func (e *Engine) Rules() *rule.Registry { return e.rules }

func (e *Engine) Resolver() *message.Resolver { return e.resolver }

// Metrics returns the collector, or nil when metrics are off.
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }

// Load wraps doc in a page. Nothing is scanned until Page.Scan.
func (e *Engine) Load(doc *dom.Document) *Page {
	p := &Page{engine: e, doc: doc}
	copts := []component.Option{
		component.WithLogger(e.logger),
		component.WithForward(e.forward...),
	}
	if e.bus != nil {
		copts = append(copts, component.WithBus(e.bus))
	}
	if e.metrics != nil {
		copts = append(copts, component.WithObserver(e.metrics))
	}
	p.components = component.New(doc, copts...)
	p.components.MustRegister(form.AttrRoot, e.formFactory(doc))
	return p
}

// Parse reads a document and loads it.
func (e *Engine) Parse(r io.Reader) (*Page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return e.Load(doc), nil
}

func (e *Engine) LoadString(markup string) (*Page, error) {
	return e.Parse(strings.NewReader(markup))
}

// LoadComponent renders c and loads the result.
func (e *Engine) LoadComponent(ctx context.Context, c templ.Component) (*Page, error) {
	if c == nil {
		return nil, ErrNilDocument
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render component: %w", err)
	}
	return e.Parse(&buf)
}

func (e *Engine) formFactory(doc *dom.Document) component.Factory {
	return func(root *html.Node) (component.Component, error) {
		opts := []form.Option{form.WithLogger(e.logger)}
		if e.metrics != nil {
			opts = append(opts, form.WithObserver(e.metrics))
		}
		if e.style != "" && !dom.HasAttr(root, form.AttrStyle) {
			opts = append(opts, form.WithStyle(e.style))
		}
		opts = append(opts, e.formOpts...)
		f, err := form.New(doc, root, e.rules, e.resolver, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}
