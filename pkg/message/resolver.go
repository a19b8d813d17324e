package message

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

// Markup attributes read by the resolver.
const (
	AttrInlinePrefix = "data-fg-msg-"
	AttrTemplates    = "data-fg-templates"
	AttrTemplate     = "data-fg-template"
)

// Fallback is shown when no tier produced a message.
const Fallback = "This field is invalid."

// Tier identifies where a message came from.
type Tier int

const (
	TierInline Tier = iota + 1
	TierContainer
	TierLegacy
	TierDefault
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierInline:
		return "inline"
	case TierContainer:
		return "container"
	case TierLegacy:
		return "legacy"
	case TierDefault:
		return "default"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is a resolved message. Message is markup with placeholders
// already substituted.
type Result struct {
	Message string
	Tier    Tier
}

// Observer is notified of the tier used for every resolved message.
type Observer func(ruleName string, tier Tier)

// Resolver picks the message for a failed rule. It is stateless apart from
// its options and is safe to share between forms.
type Resolver struct {
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers fn to be called after every resolution.
func WithObserver(fn Observer) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.observers = append(r.observers, fn)
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the message for rl failing on u. root bounds the search
// for container and legacy templates.
func (r *Resolver) Resolve(rl rule.Rule, u *field.Unit, root *html.Node, params rule.Params) Result {
	res := r.resolve(rl, u, root, params)
	res.Message = Interpolate(res.Message, params)

	attrs := []any{logger.Rule(rl.Name), logger.Field(u.Key), logger.Tier(int(res.Tier))}
	switch res.Tier {
	case TierLegacy:
		r.logger.Warn("message taken from legacy template, move it into a data-fg-templates container", attrs...)
	case TierDefault:
		r.logger.Error("no message template for rule, using its default", attrs...)
	case TierFallback:
		r.logger.Error("no message available for rule, page is misconfigured", attrs...)
	}
	for _, fn := range r.observers {
		fn(rl.Name, res.Tier)
	}
	return res
}

func (r *Resolver) resolve(rl rule.Rule, u *field.Unit, root *html.Node, params rule.Params) Result {
	name := strings.ToLower(rl.Name)

	if msg, ok := dom.Attr(u.Representative(), AttrInlinePrefix+name); ok && strings.TrimSpace(msg) != "" {
		return Result{Message: msg, Tier: TierInline}
	}
	if tmpl := containerTemplate(root, name); tmpl != nil {
		if msg := strings.TrimSpace(dom.InnerHTML(tmpl)); msg != "" {
			return Result{Message: msg, Tier: TierContainer}
		}
	}
	if legacy := dom.ByID(root, rl.LegacyTemplateID()); legacy != nil {
		if msg := strings.TrimSpace(dom.InnerHTML(legacy)); msg != "" {
			return Result{Message: msg, Tier: TierLegacy}
		}
	}
	if params == nil {
		params = rule.Params{}
	}
	if msg := rl.Default(params); strings.TrimSpace(msg) != "" {
		return Result{Message: msg, Tier: TierDefault}
	}
	return Result{Message: Fallback, Tier: TierFallback}
}

func containerTemplate(root *html.Node, name string) *html.Node {
	var found *html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if dom.IsElement(n) && strings.EqualFold(dom.AttrOr(n, AttrTemplate, ""), name) &&
			n.Parent != nil && dom.Closest(n.Parent, root, isTemplates) != nil {
			found = n
			return false
		}
		return true
	})
	return found
}

func isTemplates(n *html.Node) bool { return dom.HasAttr(n, AttrTemplates) }
