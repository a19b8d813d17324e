package rule

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// CustomFunc is a user-supplied predicate behind the "custom" rule.
type CustomFunc func(v field.Value, u *field.Unit) Outcome

// Registry is an ordered collection of rules. Build it once per application
// and share it between forms; it is not mutated during validation.
type Registry struct {
	rules   []Rule
	index   map[string]int
	customs map[string]CustomFunc
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for malformed-rule warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRules registers rules in order. Malformed or duplicate rules are
// skipped with a warning instead of failing construction.
func WithRules(rules ...Rule) Option {
	return func(r *Registry) {
		for _, rl := range rules {
			if err := r.Register(rl); err != nil {
				r.logger.Warn("skipping rule", logger.Rule(rl.Name), logger.Error(err))
			}
		}
	}
}

// WithCustom makes fn available to the "custom" rule under name.
func WithCustom(name string, fn CustomFunc) Option {
	return func(r *Registry) {
		r.RegisterCustom(name, fn)
	}
}

// New creates a registry. Options apply in order.
func New(opts ...Option) *Registry {
	r := &Registry{
		index:   make(map[string]int),
		customs: make(map[string]CustomFunc),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default creates a registry holding the built-in rules followed by any
// rules added through opts.
func Default(opts ...Option) *Registry {
	r := New()
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	builtins := Builtins(r.Custom, r.logger)
	rules := r.rules
	r.rules, r.index = nil, make(map[string]int)
	for _, b := range builtins {
		r.MustRegister(b)
	}
	for _, extra := range rules {
		if err := r.Register(extra); err != nil {
			r.logger.Warn("skipping rule", logger.Rule(extra.Name), logger.Error(err))
		}
	}
	return r
}

// Register appends a rule. It fails for malformed rules and duplicate names.
func (r *Registry) Register(rl Rule) error {
	if err := rl.check(); err != nil {
		return err
	}
	if _, exists := r.index[rl.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRule, rl.Name)
	}
	r.index[rl.Name] = len(r.rules)
	r.rules = append(r.rules, rl)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(rl Rule) {
	if err := r.Register(rl); err != nil {
		panic(fmt.Sprintf("failed to register rule: %v", err))
	}
}

// RegisterCustom adds or replaces a named custom predicate.
func (r *Registry) RegisterCustom(name string, fn CustomFunc) {
	if name == "" {
		return
	}
	r.customs[name] = fn
}

// Custom looks up a named custom predicate.
func (r *Registry) Custom(name string) (CustomFunc, bool) {
	fn, ok := r.customs[name]
	return fn, ok
}

// Get returns the rule registered under name.
func (r *Registry) Get(name string) (Rule, bool) {
	i, ok := r.index[name]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// Rules returns a copy of the registered rules in order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Names returns the rule names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.rules))
	for i, rl := range r.rules {
		names[i] = rl.Name
	}
	return names
}

func (r *Registry) Len() int { return len(r.rules) }

// Matching returns the rules that apply to u, in registration order.
func (r *Registry) Matching(u *field.Unit) []Rule {
	var out []Rule
	for _, rl := range r.rules {
		if err := rl.check(); err != nil {
			r.logger.Warn("skipping malformed rule", logger.Rule(rl.Name), logger.Error(err))
			continue
		}
		if rl.Applies(u) {
			out = append(out, rl)
		}
	}
	return out
}

// OverrideDefaults replaces the default message of every named rule with the
// given text. It returns the number of rules changed. Call it while building
// the registry, before any form uses it.
func (r *Registry) OverrideDefaults(messages map[string]string) int {
	changed := 0
	for name, msg := range messages {
		i, ok := r.index[name]
		if !ok || msg == "" {
			continue
		}
		r.rules[i].DefaultMessage = Literal(msg)
		changed++
	}
	return changed
}
