package rule

import (
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/formguard/pkg/cache"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// Names of the built-in rules.
const (
	Required  = "required"
	MinLength = "minlength"
	MaxLength = "maxlength"
	Pattern   = "pattern"
	Email     = "email"
	URL       = "url"
	Number    = "number"
	EqualTo   = "equalto"
	Custom    = "custom"
	Remote    = "remote"
)

// Namespaced rule attributes. Native HTML attributes (required, minlength,
// maxlength, pattern, type) are honoured as well.
const (
	AttrRequired  = "data-fg-required"
	AttrMinLength = "data-fg-minlength"
	AttrMaxLength = "data-fg-maxlength"
	AttrPattern   = "data-fg-pattern"
	AttrEmail     = "data-fg-email"
	AttrURL       = "data-fg-url"
	AttrNumber    = "data-fg-number"
	AttrMin       = "data-fg-min"
	AttrMax       = "data-fg-max"
	AttrEqualTo   = "data-fg-equalto"
	AttrCustom    = "data-fg-custom"
	AttrRemote    = "data-fg-remote"
)

// CustomLookup resolves a custom predicate by name.
type CustomLookup func(name string) (CustomFunc, bool)

// Builtins returns the built-in rules in evaluation order.
func Builtins(lookup CustomLookup, log *slog.Logger) []Rule {
	return []Rule{
		RequiredRule(),
		MinLengthRule(),
		MaxLengthRule(),
		PatternRule(),
		EmailRule(),
		URLRule(),
		NumberRule(),
		EqualToRule(),
		CustomRule(lookup, log),
		RemoteRule(),
	}
}

// RequiredRule fails unless at least one member of the unit holds a non-blank
// value. Grouped fields therefore read as "at least one of N".
func RequiredRule() Rule {
	return Rule{
		Name:     Required,
		Selector: CSS("[required], [" + AttrRequired + "]"),
		Validate: func(v field.Value, _ *field.Unit) Outcome {
			if v.Blank() {
				return Fail(nil)
			}
			return Pass()
		},
		DefaultMessage: Literal("This field is required."),
	}
}

// MinLengthRule sums the lengths of every value of the unit and fails when
// the total is below the bound.
func MinLengthRule() Rule {
	return Rule{
		Name:     MinLength,
		Selector: boundSelector("minlength", AttrMinLength),
		Validate: func(v field.Value, u *field.Unit) Outcome {
			bound, _ := bound(u.Representative(), "minlength", AttrMinLength)
			if total := v.Length(); total < bound {
				return Fail(Params{"min": bound, "length": total})
			}
			return Pass()
		},
		DefaultMessage: Literal("Please enter at least __min__ characters."),
	}
}

// MaxLengthRule sums the lengths of every value of the unit and fails when
// the total exceeds the bound.
func MaxLengthRule() Rule {
	return Rule{
		Name:     MaxLength,
		Selector: boundSelector("maxlength", AttrMaxLength),
		Validate: func(v field.Value, u *field.Unit) Outcome {
			bound, _ := bound(u.Representative(), "maxlength", AttrMaxLength)
			if total := v.Length(); total > bound {
				return Fail(Params{"max": bound, "length": total})
			}
			return Pass()
		},
		DefaultMessage: Literal("Please enter no more than __max__ characters."),
	}
}

// PatternCacheSize bounds the compiled patterns each PatternRule keeps.
const PatternCacheSize = 256

// PatternRule requires every non-empty value to match the whole regular
// expression. A pattern that does not compile makes the rule not applicable.
// Compiled patterns are cached per rule, so they go away with the registry.
func PatternRule() Rule {
	patterns := cache.NewLRU[string, *regexp.Regexp](PatternCacheSize)
	return Rule{
		Name: Pattern,
		Selector: func(n *html.Node) bool {
			_, ok := patternOf(patterns, n)
			return ok
		},
		Validate: func(v field.Value, u *field.Unit) Outcome {
			re, ok := patternOf(patterns, u.Representative())
			if !ok {
				return Pass()
			}
			for _, s := range v.Strings() {
				if s == "" {
					continue
				}
				if !re.MatchString(s) {
					return Fail(Params{"pattern": rawPattern(u.Representative())})
				}
			}
			return Pass()
		},
		DefaultMessage: Literal("Please match the requested format."),
	}
}

// EmailRule requires every non-empty value to be a plain email address.
func EmailRule() Rule {
	return Rule{
		Name:           Email,
		Selector:       CSS(`input[type="email"], [` + AttrEmail + `]`),
		Validate:       eachNonEmpty(isEmail, nil),
		DefaultMessage: Literal("Please enter a valid email address."),
	}
}

// URLRule requires every non-empty value to be an absolute URL.
func URLRule() Rule {
	return Rule{
		Name:           URL,
		Selector:       CSS(`input[type="url"], [` + AttrURL + `]`),
		Validate:       eachNonEmpty(isURL, nil),
		DefaultMessage: Literal("Please enter a valid URL."),
	}
}

// NumberRule requires every non-empty value to be a number within the
// optional min and max bounds.
func NumberRule() Rule {
	return Rule{
		Name:     Number,
		Selector: CSS(`input[type="number"], input[type="range"], [` + AttrNumber + `]`),
		Validate: func(v field.Value, u *field.Unit) Outcome {
			rep := u.Representative()
			lo, hasLo := numberAttr(rep, "min", AttrMin)
			hi, hasHi := numberAttr(rep, "max", AttrMax)
			params := Params{}
			if hasLo {
				params["min"] = formatNumber(lo)
			}
			if hasHi {
				params["max"] = formatNumber(hi)
			}
			for _, s := range v.Strings() {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				params["value"] = s
				n, err := strconv.ParseFloat(s, 64)
				switch {
				case err != nil:
					params["reason"] = "nan"
				case hasLo && n < lo:
					params["reason"] = "min"
				case hasHi && n > hi:
					params["reason"] = "max"
				default:
					continue
				}
				return Fail(params)
			}
			return Pass()
		},
		DefaultMessage: func(p Params) string {
			switch p["reason"] {
			case "min":
				return "Please enter a value greater than or equal to __min__."
			case "max":
				return "Please enter a value less than or equal to __max__."
			default:
				return "Please enter a valid number."
			}
		},
	}
}

// EqualToRule requires the unit's value to equal the value of the element
// selected by the data-fg-equalto attribute. A missing target passes.
func EqualToRule() Rule {
	return Rule{
		Name:     EqualTo,
		Selector: CSS("[" + AttrEqualTo + "]"),
		Validate: func(v field.Value, u *field.Unit) Outcome {
			rep := u.Representative()
			sel := dom.AttrOr(rep, AttrEqualTo, "")
			other, err := dom.Query(top(rep), sel)
			if err != nil || other == nil {
				return Pass()
			}
			want := field.Resolve(field.NewUnit("", "", []*html.Node{other}))
			if v.String() != want.String() {
				return Fail(Params{"other": sel})
			}
			return Pass()
		},
		DefaultMessage: Literal("Please enter the same value again."),
	}
}

// CustomRule delegates to the predicate named by data-fg-custom. It fails
// open: an unknown name, a nil predicate or a panicking predicate passes.
func CustomRule(lookup CustomLookup, log *slog.Logger) Rule {
	log = logger.OrDiscard(log)
	return Rule{
		Name:     Custom,
		Selector: CSS("[" + AttrCustom + "]"),
		Validate: func(v field.Value, u *field.Unit) (out Outcome) {
			name := strings.TrimSpace(dom.AttrOr(u.Representative(), AttrCustom, ""))
			var fn CustomFunc
			if lookup != nil {
				fn, _ = lookup(name)
			}
			if fn == nil {
				log.Warn("custom rule not registered, passing", logger.Rule(name), logger.Field(u.Key))
				return Pass()
			}
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("custom rule panicked, passing",
						logger.Rule(name), logger.Field(u.Key), slog.Any("panic", rec))
					out = Pass()
				}
			}()
			return fn(v, u)
		},
		DefaultMessage: Literal("Please fix this field."),
	}
}

// RemoteRule is a placeholder for server round-trip checks. It always passes.
func RemoteRule() Rule {
	return Rule{
		Name:           Remote,
		Selector:       CSS("[" + AttrRemote + "]"),
		Validate:       func(field.Value, *field.Unit) Outcome { return Pass() },
		DefaultMessage: Literal("Please fix this field."),
	}
}

func eachNonEmpty(ok func(string) bool, params Params) Validator {
	return func(v field.Value, _ *field.Unit) Outcome {
		for _, s := range v.Strings() {
			s = strings.TrimSpace(s)
			if s != "" && !ok(s) {
				return Fail(params)
			}
		}
		return Pass()
	}
}

func isEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	local, domain, found := strings.Cut(addr.Address, "@")
	if !found || local == "" || strings.Contains(domain, "@") {
		return false
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	for part := range strings.SplitSeq(domain, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

func isURL(value string) bool {
	u, err := url.ParseRequestURI(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func boundSelector(native, namespaced string) Selector {
	return func(n *html.Node) bool {
		_, ok := bound(n, native, namespaced)
		return ok
	}
}

// bound reads a non-negative integer from the namespaced attribute, falling
// back to the native one.
func bound(n *html.Node, native, namespaced string) (int, bool) {
	for _, key := range []string{namespaced, native} {
		raw, ok := dom.Attr(n, key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func numberAttr(n *html.Node, native, namespaced string) (float64, bool) {
	for _, key := range []string{namespaced, native} {
		raw, ok := dom.Attr(n, key)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func rawPattern(n *html.Node) string {
	if p, ok := dom.Attr(n, AttrPattern); ok {
		return p
	}
	return dom.AttrOr(n, "pattern", "")
}

// patternOf compiles the element's pattern. Invalid patterns are cached as
// nil.
func patternOf(patterns *cache.LRU[string, *regexp.Regexp], n *html.Node) (*regexp.Regexp, bool) {
	if !dom.HasAttr(n, AttrPattern) && !dom.HasAttr(n, "pattern") {
		return nil, false
	}
	raw := rawPattern(n)
	if re, ok := patterns.Get(raw); ok {
		return re, re != nil
	}
	re, err := regexp.Compile(fmt.Sprintf("^(?:%s)$", raw))
	if err != nil {
		re = nil
	}
	patterns.Put(raw, re)
	return re, re != nil
}

func top(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}
