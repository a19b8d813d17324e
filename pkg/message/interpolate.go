package message

import (
	"fmt"
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"

	"github.com/dmitrymomot/formguard/pkg/rule"
)

var placeholder = regexp.MustCompile(`__([A-Za-z0-9]+(?:_[A-Za-z0-9]+)*)__`)

// Interpolate replaces each __NAME__ token in tmpl with the HTML-escaped
// value of the matching key in params. Names match case-insensitively.
// Tokens without a matching key are left as they are.
func Interpolate(tmpl string, params rule.Params) string {
	if len(params) == 0 {
		return tmpl
	}
	fold := cases.Fold()
	folded := make(map[string]any, len(params))
	for k, v := range params {
		folded[fold.String(k)] = v
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(token string) string {
		name := token[2 : len(token)-2]
		v, ok := folded[fold.String(name)]
		if !ok {
			return token
		}
		return html.EscapeString(fmt.Sprint(v))
	})
}
