package rule_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

func check(t *testing.T, rl rule.Rule, markup, key string) rule.Outcome {
	t.Helper()
	u := unit(t, markup, key)
	require.True(t, rl.Applies(u), "rule %s does not apply to %s", rl.Name, markup)
	return rl.Validate(u.Value(), u)
}

func TestRequired(t *testing.T) {
	t.Parallel()
	rl := rule.RequiredRule()

	tests := []struct {
		name   string
		markup string
		key    string
		valid  bool
	}{
		{"empty text", `<input name="a" required>`, "a", false},
		{"whitespace text", `<input name="a" required value="   ">`, "a", false},
		{"filled text", `<input name="a" required value="x">`, "a", true},
		{"namespaced marker", `<input name="a" data-fg-required>`, "a", false},
		{"unchecked checkbox", `<input type="checkbox" name="a" required>`, "a", false},
		{"checked checkbox", `<input type="checkbox" name="a" required checked>`, "a", true},
		{"choice group none checked", `<input type="radio" name="c" value="1" required><input type="radio" name="c" value="2">`, "c", false},
		{"choice group one checked", `<input type="radio" name="c" value="1" required><input type="radio" name="c" value="2" checked>`, "c", true},
		{"array all empty", `<input name="t" required><input name="t">`, "t", false},
		{"array second filled", `<input name="t" required><input name="t" value="go">`, "t", true},
		{"select placeholder", `<select name="s" required><option value="">Pick</option><option>A</option></select>`, "s", false},
		{"select chosen", `<select name="s" required><option value="">Pick</option><option selected>A</option></select>`, "s", true},
		{"textarea", `<textarea name="b" required>hi</textarea>`, "b", true},
		{"contenteditable", `<div contenteditable="true" data-fg-name="bio" required>  </div>`, "bio", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, check(t, rl, tt.markup, tt.key).Valid)
		})
	}
}

func TestLengthRules(t *testing.T) {
	t.Parallel()

	t.Run("minlength failure params", func(t *testing.T) {
		out := check(t, rule.MinLengthRule(), `<input name="a" minlength="3" value="ab">`, "a")
		require.False(t, out.Valid)
		assert.Equal(t, 3, out.Params["min"])
		assert.Equal(t, 2, out.Params["length"])
	})

	t.Run("minlength counts runes", func(t *testing.T) {
		out := check(t, rule.MinLengthRule(), `<input name="a" data-fg-minlength="3" value="äöü">`, "a")
		assert.True(t, out.Valid)
	})

	t.Run("minlength sums grouped values", func(t *testing.T) {
		out := check(t, rule.MinLengthRule(), `<input name="t" minlength="4" value="ab"><input name="t" value="cd">`, "t")
		assert.True(t, out.Valid)
	})

	t.Run("maxlength", func(t *testing.T) {
		out := check(t, rule.MaxLengthRule(), `<input name="a" maxlength="2" value="abc">`, "a")
		require.False(t, out.Valid)
		assert.Equal(t, 2, out.Params["max"])
		assert.Equal(t, 3, out.Params["length"])
	})

	t.Run("non numeric bound is not applicable", func(t *testing.T) {
		u := unit(t, `<input name="a" minlength="lots">`, "a")
		assert.False(t, rule.MinLengthRule().Applies(u))
	})
}

func TestPattern(t *testing.T) {
	t.Parallel()
	rl := rule.PatternRule()

	t.Run("anchors the whole value", func(t *testing.T) {
		assert.False(t, check(t, rl, `<input name="a" pattern="[0-9]+" value="12a">`, "a").Valid)
		assert.True(t, check(t, rl, `<input name="a" pattern="[0-9]+" value="12">`, "a").Valid)
	})

	t.Run("alternation stays anchored", func(t *testing.T) {
		assert.False(t, check(t, rl, `<input name="a" pattern="a|b" value="ab">`, "a").Valid)
	})

	t.Run("empty value passes", func(t *testing.T) {
		assert.True(t, check(t, rl, `<input name="a" data-fg-pattern="[0-9]+">`, "a").Valid)
	})

	t.Run("failure reports the pattern", func(t *testing.T) {
		out := check(t, rl, `<input name="a" pattern="[0-9]+" value="x">`, "a")
		assert.Equal(t, "[0-9]+", out.Params["pattern"])
	})

	t.Run("invalid pattern is not applicable", func(t *testing.T) {
		u := unit(t, `<input name="a" pattern="([" value="x">`, "a")
		assert.False(t, rl.Applies(u))
		assert.False(t, rl.Applies(u))
	})

	t.Run("more patterns than the cache holds", func(t *testing.T) {
		rl := rule.PatternRule()
		for i := range rule.PatternCacheSize + 10 {
			markup := fmt.Sprintf(`<input name="a" pattern="x{%d}" value="%s">`, i+1, strings.Repeat("x", i+1))
			require.True(t, check(t, rl, markup, "a").Valid)
		}
		assert.True(t, check(t, rl, `<input name="a" pattern="x{1}" value="x">`, "a").Valid)
		assert.False(t, check(t, rl, `<input name="a" pattern="x{1}" value="xx">`, "a").Valid)
	})
}

func TestFormatRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rl    rule.Rule
		input string
		valid bool
	}{
		{"email ok", rule.EmailRule(), `<input type="email" name="a" value="user@example.com">`, true},
		{"email display name", rule.EmailRule(), `<input type="email" name="a" value="Bob <bob@example.com>">`, false},
		{"email no dot", rule.EmailRule(), `<input type="email" name="a" value="user@localhost">`, false},
		{"email empty", rule.EmailRule(), `<input type="email" name="a">`, true},
		{"email marker", rule.EmailRule(), `<input data-fg-email name="a" value="nope">`, false},
		{"url ok", rule.URLRule(), `<input type="url" name="a" value="https://example.com/x">`, true},
		{"url relative", rule.URLRule(), `<input type="url" name="a" value="/x">`, false},
		{"number ok", rule.NumberRule(), `<input type="number" name="a" value="4.5">`, true},
		{"number nan", rule.NumberRule(), `<input type="number" name="a" value="four">`, false},
		{"number in range", rule.NumberRule(), `<input type="number" min="1" max="10" name="a" value="10">`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, check(t, tt.rl, tt.input, "a").Valid)
		})
	}
}

func TestNumberMessages(t *testing.T) {
	t.Parallel()
	rl := rule.NumberRule()

	out := check(t, rl, `<input type="number" min="5" name="a" value="2">`, "a")
	require.False(t, out.Valid)
	assert.Equal(t, "min", out.Params["reason"])
	assert.Equal(t, "5", out.Params["min"])
	assert.Equal(t, "Please enter a value greater than or equal to __min__.", rl.Default(out.Params))

	out = check(t, rl, `<input type="number" data-fg-max="1.5" name="a" value="2">`, "a")
	require.False(t, out.Valid)
	assert.Equal(t, "1.5", out.Params["max"])
	assert.Contains(t, rl.Default(out.Params), "__max__")

	out = check(t, rl, `<input type="number" name="a" value="x">`, "a")
	assert.Equal(t, "Please enter a valid number.", rl.Default(out.Params))
}

func TestEqualTo(t *testing.T) {
	t.Parallel()
	rl := rule.EqualToRule()
	markup := func(confirm string) string {
		return `<form><input id="pw" name="pw" value="secret">
			<input name="confirm" data-fg-equalto="#pw" value="` + confirm + `"></form>`
	}

	assert.True(t, check(t, rl, markup("secret"), "confirm").Valid)
	out := check(t, rl, markup("other"), "confirm")
	require.False(t, out.Valid)
	assert.Equal(t, "#pw", out.Params["other"])

	missing := `<input name="confirm" data-fg-equalto="#nothing" value="x">`
	assert.True(t, check(t, rl, missing, "confirm").Valid)
}

func TestCustom(t *testing.T) {
	t.Parallel()

	t.Run("delegates to registered predicate", func(t *testing.T) {
		r := rule.Default(rule.WithCustom("even", func(v field.Value, _ *field.Unit) rule.Outcome {
			if len(v.String())%2 == 0 {
				return rule.Pass()
			}
			return rule.Fail(rule.Params{"length": len(v.String())})
		}))
		rl, ok := r.Get(rule.Custom)
		require.True(t, ok)
		out := check(t, rl, `<input name="a" data-fg-custom="even" value="abc">`, "a")
		assert.False(t, out.Valid)
		assert.Equal(t, 3, out.Params["length"])
		assert.True(t, check(t, rl, `<input name="a" data-fg-custom="even" value="ab">`, "a").Valid)
	})

	t.Run("custom registered after construction is found", func(t *testing.T) {
		r := rule.Default()
		r.RegisterCustom("never", func(field.Value, *field.Unit) rule.Outcome { return rule.Fail(nil) })
		rl, _ := r.Get(rule.Custom)
		assert.False(t, check(t, rl, `<input name="a" data-fg-custom="never">`, "a").Valid)
	})

	t.Run("unknown predicate passes with warning", func(t *testing.T) {
		buf := &bytes.Buffer{}
		r := rule.Default(rule.WithLogger(logger.New(logger.WithOutput(buf), logger.WithTextFormatter())))
		rl, _ := r.Get(rule.Custom)
		assert.True(t, check(t, rl, `<input name="a" data-fg-custom="ghost">`, "a").Valid)
		assert.Contains(t, buf.String(), "rule=ghost")
	})

	t.Run("panicking predicate passes", func(t *testing.T) {
		r := rule.Default(rule.WithCustom("boom", func(field.Value, *field.Unit) rule.Outcome { panic("boom") }))
		rl, _ := r.Get(rule.Custom)
		assert.True(t, check(t, rl, `<input name="a" data-fg-custom="boom">`, "a").Valid)
	})
}

func TestRemoteAlwaysPasses(t *testing.T) {
	assert.True(t, check(t, rule.RemoteRule(), `<input name="a" data-fg-remote="/check" value="x">`, "a").Valid)
}
