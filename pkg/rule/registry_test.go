package rule_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

// unit parses markup and returns the unit with the given key.
func unit(t *testing.T, markup, key string) *field.Unit {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	for _, u := range field.Group(doc.Body()) {
		if u.Key == key {
			return u
		}
	}
	t.Fatalf("no unit %q in %s", key, markup)
	return nil
}

func even() rule.Rule {
	return rule.Rule{
		Name:     "even",
		Selector: rule.CSS("[data-even]"),
		Validate: func(v field.Value, _ *field.Unit) rule.Outcome {
			if len(v.String())%2 == 0 {
				return rule.Pass()
			}
			return rule.Fail(nil)
		},
		DefaultMessage: rule.Literal("Must have an even length."),
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register keeps order", func(t *testing.T) {
		r := rule.New()
		require.NoError(t, r.Register(even()))
		require.NoError(t, r.Register(rule.RequiredRule()))
		assert.Equal(t, []string{"even", "required"}, r.Names())
		assert.Equal(t, 2, r.Len())
	})

	t.Run("rejects malformed rules", func(t *testing.T) {
		r := rule.New()
		assert.ErrorIs(t, r.Register(rule.Rule{}), rule.ErrInvalidRule)
		assert.ErrorIs(t, r.Register(rule.Rule{Name: "x", Validate: even().Validate}), rule.ErrInvalidRule)
		assert.ErrorIs(t, r.Register(rule.Rule{Name: "x", Selector: even().Selector}), rule.ErrInvalidRule)
		assert.Zero(t, r.Len())
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		r := rule.New()
		require.NoError(t, r.Register(even()))
		assert.ErrorIs(t, r.Register(even()), rule.ErrDuplicateRule)
		assert.Panics(t, func() { r.MustRegister(even()) })
	})

	t.Run("with rules skips bad ones and warns", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter())
		r := rule.New(rule.WithLogger(log), rule.WithRules(rule.Rule{Name: "broken"}, even()))
		assert.Equal(t, []string{"even"}, r.Names())
		assert.Contains(t, buf.String(), "rule=broken")
	})

	t.Run("default puts builtins first", func(t *testing.T) {
		r := rule.Default(rule.WithRules(even()))
		names := r.Names()
		require.Len(t, names, 11)
		assert.Equal(t, rule.Required, names[0])
		assert.Equal(t, rule.Remote, names[9])
		assert.Equal(t, "even", names[10])
	})

	t.Run("default drops rules shadowing builtins", func(t *testing.T) {
		shadow := even()
		shadow.Name = rule.Required
		r := rule.Default(rule.WithRules(shadow))
		assert.Equal(t, 10, r.Len())
		got, ok := r.Get(rule.Required)
		require.True(t, ok)
		assert.Equal(t, "This field is required.", got.Default(nil))
	})

	t.Run("matching", func(t *testing.T) {
		r := rule.Default(rule.WithRules(even()))
		u := unit(t, `<input name="code" required data-even minlength="2">`, "code")
		var names []string
		for _, rl := range r.Matching(u) {
			names = append(names, rl.Name)
		}
		assert.Equal(t, []string{rule.Required, rule.MinLength, "even"}, names)
	})

	t.Run("override defaults", func(t *testing.T) {
		r := rule.Default()
		n := r.OverrideDefaults(map[string]string{
			rule.Required: "Fill me in.",
			"unknown":     "ignored",
			rule.Email:    "",
		})
		assert.Equal(t, 1, n)
		got, _ := r.Get(rule.Required)
		assert.Equal(t, "Fill me in.", got.Default(nil))
	})

	t.Run("custom lookup", func(t *testing.T) {
		r := rule.New(rule.WithCustom("yes", func(field.Value, *field.Unit) rule.Outcome { return rule.Pass() }))
		fn, ok := r.Custom("yes")
		assert.True(t, ok)
		assert.NotNil(t, fn)
		_, ok = r.Custom("no")
		assert.False(t, ok)
	})
}

func TestLegacyTemplateID(t *testing.T) {
	assert.Equal(t, "fg-required-message", rule.RequiredRule().LegacyTemplateID())
	rl := even()
	rl.LegacyTemplate = "even-msg"
	assert.Equal(t, "even-msg", rl.LegacyTemplateID())
}
