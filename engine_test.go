package formguard_test

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard"
	"github.com/dmitrymomot/formguard/pkg/component"
	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
	"github.com/dmitrymomot/formguard/pkg/form"
	"github.com/dmitrymomot/formguard/pkg/message"
	"github.com/dmitrymomot/formguard/pkg/metrics"
	"github.com/dmitrymomot/formguard/pkg/rule"
)

const signup = `<html><body>
<form id="signup" data-fg-validate>
	<input name="email" data-fg-required data-fg-email data-fg-msg-required="We need your email.">
	<input name="nick" data-fg-custom="lowercase">
	<button type="submit">Go</button>
</form>
<form id="news" data-fg-validate data-fg-style="bootstrap">
	<input name="topic" required>
</form>
<form id="plain"><input name="q" required></form>
</body></html>`

func load(t *testing.T, e *formguard.Engine, markup string) *formguard.Page {
	t.Helper()
	p, err := e.LoadString(markup)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func lowercase(v field.Value, _ *field.Unit) rule.Outcome {
	if v.String() != strings.ToLower(v.String()) {
		return rule.Fail(nil)
	}
	return rule.Pass()
}

func TestPageScan(t *testing.T) {
	t.Parallel()

	p := load(t, formguard.New(), signup)
	assert.Equal(t, 2, p.Scan(nil))
	assert.Zero(t, p.Scan(nil))

	forms := p.Forms()
	require.Len(t, forms, 2)
	assert.Equal(t, "signup", forms[0].ID())
	assert.Equal(t, "news", forms[1].ID())

	_, ok := p.Form("plain")
	assert.False(t, ok)
}

func TestPageValidate(t *testing.T) {
	t.Parallel()

	e := formguard.New(formguard.WithCustom("lowercase", lowercase))
	p := load(t, e, signup)
	p.Scan(nil)

	require.NoError(t, p.Bind(url.Values{"nick": {"Bob"}}))
	assert.False(t, p.Validate())

	verr := p.Errors()
	assert.Equal(t, "We need your email.", verr.Get("email"))
	assert.Equal(t, "Please fix this field.", verr.Get("nick"))
	assert.Equal(t, "This field is required.", verr.Get("topic"))
	assert.False(t, verr.Has("q"))

	byForm := p.FieldErrors()
	assert.Len(t, byForm["signup"], 2)
	assert.Len(t, byForm["news"], 1)

	news, _ := p.Form("news")
	topic := dom.MustQuery(news.Root(), `[name="topic"]`)
	assert.True(t, dom.HasClass(topic, "is-invalid"))

	require.NoError(t, p.Bind(url.Values{"email": {"a@b.co"}, "nick": {"bob"}, "topic": {"go"}}))
	assert.True(t, p.Validate())
	assert.True(t, p.Errors().IsEmpty())
	assert.NotContains(t, p.String(), "data-fg-error=")
}

func TestEngineOptions(t *testing.T) {
	t.Parallel()

	t.Run("catalog replaces defaults", func(t *testing.T) {
		e := formguard.New(formguard.WithCatalog(message.Catalog{rule.Required: "Fill me."}))
		p := load(t, e, `<form id="f" data-fg-validate><input name="a" required></form>`)
		p.Scan(nil)
		assert.False(t, p.Validate())
		assert.Equal(t, "Fill me.", p.Errors().Get("a"))
	})

	t.Run("engine style applies to roots without one", func(t *testing.T) {
		e := formguard.New(formguard.WithStyle("bootstrap"))
		p := load(t, e, signup)
		p.Scan(nil)
		signupForm, _ := p.Form("signup")
		assert.Equal(t, "bootstrap", signupForm.Config().Style)
	})

	t.Run("unknown engine style is ignored", func(t *testing.T) {
		e := formguard.New(formguard.WithStyle("nope"))
		p := load(t, e, signup)
		p.Scan(nil)
		f, _ := p.Form("signup")
		assert.Equal(t, "default", f.Config().Style)
	})

	t.Run("extra rules run after builtins", func(t *testing.T) {
		digits := rule.Rule{
			Name:     "digits",
			Selector: rule.CSS("[data-fg-digits]"),
			Validate: func(v field.Value, _ *field.Unit) rule.Outcome {
				if strings.Trim(v.String(), "0123456789") != "" {
					return rule.Fail(nil)
				}
				return rule.Pass()
			},
			DefaultMessage: rule.Literal("Digits only."),
		}
		e := formguard.New(formguard.WithRules(digits))
		assert.Equal(t, "digits", e.Rules().Names()[e.Rules().Len()-1])

		p := load(t, e, `<form id="f" data-fg-validate><input name="pin" value="12a" data-fg-digits></form>`)
		p.Scan(nil)
		assert.False(t, p.Validate())
		assert.Equal(t, "Digits only.", p.Errors().Get("pin"))
	})

	t.Run("form options reach every form", func(t *testing.T) {
		e := formguard.New(formguard.WithFormOptions(form.WithLive(true)))
		p := load(t, e, signup)
		p.Scan(nil)
		for _, f := range p.Forms() {
			assert.True(t, f.Config().Live)
		}
	})
}

func TestPageMetrics(t *testing.T) {
	t.Parallel()

	c := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
	e := formguard.New(formguard.WithMetrics(c))
	require.Same(t, c, e.Metrics())

	p := load(t, e, signup)
	p.Scan(nil)
	p.Validate()

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "formguard_validations_total")
	assert.Contains(t, names, "formguard_messages_resolved_total")
	assert.Contains(t, names, "formguard_components_created_total")
}

func TestPageSetState(t *testing.T) {
	t.Parallel()

	p := load(t, formguard.New(), signup)
	p.Scan(nil)
	p.SetState(component.State{"style": "tailwind"})
	for _, f := range p.Forms() {
		assert.Equal(t, "tailwind", f.Config().Style)
	}
}

func TestPageSubscribe(t *testing.T) {
	t.Parallel()

	p := load(t, formguard.New(), signup)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := p.Subscribe(ctx)

	p.Scan(nil)
	p.Validate()

	seen := map[string]int{}
	timeout := time.After(time.Second)
	for seen[form.SignalInvalid] < 2 {
		select {
		case sig := <-sub.C():
			seen[sig.Type]++
		case <-timeout:
			t.Fatalf("signals so far: %v", seen)
		}
	}
	assert.Equal(t, 2, seen[component.SignalCreated])
	assert.Equal(t, 1, seen[component.SignalScanned])
}

func TestPageClose(t *testing.T) {
	t.Parallel()

	p, err := formguard.New().LoadString(signup)
	require.NoError(t, err)
	p.Scan(nil)
	p.Validate()
	p.Close()
	p.Close()

	assert.Empty(t, p.Forms())
	assert.NotContains(t, p.String(), "data-fg-error=")
	assert.ErrorIs(t, p.Bind(url.Values{}), formguard.ErrClosed)
	assert.Zero(t, p.Scan(nil))
}

func TestLoadComponent(t *testing.T) {
	t.Parallel()

	c := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<form id="t" data-fg-validate><input name="x" required></form>`)
		return err
	})
	p, err := formguard.New().LoadComponent(context.Background(), c)
	require.NoError(t, err)
	defer p.Close()
	p.Scan(nil)
	assert.False(t, p.Validate())

	var b strings.Builder
	require.NoError(t, p.FormComponent("t").Render(context.Background(), &b))
	assert.True(t, strings.HasPrefix(b.String(), `<form id="t"`))
	assert.Contains(t, b.String(), "This field is required.")

	b.Reset()
	require.NoError(t, p.Component().Render(context.Background(), &b))
	assert.Contains(t, b.String(), "<html>")

	_, err = formguard.New().LoadComponent(context.Background(), nil)
	assert.ErrorIs(t, err, formguard.ErrNilDocument)
}
