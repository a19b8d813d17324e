package field_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/field"
)

func unitsByKey(t *testing.T, doc *dom.Document) map[string]*field.Unit {
	t.Helper()
	out := map[string]*field.Unit{}
	for _, u := range field.Group(doc.Root()) {
		out[u.Key] = u
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<form>
		<input name="text" value="hello">
		<input name="empty">
		<input type="checkbox" name="agree" value="yes">
		<input type="checkbox" name="on" checked>
		<select name="multi" multiple>
			<option value="a" selected>A</option>
			<option value="b">B</option>
			<option selected>C</option>
		</select>
		<select name="single"><option value="x">X</option><option value="y">Y</option></select>
		<textarea name="notes">some notes</textarea>
		<div contenteditable data-fg-name="bio">  <b>Go</b> dev  </div>
		<input name="arr" value="1"><input name="arr" value=""><input name="arr" value="3">
		<input type="radio" name="r" value="a"><input type="radio" name="r" value="b" checked>
		<input name="picker" data-fg-value-from="#hidden-value">
		<input type="hidden" id="hidden-value" value="picked">
	</form>`)
	units := unitsByKey(t, doc)

	tests := []struct {
		key    string
		list   bool
		values []string
	}{
		{"text", false, []string{"hello"}},
		{"empty", false, []string{""}},
		{"agree", false, []string{""}},
		{"on", false, []string{"on"}},
		{"multi", true, []string{"a", "C"}},
		{"single", false, []string{"x"}},
		{"notes", false, []string{"some notes"}},
		{"bio", false, []string{"Go dev"}},
		{"arr", true, []string{"1", "", "3"}},
		{"r", true, []string{"b"}},
		{"picker", false, []string{"picked"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			u, ok := units[tt.key]
			require.True(t, ok)
			v := u.Value()
			assert.Equal(t, tt.list, v.IsList())
			assert.Equal(t, tt.values, v.Strings())
		})
	}
}

func TestResolveReadsCurrentState(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<form><input name="q" value="a"></form>`)
	u := field.Group(doc.Root())[0]
	assert.Equal(t, "a", u.Value().String())

	dom.SetAttr(u.Elements[0], "value", "b")
	assert.Equal(t, "b", u.Value().String())
}

func TestValueBlankAndLength(t *testing.T) {
	t.Parallel()

	assert.True(t, field.Scalar("  ").Blank())
	assert.True(t, field.List().Blank())
	assert.True(t, field.List("", " ").Blank())
	assert.False(t, field.List("", "x").Blank())
	assert.Equal(t, 5, field.List("ab", "cé", "d").Length())
	assert.Equal(t, "a,b", field.List("a", "b").String())
}

func TestBind(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<form>
		<input name="email">
		<textarea name="notes"></textarea>
		<input type="checkbox" name="c" value="1" checked>
		<input type="checkbox" name="c" value="2">
		<input type="checkbox" name="solo" checked>
		<select name="s"><option value="a">A</option><option value="b">B</option></select>
		<select name="m" multiple><option value="a" selected>A</option><option value="b">B</option></select>
		<input name="arr"><input name="arr">
		<input name="untouched" value="keep">
	</form>`)
	units := field.Group(doc.Root())

	field.Bind(units, url.Values{
		"email": {"me@example.com"},
		"notes": {"hi"},
		"c":     {"2"},
		"s":     {"b"},
		"arr":   {"x", "y"},
	})

	got := unitsByKey(t, doc)
	assert.Equal(t, "me@example.com", got["email"].Value().String())
	assert.Equal(t, "hi", got["notes"].Value().String())
	assert.Equal(t, []string{"2"}, got["c"].Value().Strings())
	assert.Equal(t, "", got["solo"].Value().String())
	assert.Equal(t, "b", got["s"].Value().String())
	assert.Equal(t, []string{}, got["m"].Value().Strings())
	assert.Equal(t, []string{"x", "y"}, got["arr"].Value().Strings())
	assert.Equal(t, "keep", got["untouched"].Value().String())
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<form>
		<input name="email">
		<input type="checkbox" name="solo" checked>
		<input type="radio" name="plan" value="free"><input type="radio" name="plan" value="pro" checked>
		<select name="m" multiple><option value="a" selected>A</option><option value="b">B</option></select>
		<input type="checkbox" name="c" value="1" checked><input type="checkbox" name="c" value="2">
	</form>`)
	units := field.Group(doc.Root())

	field.Overlay(units, url.Values{"email": {"me@example.com"}, "c": {"2"}})

	got := unitsByKey(t, doc)
	assert.Equal(t, "me@example.com", got["email"].Value().String())
	assert.Equal(t, "on", got["solo"].Value().String())
	assert.Equal(t, []string{"pro"}, got["plan"].Value().Strings())
	assert.Equal(t, []string{"a"}, got["m"].Value().Strings())
	assert.Equal(t, []string{"2"}, got["c"].Value().Strings())
}
