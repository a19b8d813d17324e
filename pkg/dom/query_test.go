package dom_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/dom"
)

func TestCompileManySelectors(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<form><input id="i0" name="n0"></form>`)
	require.NoError(t, err)
	input := dom.ByID(doc.Root(), "i0")

	for i := range dom.SelectorCacheSize + 50 {
		m, err := dom.Compile(fmt.Sprintf(`[name="n%d"]`, i))
		require.NoError(t, err)
		assert.Equal(t, i == 0, m(input))
	}
	assert.True(t, dom.Matches(input, `[name="n0"]`))

	_, err = dom.Compile("input[")
	assert.ErrorIs(t, err, dom.ErrInvalidSelector)
}
