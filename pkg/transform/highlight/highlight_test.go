package highlight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

func code(lang, text string) *dom.Element {
	el := dom.Elem("blockcode", dom.Text(text))
	if lang != "" {
		el.SetAttr(dom.AttrLanguage, lang)
	}
	return el
}

func apply(t *testing.T, nodes ...dom.Node) *dom.Element {
	t.Helper()
	page, body := dom.NewPage()
	body.Append(nodes...)
	require.NoError(t, Pass{}.Apply(context.Background(), page, ""))
	return page
}

func TestPass_Go(t *testing.T) {
	page := apply(t, code("go", "func main() {}"))
	out := dom.SerializeBody(page)

	assert.Contains(t, out, `<div class="highlight"><blockcode language="go">`)
	assert.Contains(t, out, `<span class="kd">func</span>`)
	assert.Contains(t, out, `<span class="nf">main</span>`)

	blocks := dom.Find(page, dom.Named("blockcode"))
	require.Len(t, blocks, 1)
	assert.Equal(t, "func main() {}", blocks[0].Text())
}

func TestPass_Untouched(t *testing.T) {
	tests := []struct {
		name string
		node *dom.Element
		want string
	}{
		{"no language", code("", "x = 1"), "<blockcode>x = 1</blockcode>"},
		{"unknown language", code("no-such-language", "x = 1"),
			`<blockcode language="no-such-language">x = 1</blockcode>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dom.SerializeBody(apply(t, tt.node)))
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("python"))
	assert.False(t, Known("no-such-language"))
}
