package smiley

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

func TestPass_Apply(t *testing.T) {
	tests := []struct {
		name string
		node dom.Node
		want string
	}{
		{"alone", dom.Elem("p", dom.Text(":)")),
			`<p><span class="moin-text-icon moin-smile" /></p>`},
		{"in text", dom.Elem("p", dom.Text("happy :-) and sad :( end")),
			`<p>happy <span class="moin-text-icon moin-smile" /> and sad <span class="moin-text-icon moin-sad" /> end</p>`},
		{"longest wins", dom.Elem("p", dom.Text("very :))")),
			`<p>very <span class="moin-text-icon moin-smile3" /></p>`},
		{"needs boundary", dom.Elem("p", dom.Text("f(x:)) and a:)")),
			`<p>f(x:)) and a:)</p>`},
		{"adjacent", dom.Elem("p", dom.Text("{X} {i}")),
			`<p><span class="moin-text-icon moin-icon-error" /> <span class="moin-text-icon moin-icon-info" /></p>`},
		{"code skipped", dom.Elem("p", dom.Elem("code", dom.Text(":)"))),
			`<p><code>:)</code></p>`},
		{"blockcode skipped", dom.Elem("blockcode", dom.Text("x :) y")),
			`<blockcode>x :) y</blockcode>`},
		{"nested emphasis", dom.Elem("p", dom.Elem("emphasis", dom.Text("(!)"))),
			`<p><emphasis><span class="moin-text-icon moin-idea" /></emphasis></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, body := dom.NewPage()
			body.Append(tt.node)
			require.NoError(t, Pass{}.Apply(context.Background(), page, ""))
			assert.Equal(t, tt.want, dom.SerializeBody(page))
		})
	}
}

func TestReplace_None(t *testing.T) {
	assert.Nil(t, Replace("no smileys here"))
}
