package macro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/macro"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

func newPass(t *testing.T) *Pass {
	t.Helper()
	r := macro.NewRegistry()
	require.NoError(t, macro.RegisterBuiltins(r))
	require.NoError(t, r.Register("Fail", macro.Inline, macro.HandlerFunc(
		func(macro.Context, args.Arguments) ([]dom.Node, error) { return nil, errors.New("boom") })))
	require.NoError(t, r.Register("Crash", macro.Inline, macro.HandlerFunc(
		func(macro.Context, args.Arguments) ([]dom.Node, error) { panic("crashed") })))
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return &Pass{Macros: r, Now: func() time.Time { return fixed }}
}

func TestPass_Apply(t *testing.T) {
	tests := []struct {
		name string
		node dom.Node
		want string
	}{
		{"inline date",
			parse.MacroPlaceholder("Date", "", "<<Date>>", false),
			`<inline-part alt="&lt;&lt;Date&gt;&gt;" content-type="x-moin/macro;name=Date">` +
				`<inline-body>2024-05-06</inline-body></inline-part>`},
		{"block datetime with argument",
			parse.MacroPlaceholder("DateTime", "2019-10-07T18:30:00Z", "<<DateTime(2019-10-07T18:30:00Z)>>", true),
			`<part alt="&lt;&lt;DateTime(2019-10-07T18:30:00Z)&gt;&gt;" content-type="x-moin/macro;name=DateTime">` +
				`<arguments>2019-10-07T18:30:00Z</arguments><body><div>2019-10-07 18:30:00</div></body></part>`},
		{"unknown name",
			parse.MacroPlaceholder("Nope", "", "<<Nope>>", false),
			`<inline-part alt="&lt;&lt;Nope&gt;&gt;" content-type="x-moin/macro;name=Nope">` +
				`<inline-body><span class="moin-error">&lt;&lt;Nope&gt;&gt; Error: invalid macro name.</span></inline-body></inline-part>`},
		{"handler error",
			parse.MacroPlaceholder("Fail", "", "<<Fail>>", true),
			`<part alt="&lt;&lt;Fail&gt;&gt;" content-type="x-moin/macro;name=Fail">` +
				`<body><div class="moin-error"><p>&lt;&lt;Fail: execution failed [boom]&gt;&gt;</p></div></body></part>`},
		{"handler panic",
			parse.MacroPlaceholder("Crash", "", "<<Crash>>", false),
			`<inline-part alt="&lt;&lt;Crash&gt;&gt;" content-type="x-moin/macro;name=Crash">` +
				`<inline-body><span class="moin-error">&lt;&lt;Crash: execution failed [panic: crashed]&gt;&gt;</span></inline-body></inline-part>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, body := dom.NewPage()
			body.Append(dom.Elem("p", tt.node))
			require.NoError(t, newPass(t).Apply(context.Background(), page, "Home"))
			assert.Equal(t, "<p>"+tt.want+"</p>", dom.SerializeBody(page))
		})
	}
}

func TestPass_LeavesOtherParts(t *testing.T) {
	page, body := dom.NewPage()
	part := dom.Elem("part", dom.Elem("body", dom.Elem("p", dom.Text("x"))))
	part.SetAttr(dom.AttrContentType, "x-moin/format;name=csv")
	body.Append(part)

	require.NoError(t, newPass(t).Apply(context.Background(), page, ""))
	assert.Equal(t, `<part content-type="x-moin/format;name=csv"><body><p>x</p></body></part>`, dom.SerializeBody(page))
}

func TestPass_ItemListUsesPages(t *testing.T) {
	p := newPass(t)
	p.Pages = lister{"Home/A", "Home/B", "Other"}
	page, body := dom.NewPage()
	body.Append(parse.MacroPlaceholder("ItemList", "", "<<ItemList>>", true))

	require.NoError(t, p.Apply(context.Background(), page, "Home"))
	links := dom.Find(page, dom.Named("a"))
	require.Len(t, links, 2)
	assert.Equal(t, "wiki:///Home/A", links[0].Attr(dom.XLinkHref))
}

type lister []string

func (l lister) List(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, n := range l {
		if len(n) >= len(prefix) && n[:len(prefix)] == prefix {
			out = append(out, n)
		}
	}
	return out, nil
}
