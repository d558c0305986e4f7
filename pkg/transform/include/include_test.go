package include

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/parse/moinwiki"
	"github.com/open-cli-collective/wikiconv/pkg/store"
)

type wikiParser struct{}

func (wikiParser) ParsePage(_ context.Context, p store.Page) (*dom.Element, error) {
	return moinwiki.New().Parse(p.Content, nil)
}

func newStore() *store.Memory {
	s := store.NewMemory(
		store.Page{Name: "Target", Content: "Included text"},
		store.Page{Name: "Home/Sub", Content: "Sub text"},
		store.Page{Name: "Loop/A", Content: "<<Include(Loop/B)>>"},
		store.Page{Name: "Loop/B", Content: "<<Include(Loop/A)>>"},
		store.Page{Name: "Secret", Content: "hidden"},
		store.Page{Name: "Blog/1", Content: "one"},
		store.Page{Name: "Blog/2", Content: "two"},
		store.Page{Name: "Blog/3", Content: "three"},
		store.Page{Name: "pic.png", Content: "", ContentType: mime.MustParse("image/png")},
	)
	s.Deny("Secret")
	return s
}

func convert(t *testing.T, page, input string) string {
	t.Helper()
	doc, err := moinwiki.New().Parse(input, nil)
	require.NoError(t, err)
	s := newStore()
	p := &Pass{Store: s, Permission: s, Parser: wikiParser{}}
	require.NoError(t, p.Apply(context.Background(), doc, page))
	return dom.SerializeBody(doc)
}

func TestPass_Apply(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		input string
		want  string
	}{
		{"block", "Home", "<<Include(Target)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Target"><p>Included text</p></div>`},
		{"paragraph", "Home", "{{Target}}",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Target"><p>Included text</p></div>`},
		{"inline", "Home", "Before <<Include(Target)>>",
			`<p>Before <span class="moin-transclusion" xhtml:data-href="wiki:///Target">Included text</span></p>`},
		{"relative", "Home", "<<Include(/Sub)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Home/Sub"><p>Sub text</p></div>`},
		{"heading", "Home", "<<Include(Target, Title, 2)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Target"><h outline-level="2">Title</h><p>Included text</p></div>`},
		{"missing", "Home", "<<Include(Nowhere)>>",
			`<div class="moin-error"><p>Include: Nowhere: page not found</p></div>`},
		{"forbidden", "Home", "<<Include(Secret)>>",
			`<div class="moin-error"><p>Include: Secret: permission denied</p></div>`},
		{"self", "Target", "<<Include(Target)>>",
			`<div class="moin-error"><p>Recursive include detected: Target -&gt; Target</p></div>`},
		{"cycle", "Loop/A", "<<Include(Loop/B)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Loop/B">` +
				`<div class="moin-error"><p>Recursive include detected: Loop/A -&gt; Loop/B -&gt; Loop/A</p></div></div>`},
		{"cycle below page", "Top", "<<Include(Loop/A)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Loop/A">` +
				`<div class="moin-transclusion" xhtml:data-href="wiki:///Loop/B">` +
				`<div class="moin-error"><p>Recursive include detected: Loop/A -&gt; Loop/B -&gt; Loop/A</p></div></div></div>`},
		{"image kept", "Home", "{{pic.png}}",
			`<p><xinclude:include xinclude:href="wiki.local:pic.png" /></p>`},
		{"pattern", "Home", "<<Include(^Blog/, sort=descending, items=2)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Blog/3"><p>three</p></div>` +
				`<div class="moin-transclusion" xhtml:data-href="wiki:///Blog/2"><p>two</p></div>`},
		{"pattern skip", "Home", "<<Include(^Blog/, skipitems=2)>>",
			`<div class="moin-transclusion" xhtml:data-href="wiki:///Blog/3"><p>three</p></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert(t, tt.page, tt.input))
		})
	}
}

func TestPass_WithoutStore(t *testing.T) {
	doc, err := moinwiki.New().Parse("<<Include(Target)>>", nil)
	require.NoError(t, err)
	require.NoError(t, (&Pass{}).Apply(context.Background(), doc, "Home"))
	assert.Equal(t, `<div class="moin-p"><xinclude:include xinclude:href="wiki.local:Target" /></div>`, dom.SerializeBody(doc))
}

func TestParseXPointer(t *testing.T) {
	got := ParseXPointer("xmlns(page=http://moinmo.in/namespaces/page) page:include(pages(^^Blog^(s^)) sort(descending) items(3))")
	assert.Equal(t, map[string]string{"pages": "^Blog(s)", "sort": "descending", "items": "3"}, got)
	assert.Empty(t, ParseXPointer(""))
}
