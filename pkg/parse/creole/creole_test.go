package creole

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
)

type testCase struct {
	name  string
	input string
	want  string
}

func runCases(t *testing.T, p *Parser, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.Parse(tt.input, nil)
			require.NoError(t, err)
			want := "<page><body>" + tt.want + "</body></page>"
			if tt.want == "" {
				want = "<page><body /></page>"
			}
			assert.Equal(t, want, dom.Serialize(page))
		})
	}
}

func TestParse_Base(t *testing.T) {
	runCases(t, New(WithInterwiki("MoinMoin")), []testCase{
		{"text", "Text", "<p>Text</p>"},
		{"continuation", "Text\nTest", "<p>Text\nTest</p>"},
		{"paragraphs", "Text\n\nTest", "<p>Text</p><p>Test</p>"},
		{"line break", `Line\\Break`, "<p>Line<line-break />Break</p>"},
		{"line break at end", "Line\\\\\nBreak", "<p>Line<line-break />\nBreak</p>"},
		{"bare url", "http://moinmo.in/", `<p><a xlink:href="http://moinmo.in/">http://moinmo.in/</a></p>`},
		{"bare url trailing dot", "See http://moinmo.in.", `<p>See <a xlink:href="http://moinmo.in">http://moinmo.in</a>.</p>`},
		{"url link", "[[http://moinmo.in/]]", `<p><a xlink:href="http://moinmo.in/">http://moinmo.in/</a></p>`},
		{"interwiki", "[[MoinMoin:InterWiki]]", `<p><a xlink:href="wiki://MoinMoin/InterWiki">InterWiki</a></p>`},
		{"mailto", "[[mailto:fred@flinstones.org|drop me a note]]", `<p><a xlink:href="mailto:fred@flinstones.org">drop me a note</a></p>`},
		{"unknown scheme is local", "[[invalid:fred@flinstones.org|drop me a note]]",
			`<p><a xlink:href="wiki.local:invalid:fred@flinstones.org">drop me a note</a></p>`},
		{"script scheme is local", `[[javascript:alert("xss")]]`,
			`<p><a xlink:href="wiki.local:javascript:alert%28%22xss%22%29">javascript:alert("xss")</a></p>`},
		{"url with text", "[[http://moinmo.in/|MoinMoin]]", `<p><a xlink:href="http://moinmo.in/">MoinMoin</a></p>`},
		{"local", "[[MoinMoin]]", `<p><a xlink:href="wiki.local:MoinMoin">MoinMoin</a></p>`},
		{"local fragment", "[[Page#top|up]]", `<p><a xlink:href="wiki.local:Page#top">up</a></p>`},
		{"external object", "{{http://moinmo.in/}}",
			`<p><object xlink:href="http://moinmo.in/">Your Browser does not support HTML5 audio/video element.</object></p>`},
		{"external object alt", "{{http://moinmo.in/|MoinMoin}}",
			`<p><object xhtml:alt="MoinMoin" xlink:href="http://moinmo.in/">Your Browser does not support HTML5 audio/video element.</object></p>`},
		{"local object", "{{my.png}}", `<p><xinclude:include xinclude:href="wiki.local:my.png" /></p>`},
		{"separator", "----", `<separator class="moin-hr3" />`},
	})
}

func TestParse_BodyStyle(t *testing.T) {
	a := args.Arguments{Keyword: map[string]string{"style": "background-color: red"}}
	page, err := New().Parse("Text", &a)
	require.NoError(t, err)
	assert.Equal(t, `<page><body style="background-color: red"><p>Text</p></body></page>`, dom.Serialize(page))
}

func TestParse_Emphasis(t *testing.T) {
	runCases(t, New(), []testCase{
		{"emphasis", "//Emphasis//", "<p><emphasis>Emphasis</emphasis></p>"},
		{"strong", "**Strong**", "<p><strong>Strong</strong></p>"},
		{"emphasis strong", "//**Both**//", "<p><emphasis><strong>Both</strong></emphasis></p>"},
		{"strong emphasis", "**//Both//**", "<p><strong><emphasis>Both</emphasis></strong></p>"},
		{"across lines", "Text //Emphasis\n//Text", "<p>Text <emphasis>Emphasis\n</emphasis>Text</p>"},
		{"closed by paragraph", "Text //Emphasis\n\nText", "<p>Text <emphasis>Emphasis</emphasis></p><p>Text</p>"},
		{"no emphasis after colon", "wtf://server/path", "<p>wtf://server/path</p>"},
		{"insert", "__inserted__", "<p><ins>inserted</ins></p>"},
	})
}

func TestParse_Escape(t *testing.T) {
	runCases(t, New(), []testCase{
		{"url", "~http://moinmo.in/", "<p>http://moinmo.in/</p>"},
		{"link", "~[[escape]]", "<p>[[escape]]</p>"},
		{"macro", "~<<escape>>", "<p>&lt;&lt;escape&gt;&gt;</p>"},
		{"nowiki", "~{~{{escape}}}", "<p>{{{escape}}}</p>"},
	})
}

func TestParse_Headings(t *testing.T) {
	runCases(t, New(), []testCase{
		{"level 1", "= Heading 1", `<h outline-level="1">Heading 1</h>`},
		{"level 3 closed", "=== Heading 3 ===", `<h outline-level="3">Heading 3</h>`},
		{"short close", "=== Heading 3 =", `<h outline-level="3">Heading 3</h>`},
		{"level 6", "====== Heading 6 ======", `<h outline-level="6">Heading 6</h>`},
	})
}

func TestParse_Lists(t *testing.T) {
	item := func(body string) string {
		return "<list-item><list-item-body>" + body + "</list-item-body></list-item>"
	}
	ul := func(items ...string) string {
		out := `<list item-label-generate="unordered">`
		for _, i := range items {
			out += i
		}
		return out + "</list>"
	}

	runCases(t, New(), []testCase{
		{"item", "* Item", ul(item("Item"))},
		{"indented", " *Item", ul(item("Item"))},
		{"no space", "*Item", ul(item("Item"))},
		{"continuation", "* Item\nItem", ul(item("Item\nItem"))},
		{"two items", "* Item 1\n*Item 2", ul(item("Item 1"), item("Item 2"))},
		{"nested", "* Item 1\n** Item 1.2\n* Item 2", ul(item("Item 1"+ul(item("Item 1.2"))), item("Item 2"))},
		{"split by blank", "* List 1\n\n* List 2", ul(item("List 1")) + ul(item("List 2"))},
		{"ordered", "# Item", `<list item-label-generate="ordered">` + item("Item") + "</list>"},
		{"type change", "* List 1\n# List 2", ul(item("List 1")) + `<list item-label-generate="ordered">` + item("List 2") + "</list>"},
		{"strong is not a list", "**Strong** text", "<p><strong>Strong</strong> text</p>"},
	})
}

func TestParse_Macros(t *testing.T) {
	runCases(t, New(), []testCase{
		{"br block", "<<BR>>", ""},
		{"br inline", "Text<<BR>>Text", "<p>Text<line-break />Text</p>"},
		{"block", "<<Macro>>", `<part alt="&lt;&lt;Macro&gt;&gt;" content-type="x-moin/macro;name=Macro" />`},
		{"two inline", "<<Macro>><<Macro>>",
			`<p><inline-part alt="&lt;&lt;Macro&gt;&gt;" content-type="x-moin/macro;name=Macro" />` +
				`<inline-part alt="&lt;&lt;Macro&gt;&gt;" content-type="x-moin/macro;name=Macro" /></p>`},
		{"block args", "<<Macro(arg)>>",
			`<part alt="&lt;&lt;Macro(arg)&gt;&gt;" content-type="x-moin/macro;name=Macro"><arguments>arg</arguments></part>`},
		{"block padded", " <<Macro>> ", `<part alt="&lt;&lt;Macro&gt;&gt;" content-type="x-moin/macro;name=Macro" />`},
		{"inline", "Text <<Macro(arg)>>",
			`<p>Text <inline-part alt="&lt;&lt;Macro(arg)&gt;&gt;" content-type="x-moin/macro;name=Macro"><arguments>arg</arguments></inline-part></p>`},
		{"after paragraph", "Text\n<<Macro>>", `<p>Text</p><part alt="&lt;&lt;Macro&gt;&gt;" content-type="x-moin/macro;name=Macro" />`},
		{"footnote", "Text<<FootNote(**note**)>>",
			`<p>Text<note note-class="footnote"><note-body><strong>note</strong></note-body></note></p>`},
	})
}

func TestParse_Tables(t *testing.T) {
	row := func(cells ...string) string {
		out := "<table-row>"
		for _, c := range cells {
			out += "<table-cell>" + c + "</table-cell>"
		}
		return out + "</table-row>"
	}
	table := func(rows ...string) string {
		out := "<table><table-body>"
		for _, r := range rows {
			out += r
		}
		return out + "</table-body></table>"
	}

	runCases(t, New(), []testCase{
		{"cell", "|Cell", table(row("Cell"))},
		{"padded", "|    Cell     ", table(row("Cell"))},
		{"closed", "|Cell|", table(row("Cell"))},
		{"heading", "|=Heading|",
			`<table><table-body><table-row><table-cell class="moin-thead">Heading</table-cell></table-row></table-body></table>`},
		{"two cells", "|Cell 1|Cell 2|", table(row("Cell 1", "Cell 2"))},
		{"two rows", "|Row 1\n|Row 2\n", table(row("Row 1"), row("Row 2"))},
		{"grid", "|Cell 1.1|Cell 1.2|\n|Cell 2.1|Cell 2.2|\n", table(row("Cell 1.1", "Cell 1.2"), row("Cell 2.1", "Cell 2.2"))},
		{"link in cell", "| text [[http://localhost | link]] |", table(row(`text <a xlink:href="http://localhost">link</a>`))},
		{"text after table", "Text\n|Item\nText", "<p>Text</p>" + table(row("Item")) + "<p>Text</p>"},
	})
}

func TestParse_Nowiki(t *testing.T) {
	formats := format.NewRegistry()
	formats.Register(format.ParserFunc(func(input string, _ *args.Arguments) (*dom.Element, error) {
		page, body := dom.NewPage()
		body.AppendText(input)
		return page, nil
	}), "text/plain")

	runCases(t, New(WithFormats(formats)), []testCase{
		{"inline", "{{{nowiki}}}", "<p><code>nowiki</code></p>"},
		{"inline braces", "{{{{nowiki}}}}", "<p><code>{nowiki}</code></p>"},
		{"inline in text", "text: {{{nowiki}}}, text", "<p>text: <code>nowiki</code>, text</p>"},
		{"block", "{{{\nnowiki\n}}}", "<blockcode>nowiki</blockcode>"},
		{"block lines", "{{{\nnowiki\nno\nwiki\n}}}", "<blockcode>nowiki\nno\nwiki</blockcode>"},
		{"escaped end", "{{{\na\n~}}}\n}}}", "<blockcode>a\n}}}</blockcode>"},
		{"empty", "{{{\n}}}", "<blockcode />"},
		{"nested default", "{{{\n#!\nwiki\n}}}",
			`<part alt="{{{&#10;#!&#10;wiki&#10;}}}" content-type="x-moin/format;name=creole">` +
				`<body><page><body><p>wiki</p></body></page></body></part>`},
		{"nested styled", "{{{\n#!creole(style=\"background-color: red\")\nwiki\n}}}",
			`<part alt="{{{&#10;#!creole(style=&quot;background-color: red&quot;)&#10;wiki&#10;}}}" content-type="x-moin/format;name=creole">` +
				`<body><page><body style="background-color: red"><p>wiki</p></body></page></body></part>`},
		{"format by type", "{{{\n#!text/plain\ntext\n}}}",
			`<part alt="{{{&#10;#!text/plain&#10;text&#10;}}}" content-type="text/plain"><body><page><body>text</body></page></body></part>`},
	})
}

func TestParse_Composite(t *testing.T) {
	list := `<list item-label-generate="unordered"><list-item><list-item-body>Item</list-item-body></list-item></list>`
	runCases(t, New(), []testCase{
		{"list then paragraph", "Text\n* Item\n\nText", "<p>Text</p>" + list + "<p>Text</p>"},
		{"list then heading", "Text\n* Item\n= Heading", "<p>Text</p>" + list + `<h outline-level="1">Heading</h>`},
		{"list then nowiki", "Text\n* Item\n{{{\nnowiki\n}}}", "<p>Text</p>" + list + "<blockcode>nowiki</blockcode>"},
		{"list then table", "Text\n* Item\n|Item", "<p>Text</p>" + list +
			"<table><table-body><table-row><table-cell>Item</table-cell></table-row></table-body></table>"},
	})
}
