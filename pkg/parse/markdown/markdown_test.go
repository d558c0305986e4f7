package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

type testCase struct {
	name  string
	input string
	want  string
}

func runCases(t *testing.T, tests []testCase) {
	t.Helper()
	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.Parse(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, "<page><body>"+tt.want+"</body></page>", dom.Serialize(page))
		})
	}
}

func TestParse_Base(t *testing.T) {
	runCases(t, []testCase{
		{"paragraph", "Text", "<p>Text</p>"},
		{"soft break", "Text\nTest", "<p>Text\nTest</p>"},
		{"paragraphs", "Text\n\nTest", "<p>Text</p><p>Test</p>"},
		{"autolink", "<http://moinmo.in/>", `<p><a xlink:href="http://moinmo.in/">http://moinmo.in/</a></p>`},
		{"script link", `[yo](javascript:alert("xss"))`, "<p>yo</p>"},
		{"external link", "[MoinMoin](http://moinmo.in/)", `<p><a xlink:href="http://moinmo.in/">MoinMoin</a></p>`},
		{"local link", `[Home](Some/Page "Go")`, `<p><a xhtml:title="Go" xlink:href="wiki.local:Some/Page">Home</a></p>`},
		{"separator", "----", `<separator class="moin-hr3" />`},
		{"heading", "## Title", `<h outline-level="2">Title</h>`},
		{"blockquote", "> quoted", "<blockquote><p>quoted</p></blockquote>"},
		{"bare url", "http://moinmo.in/", "<p>http://moinmo.in/</p>"},
		{"escaped link", "\\[escape](yo)", "<p>[escape](yo)</p>"},
		{"escaped emphasis", "\\*yo\\*", "<p>*yo*</p>"},
	})
}

func TestParse_Emphasis(t *testing.T) {
	runCases(t, []testCase{
		{"star", "*Emphasis*", "<p><emphasis>Emphasis</emphasis></p>"},
		{"underscore", "_Emphasis_", "<p><emphasis>Emphasis</emphasis></p>"},
		{"strong", "**Strong**", "<p><strong>Strong</strong></p>"},
		{"emphasis around strong", "_**Both**_", "<p><emphasis><strong>Both</strong></emphasis></p>"},
		{"strong around emphasis", "**_Both_**", "<p><strong><emphasis>Both</emphasis></strong></p>"},
		{"strikethrough", "~~gone~~", "<p><del>gone</del></p>"},
		{"code span", "use `x := 1`", "<p>use <code>x := 1</code></p>"},
	})
}

func TestParse_InlineHTML(t *testing.T) {
	runCases(t, []testCase{
		{"emphasis", "<em>Emphasis</em>", "<p><emphasis>Emphasis</emphasis></p>"},
		{"italic", "<i>Italic</i>", "<p><emphasis>Italic</emphasis></p>"},
		{"underline", "<u>underline</u>", "<p><u>underline</u></p>"},
		{"deleted", "<del>deleted</del>", "<p><del>deleted</del></p>"},
		{"subscript", "H<sub>2</sub>O", `<p>H<span baseline-shift="sub">2</span>O</p>`},
		{"break", "a<br>b", "<p>a<line-break />b</p>"},
		{"block", "<div>\n<b>x</b>\n</div>", "<div><div><strong>x</strong></div></div>"},
	})
}

func TestParse_Lists(t *testing.T) {
	runCases(t, []testCase{
		{"item", "* Item",
			`<list item-label-generate="unordered"><list-item><list-item-body>Item</list-item-body></list-item></list>`},
		{"lazy continuation", "* Item\nItem",
			`<list item-label-generate="unordered"><list-item><list-item-body>Item\nItem</list-item-body></list-item></list>`},
		{"two items", "* Item 1\n* Item 2",
			`<list item-label-generate="unordered"><list-item><list-item-body>Item 1</list-item-body></list-item>` +
				`<list-item><list-item-body>Item 2</list-item-body></list-item></list>`},
		{"nested", "* Item 1\n    * Item 1.2\n* Item 2",
			`<list item-label-generate="unordered"><list-item><list-item-body>Item 1` +
				`<list item-label-generate="unordered"><list-item><list-item-body>Item 1.2</list-item-body></list-item></list>` +
				`</list-item-body></list-item><list-item><list-item-body>Item 2</list-item-body></list-item></list>`},
		{"interrupted", "* List 1\n\nyo\n\n\n* List 2",
			`<list item-label-generate="unordered"><list-item><list-item-body>List 1</list-item-body></list-item></list>` +
				`<p>yo</p>` +
				`<list item-label-generate="unordered"><list-item><list-item-body>List 2</list-item-body></list-item></list>`},
		{"ordered", "1. Item",
			`<list item-label-generate="ordered"><list-item><list-item-body>Item</list-item-body></list-item></list>`},
		{"ordered start", "8. Item",
			`<list item-label-generate="ordered" list-start="8"><list-item><list-item-body>Item</list-item-body></list-item></list>`},
		{"loose", "* a\n\n* b",
			`<list item-label-generate="unordered"><list-item><list-item-body><p>a</p></list-item-body></list-item>` +
				`<list-item><list-item-body><p>b</p></list-item-body></list-item></list>`},
		{"definitions", "Term\n: Definition",
			`<list><list-item><list-item-label>Term</list-item-label><list-item-body>Definition</list-item-body></list-item></list>`},
	})
}

func TestParse_Images(t *testing.T) {
	runCases(t, []testCase{
		{"local with title", `![Alt text](png "Optional title")`,
			`<p><xinclude:include xhtml:alt="Alt text" xhtml:title="Optional title" xinclude:href="wiki.local:png" /></p>`},
		{"local without alt", `![](png "Optional title")`,
			`<p><xinclude:include xhtml:title="Optional title" xinclude:href="wiki.local:png" /></p>`},
		{"remote", "![remote image](http://static.moinmo.in/logos/moinmoin.png)",
			`<p><object xhtml:alt="remote image" xlink:href="http://static.moinmo.in/logos/moinmoin.png" /></p>`},
		{"local item", "![transclude local wiki item](someitem)",
			`<p><xinclude:include xhtml:alt="transclude local wiki item" xinclude:href="wiki.local:someitem" /></p>`},
	})
}

func TestParse_Tables(t *testing.T) {
	runCases(t, []testCase{
		{"header and body",
			"First Header  | Second Header\n------------- | -------------\nContent Cell  | Content Cell\nContent Cell  | Content Cell",
			`<table><table-header><table-row><table-cell class="moin-thead">First Header</table-cell>` +
				`<table-cell class="moin-thead">Second Header</table-cell></table-row></table-header>` +
				`<table-body><table-row><table-cell>Content Cell</table-cell><table-cell>Content Cell</table-cell></table-row>` +
				`<table-row><table-cell>Content Cell</table-cell><table-cell>Content Cell</table-cell></table-row></table-body></table>`},
		{"alignment", "| a |\n|--:|\n| 1 |",
			`<table><table-header><table-row><table-cell class="moin-thead" style="text-align: right;">a</table-cell></table-row></table-header>` +
				`<table-body><table-row><table-cell style="text-align: right;">1</table-cell></table-row></table-body></table>`},
	})
}

func TestParse_Extensions(t *testing.T) {
	runCases(t, []testCase{
		{"wiki link", "[[Bracketed]]", `<p><a xlink:href="wiki.local:Bracketed">Bracketed</a></p>`},
		{"wiki subitem", "[[Main/sub]]", `<p><a xlink:href="wiki.local:Main/sub">sub</a></p>`},
		{"wiki link label", "[[Main/sub|the sub]]", `<p><a xlink:href="wiki.local:Main/sub">the sub</a></p>`},
		{"admonition", "!!! note\n    You should note that the title will be automatically capitalized.",
			`<div class="admonition note"><p class="admonition-title">Note</p>` +
				`<p>You should note that the title will be automatically capitalized.</p></div>`},
		{"admonition title", "!!! danger \"Don't try this at home\"\n    ...",
			`<div class="admonition danger"><p class="admonition-title">Don't try this at home</p><p>...</p></div>`},
		{"admonition without title", "!!! important \"\"\n    This is an admonition box without a title.",
			`<div class="admonition important"><p>This is an admonition box without a title.</p></div>`},
		{"admonition classes", "!!! danger highlight blink \"Don't try this at home\"\n    ...",
			`<div class="admonition danger highlight blink"><p class="admonition-title">Don't try this at home</p><p>...</p></div>`},
		{"fenced code", "```python\nprint(1)\n```", `<blockcode language="python">print(1)</blockcode>`},
		{"indented code", "    x = 1\n    y = 2", "<blockcode>x = 1\ny = 2</blockcode>"},
		{"footnote", "A[^1] b\n\n[^1]: The note",
			`<p>A<note note-class="footnote"><note-body>The note</note-body></note> b</p>`},
	})
}

func TestParse_TaskList(t *testing.T) {
	page, err := New().Parse("- [x] done\n- [ ] todo", nil)
	require.NoError(t, err)
	out := dom.Serialize(page)
	assert.Contains(t, out, `<span class="moin-task moin-task-done" />`)
	assert.Contains(t, out, `<span class="moin-task" />`)
}

func TestParse_FrontMatter(t *testing.T) {
	page, err := New().Parse("---\ntitle: Hello\ntags: 3\n---\n# Head\n", nil)
	require.NoError(t, err)
	assert.Equal(t, `<page meta:tags="3" meta:title="Hello"><body><h outline-level="1">Head</h></body></page>`,
		dom.Serialize(page))
}

func TestWarnings(t *testing.T) {
	w := New().Warnings(`[yo](javascript:alert("xss")) and <blink>x</blink>`)
	require.Len(t, w, 3)
	assert.Contains(t, w[0], "javascript")
	assert.Contains(t, w[1], "blink")
}
