package rst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/args"
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
		{"paragraphs", "Text\n\nTest", "<p>Text</p><p>Test</p>"},
		{"continuation", "Text\nTest", "<p>Text\nTest</p>"},
		{"inline markup", "**bold** and *emph* and ``code``",
			"<p><strong>bold</strong> and <emphasis>emph</emphasis> and <code>code</code></p>"},
		{"no markup inside words", "2*3*4", "<p>2*3*4</p>"},
		{"roles", "H\\ :sub:`2`\\ O and E = mc\\ :sup:`2`",
			`<p>H<span baseline-shift="sub">2</span>O and E = mc<span baseline-shift="super">2</span></p>`},
		{"interpreted", "a `title` b", "<p>a <emphasis>title</emphasis> b</p>"},
		{"transition", "Text\n\n-----\n\nMore", `<p>Text</p><separator class="moin-hr3" /><p>More</p>`},
		{"blockquote", "Text\n\n  quoted", "<p>Text</p><blockquote><p>quoted</p></blockquote>"},
		{"literal block", "Example::\n\n   code here\n\nafter", "<p>Example:</p><blockcode>code here</blockcode><p>after</p>"},
		{"spaced literal marker", "Paragraph ::\n\n  x", "<p>Paragraph</p><blockcode>x</blockcode>"},
		{"lone literal marker", "::\n\n  x", "<blockcode>x</blockcode>"},
		{"doctest", ">>> print(1)\n1", "<blockcode>&gt;&gt;&gt; print(1)\n1</blockcode>"},
		{"line block", "| first\n| second", `<p class="line-block">first<line-break />second</p>`},
		{"comment", "..\n comment", `<div class="comment dashed">comment</div>`},
		{"substitution", "I am |name|.\n\n.. |name| replace:: Moin", "<p>I am Moin.</p>"},
	})
}

func TestParse_Headings(t *testing.T) {
	runCases(t, []testCase{
		{"title and subtitle", "=====\nTitle\n=====\n\nSubtitle\n--------\n\nSection\n=======\n\nText",
			`<h outline-level="1">Title</h><h outline-level="2">Subtitle</h><h outline-level="2">Section</h><p>Text</p>`},
		{"levels by first use", "Doc\n===\n\nOne\n---\n\nTwo\n~~~\n\nThree\n-----",
			`<h outline-level="1">Doc</h><h outline-level="2">One</h><h outline-level="3">Two</h><h outline-level="2">Three</h>`},
		{"short underline", "Heading\n==", "<p>Heading\n==</p>"},
	})
}

func TestParse_Lists(t *testing.T) {
	runCases(t, []testCase{
		{"nested bullets", "* A\n\n   - B\n\n      + C\n\n   - D\n\n* E",
			`<list item-label-generate="unordered"><list-item><list-item-body><p>A</p><blockquote>` +
				`<list item-label-generate="unordered"><list-item><list-item-body><p>B</p><blockquote>` +
				`<list item-label-generate="unordered"><list-item><list-item-body><p>C</p></list-item-body></list-item></list>` +
				`</blockquote></list-item-body></list-item>` +
				`<list-item><list-item-body><p>D</p></list-item-body></list-item></list>` +
				`</blockquote></list-item-body></list-item>` +
				`<list-item><list-item-body><p>E</p></list-item-body></list-item></list>`},
		{"enumerated styles", "1. a\n2. b\n\nA. c\n\na. A\n\n   1. B\n\n   2. C",
			`<list item-label-generate="ordered">` +
				`<list-item><list-item-body><p>a</p></list-item-body></list-item>` +
				`<list-item><list-item-body><p>b</p></list-item-body></list-item></list>` +
				`<list item-label-generate="ordered" list-style-type="upper-alpha">` +
				`<list-item><list-item-body><p>c</p></list-item-body></list-item></list>` +
				`<list item-label-generate="ordered" list-style-type="lower-alpha">` +
				`<list-item><list-item-body><p>A</p><list item-label-generate="ordered">` +
				`<list-item><list-item-body><p>B</p></list-item-body></list-item>` +
				`<list-item><list-item-body><p>C</p></list-item-body></list-item></list>` +
				`</list-item-body></list-item></list>`},
		{"start", "3. x\n#. y",
			`<list item-label-generate="ordered" list-start="3">` +
				`<list-item><list-item-body><p>x</p></list-item-body></list-item>` +
				`<list-item><list-item-body><p>y</p></list-item-body></list-item></list>`},
		{"definitions", "what\n  def\n\nhow\n  to",
			`<list><list-item><list-item-label>what</list-item-label><list-item-body><p>def</p></list-item-body></list-item>` +
				`<list-item><list-item-label>how</list-item-label><list-item-body><p>to</p></list-item-body></list-item></list>`},
		{"fields", ":Author: Me\n:Version: 1",
			`<list><list-item><list-item-label>Author</list-item-label><list-item-body><p>Me</p></list-item-body></list-item>` +
				`<list-item><list-item-label>Version</list-item-label><list-item-body><p>1</p></list-item-body></list-item></list>`},
	})
}

func TestParse_Links(t *testing.T) {
	runCases(t, []testCase{
		{"embedded", "a `Moin <http://moinmo.in/>`_ b", `<p>a <a xlink:href="http://moinmo.in/">Moin</a> b</p>`},
		{"named", "see Python_\n\n.. _Python: https://python.org", `<p>see <a xlink:href="https://python.org">Python</a></p>`},
		{"internal target", ".. _sec:\n\nText `sec`_", `<span id="sec" /><p>Text <a xlink:href="wiki.local:#sec">sec</a></p>`},
		{"anonymous", "`a`__ and `b`__\n\n__ http://a.org\n__ http://b.org",
			`<p><a xlink:href="http://a.org">a</a> and <a xlink:href="http://b.org">b</a></p>`},
		{"standalone", "http:Home and mailto:me@moin.com",
			`<p><a xlink:href="wiki.local:Home">http:Home</a> and <a xlink:href="mailto:me@moin.com">mailto:me@moin.com</a></p>`},
		{"script scheme", "`x <javascript:alert()>`_", "<p>x</p>"},
		{"unknown reference", "`missing`_", "<p>missing</p>"},
	})
}

func TestParse_Footnotes(t *testing.T) {
	runCases(t, []testCase{
		{"numbered", "Abra [1]_ arba\n\n.. [1] Footnote text",
			`<p>Abra <note note-class="footnote"><note-body>Footnote text</note-body></note> arba</p>`},
		{"auto", "A [#]_ B [#]_\n\n.. [#] one\n.. [#] two",
			`<p>A <note note-class="footnote"><note-body>one</note-body></note> B ` +
				`<note note-class="footnote"><note-body>two</note-body></note></p>`},
	})
}

func TestParse_Directives(t *testing.T) {
	runCases(t, []testCase{
		{"note", ".. note:: Be careful.\n\n   Really.", `<admonition type="note"><p>Be careful.</p><p>Really.</p></admonition>`},
		{"unknown", ".. foo:: bar", `<admonition type="error"><p>Unknown directive type "foo".</p></admonition>`},
		{"image", ".. image:: help.png\n   :width: 200\n   :height: 100\n   :scale: 50\n   :alt: help",
			`<xinclude:include xhtml:alt="help" xhtml:height="50" xhtml:width="100" xinclude:href="wiki.local:help.png" />`},
		{"toc macro", ".. macro:: <<TableOfContents()>>", "<table-of-content />"},
		{"macro", ".. macro:: Anchor(x)",
			`<part alt="&lt;&lt;Anchor(x)&gt;&gt;" content-type="x-moin/macro;name=Anchor"><arguments>x</arguments></part>`},
		{"contents", ".. contents::\n   :depth: 2", `<table-of-content outline-level="2" />`},
		{"code", ".. code-block:: python\n\n   print(1)", `<blockcode language="python">print(1)</blockcode>`},
		{"include", ".. include:: RecentChanges",
			`<div class="moin-p"><xinclude:include xinclude:href="wiki.local:RecentChanges" /></div>`},
	})
}

func TestParse_Tables(t *testing.T) {
	runCases(t, []testCase{
		{"grid", "+---+---+\n| A | B |\n+===+===+\n| 1 | 2 |\n+---+---+",
			`<table><table-header><table-row><table-cell><p>A</p></table-cell><table-cell><p>B</p></table-cell></table-row></table-header>` +
				`<table-body><table-row><table-cell><p>1</p></table-cell><table-cell><p>2</p></table-cell></table-row></table-body></table>`},
		{"grid spans", "+---+---+\n| A | B |\n+   +---+\n|   | C |\n+---+---+\n| wide  |\n+-------+",
			`<table><table-body>` +
				`<table-row><table-cell number-rows-spanned="2"><p>A</p></table-cell><table-cell><p>B</p></table-cell></table-row>` +
				`<table-row><table-cell><p>C</p></table-cell></table-row>` +
				`<table-row><table-cell number-columns-spanned="2"><p>wide</p></table-cell></table-row>` +
				`</table-body></table>`},
		{"simple", "=====  =====\ncol 1  col 2\n=====  =====\n1      one\n2      two\n=====  =====",
			`<table><table-header><table-row><table-cell><p>col 1</p></table-cell><table-cell><p>col 2</p></table-cell></table-row></table-header>` +
				`<table-body><table-row><table-cell><p>1</p></table-cell><table-cell><p>one</p></table-cell></table-row>` +
				`<table-row><table-cell><p>2</p></table-cell><table-cell><p>two</p></table-cell></table-row></table-body></table>`},
	})
}

func TestParse_BodyStyle(t *testing.T) {
	a := args.New()
	a.Keyword["style"] = "color: red"
	page, err := New().Parse("x", &a)
	require.NoError(t, err)
	assert.Equal(t, `<page><body style="color: red"><p>x</p></body></page>`, dom.Serialize(page))
}

func TestWarnings(t *testing.T) {
	w := New().Warnings(".. foo:: bar\n\n`missing`_")
	require.Len(t, w, 2)
	assert.Contains(t, w[0], "Unknown directive")
	assert.Contains(t, w[1], "missing")
}
