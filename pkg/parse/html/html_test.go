package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraph in div", "<html><div><p>Test</p></div></html>", "<div><p>Test</p></div>"},
		{"heading", "<h2>Test</h2>", `<h outline-level="2">Test</h>`},
		{"emphasis", "<p><em>a</em><i>b</i><b>c</b><strong>d</strong></p>",
			"<p><emphasis>a</emphasis><emphasis>b</emphasis><strong>c</strong><strong>d</strong></p>"},
		{"line break", "<p>First<br />Second</p>", "<p>First<line-break />Second</p>"},
		{"separator", "<p>a</p><hr /><p>b</p>", `<p>a</p><separator class="moin-hr3" /><p>b</p>`},
		{"attributes", `<p class="c" style="s" title="t" id="x">Test</p>`,
			`<p class="c" id="x" style="s" xhtml:title="t">Test</p>`},
		{"shifts", "<p><sub>a</sub><sup>b</sup><big>c</big><small>d</small></p>",
			`<p><span baseline-shift="sub">a</span><span baseline-shift="super">b</span>` +
				`<span font-size="120%">c</span><span font-size="85%">d</span></p>`},
		{"indirect", "<p><kbd>Text</kbd></p>", `<p><span class="html-kbd">Text</span></p>`},
		{"strike", "<p><strike>x</strike><s>y</s></p>", "<p><s>x</s><s>y</s></p>"},
		{"link", `<p><a href="http:test">Test</a></p>`, `<p><a xlink:href="http:test">Test</a></p>`},
		{"base", `<html><head><base href="http://www.base-url.com/" /></head><body><p><a href="myPage.html">Test</a></p></body></html>`,
			`<p><a xlink:href="http://www.base-url.com/myPage.html">Test</a></p>`},
		{"script link", `<p><a href="javascript:alert('hi')">Test</a></p>`, "<p>Test</p>"},
		{"code", "<pre>Code</pre><p><tt>a</tt><samp>b</samp></p>", "<blockcode>Code</blockcode><p><code>a</code><code>b</code></p>"},
		{"lists", `<ul><li>Item</li></ul><ol type="A" start="3"><li>Item</li></ol>`,
			`<list item-label-generate="unordered"><list-item><list-item-body>Item</list-item-body></list-item></list>` +
				`<list item-label-generate="ordered" list-start="3" list-style-type="upper-alpha">` +
				`<list-item><list-item-body>Item</list-item-body></list-item></list>`},
		{"definitions", "<dl><dt>Label</dt><dd>Item</dd></dl>",
			"<list><list-item><list-item-label>Label</list-item-label><list-item-body>Item</list-item-body></list-item></list>"},
		{"image", `<img src="uri:test" alt="x" width="10" />`,
			`<object type="image/" xhtml:alt="x" xhtml:width="10" xlink:href="uri:test" />`},
		{"table", `<table><thead><tr><th>H</th></tr></thead><tbody><tr><td colspan="2">Cell</td></tr></tbody></table>`,
			`<table><table-header><table-row><table-cell class="moin-thead">H</table-cell></table-row></table-header>` +
				`<table-body><table-row><table-cell number-columns-spanned="2">Cell</table-cell></table-row></table-body></table>`},
		{"ignored", "<p>a</p><script>alert(1)</script><form><input /></form>", "<p>a</p>"},
		{"unknown kept", `<p><blink onclick="x()" data-k="v">b</blink></p>`, `<p><xhtml:blink xhtml:data-k="v">b</xhtml:blink></p>`},
	}
	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.Parse(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, "<page><body>"+tt.want+"</body></page>", dom.Serialize(page))
		})
	}
}

func TestFragment(t *testing.T) {
	report := &parse.Report{}
	nodes, err := Fragment("<div>\n<p>x</p>\n</div>\n<custom>y</custom>", report)
	require.NoError(t, err)
	body := dom.Elem("body", nodes...)
	assert.Equal(t, "<body><div><p>x</p></div><xhtml:custom>y</xhtml:custom></body>", dom.Serialize(body))
	assert.Len(t, report.Warnings, 1)
}
