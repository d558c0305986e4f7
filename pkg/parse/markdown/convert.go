package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
	"github.com/open-cli-collective/wikiconv/pkg/parse/html"
)

// converter holds state during AST conversion.
type converter struct {
	source    []byte
	report    *parse.Report
	footnotes map[int]*extast.Footnote
}

func (c *converter) collectFootnotes(doc ast.Node) {
	c.footnotes = map[int]*extast.Footnote{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := n.(*extast.Footnote); ok && entering {
			c.footnotes[fn.Index] = fn
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func one(e *dom.Element) []dom.Node { return []dom.Node{e} }

// blocks converts all children of an AST node.
func (c *converter) blocks(n ast.Node) []dom.Node {
	var out []dom.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.block(child)...)
	}
	return out
}

func (c *converter) block(n ast.Node) []dom.Node {
	switch node := n.(type) {
	case *ast.Paragraph:
		p := dom.Elem("p")
		c.inlines(node, p)
		return one(p)
	case *ast.TextBlock:
		// Items of tight lists hold their text without a paragraph.
		holder := dom.Elem("p")
		c.inlines(node, holder)
		return holder.Children
	case *ast.Heading:
		h := dom.Elem("h")
		h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(node.Level))
		c.inlines(node, h)
		return one(h)
	case *ast.List:
		return one(c.list(node))
	case *ast.FencedCodeBlock:
		code := dom.Elem("blockcode", dom.Text(c.lines(node)))
		if lang := string(node.Language(c.source)); lang != "" {
			code.SetAttr(dom.AttrLanguage, lang)
		}
		return one(code)
	case *ast.CodeBlock:
		return one(dom.Elem("blockcode", dom.Text(c.lines(node))))
	case *ast.Blockquote:
		return one(dom.Elem("blockquote", c.blocks(node)...))
	case *ast.ThematicBreak:
		sep := dom.Elem("separator")
		sep.SetAttr(dom.AttrClass, "moin-hr3")
		return one(sep)
	case *ast.HTMLBlock:
		return c.htmlBlock(node)
	case *extast.Table:
		return one(c.table(node))
	case *extast.DefinitionList:
		return one(c.definitions(node))
	case *extast.FootnoteList:
		// Footnote bodies are emitted at their references.
		return nil
	case *admonition:
		div := dom.Elem("div")
		div.SetAttr(dom.AttrClass, "admonition "+strings.Join(node.classes, " "))
		if node.title != "" {
			title := dom.Elem("p", dom.Text(node.title))
			title.SetAttr(dom.AttrClass, "admonition-title")
			div.Append(title)
		}
		div.Append(c.blocks(node)...)
		return one(div)
	default:
		return c.blocks(n)
	}
}

// lines joins the raw lines of a code block without the final newline.
func (c *converter) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(c.source))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (c *converter) list(n *ast.List) *dom.Element {
	list := dom.Elem("list")
	if n.IsOrdered() {
		list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
		if n.Start > 1 {
			list.SetAttr(dom.AttrListStart, strconv.Itoa(n.Start))
		}
	} else {
		list.SetAttr(dom.AttrItemLabelGenerate, "unordered")
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		body := dom.Elem("list-item-body", c.blocks(item)...)
		list.Append(dom.Elem("list-item", body))
	}
	return list
}

func (c *converter) htmlBlock(n *ast.HTMLBlock) []dom.Node {
	raw := c.lines(n)
	if n.HasClosure() {
		raw += "\n" + string(n.ClosureLine.Value(c.source))
	}
	nodes, err := html.Fragment(raw, c.report)
	if err != nil {
		c.report.AddWarning("html block dropped: %v", err)
		return nil
	}
	if len(nodes) == 0 {
		return nil
	}
	return one(dom.Elem("div", nodes...))
}

var alignStyle = map[extast.Alignment]string{
	extast.AlignLeft:   "text-align: left;",
	extast.AlignRight:  "text-align: right;",
	extast.AlignCenter: "text-align: center;",
}

func (c *converter) table(n *extast.Table) *dom.Element {
	table := dom.Elem("table")
	var body *dom.Element
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			table.Append(dom.Elem("table-header", c.tableRow(row, true)))
		case *extast.TableRow:
			if body == nil {
				body = dom.Elem("table-body")
				table.Append(body)
			}
			body.Append(c.tableRow(row, false))
		}
	}
	return table
}

func (c *converter) tableRow(n ast.Node, header bool) *dom.Element {
	row := dom.Elem("table-row")
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		cell, ok := child.(*extast.TableCell)
		if !ok {
			continue
		}
		el := dom.Elem("table-cell")
		if header {
			el.AddClass("moin-thead")
		}
		if style, ok := alignStyle[cell.Alignment]; ok {
			el.SetAttr(dom.AttrStyle, style)
		}
		c.inlines(cell, el)
		row.Append(el)
	}
	return row
}

// definitions pairs terms and descriptions into list items. A term with
// several descriptions repeats the item without a label.
func (c *converter) definitions(n *extast.DefinitionList) *dom.Element {
	list := dom.Elem("list")
	var item *dom.Element
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.DefinitionTerm:
			label := dom.Elem("list-item-label")
			c.inlines(child, label)
			item = dom.Elem("list-item", label)
			list.Append(item)
		case *extast.DefinitionDescription:
			if item == nil || item.First("list-item-body") != nil {
				item = dom.Elem("list-item")
				list.Append(item)
			}
			item.Append(dom.Elem("list-item-body", c.flat(child)...))
		}
	}
	return list
}

// flat converts block content, unwrapping a lone paragraph.
func (c *converter) flat(n ast.Node) []dom.Node {
	if n.ChildCount() == 1 {
		if p, ok := n.FirstChild().(*ast.Paragraph); ok {
			holder := dom.Elem("p")
			c.inlines(p, holder)
			return holder.Children
		}
	}
	return c.blocks(n)
}

type openTag struct {
	name string
	el   *dom.Element
}

// inlines converts the inline children of n into el. Raw HTML tags open and
// close elements across sibling nodes.
func (c *converter) inlines(n ast.Node, el *dom.Element) {
	open := []openTag{{el: el}}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if raw, ok := child.(*ast.RawHTML); ok {
			open = c.rawHTML(raw, open)
			continue
		}
		c.inline(child, open[len(open)-1].el)
	}
}

func (c *converter) inline(n ast.Node, el *dom.Element) {
	switch node := n.(type) {
	case *ast.Text:
		value := node.Segment.Value(c.source)
		if !node.IsRaw() {
			value = util.UnescapePunctuations(value)
			value = util.ResolveEntityNames(util.ResolveNumericReferences(value))
		}
		el.AppendText(string(value))
		switch {
		case node.HardLineBreak():
			el.Append(dom.Elem("line-break"))
		case node.SoftLineBreak():
			el.AppendText("\n")
		}
	case *ast.String:
		el.AppendText(string(node.Value))
	case *ast.Emphasis:
		local := "emphasis"
		if node.Level == 2 {
			local = "strong"
		}
		child := dom.Elem(local)
		c.inlines(node, child)
		el.Append(child)
	case *extast.Strikethrough:
		child := dom.Elem("del")
		c.inlines(node, child)
		el.Append(child)
	case *ast.CodeSpan:
		el.Append(dom.Elem("code", dom.Text(strings.ReplaceAll(c.plain(node), "\n", " "))))
	case *ast.Link:
		c.link(node, string(node.Destination), string(node.Title), el)
	case *ast.AutoLink:
		url := string(node.URL(c.source))
		if !parse.AllowedScheme(url) {
			el.AppendText(string(node.Label(c.source)))
			return
		}
		a := dom.Elem("a", dom.Text(string(node.Label(c.source))))
		a.SetAttr(dom.XLinkHref, url)
		el.Append(a)
	case *ast.Image:
		el.Append(c.image(node))
	case *wikiLink:
		a := dom.Elem("a", dom.Text(node.label))
		a.SetAttr(dom.XLinkHref, "wiki.local:"+node.target)
		el.Append(a)
	case *extast.TaskCheckBox:
		box := dom.Elem("span")
		box.SetAttr(dom.AttrClass, "moin-task")
		if node.IsChecked {
			box.AddClass("moin-task-done")
		}
		el.Append(box)
	case *extast.FootnoteLink:
		el.Append(c.footnote(node.Index))
	case *extast.FootnoteBacklink:
	default:
		c.inlines(n, el)
	}
}

// plain returns the text content of n without markup.
func (c *converter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.source))
			if t.SoftLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// link converts an anchor. Targets without a scheme are wiki items; targets
// with a disallowed scheme keep only the link text.
func (c *converter) link(n ast.Node, dest, title string, el *dom.Element) {
	if !parse.AllowedScheme(dest) {
		c.report.AddWarning("link with disallowed scheme %s removed", parse.Scheme(dest))
		c.inlines(n, el)
		return
	}
	if parse.Scheme(dest) == "" {
		dest = "wiki.local:" + dest
	}
	a := dom.Elem("a")
	a.SetAttr(dom.XLinkHref, dest)
	if title != "" {
		a.SetAttr(dom.HTMLTitle, title)
	}
	c.inlines(n, a)
	el.Append(a)
}

// image transcludes a wiki item when the source has no scheme and embeds an
// external object otherwise.
func (c *converter) image(n *ast.Image) dom.Node {
	dest := string(n.Destination)
	alt := c.plain(n)
	var el *dom.Element
	switch {
	case parse.Scheme(dest) == "":
		el = dom.New(dom.XIncludeElement, nil)
		el.SetAttr(dom.XIncludeHref, "wiki.local:"+dest)
	case parse.AllowedScheme(dest):
		el = dom.Elem("object")
		el.SetAttr(dom.XLinkHref, dest)
	default:
		c.report.AddWarning("image with disallowed scheme %s removed", parse.Scheme(dest))
		return dom.Text(alt)
	}
	if alt != "" {
		el.SetAttr(dom.HTMLAlt, alt)
	}
	if len(n.Title) > 0 {
		el.SetAttr(dom.HTMLTitle, string(n.Title))
	}
	return el
}

func (c *converter) footnote(index int) dom.Node {
	fn, ok := c.footnotes[index]
	if !ok {
		c.report.AddWarning("footnote %d has no definition", index)
		return nil
	}
	note := dom.Elem("note", dom.Elem("note-body", c.flat(fn)...))
	note.SetAttr(dom.AttrNoteClass, "footnote")
	return note
}

var tagRe = regexp.MustCompile(`^<(/?)([a-zA-Z][a-zA-Z0-9]*)\b[^>]*?(/?)>$`)

// Inline HTML tags that open an element. The span entries record the
// original tag as class html-<tag>.
var inlineTags = map[string]string{
	"u": "u", "ins": "ins", "del": "del", "s": "s", "strike": "s",
	"em": "emphasis", "i": "emphasis", "strong": "strong", "b": "strong",
	"code": "code", "tt": "code", "samp": "code", "q": "quote",
	"sub": "span", "sup": "span", "big": "span", "small": "span",
	"kbd": "span", "mark": "span", "abbr": "span", "span": "span",
}

// rawHTML applies one inline tag to the stack of open elements.
func (c *converter) rawHTML(n *ast.RawHTML, open []openTag) []openTag {
	var sb strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		sb.Write(seg.Value(c.source))
	}
	raw := sb.String()
	if strings.HasPrefix(raw, "<!--") {
		return open
	}
	m := tagRe.FindStringSubmatch(raw)
	if m == nil {
		c.report.AddWarning("inline html %q dropped", raw)
		return open
	}
	closing, name, selfClosing := m[1] == "/", strings.ToLower(m[2]), m[3] == "/"
	top := open[len(open)-1].el

	if name == "br" {
		top.Append(dom.Elem("line-break"))
		return open
	}
	local, ok := inlineTags[name]
	if !ok {
		c.report.AddWarning("inline html tag %q dropped", name)
		return open
	}
	if closing {
		for i := len(open) - 1; i > 0; i-- {
			if open[i].name == name {
				return open[:i]
			}
		}
		return open
	}
	el := dom.Elem(local)
	switch name {
	case "sub":
		el.SetAttr(dom.AttrBaselineShift, "sub")
	case "sup":
		el.SetAttr(dom.AttrBaselineShift, "super")
	case "big":
		el.SetAttr(dom.AttrFontSize, "120%")
	case "small":
		el.SetAttr(dom.AttrFontSize, "85%")
	case "kbd", "mark", "abbr":
		el.SetAttr(dom.AttrClass, "html-"+name)
	}
	top.Append(el)
	if selfClosing {
		return open
	}
	return append(open, openTag{name: name, el: el})
}
