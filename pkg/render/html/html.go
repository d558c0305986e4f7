// Package html serializes the document tree as HTML.
//
// The tree is converted into a golang.org/x/net/html node tree, which is
// then rendered. Footnotes and the table of contents depend on the whole
// document and are completed after the walk.
package html

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render"
)

// Serializer converts documents to HTML. A Serializer carries state for
// one call at a time.
type Serializer struct {
	headings  []heading
	ids       map[string]int
	notes     []*xhtml.Node
	tocs      []toc
	inHeader  bool
	bodyCount int
}

// New returns a Serializer.
func New() *Serializer {
	return &Serializer{}
}

func (s *Serializer) reset() {
	s.headings = nil
	s.ids = map[string]int{}
	s.notes = nil
	s.tocs = nil
	s.inHeader = false
	s.bodyCount = 0
}

// Serialize implements render.Serializer.
func (s *Serializer) Serialize(doc *dom.Element) (string, error) {
	nodes, err := s.Nodes(doc)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := xhtml.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Nodes converts doc into HTML nodes without rendering them.
func (s *Serializer) Nodes(doc *dom.Element) ([]*xhtml.Node, error) {
	s.reset()
	out := s.visit(doc)
	if len(s.notes) > 0 {
		out = append(out, s.footnotes())
	}
	s.fillTOCs()
	return out, nil
}

func newElement(tag string, attrs ...string) *xhtml.Node {
	n := &xhtml.Node{Type: xhtml.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		setAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

func newText(s string) *xhtml.Node {
	return &xhtml.Node{Type: xhtml.TextNode, Data: s}
}

func setAttr(n *xhtml.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, xhtml.Attribute{Key: key, Val: val})
}

func getAttr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addClass(n *xhtml.Node, class string) {
	if class == "" {
		return
	}
	cur := getAttr(n, "class")
	if cur == "" {
		setAttr(n, "class", class)
		return
	}
	for _, c := range strings.Fields(cur) {
		if c == class {
			return
		}
	}
	setAttr(n, "class", cur+" "+class)
}

func appendAll(parent *xhtml.Node, children []*xhtml.Node) *xhtml.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

// copyAttrs carries the presentational attributes of e over to n, in
// name order.
func copyAttrs(e *dom.Element, n *xhtml.Node) {
	keys := make([]dom.QName, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Local != keys[j].Local {
			return keys[i].Local < keys[j].Local
		}
		return keys[i].Space < keys[j].Space
	})
	for _, k := range keys {
		v := e.Attrs[k]
		switch {
		case k == dom.AttrClass:
			for _, c := range strings.Fields(v) {
				addClass(n, c)
			}
		case k == dom.AttrStyle, k == dom.AttrID, k == dom.AttrTitle:
			setAttr(n, k.Local, v)
		case k.Space == dom.XHTML && k.Local == "class":
			for _, c := range strings.Fields(v) {
				addClass(n, c)
			}
		case k.Space == dom.XHTML && !strings.HasPrefix(k.Local, "on"):
			setAttr(n, k.Local, v)
		}
	}
}

// wrap builds tag with e's attributes around e's converted children.
func (s *Serializer) wrap(tag string, e *dom.Element) []*xhtml.Node {
	n := newElement(tag)
	copyAttrs(e, n)
	return []*xhtml.Node{appendAll(n, s.children(e))}
}

func (s *Serializer) children(e *dom.Element) []*xhtml.Node {
	var out []*xhtml.Node
	for _, c := range e.Children {
		switch n := c.(type) {
		case dom.Text:
			out = append(out, newText(string(n)))
		case *dom.Element:
			out = append(out, s.visit(n)...)
		}
	}
	return out
}

// visit converts one element. Elements outside the page and XHTML
// namespaces are replaced by their children.
func (s *Serializer) visit(e *dom.Element) []*xhtml.Node {
	switch e.Name.Space {
	case dom.Moin:
		return s.visitMoin(e)
	case dom.XHTML:
		return s.wrap(e.Name.Local, e)
	case dom.XInclude:
		if e.Name == dom.XIncludeElement {
			return s.include(e)
		}
	}
	return s.children(e)
}

func (s *Serializer) visitMoin(e *dom.Element) []*xhtml.Node {
	switch e.Name.Local {
	case "page":
		return s.page(e)
	case "body":
		return s.body(e)
	case "p":
		return s.wrap("p", e)
	case "h":
		return s.heading(e)
	case "list":
		return s.list(e)
	case "list-item", "list-item-label", "list-item-body":
		return s.wrap("div", e)
	case "table":
		return s.table(e)
	case "caption":
		return s.wrap("caption", e)
	case "table-header":
		return s.tableSection("thead", e)
	case "table-body":
		return s.tableSection("tbody", e)
	case "table-footer":
		return s.tableSection("tfoot", e)
	case "table-row":
		return s.wrap("tr", e)
	case "table-cell":
		return s.cell(e)
	case "emphasis":
		return s.wrap("em", e)
	case "strong", "code", "samp", "del", "ins", "s", "u", "blockquote", "div":
		return s.wrap(e.Name.Local, e)
	case "quote":
		return s.wrap("q", e)
	case "span":
		return s.span(e)
	case "a":
		return s.link(e)
	case "blockcode":
		return s.wrap("pre", e)
	case "separator":
		return s.wrap("hr", e)
	case "line-break":
		return []*xhtml.Node{newElement("br")}
	case "note":
		return s.note(e)
	case "part", "inline-part":
		return s.part(e)
	case "arguments":
		return nil
	case "object":
		return s.object(e)
	case "admonition":
		n := newElement("div")
		copyAttrs(e, n)
		addClass(n, e.Attr(dom.AttrType))
		return []*xhtml.Node{appendAll(n, s.children(e))}
	case "block-comment":
		return []*xhtml.Node{{Type: xhtml.CommentNode, Data: e.Text()}}
	case "table-of-content":
		return s.tableOfContents(e)
	case "nowiki":
		n := newElement("div", "class", "moin-nowiki")
		return []*xhtml.Node{appendAll(n, s.children(e))}
	}
	return s.children(e)
}

// page renders the top level page as its body content; nested pages, as
// found in embedded wiki blocks, become divs.
func (s *Serializer) page(e *dom.Element) []*xhtml.Node {
	s.bodyCount++
	defer func() { s.bodyCount-- }()
	if s.bodyCount == 1 {
		return s.children(e)
	}
	n := newElement("div", "class", "moin-page")
	return []*xhtml.Node{appendAll(n, s.children(e))}
}

func (s *Serializer) body(e *dom.Element) []*xhtml.Node {
	if len(e.Attrs) == 0 {
		return s.children(e)
	}
	return s.wrap("div", e)
}

func (s *Serializer) span(e *dom.Element) []*xhtml.Node {
	switch e.Attr(dom.AttrBaselineShift) {
	case "super":
		return s.wrap("sup", e)
	case "sub":
		return s.wrap("sub", e)
	}
	out := s.wrap("span", e)
	if size := e.Attr(dom.AttrFontSize); size != "" {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(size, "%"), 64)
		if err == nil && pct < 100 {
			addClass(out[0], "moin-small")
		} else {
			addClass(out[0], "moin-big")
		}
	}
	return out
}

func (s *Serializer) link(e *dom.Element) []*xhtml.Node {
	out := s.wrap("a", e)
	if href, ok := e.Lookup(dom.XLinkHref); ok {
		setAttr(out[0], "href", render.LinkTarget(href))
	}
	return out
}

func (s *Serializer) list(e *dom.Element) []*xhtml.Node {
	kind := render.ListKind(e)
	tag := map[string]string{"ordered": "ol", "unordered": "ul", "definition": "dl"}[kind]
	n := newElement(tag)
	copyAttrs(e, n)
	switch e.Attr(dom.AttrListStyleType) {
	case "upper-alpha":
		addClass(n, "moin-upperalpha-list")
	case "lower-alpha":
		addClass(n, "moin-loweralpha-list")
	case "upper-roman":
		addClass(n, "moin-upperroman-list")
	case "lower-roman":
		addClass(n, "moin-lowerroman-list")
	case "no-bullet":
		addClass(n, "moin-nobullet-list")
	}
	if start := e.Attr(dom.AttrListStart); start != "" && kind == "ordered" {
		setAttr(n, "start", start)
	}

	for _, c := range e.Children {
		item, ok := c.(*dom.Element)
		if !ok || !item.Is("list-item") {
			if ok {
				n.AppendChild(appendAll(newElement("li"), s.visit(item)))
			}
			continue
		}
		if kind == "definition" {
			for _, part := range item.Elements() {
				switch {
				case part.Is("list-item-label"):
					appendAll(n, s.wrap("dt", part))
				case part.Is("list-item-body"):
					appendAll(n, s.wrap("dd", part))
				}
			}
			continue
		}
		li := newElement("li")
		copyAttrs(item, li)
		for _, part := range item.Elements() {
			if part.Is("list-item-label") || part.Is("list-item-body") {
				appendAll(li, s.children(part))
			} else {
				appendAll(li, s.visit(part))
			}
		}
		n.AppendChild(li)
	}
	return []*xhtml.Node{n}
}

func (s *Serializer) table(e *dom.Element) []*xhtml.Node {
	n := newElement("table")
	copyAttrs(e, n)

	// A wiki table has only bodies; with more than one, the first holds the
	// header rows.
	var bodies int
	for _, c := range e.Elements() {
		if c.Is("table-body") {
			bodies++
		}
	}
	first := true
	for _, c := range e.Children {
		child, ok := c.(*dom.Element)
		if !ok {
			continue
		}
		if child.Is("table-body") && bodies > 1 && first && e.HasClass("moin-wiki-table") {
			first = false
			appendAll(n, s.tableSection("thead", child))
			continue
		}
		appendAll(n, s.visit(child))
	}
	return []*xhtml.Node{n}
}

func (s *Serializer) tableSection(tag string, e *dom.Element) []*xhtml.Node {
	saved := s.inHeader
	s.inHeader = tag == "thead"
	defer func() { s.inHeader = saved }()
	return s.wrap(tag, e)
}

func (s *Serializer) cell(e *dom.Element) []*xhtml.Node {
	tag := "td"
	if s.inHeader || e.HasClass("moin-thead") {
		tag = "th"
	}
	out := s.wrap(tag, e)
	if v := e.Attr(dom.AttrColSpan); v != "" {
		setAttr(out[0], "colspan", v)
	}
	if v := e.Attr(dom.AttrRowSpan); v != "" {
		setAttr(out[0], "rowspan", v)
	}
	return out
}

// part renders the output of an expanded macro or embedded block, or the
// source text of one that was never expanded.
func (s *Serializer) part(e *dom.Element) []*xhtml.Node {
	block := e.Is("part")
	tag := "span"
	if block {
		tag = "div"
	}
	if body := render.PartBody(e); body != nil {
		n := newElement(tag)
		copyAttrs(e, n)
		return []*xhtml.Node{appendAll(n, s.children(body))}
	}
	n := newElement(tag, "class", "moin-macro")
	if alt := e.Attr(dom.AttrAlt); alt != "" {
		n.AppendChild(newText(alt))
	}
	return []*xhtml.Node{n}
}

func (s *Serializer) object(e *dom.Element) []*xhtml.Node {
	href := e.Attr(dom.XLinkHref)
	if href == "" && !e.Empty() {
		// Content no parser understood, kept as text.
		n := newElement("pre", "class", "moin-object")
		if t := e.Attr(dom.AttrType); t != "" {
			setAttr(n, "data-type", t)
		}
		return []*xhtml.Node{appendAll(n, s.children(e))}
	}
	return s.embed(e, render.LinkTarget(href))
}

func (s *Serializer) include(e *dom.Element) []*xhtml.Node {
	href := e.Attr(dom.XIncludeHref)
	if href == "" {
		// An include the include pass did not expand.
		n := newElement("span", "class", dom.ErrorClass)
		n.AppendChild(newText("Include: " + e.Attr(dom.XIncludeXPointer)))
		return []*xhtml.Node{n}
	}
	out := s.embed(e, render.LinkTarget(href))
	addClass(out[0], "moin-transclusion")
	setAttr(out[0], "data-href", href)
	return out
}

// embed returns an img for images and an object for anything else.
func (s *Serializer) embed(e *dom.Element, src string) []*xhtml.Node {
	if render.IsImage(src) {
		n := newElement("img", "src", src)
		copyAttrs(e, n)
		if getAttr(n, "alt") == "" {
			setAttr(n, "alt", src)
		}
		return []*xhtml.Node{n}
	}
	n := newElement("object", "data", src)
	copyAttrs(e, n)
	if t := e.Attr(dom.AttrType); t != "" {
		setAttr(n, "type", t)
	}
	if alt := getAttr(n, "alt"); alt != "" {
		n.AppendChild(newText(alt))
	} else {
		n.AppendChild(newText(src))
	}
	return []*xhtml.Node{n}
}

func (s *Serializer) heading(e *dom.Element) []*xhtml.Node {
	level, err := strconv.Atoi(e.Attr(dom.AttrOutlineLevel))
	if err != nil || level < 1 {
		level = 1
	}
	level = min(level, 6)
	out := s.wrap("h"+strconv.Itoa(level), e)
	id := getAttr(out[0], "id")
	if id == "" {
		id = s.uniqueID(e.Text())
		setAttr(out[0], "id", id)
	}
	s.headings = append(s.headings, heading{level: level, text: e.Text(), id: id})
	return out
}
