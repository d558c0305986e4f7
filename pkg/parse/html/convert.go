package html

import (
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Elements mapped onto a tree element of the same name.
var symmetric = map[string]bool{
	"blockquote": true, "code": true, "del": true, "div": true, "ins": true,
	"p": true, "s": true, "span": true, "strong": true, "u": true,
}

// Elements mapped onto a differently named tree element.
var renamed = map[string]string{
	"em":     "emphasis",
	"i":      "emphasis",
	"b":      "strong",
	"q":      "quote",
	"strike": "s",
	"pre":    "blockcode",
	"tt":     "code",
	"samp":   "code",
	"dt":     "list-item-label",
	"dd":     "list-item-body",
	"thead":  "table-header",
	"tfoot":  "table-footer",
	"tbody":  "table-body",
	"tr":     "table-row",
}

// Elements without a tree equivalent. They map onto a generic element that
// records the original name as class html-<name>.
var indirect = map[string]string{
	"cite":    "emphasis",
	"dfn":     "emphasis",
	"var":     "emphasis",
	"abbr":    "span",
	"acronym": "span",
	"mark":    "span",
	"kbd":     "span",
	"address": "div",
}

// Elements dropped together with their content.
var ignored = map[string]bool{
	"applet": true, "area": true, "button": true, "caption": true, "center": true,
	"fieldset": true, "form": true, "frame": true, "frameset": true, "head": true,
	"iframe": true, "input": true, "isindex": true, "label": true, "legend": true,
	"link": true, "map": true, "menu": true, "noframes": true, "noscript": true,
	"optgroup": true, "option": true, "param": true, "script": true, "select": true,
	"style": true, "textarea": true, "title": true, "base": true, "meta": true,
}

// Containers whose whitespace-only text children carry no content.
var structural = map[string]bool{
	"body": true, "div": true, "ul": true, "ol": true, "dir": true, "dl": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
	"blockquote": true, "html": true,
}

type converter struct {
	report *parse.Report
	base   string
	seen   map[string]bool
}

// warnOnce records msg the first time it is seen.
func (c *converter) warnOnce(msg string) {
	if c.seen[msg] {
		return
	}
	c.seen[msg] = true
	c.report.AddWarning("%s", msg)
}

func (c *converter) children(n *xhtml.Node) []dom.Node {
	dropBlank := structural[n.Data]
	var out []dom.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, c.node(child, dropBlank)...)
	}
	return out
}

func (c *converter) node(n *xhtml.Node, dropBlank bool) []dom.Node {
	switch n.Type {
	case xhtml.TextNode:
		if dropBlank && strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return []dom.Node{dom.Text(n.Data)}
	case xhtml.ElementNode:
		return c.element(n)
	}
	return nil
}

// copyAttrs carries the presentational attributes over to el.
func copyAttrs(n *xhtml.Node, el *dom.Element) {
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		switch a.Key {
		case "class":
			el.SetAttr(dom.AttrClass, a.Val)
		case "style":
			el.SetAttr(dom.AttrStyle, a.Val)
		case "id":
			el.SetAttr(dom.AttrID, a.Val)
		case "title":
			el.SetAttr(dom.HTMLTitle, a.Val)
		case "alt":
			el.SetAttr(dom.HTMLAlt, a.Val)
		}
	}
}

func (c *converter) copy(local string, n *xhtml.Node) *dom.Element {
	el := dom.Elem(local)
	copyAttrs(n, el)
	el.Append(c.children(n)...)
	return el
}

// href resolves a link target against the document base.
func (c *converter) href(v string) string {
	if c.base != "" && parse.Scheme(v) == "" && !strings.HasPrefix(v, "#") {
		return c.base + v
	}
	return v
}

func (c *converter) element(n *xhtml.Node) []dom.Node {
	name := n.Data
	one := func(e *dom.Element) []dom.Node { return []dom.Node{e} }

	if symmetric[name] {
		return one(c.copy(name, n))
	}
	if local, ok := renamed[name]; ok {
		return one(c.copy(local, n))
	}
	if local, ok := indirect[name]; ok {
		el := c.copy(local, n)
		el.AddClass("html-" + name)
		return one(el)
	}
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		el := c.copy("h", n)
		el.SetAttr(dom.AttrOutlineLevel, name[1:])
		return one(el)
	}

	switch name {
	case "br":
		return one(dom.Elem("line-break"))
	case "hr":
		sep := dom.Elem("separator")
		class := attr(n, "class")
		if class < "moin-hr1" || class > "moin-hr6" {
			class = "moin-hr3"
		}
		sep.SetAttr(dom.AttrClass, class)
		return one(sep)
	case "sub", "sup":
		el := c.copy("span", n)
		el.SetAttr(dom.AttrBaselineShift, map[string]string{"sub": "sub", "sup": "super"}[name])
		return one(el)
	case "big", "small":
		el := c.copy("span", n)
		el.SetAttr(dom.AttrFontSize, map[string]string{"big": "120%", "small": "85%"}[name])
		return one(el)
	case "a":
		return c.link(n)
	case "img":
		el := dom.Elem("object")
		copyAttrs(n, el)
		el.SetAttr(dom.AttrType, "image/")
		el.SetAttr(dom.XLinkHref, c.href(attr(n, "src")))
		for key, q := range map[string]dom.QName{"width": dom.HTMLWidth, "height": dom.HTMLHeight} {
			if v := attr(n, key); v != "" {
				el.SetAttr(q, v)
			}
		}
		return one(el)
	case "object":
		el := dom.Elem("object")
		el.SetAttr(dom.XLinkHref, c.href(attr(n, "data")))
		return one(el)
	case "audio", "video":
		el := dom.Elem(name)
		el.SetAttr(dom.XLinkHref, c.href(attr(n, "src")))
		for _, key := range []string{"controls", "width", "height", "autoplay"} {
			for _, a := range n.Attr {
				if a.Key == key {
					el.SetAttr(dom.XHTML.Name(key), a.Val)
				}
			}
		}
		if id := attr(n, "id"); id != "" {
			el.SetAttr(dom.AttrID, id)
		}
		return one(el)
	case "ul", "dir", "ol":
		return one(c.list(n))
	case "li":
		body := dom.Elem("list-item-body", c.children(n)...)
		return one(dom.Elem("list-item", body))
	case "dl":
		return one(c.definitions(n))
	case "table":
		return one(c.copy("table", n))
	case "td", "th":
		el := c.copy("table-cell", n)
		if name == "th" {
			el.AddClass("moin-thead")
		}
		if v := attr(n, "rowspan"); v != "" {
			el.SetAttr(dom.AttrRowSpan, v)
		}
		if v := attr(n, "colspan"); v != "" {
			el.SetAttr(dom.AttrColSpan, v)
		}
		return one(el)
	}

	if ignored[name] {
		c.warnOnce("Tag '" + name + "' is not supported; all tag contents are discarded.")
		return nil
	}
	c.warnOnce("Tag '" + name + "' is not known; it is kept as an html element.")
	return one(c.passthrough(n))
}

// link converts an anchor. Targets with a disallowed scheme keep only the
// anchor text.
func (c *converter) link(n *xhtml.Node) []dom.Node {
	href := c.href(attr(n, "href"))
	if !parse.AllowedScheme(href) {
		c.warnOnce("link with disallowed scheme " + parse.Scheme(href) + " removed")
		return c.children(n)
	}
	el := c.copy("a", n)
	if href != "" {
		el.SetAttr(dom.XLinkHref, href)
	}
	return []dom.Node{el}
}

func (c *converter) list(n *xhtml.Node) *dom.Element {
	el := dom.Elem("list")
	copyAttrs(n, el)
	if n.Data == "ol" {
		el.SetAttr(dom.AttrItemLabelGenerate, "ordered")
		styles := map[string]string{"A": "upper-alpha", "I": "upper-roman", "a": "lower-alpha", "i": "lower-roman"}
		if style, ok := styles[attr(n, "type")]; ok {
			el.SetAttr(dom.AttrListStyleType, style)
		}
		if start, err := strconv.Atoi(attr(n, "start")); err == nil && start != 1 {
			el.SetAttr(dom.AttrListStart, strconv.Itoa(start))
		}
	} else {
		el.SetAttr(dom.AttrItemLabelGenerate, "unordered")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xhtml.ElementNode {
			el.Append(c.element(child)...)
		}
	}
	return el
}

// definitions pairs dt and dd children into list items.
func (c *converter) definitions(n *xhtml.Node) *dom.Element {
	list := dom.Elem("list")
	var item *dom.Element
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xhtml.ElementNode {
			continue
		}
		switch child.Data {
		case "dt":
			item = dom.Elem("list-item")
			list.Append(item)
		case "dd":
			if item == nil || item.First("list-item-body") != nil {
				item = dom.Elem("list-item")
				list.Append(item)
			}
		default:
			continue
		}
		item.Append(c.element(child)...)
	}
	return list
}

// passthrough keeps an unknown element in the xhtml namespace. Event
// handlers and script URLs are dropped.
func (c *converter) passthrough(n *xhtml.Node) *dom.Element {
	el := dom.New(dom.XHTML.Name(n.Data), nil)
	for _, a := range n.Attr {
		if a.Namespace != "" || strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if (a.Key == "href" || a.Key == "src") && !parse.AllowedScheme(a.Val) {
			continue
		}
		el.SetAttr(dom.XHTML.Name(a.Key), a.Val)
	}
	el.Append(c.children(n)...)
	return el
}
