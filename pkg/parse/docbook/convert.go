package docbook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Metadata elements dropped together with their content.
var ignoredTags = set(
	"abstract", "annotation", "artpagenums", "author", "authorgroup",
	"authorinitials", "bibliocoverage", "biblioid", "bibliomisc", "bibliomset",
	"bibliorelation", "biblioset", "bibliosource", "collab", "confdates",
	"confgroup", "confnum", "confsponsor", "conftitle", "contractnum",
	"contractsponsor", "contrib", "copyright", "cover", "edition", "editor",
	"extendedlink", "issuenum", "itermset", "keyword", "keywordset",
	"legalnotice", "org", "orgdiv", "orgname", "otheraddr", "othercredit",
	"pagenums", "personblurb", "printhistory", "productname", "productnumber",
	"pubdate", "publisher", "publishername", "releaseinfo", "revdescription",
	"revhistory", "revision",
)

// Inline elements without a tree equivalent; they become span.db-<name>.
var inlineTags = set(
	"abbrev", "accel", "acronym", "address", "affiliation", "alt", "anchor",
	"city", "command", "constant", "country", "database", "date", "errorcode",
	"errorname", "errortext", "errortype", "exceptionname", "fax", "filename",
	"firstname", "firstterm", "foreignphrase", "hardware", "holder",
	"honorific", "jobtitle", "keycap", "keycode", "keycombo", "keysym",
	"lineannotation", "manvolnum", "mousebutton", "option", "optional",
	"package", "person", "personname", "phone", "pob", "postcode", "prompt",
	"remark", "replaceable", "returnvalue", "shortaffil", "shortcut", "state",
	"street", "surname", "symbol", "systemitem", "termdef", "type", "uri",
	"userinput", "varname", "wordasword",
)

// Block elements without a tree equivalent; they become div.db-<name>. Only
// these may be the document root.
var blockTags = set(
	"acknowledgements", "appendix", "article", "book", "caption", "chapter",
	"cmdsynopsis", "colophon", "dedication", "epigraph", "equation", "example",
	"figure", "part", "partintro", "screenshoot", "set", "setindex", "sidebar",
	"simplesect", "subtitle", "synopfragment", "synopsis", "task",
	"taskprerequisites", "taskrelated", "tasksummary", "title",
)

var admonitionTags = set(
	"attention", "caution", "danger", "error", "hint", "important", "note",
	"tip", "warning",
)

// Elements with a direct tree equivalent.
var simpleTags = map[string]string{
	"code":           "code",
	"computeroutput": "code",
	"literal":        "code",
	"markup":         "code",
	"glossdef":       "list-item-body",
	"glossentry":     "list-item",
	"glosslist":      "list",
	"glossterm":      "list-item-label",
	"para":           "p",
	"simpara":        "p",
	"phrase":         "span",
	"programlisting": "blockcode",
	"screen":         "blockcode",
	"quote":          "quote",
	"row":            "table-row",
	"tr":             "table-row",
	"term":           "list-item-label",
	"listitem":       "list-item-body",
	"thead":          "table-header",
	"tfoot":          "table-footer",
	"tbody":          "table-body",
	"variablelist":   "list",
	"varlistentry":   "list-item",
}

// Elements whose whitespace-only text is content rather than indentation.
var mixedTags = set(
	"para", "simpara", "title", "term", "glossterm", "emphasis", "link",
	"ulink", "olink", "phrase", "quote", "entry", "td", "th", "subscript",
	"superscript", "literal", "code", "trademark", "tag", "attribution",
	"member", "seg", "segtitle", "programlisting", "screen", "literallayout",
)

var listItemTags = set("listitem", "step", "stepalternatives", "member")

var numerations = map[string]string{
	"upperalpha": "upper-alpha",
	"loweralpha": "lower-alpha",
	"upperroman": "upper-roman",
	"lowerroman": "lower-roman",
}

// Media objects: the data child element, the supported formats and the
// mime type prefix.
var mediaTags = map[string]struct {
	data    string
	formats []string
	mime    string
}{
	"audioobject": {"audiodata", []string{"x-wav", "mpeg", "ogg", "webm"}, "audio/"},
	"imageobject": {"imagedata", []string{"gif", "png", "jpeg", "jpg", "svg"}, "image/"},
	"videoobject": {"videodata", []string{"ogg", "webm", "mp4"}, "video/"},
}

var sectRe = regexp.MustCompile(`^sect[1-5]$`)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

type converter struct {
	report *parse.Report
	seen   map[string]bool
	// level is the heading level of the innermost recursive section.
	level int
}

func (c *converter) warnOnce(msg string) {
	if c.seen[msg] {
		return
	}
	c.seen[msg] = true
	c.report.AddWarning("%s", msg)
}

// children converts the content of n, leaving out skip.
func (c *converter) children(n *xmlquery.Node, skip ...*xmlquery.Node) []dom.Node {
	keepBlank := mixedTags[n.Data] || inlineTags[n.Data]
	var out []dom.Node
next:
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		for _, s := range skip {
			if child == s {
				continue next
			}
		}
		switch child.Type {
		case xmlquery.ElementNode:
			out = append(out, c.element(child)...)
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if keepBlank || strings.TrimSpace(child.Data) != "" {
				out = append(out, dom.Text(child.Data))
			}
		}
	}
	return out
}

// copy converts n into the element local, keeping its standard attributes.
func (c *converter) copy(local string, n *xmlquery.Node, skip ...*xmlquery.Node) *dom.Element {
	el := dom.Elem(local, c.children(n, skip...)...)
	standard(n, el)
	return el
}

// standard carries xml:id and xml:lang over to el.
func standard(n *xmlquery.Node, el *dom.Element) {
	if id := nsAttr(n, dom.XMLNS, "xml", "id"); id != "" {
		el.SetAttr(dom.AttrID, id)
	}
	if lang := nsAttr(n, dom.XMLNS, "xml", "lang"); lang != "" {
		el.SetAttr(dom.XMLNS.Name("lang"), lang)
	}
}

func classed(el *dom.Element, class string) *dom.Element {
	el.AddClass(class)
	return el
}

func one(e *dom.Element) []dom.Node {
	if e == nil {
		return nil
	}
	return []dom.Node{e}
}

func (c *converter) element(n *xmlquery.Node) []dom.Node {
	if !inDocBook(n) {
		c.warnOnce("element in unknown namespace " + n.NamespaceURI + " dropped")
		return nil
	}
	name := n.Data

	switch {
	case sectRe.MatchString(name):
		level, _ := strconv.Atoi(name[4:])
		return c.section(n, level)
	case inlineTags[name]:
		return one(classed(c.copy("span", n), "db-"+name))
	case blockTags[name]:
		return one(classed(c.copy("div", n), "db-"+name))
	case simpleTags[name] != "":
		el := c.copy(simpleTags[name], n)
		if name == "programlisting" {
			if lang := attr(n, "language"); lang != "" {
				el.SetAttr(dom.AttrLanguage, lang)
			}
		}
		return one(el)
	case ignoredTags[name]:
		c.warnOnce("Ignored tag: " + name)
		return nil
	case admonitionTags[name]:
		el := c.copy("admonition", n)
		el.SetAttr(dom.AttrType, name)
		return one(el)
	}

	switch name {
	case "section":
		c.level++
		defer func() { c.level-- }()
		return c.section(n, c.level)
	case "blockquote":
		return one(c.blockquote(n))
	case "emphasis":
		if role := attr(n, "role"); role == "bold" || role == "strong" {
			return one(c.copy("strong", n))
		}
		return one(c.copy("emphasis", n))
	case "entrytbl":
		return one(dom.Elem("table-cell", c.copy("table", n)))
	case "footnote":
		note := dom.Elem("note", c.copy("note-body", n))
		note.SetAttr(dom.AttrNoteClass, "footnote")
		return one(note)
	case "formalpara":
		return c.formalpara(n)
	case "informalequation", "informalexample", "informalfigure":
		return one(classed(c.copy("div", n), "db-"+strings.TrimPrefix(name, "informal")))
	case "inlineequation":
		return one(classed(c.copy("span", n), "db-equation"))
	case "inlinemediaobject":
		return one(classed(dom.Elem("span", c.media(n)), "db-inlinemediaobject"))
	case "mediaobject":
		return one(classed(dom.Elem("div", c.media(n)), "db-mediaobject"))
	case "itemizedlist", "simplelist":
		return one(c.list(n, "unordered"))
	case "orderedlist":
		list := c.list(n, "ordered")
		if style, ok := numerations[attr(n, "numeration")]; ok {
			list.SetAttr(dom.AttrListStyleType, style)
		}
		return one(list)
	case "procedure", "substeps":
		return one(c.list(n, "ordered"))
	case "segmentedlist":
		return one(c.segmentedList(n))
	case "qandaset":
		return c.qandaset(n)
	case "link":
		return c.link(n)
	case "ulink":
		return c.ulink(n)
	case "olink":
		return c.olink(n)
	case "literallayout":
		return one(classed(c.copy("blockcode", n), "db-literallayout"))
	case "sbr":
		return one(dom.Elem("line-break"))
	case "subscript", "superscript":
		el := c.copy("span", n)
		el.SetAttr(dom.AttrBaselineShift, strings.TrimSuffix(name, "script"))
		return one(el)
	case "table", "informaltable":
		return one(c.table(n))
	case "tag":
		return one(c.tag(n))
	case "trademark":
		return one(c.trademark(n))
	case "entry":
		return one(c.cell(n, "morerows", "morecols", 1))
	case "td", "th":
		el := c.cell(n, "rowspan", "colspan", 0)
		if name == "th" {
			el.AddClass("moin-thead")
		}
		return one(el)
	}
	return c.children(n)
}

// title returns the DocBook title child of n, or nil.
func title(n *xmlquery.Node) *xmlquery.Node {
	for _, child := range elements(n) {
		if child.Data == "title" && inDocBook(child) {
			return child
		}
	}
	return nil
}

// section gives a heading from the section title followed by the section
// content.
func (c *converter) section(n *xmlquery.Node, level int) []dom.Node {
	if level > 6 {
		level = 6
	}
	h := dom.Elem("h")
	h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(level))
	standard(n, h)
	t := title(n)
	if t != nil {
		h.Append(c.children(t)...)
	}
	return append([]dom.Node{h}, c.children(n, t)...)
}

// blockquote records the attribution as the source of the quote.
func (c *converter) blockquote(n *xmlquery.Node) *dom.Element {
	var attribution *xmlquery.Node
	for _, child := range elements(n) {
		if child.Data == "attribution" {
			attribution = child
		}
	}
	el := c.copy("blockquote", n, attribution)
	if attribution != nil {
		el.SetAttr(dom.Moin.Name("source"), strings.TrimSpace(attribution.InnerText()))
	}
	return el
}

// formalpara gives a paragraph titled with the formalpara title.
func (c *converter) formalpara(n *xmlquery.Node) []dom.Node {
	var t, para *xmlquery.Node
	for _, child := range elements(n) {
		switch child.Data {
		case "title":
			t = child
		case "para":
			para = child
		}
	}
	if t == nil || para == nil {
		c.report.AddWarning("formalpara without title or para")
		return c.children(n)
	}
	p := c.copy("p", para)
	p.SetAttr(dom.HTMLTitle, strings.TrimSpace(t.InnerText()))
	return one(p)
}

func (c *converter) list(n *xmlquery.Node, generate string) *dom.Element {
	list := dom.Elem("list")
	list.SetAttr(dom.AttrItemLabelGenerate, generate)
	standard(n, list)
	for _, child := range elements(n) {
		if listItemTags[child.Data] {
			list.Append(dom.Elem("list-item", dom.Elem("list-item-body", c.children(child)...)))
			continue
		}
		list.Append(c.element(child)...)
	}
	return list
}

// segmentedList repeats the segment titles as labels of every segment.
func (c *converter) segmentedList(n *xmlquery.Node) *dom.Element {
	list := dom.Elem("list")
	var labels [][]dom.Node
	for _, child := range elements(n) {
		switch child.Data {
		case "segtitle":
			labels = append(labels, c.children(child))
		case "seglistitem":
			i := 0
			for _, seg := range elements(child) {
				if seg.Data != "seg" {
					list.Append(c.element(seg)...)
					continue
				}
				item := dom.Elem("list-item")
				if len(labels) > 0 {
					item.Append(dom.Elem("list-item-label", cloneNodes(labels[i%len(labels)])...))
				}
				item.Append(dom.Elem("list-item-body", c.children(seg)...))
				list.Append(item)
				i++
			}
		default:
			list.Append(c.element(child)...)
		}
	}
	return list
}

func cloneNodes(nodes []dom.Node) []dom.Node {
	out := make([]dom.Node, len(nodes))
	for i, n := range nodes {
		if el, ok := n.(*dom.Element); ok {
			out[i] = el.Clone()
		} else {
			out[i] = n
		}
	}
	return out
}

// qandaset numbers entries for defaultlabel="number" and labels questions
// and answers for defaultlabel="qanda".
func (c *converter) qandaset(n *xmlquery.Node) []dom.Node {
	mode := attr(n, "defaultlabel")
	if mode != "number" && mode != "qanda" {
		return c.children(n)
	}
	list := dom.Elem("list")
	if mode == "number" {
		list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
	}
	for _, entry := range elements(n) {
		if entry.Data != "qandaentry" {
			list.Append(c.element(entry)...)
			continue
		}
		body := dom.Elem("list-item-body")
		for _, part := range elements(entry) {
			label := map[string]string{"question": "Q:", "answer": "A:"}[part.Data]
			switch {
			case label == "":
				list.Append(c.element(part)...)
			case mode == "number":
				body.Append(c.children(part)...)
			default:
				list.Append(dom.Elem("list-item",
					dom.Elem("list-item-label", dom.Text(label)),
					dom.Elem("list-item-body", c.children(part)...)))
			}
		}
		if mode == "number" {
			list.Append(dom.Elem("list-item", body))
		}
	}
	return one(list)
}

// href gives wiki-local targets for scheme-less links. ok is false for
// disallowed schemes.
func (c *converter) href(target string) (string, bool) {
	if !parse.AllowedScheme(target) {
		c.report.AddWarning("link with disallowed scheme %s removed", parse.Scheme(target))
		return "", false
	}
	if parse.Scheme(target) == "" && !strings.HasPrefix(target, "#") {
		return "wiki.local:" + target, true
	}
	return target, true
}

func (c *converter) anchor(n *xmlquery.Node, target string) []dom.Node {
	href, ok := c.href(target)
	if !ok {
		return c.children(n)
	}
	a := c.copy("a", n)
	a.SetAttr(dom.XLinkHref, href)
	return one(a)
}

func (c *converter) link(n *xmlquery.Node) []dom.Node {
	target := nsAttr(n, dom.XLink, "xlink", "href")
	if end := attr(n, "linkend"); end != "" {
		target = "#" + end
	}
	out := c.anchor(n, target)
	if title := nsAttr(n, dom.XLink, "xlink", "title"); title != "" && len(out) == 1 {
		if a, ok := out[0].(*dom.Element); ok && a.Is("a") {
			a.SetAttr(dom.HTMLTitle, title)
		}
	}
	return out
}

// ulink is DocBook 4 only. Its url attribute may be namespaced.
func (c *converter) ulink(n *xmlquery.Node) []dom.Node {
	var url string
	for _, a := range n.Attr {
		if a.Name.Local == "url" {
			url = a.Value
		}
	}
	if url == "" {
		return c.children(n)
	}
	return c.anchor(n, url)
}

func (c *converter) olink(n *xmlquery.Node) []dom.Node {
	doc, ptr := attr(n, "targetdoc"), attr(n, "targetptr")
	if doc == "" || ptr == "" {
		return c.children(n)
	}
	return c.anchor(n, doc+"#"+ptr)
}

// media picks the first data element of a supported format and gives an
// object for it. Without one, the textobject alternative is used.
func (c *converter) media(n *xmlquery.Node) dom.Node {
	var data, textObject, caption *xmlquery.Node
	mime := ""
	for _, child := range elements(n) {
		if kind, ok := mediaTags[child.Data]; ok && data == nil {
			for _, d := range elements(child) {
				if d.Data != kind.data {
					continue
				}
				format := strings.ToLower(attr(d, "format"))
				if format == "" || contains(kind.formats, format) {
					data, mime = d, kind.mime
					break
				}
			}
		}
		switch child.Data {
		case "textobject":
			textObject = child
		case "caption":
			caption = child
		}
	}

	if data == nil || attr(data, "fileref") == "" {
		if textObject == nil {
			return nil
		}
		return dom.Elem("p", c.children(textObject)...)
	}

	href := attr(data, "fileref")
	var obj *dom.Element
	if strings.Contains(href, "://") {
		obj = dom.Elem("object")
		obj.SetAttr(dom.XLinkHref, href)
	} else {
		obj = dom.New(dom.XIncludeElement, nil)
		obj.SetAttr(dom.XIncludeHref, "wiki.local:"+href)
	}
	obj.SetAttr(dom.HTMLAlt, href)
	if format := strings.ToLower(attr(data, "format")); format != "" {
		obj.SetAttr(dom.AttrType, mime+format)
	}
	switch align := attr(data, "align"); align {
	case "left", "center", "right", "top", "middle", "bottom":
		obj.SetAttr(dom.AttrClass, align)
	}
	if caption == nil {
		return obj
	}
	return dom.Elem("span", obj, classed(dom.Elem("span", c.children(caption)...), "db-caption"))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// table keeps only element content; a title becomes the table title.
func (c *converter) table(n *xmlquery.Node) *dom.Element {
	table := dom.Elem("table")
	standard(n, table)
	for _, child := range elements(n) {
		if child.Data == "title" {
			table.SetAttr(dom.HTMLTitle, strings.TrimSpace(child.InnerText()))
			continue
		}
		table.Append(c.element(child)...)
	}
	return table
}

// cell converts a table entry. DocBook entries count extra rows and columns,
// so offset is added to the span attributes.
func (c *converter) cell(n *xmlquery.Node, rowsKey, colsKey string, offset int) *dom.Element {
	el := c.copy("table-cell", n)
	if v, err := strconv.Atoi(attr(n, rowsKey)); err == nil {
		el.SetAttr(dom.AttrRowSpan, strconv.Itoa(v+offset))
	}
	if v, err := strconv.Atoi(attr(n, colsKey)); err == nil {
		el.SetAttr(dom.AttrColSpan, strconv.Itoa(v+offset))
	}
	return el
}

func (c *converter) tag(n *xmlquery.Node) *dom.Element {
	class := "db-tag"
	if v := attr(n, "class"); v != "" {
		class += "-" + v
	}
	span := classed(dom.Elem("span"), class)
	if ns := attr(n, "namespace"); ns != "" {
		span.AppendText("{" + ns + "}")
	}
	span.Append(c.children(n)...)
	return span
}

func (c *converter) trademark(n *xmlquery.Node) *dom.Element {
	span := classed(dom.Elem("span"), "db-trademark")
	switch attr(n, "class") {
	case "copyright":
		span.AppendText("© ")
		span.Append(c.children(n)...)
	case "registered":
		span.Append(c.children(n)...)
		span.AppendText("®")
	case "trade":
		span.Append(c.children(n)...)
		span.AppendText("™")
	case "service":
		span.Append(c.children(n)...)
		sm := dom.Elem("span", dom.Text("SM"))
		sm.SetAttr(dom.AttrBaselineShift, "super")
		span.Append(sm)
	default:
		span.Append(c.children(n)...)
	}
	return span
}
