// Package moinwiki serializes the document tree as wiki markup.
//
// The output parses back, with the wiki parser, into a tree of the same
// block and inline structure. Table, row and cell attributes are written as
// <...> cell prefixes; list nesting is written as indentation.
package moinwiki

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render"
)

// Serializer converts documents to wiki markup. A Serializer carries state
// for one call at a time.
type Serializer struct {
	depth int
	table tableState
}

// tableState holds the table and row attributes not yet written. They go
// into the prefix of the next cell.
type tableState struct {
	class, style, id, caption string
	rowClass, rowStyle, rowID string
	bodies                    int
}

// New returns a Serializer.
func New() *Serializer {
	return &Serializer{}
}

// Serialize implements render.Serializer.
func (s *Serializer) Serialize(doc *dom.Element) (string, error) {
	s.depth = 0
	s.table = tableState{}

	out := render.CollapseBlankLines(s.blocks(doc))
	out = strings.TrimLeft(out, "\n")
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

// blocks renders the children of a block container. Block elements are
// surrounded by blank lines; runs of them collapse afterwards.
func (s *Serializer) blocks(e *dom.Element) string {
	var sb strings.Builder
	for _, c := range e.Children {
		switch n := c.(type) {
		case dom.Text:
			sb.WriteString(string(n))
		case *dom.Element:
			sb.WriteString(s.block(n))
		}
	}
	return sb.String()
}

func (s *Serializer) block(e *dom.Element) string {
	if e.Name == dom.XIncludeElement {
		return s.include(e)
	}
	if e.Name.Space != dom.Moin {
		return s.blocks(e)
	}
	switch e.Name.Local {
	case "page":
		return s.blocks(e)
	case "body":
		return s.blocks(e)
	case "p":
		if render.IsError(e) {
			return ""
		}
		return "\n\n" + s.inlines(e) + "\n\n"
	case "h":
		return "\n\n" + s.heading(e) + "\n\n"
	case "separator":
		return "\n\n" + separator(e) + "\n\n"
	case "blockcode":
		return "\n\n" + blockcode(e) + "\n\n"
	case "block-comment":
		return "\n\n" + e.Text() + "\n\n"
	case "list":
		return "\n\n" + s.list(e) + "\n\n"
	case "table":
		return "\n\n" + s.tableMarkup(e) + "\n\n"
	case "part":
		return "\n\n" + s.part(e) + "\n\n"
	case "table-of-content":
		if level := e.Attr(dom.AttrOutlineLevel); level != "" {
			return "\n\n<<TableOfContents(" + level + ")>>\n\n"
		}
		return "\n\n<<TableOfContents>>\n\n"
	case "div":
		if render.IsError(e) {
			return ""
		}
		if e.HasClass("moin-p") {
			return "\n\n" + s.inlines(e) + "\n\n"
		}
		return "\n\n" + s.blocks(e) + "\n\n"
	case "admonition":
		return "\n\n" + wikiBlock(e.Attr(dom.AttrType), s.sub(e)) + "\n\n"
	case "blockquote":
		return "\n\n" + s.blockquote(e) + "\n\n"
	}
	return s.inline(e)
}

// sub renders the block content of e as a separate document, for nesting
// inside an embedded wiki block.
func (s *Serializer) sub(e *dom.Element) string {
	saved := *s
	defer func() { *s = saved }()
	s.depth = 0
	s.table = tableState{}
	return strings.Trim(render.CollapseBlankLines(s.blocks(e)), "\n")
}

// wikiBlock wraps content in an embedded wiki block with enough braces to
// enclose any closing run it holds.
func wikiBlock(class, content string) string {
	fence := fenceLen(content)
	header := "#!wiki"
	if class != "" {
		header += " " + strings.ReplaceAll(class, " ", "/")
	}
	return strings.Repeat("{", fence) + header + "\n" + content + "\n" + strings.Repeat("}", fence)
}

var closeRuns = regexp.MustCompile(`\}{3,}`)

func fenceLen(text string) int {
	n := 3
	for _, run := range closeRuns.FindAllString(text, -1) {
		n = max(n, len(run)+1)
	}
	return n
}

func blockcode(e *dom.Element) string {
	text := e.Text()
	fence := fenceLen(text)
	open := strings.Repeat("{", fence)
	if lang := e.Attr(dom.AttrLanguage); lang != "" {
		open += "#!highlight " + lang
	}
	return open + "\n" + text + "\n" + strings.Repeat("}", fence)
}

func separator(e *dom.Element) string {
	extra := 0
	if class := e.Attr(dom.AttrClass); strings.HasPrefix(class, "moin-hr") {
		if n, err := strconv.Atoi(strings.TrimPrefix(class, "moin-hr")); err == nil && n >= 1 && n <= 6 {
			extra = n - 1
		}
	}
	return "----" + strings.Repeat("-", extra)
}

func (s *Serializer) heading(e *dom.Element) string {
	level, err := strconv.Atoi(e.Attr(dom.AttrOutlineLevel))
	if err != nil || level < 1 {
		level = 1
	}
	level = min(level, 6)
	marks := strings.Repeat("=", level)
	return marks + " " + strings.TrimSpace(s.inlines(e)) + " " + marks
}

// blockquote is written as a bulletless list, the closest wiki construct.
func (s *Serializer) blockquote(e *dom.Element) string {
	text := strings.TrimSpace(render.CollapseBlankLines(s.blocks(e)))
	var lines []string
	for _, para := range strings.Split(text, "\n\n") {
		lines = append(lines, " . "+strings.ReplaceAll(para, "\n", "<<BR>>"))
	}
	return strings.Join(lines, "\n")
}

// part writes macro calls and embedded blocks back as their source text.
func (s *Serializer) part(e *dom.Element) string {
	if alt := e.Attr(dom.AttrAlt); alt != "" {
		return alt
	}
	if name, ok := render.MacroName(e); ok {
		call := "<<" + name
		if a := e.First("arguments"); a != nil {
			call += "(" + a.Text() + ")"
		}
		return call + ">>"
	}
	if name, ok := render.FormatName(e); ok {
		var content string
		if body := render.PartBody(e); body != nil {
			content = body.Text()
		}
		fence := fenceLen(content)
		return strings.Repeat("{", fence) + "#!" + name + "\n" + content + "\n" + strings.Repeat("}", fence)
	}
	return ""
}

// include writes an xinclude as an Include macro call when it carries an
// xpointer, and as an object otherwise.
func (s *Serializer) include(e *dom.Element) string {
	xp := e.Attr(dom.XIncludeXPointer)
	if !strings.Contains(xp, "page:include(") {
		return s.object(e, e.Attr(dom.XIncludeHref))
	}
	params := parseXPointer(xp)
	target := strings.TrimPrefix(e.Attr(dom.XIncludeHref), "wiki.local:")
	if target == "" {
		target = params["pages"]
	}
	call := target
	if h, ok := params["heading"]; ok {
		call += "," + h
		if l, ok := params["level"]; ok {
			call += "," + l
		}
	}
	keys := []string{"sort", "items", "skipitems"}
	for _, k := range keys {
		if v, ok := params[k]; ok {
			call += `,` + k + `="` + v + `"`
		}
	}
	return "<<Include(" + call + ")>>"
}

// parseXPointer reads the functions of a page:include() pointer, undoing
// the ^ escapes.
func parseXPointer(xp string) map[string]string {
	out := map[string]string{}
	_, rest, ok := strings.Cut(xp, "page:include(")
	if !ok {
		return out
	}
	for {
		rest = strings.TrimLeft(rest, " ")
		open := strings.IndexByte(rest, '(')
		if rest == "" || rest[0] == ')' || open < 0 {
			return out
		}
		name := rest[:open]
		var val strings.Builder
		i := open + 1
		for ; i < len(rest) && rest[i] != ')'; i++ {
			if rest[i] == '^' && i+1 < len(rest) {
				i++
			}
			val.WriteByte(rest[i])
		}
		out[name] = val.String()
		if i >= len(rest) {
			return out
		}
		rest = rest[i+1:]
	}
}

// objectAttrs are the attributes written into the parameter part of
// {{target|alt|params}}.
var objectAttrs = map[dom.QName]string{
	dom.HTMLWidth:  "width",
	dom.HTMLHeight: "height",
	dom.HTMLClass:  "class",
}

func (s *Serializer) object(e *dom.Element, href string) string {
	target, query, _ := strings.Cut(strings.TrimPrefix(href, "wiki.local:"), "?")
	var params []string
	for _, pair := range strings.Split(query, "&") {
		if k, v, ok := strings.Cut(pair, "="); ok && k != "" {
			params = append(params, "&"+k+"="+quote(v))
		}
	}
	var opts []string
	for k, name := range objectAttrs {
		if v, ok := e.Lookup(k); ok {
			opts = append(opts, name+"="+quote(v))
		}
	}
	sort.Strings(opts)
	params = append(params, opts...)

	out := "{{" + target + "|" + e.Attr(dom.HTMLAlt) + "|" + strings.Join(params, " ")
	return strings.TrimRight(out, "|") + "}}"
}

var plainValue = regexp.MustCompile(`^[-\pL\pN_]+$`)

// quote writes an argument value, quoted unless it is a single token.
func quote(v string) string {
	if plainValue.MatchString(v) {
		return v
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
}
