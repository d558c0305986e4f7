// Package text serializes the document tree as plain text.
package text

import (
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render"
)

// Serializer converts documents to plain text: blocks are separated by
// blank lines, list items are prefixed and indented by depth, table cells
// are tab separated and footnotes are listed at the end.
type Serializer struct {
	depth int
	notes []string
}

// New returns a Serializer.
func New() *Serializer {
	return &Serializer{}
}

// Serialize implements render.Serializer.
func (s *Serializer) Serialize(doc *dom.Element) (string, error) {
	s.depth = 0
	s.notes = nil

	out := s.block(doc)
	if len(s.notes) > 0 {
		var sb strings.Builder
		sb.WriteString("\n\n")
		for i, n := range s.notes {
			sb.WriteString("[" + strconv.Itoa(i+1) + "] " + n + "\n")
		}
		out += sb.String()
	}
	out = strings.Trim(render.CollapseBlankLines(out), "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

func (s *Serializer) children(e *dom.Element) string {
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

// block renders e; block elements are padded with blank lines, which the
// final pass collapses.
func (s *Serializer) block(e *dom.Element) string {
	if e.Name.Space != dom.Moin {
		return s.children(e)
	}
	switch e.Name.Local {
	case "p", "h", "blockquote", "div", "admonition":
		return "\n\n" + strings.TrimSpace(s.children(e)) + "\n\n"
	case "blockcode":
		return "\n\n" + e.Text() + "\n\n"
	case "separator":
		return "\n\n----\n\n"
	case "line-break":
		return "\n"
	case "list":
		return "\n\n" + s.list(e) + "\n\n"
	case "table":
		return "\n\n" + s.table(e) + "\n\n"
	case "note":
		body := e.First("note-body")
		if body == nil {
			return ""
		}
		s.notes = append(s.notes, strings.TrimSpace(s.children(body)))
		return "[" + strconv.Itoa(len(s.notes)) + "]"
	case "part", "inline-part":
		if body := render.PartBody(e); body != nil {
			if e.Is("part") {
				return "\n\n" + s.children(body) + "\n\n"
			}
			return s.children(body)
		}
		return e.Attr(dom.AttrAlt)
	case "arguments", "block-comment", "table-of-content", "caption":
		return ""
	case "object":
		if !e.Empty() {
			return s.children(e)
		}
		if alt := e.Attr(dom.HTMLAlt); alt != "" {
			return alt
		}
		return render.LinkTarget(e.Attr(dom.XLinkHref))
	}
	return s.children(e)
}

func (s *Serializer) list(e *dom.Element) string {
	s.depth++
	defer func() { s.depth-- }()

	indent := strings.Repeat("  ", s.depth-1)
	kind := render.ListKind(e)
	num := 1
	if n, err := strconv.Atoi(e.Attr(dom.AttrListStart)); err == nil {
		num = n
	}

	var lines []string
	for _, item := range e.Elements() {
		if !item.Is("list-item") {
			continue
		}
		var label, body string
		var nested []string
		for _, part := range item.Elements() {
			switch {
			case part.Is("list-item-label"):
				label = strings.TrimSpace(s.children(part))
			case part.Is("list-item-body"):
				body, nested = s.itemBody(part)
			}
		}

		switch kind {
		case "definition":
			if label != "" {
				lines = append(lines, indent+label)
			}
			if body != "" {
				lines = append(lines, indent+"  "+indentLines(body, indent+"  "))
			}
		case "ordered":
			prefix := strconv.Itoa(num) + ". "
			num++
			lines = append(lines, indent+prefix+indentLines(body, indent+strings.Repeat(" ", len(prefix))))
		default:
			lines = append(lines, indent+"* "+indentLines(body, indent+"  "))
		}
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

// itemBody splits a list item body into its own text and the lines of the
// lists nested in it.
func (s *Serializer) itemBody(e *dom.Element) (string, []string) {
	var sb strings.Builder
	var nested []string
	for _, c := range e.Children {
		switch n := c.(type) {
		case dom.Text:
			sb.WriteString(string(n))
		case *dom.Element:
			if n.Is("list") {
				nested = append(nested, s.list(n))
				continue
			}
			sb.WriteString(s.block(n))
		}
	}
	body := strings.TrimSpace(render.CollapseBlankLines(sb.String()))
	return body, nested
}

func indentLines(s, indent string) string {
	return strings.ReplaceAll(s, "\n", "\n"+indent)
}

func (s *Serializer) table(e *dom.Element) string {
	var rows []string
	for _, row := range dom.Find(e, dom.Named("table-row")) {
		var cells []string
		for _, cell := range row.Elements() {
			text := strings.TrimSpace(s.children(cell))
			cells = append(cells, strings.ReplaceAll(render.CollapseBlankLines(text), "\n", " "))
		}
		rows = append(rows, strings.Join(cells, "\t"))
	}
	return strings.Join(rows, "\n")
}
