package moinwiki

import (
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render"
)

// orderedMarkers maps list-style-type to the item marker of an ordered list.
var orderedMarkers = map[string]string{
	"lower-alpha": "a.",
	"upper-alpha": "A.",
	"lower-roman": "i.",
	"upper-roman": "I.",
}

func listMarker(e *dom.Element) string {
	style := e.Attr(dom.AttrListStyleType)
	switch render.ListKind(e) {
	case "ordered":
		if m, ok := orderedMarkers[style]; ok {
			return m
		}
		return "1."
	case "definition":
		return "::"
	}
	if style == "no-bullet" {
		return "."
	}
	return "*"
}

// list writes one item per line, indented one space per nesting level.
// Continuation lines of an item keep the item's indentation.
func (s *Serializer) list(e *dom.Element) string {
	s.depth++
	defer func() { s.depth-- }()

	indent := strings.Repeat(" ", s.depth)
	marker := listMarker(e)
	start := e.Attr(dom.AttrListStart)

	var lines []string
	first := true
	for _, item := range e.Elements() {
		if !item.Is("list-item") {
			continue
		}
		m := marker
		if first && start != "" && m != "::" && m != "*" && m != "." {
			m += "#" + start
		}
		first = false

		var label, body string
		var nested []string
		if l := item.First("list-item-label"); l != nil {
			label = strings.TrimSpace(s.inlines(l))
		}
		if b := item.First("list-item-body"); b != nil {
			body, nested = s.itemBody(b)
		}
		body = strings.ReplaceAll(body, "\n", "\n"+indent)

		var line string
		switch {
		case m != "::":
			line = indent + m + " " + body
		case label != "" && body != "":
			line = indent + label + ":: " + body
		case label != "":
			line = indent + label + "::"
		default:
			line = indent + ":: " + body
		}
		lines = append(lines, strings.TrimRight(line, " "))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

// itemBody splits an item body into its own text and its nested lists.
func (s *Serializer) itemBody(e *dom.Element) (string, []string) {
	var sb strings.Builder
	var nested []string
	for _, c := range e.Children {
		switch n := c.(type) {
		case dom.Text:
			sb.WriteString(string(n))
		case *dom.Element:
			switch {
			case n.Is("list"):
				nested = append(nested, s.list(n))
			case n.Is("p"):
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(s.inlines(n))
			default:
				sb.WriteString(s.inline(n))
			}
		}
	}
	return strings.TrimSpace(sb.String()), nested
}
