package moinwiki

import (
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

const wikiTableClass = "moin-wiki-table"

// tableMarkup writes rows as ||cell||cell||. Table and row attributes go
// into the prefix of the first cell that follows them; bodies are separated
// by ===== lines.
func (s *Serializer) tableMarkup(e *dom.Element) string {
	saved := s.table
	defer func() { s.table = saved }()

	var classes []string
	for _, c := range strings.Fields(e.Attr(dom.AttrClass)) {
		if c != wikiTableClass {
			classes = append(classes, c)
		}
	}
	s.table = tableState{
		class: strings.Join(classes, " "),
		style: e.Attr(dom.AttrStyle),
		id:    e.Attr(dom.AttrID),
	}
	if c := e.First("caption"); c != nil {
		s.table.caption = strings.TrimSpace(c.Text())
	}

	var lines []string
	var loose []*dom.Element
	for _, child := range e.Elements() {
		switch {
		case child.Is("table-row"):
			loose = append(loose, child)
		case child.Is("table-header"), child.Is("table-body"), child.Is("table-footer"):
			if s.table.bodies > 0 {
				lines = append(lines, "=====")
			}
			s.table.bodies++
			for _, row := range child.Elements() {
				if row.Is("table-row") {
					lines = append(lines, s.row(row))
				}
			}
		}
	}
	for _, row := range loose {
		lines = append(lines, s.row(row))
	}
	return strings.Join(lines, "\n")
}

func (s *Serializer) row(e *dom.Element) string {
	s.table.rowClass = e.Attr(dom.AttrClass)
	s.table.rowStyle = e.Attr(dom.AttrStyle)
	s.table.rowID = e.Attr(dom.AttrID)

	var sb strings.Builder
	for _, cell := range e.Elements() {
		if !cell.Is("table-cell") {
			continue
		}
		sb.WriteString("||")
		if prefix := s.cellPrefix(cell); prefix != "" {
			sb.WriteString("<" + prefix + ">")
		}
		text := strings.TrimSpace(s.inlines(cell))
		sb.WriteString(strings.ReplaceAll(text, "\n", " "))
	}
	sb.WriteString("||")
	return sb.String()
}

// cellPrefix collects the pending table and row attributes and those of the
// cell itself.
func (s *Serializer) cellPrefix(cell *dom.Element) string {
	var args []string
	add := func(key, value string) {
		if value != "" {
			args = append(args, key+"="+quote(value))
		}
	}
	t := &s.table
	add("tableclass", t.class)
	add("tablestyle", t.style)
	add("tableid", t.id)
	add("caption", t.caption)
	add("rowclass", t.rowClass)
	add("rowstyle", t.rowStyle)
	add("rowid", t.rowID)
	t.class, t.style, t.id, t.caption = "", "", "", ""
	t.rowClass, t.rowStyle, t.rowID = "", "", ""

	add("class", cell.Attr(dom.AttrClass))
	add("style", cell.Attr(dom.AttrStyle))
	add("id", cell.Attr(dom.AttrID))
	if n := cell.Attr(dom.AttrColSpan); n != "" {
		args = append(args, "-"+n)
	}
	if n := cell.Attr(dom.AttrRowSpan); n != "" {
		args = append(args, "|"+n)
	}
	return strings.Join(args, " ")
}
