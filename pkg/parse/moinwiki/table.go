package moinwiki

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

const wikiTableClass = "moin-wiki-table"

func (s *state) blockTable(m parse.Match) {
	st := s.cur.stack
	st.Clear()

	table := dom.Elem("table")
	table.SetAttr(dom.AttrClass, wikiTableClass)
	st.Push(table)
	st.Push(dom.Elem("table-body"))
	s.tableRow(m.Group("table"), st, table)

	for {
		line, ok := s.cur.it.Next()
		if !ok {
			break
		}
		if row := tableRe.FindStringSubmatch(line); row != nil {
			s.tableRow(row[tableRe.SubexpIndex("table")], st, table)
			continue
		}
		if tableSepRe.MatchString(line) {
			// html output turns multiple bodies into thead, tbody and tfoot
			st.Pop()
			st.Push(dom.Elem("table-body"))
			continue
		}
		s.cur.it.Push(line)
		break
	}
}

func (s *state) tableRow(content string, st *parse.Stack, table *dom.Element) {
	row := dom.Elem("table-row")
	st.Push(row)
	for _, c := range splitCells(content) {
		s.tableCell(c, st, table, row)
	}
	st.PopName("table-row")
}

// cell is one cell of a table row in source form.
type cell struct {
	markers int
	args    string
	hasArgs bool
	text    string
}

// splitCells splits the content of a row, which starts with a cell marker
// and lacks the final one. Separators inside [[links]] and {{objects}} do
// not end a cell.
func splitCells(content string) []cell {
	var cells []cell
	i := 0
	for i < len(content) {
		var c cell
		for strings.HasPrefix(content[i:], "||") {
			c.markers++
			i += 2
		}
		if i < len(content) && content[i] == '<' {
			if j := strings.IndexAny(content[i+1:], "<>"); j >= 0 && content[i+1+j] == '>' {
				c.args, c.hasArgs = content[i+1:i+1+j], true
				i += j + 2
			}
		}
		start := i
		for i < len(content) && !strings.HasPrefix(content[i:], "||") {
			switch {
			case strings.HasPrefix(content[i:], "[["):
				i = skipPast(content, i+2, "]]")
			case strings.HasPrefix(content[i:], "{{"):
				i = skipPast(content, i+2, "}}")
			default:
				i++
			}
		}
		c.text = content[start:i]
		cells = append(cells, c)
	}
	return cells
}

// skipPast returns the offset after the first close at or after from, or
// from when there is none.
func skipPast(s string, from int, close string) int {
	if j := strings.Index(s[from:], close); j >= 0 {
		return from + j + len(close)
	}
	return from
}

var cellArgRe = regexp.MustCompile(`-(?P<colspan>\d+)` +
	`|\|(?P<rowspan>\d+)` +
	`|(?P<width>\d+%)` +
	`|(?P<bottom>v)` +
	`|(?P<top>\^)` +
	`|(?P<left>\()` +
	`|(?P<center>:)` +
	`|(?P<right>\))` +
	`|(?:(?P<key>[-\pL\pN_]+)=)?(?:(?P<value_u>[-\pL\pN_]+)|"(?P<value_q1>(?:\\.|[^"\\])*)"|'(?P<value_q2>(?:\\.|[^'\\])*)')` +
	`|#(?P<hex>[A-Fa-f0-9]{3}(?:[A-Fa-f0-9]{3})?)` +
	`|(?P<error>\S+?)`)

var cellKeyAliases = map[string]string{
	"colspan": "number-columns-spanned",
	"rowspan": "number-rows-spanned",
}

var quoteUnescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`)

// cellArg is one parsed cell directive. An empty key marks a positional
// value.
type cellArg struct {
	key, value string
}

// cellArgs holds directives in source order; a repeated key keeps its first
// position.
type cellArgs []cellArg

func (a *cellArgs) set(key, value string) {
	for i := range *a {
		if (*a)[i].key == key && key != "" {
			(*a)[i].value = value
			return
		}
	}
	*a = append(*a, cellArg{key, value})
}

func (a *cellArgs) addStyle(style string) {
	for i := range *a {
		if (*a)[i].key == "style" {
			(*a)[i].value += style + " "
			return
		}
	}
	*a = append(*a, cellArg{"style", style + " "})
}

func parseCellArgs(text string) cellArgs {
	var out cellArgs
	for _, loc := range cellArgRe.FindAllStringSubmatchIndex(text, -1) {
		m := parse.NewMatch(cellArgRe, text, 0, loc)
		switch {
		case m.Has("colspan"):
			out.set("number-columns-spanned", m.Group("colspan"))
		case m.Has("rowspan"):
			out.set("number-rows-spanned", m.Group("rowspan"))
		case m.Has("width"):
			out.addStyle("width: " + m.Group("width") + ";")
		case m.Has("bottom"):
			out.addStyle("vertical-align: bottom;")
		case m.Has("top"):
			out.addStyle("vertical-align: top;")
		case m.Has("left"):
			out.addStyle("text-align: left;")
		case m.Has("center"):
			out.addStyle("text-align: center;")
		case m.Has("right"):
			out.addStyle("text-align: right;")
		case m.Has("hex"):
			out.addStyle("background-color: #" + m.Group("hex") + ";")
		case m.Has("error"):
			out.set("error", m.Group("error"))
		default:
			value := m.Group("value_u") + m.Group("value_q1") + m.Group("value_q2")
			value = quoteUnescaper.Replace(value)
			key := m.Group("key")
			if alias, ok := cellKeyAliases[key]; ok {
				key = alias
			}
			if key == "" {
				out = append(out, cellArg{"", value})
				continue
			}
			out.set(key, value)
		}
	}
	return out
}

// addStyle appends a declaration to the style attribute of e.
func addStyle(e *dom.Element, decl string) {
	decl = strings.TrimSpace(decl)
	if !strings.HasSuffix(decl, ";") {
		decl += ";"
	}
	if cur := e.Attr(dom.AttrStyle); cur != "" {
		decl = cur + " " + decl
	}
	e.SetAttr(dom.AttrStyle, decl)
}

func (s *state) tableCell(c cell, st *parse.Stack, table, row *dom.Element) {
	el := dom.Elem("table-cell")
	st.Push(el)
	if c.markers > 1 {
		el.SetAttr(dom.AttrColSpan, strconv.Itoa(c.markers))
	}

	text := strings.TrimSpace(c.text)
	if c.hasArgs && c.args != "" {
		ok := true
		for _, a := range parseCellArgs(c.args) {
			switch a.key {
			case "bgcolor":
				if ok {
					addStyle(el, "background-color: "+a.value+";")
				}
			case "rowbgcolor":
				addStyle(row, "background-color: "+a.value+";")
			case "tablebgcolor":
				addStyle(table, "background-color: "+a.value+";")
			case "width":
				addStyle(el, "width: "+a.value+";")
			case "tablewidth":
				addStyle(table, "width: "+a.value+";")
			case "caption":
				table.Children = append([]dom.Node{dom.Elem("caption", dom.Text(a.value))}, table.Children...)
			case "tableclass":
				table.SetAttr(dom.AttrClass, a.value+" "+wikiTableClass)
			case "rowclass":
				row.SetAttr(dom.AttrClass, a.value)
			case "class":
				el.SetAttr(dom.AttrClass, a.value)
			case "tablestyle":
				addStyle(table, a.value)
			case "rowstyle":
				addStyle(row, a.value)
			case "style":
				if ok {
					addStyle(el, a.value)
				}
			case "tableid":
				table.SetAttr(dom.AttrID, a.value)
			case "rowid":
				row.SetAttr(dom.AttrID, a.value)
			case "id":
				el.SetAttr(dom.AttrID, a.value)
			case "number-columns-spanned":
				el.SetAttr(dom.AttrColSpan, a.value)
			case "number-rows-spanned":
				el.SetAttr(dom.AttrRowSpan, a.value)
			default:
				bad := a.key
				if a.key == "error" || a.key == "" {
					bad = a.value
				}
				s.report.AddWarning("invalid table cell directive %q in <%s>", bad, c.args)
				text = `[ Error: "` + bad + `" is invalid within <` + c.args + `>&nbsp;]<<BR>>` + text
				if ok {
					addStyle(el, "background-color: pink; color: black;")
				}
				ok = false
			}
		}
	}

	s.parseInline(text, st, s.inline)
	st.PopName("table-cell")
}
