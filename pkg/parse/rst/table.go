package rst

import (
	"slices"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

type gridCell struct {
	top, left, bottom, right int
}

// gridTable parses a +---+ bordered table starting at line i.
func (s *state) gridTable(lines []string, i int, parent *dom.Element) int {
	j := i
	for j < len(lines) && lines[j] != "" && (lines[j][0] == '+' || lines[j][0] == '|') {
		j++
	}
	if table := s.buildGrid(lines[i:j]); table != nil {
		parent.Append(table)
	} else {
		s.report.AddWarning("malformed grid table at line %d", i+1)
		parent.Append(dom.Elem("blockcode", dom.Text(strings.Join(lines[i:j], "\n"))))
	}
	return j
}

// buildGrid finds the cells of a grid by walking from each known top-left
// corner to the nearest closed rectangle.
func (s *state) buildGrid(text []string) *dom.Element {
	width := 0
	grid := make([][]rune, len(text))
	for r, l := range text {
		grid[r] = []rune(l)
		width = max(width, len(grid[r]))
	}
	for r := range grid {
		for len(grid[r]) < width {
			grid[r] = append(grid[r], ' ')
		}
	}
	height := len(grid)
	if height < 2 || grid[0][0] != '+' {
		return nil
	}
	at := func(r, c int) rune { return grid[r][c] }

	headerRow := -1
	for r := 1; r < height; r++ {
		if at(r, 0) == '+' && strings.Contains(string(grid[r]), "=") {
			headerRow = r
			break
		}
	}

	scanUp := func(top, bottom, left int) bool {
		for r := bottom - 1; r > top; r-- {
			if c := at(r, left); c != '|' && c != '+' {
				return false
			}
		}
		return true
	}
	scanLeft := func(bottom, right, left int) bool {
		for c := right - 1; c > left; c-- {
			if ch := at(bottom, c); ch != '-' && ch != '=' && ch != '+' {
				return false
			}
		}
		return at(bottom, left) == '+'
	}
	scanDown := func(top, right, left int) (int, bool) {
		for r := top + 1; r < height; r++ {
			switch at(r, right) {
			case '+':
				if scanLeft(r, right, left) && scanUp(top, r, left) {
					return r, true
				}
			case '|':
			default:
				return 0, false
			}
		}
		return 0, false
	}
	scanCell := func(top, left int) (gridCell, bool) {
		for c := left + 1; c < width; c++ {
			switch at(top, c) {
			case '+':
				if bottom, ok := scanDown(top, c, left); ok {
					return gridCell{top, left, bottom, c}, true
				}
			case '-', '=':
			default:
				return gridCell{}, false
			}
		}
		return gridCell{}, false
	}

	var cells []gridCell
	seen := map[[2]int]bool{}
	queue := [][2]int{{0, 0}}
	for len(queue) > 0 {
		corner := queue[0]
		queue = queue[1:]
		if seen[corner] {
			continue
		}
		seen[corner] = true
		top, left := corner[0], corner[1]
		if top >= height-1 || left >= width-1 {
			continue
		}
		cell, ok := scanCell(top, left)
		if !ok {
			continue
		}
		cells = append(cells, cell)
		queue = append(queue, [2]int{cell.top, cell.right}, [2]int{cell.bottom, cell.left})
	}
	if len(cells) == 0 {
		return nil
	}

	var rowBounds, colBounds []int
	for _, c := range cells {
		rowBounds = append(rowBounds, c.top, c.bottom)
		colBounds = append(colBounds, c.left, c.right)
	}
	slices.Sort(rowBounds)
	rowBounds = slices.Compact(rowBounds)
	slices.Sort(colBounds)
	colBounds = slices.Compact(colBounds)
	index := func(bounds []int, v int) int {
		i, _ := slices.BinarySearch(bounds, v)
		return i
	}

	slices.SortFunc(cells, func(a, b gridCell) int {
		if a.top != b.top {
			return a.top - b.top
		}
		return a.left - b.left
	})

	head := dom.Elem("table-header")
	body := dom.Elem("table-body")
	var row *dom.Element
	rowTop := -1
	for _, c := range cells {
		if c.top != rowTop {
			row = dom.Elem("table-row")
			if headerRow >= 0 && c.bottom <= headerRow {
				head.Append(row)
			} else {
				body.Append(row)
			}
			rowTop = c.top
		}
		var content []string
		for r := c.top + 1; r < c.bottom; r++ {
			content = append(content, strings.TrimRight(string(grid[r][c.left+1:c.right]), " "))
		}
		cell := dom.Elem("table-cell")
		if span := index(rowBounds, c.bottom) - index(rowBounds, c.top); span > 1 {
			cell.SetAttr(dom.AttrRowSpan, strconv.Itoa(span))
		}
		if span := index(colBounds, c.right) - index(colBounds, c.left); span > 1 {
			cell.SetAttr(dom.AttrColSpan, strconv.Itoa(span))
		}
		s.blocks(dedent(content, minIndent(content)), cell)
		row.Append(cell)
	}

	table := dom.Elem("table")
	if len(head.Children) > 0 {
		table.Append(head)
	}
	table.Append(body)
	return table
}

// simpleTable parses a table framed by "=====  =====" borders. A row whose
// first column is blank continues the previous row.
func (s *state) simpleTable(lines []string, i int, parent *dom.Element) int {
	var starts []int
	border := []rune(lines[i])
	for c, r := range border {
		if r == '=' && (c == 0 || border[c-1] == ' ') {
			starts = append(starts, c)
		}
	}
	split := func(line string) [][]string {
		rs := []rune(line)
		cells := make([][]string, len(starts))
		for k, start := range starts {
			end := len(rs)
			if k+1 < len(starts) {
				end = min(starts[k+1], len(rs))
			}
			text := ""
			if start < len(rs) {
				text = strings.TrimSpace(string(rs[start:end]))
			}
			cells[k] = []string{text}
		}
		return cells
	}

	var header, rows [][][]string
	j := i + 1
	for ; j < len(lines); j++ {
		line := lines[j]
		if simpleBorderRe.MatchString(line) {
			if j+1 == len(lines) || blank(lines[j+1]) {
				j++
				break
			}
			header, rows = rows, nil
			continue
		}
		if blank(line) {
			continue
		}
		cells := split(line)
		if len(rows) > 0 && cells[0][0] == "" {
			last := rows[len(rows)-1]
			for k := range cells {
				if cells[k][0] != "" {
					last[k] = append(last[k], cells[k][0])
				}
			}
			continue
		}
		rows = append(rows, cells)
	}

	build := func(group *dom.Element, rows [][][]string) {
		for _, r := range rows {
			row := dom.Elem("table-row")
			for _, c := range r {
				cell := dom.Elem("table-cell")
				s.blocks(c, cell)
				row.Append(cell)
			}
			group.Append(row)
		}
	}
	table := dom.Elem("table")
	if len(header) > 0 {
		head := dom.Elem("table-header")
		build(head, header)
		table.Append(head)
	}
	body := dom.Elem("table-body")
	build(body, rows)
	table.Append(body)
	parent.Append(table)
	return j
}
