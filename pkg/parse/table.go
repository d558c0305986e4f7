package parse

import (
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// wordBreakLen is the length beyond which a single-word cell gets the
// moin-wordbreak class.
const wordBreakLen = 30

// BuildTable builds a table from string rows. When head is non-nil it
// becomes the table header.
func BuildTable(rows [][]string, head []string, class string) *dom.Element {
	table := dom.Elem("table")
	if class != "" {
		table.SetAttr(dom.AttrClass, class)
	}

	if head != nil {
		header := dom.Elem("table-header")
		row := dom.Elem("table-row")
		for i, text := range head {
			cell := dom.Elem("table-cell", dom.Text(text))
			if len(rows) > 0 && len(rows[0]) == len(head) && IsNumeric(rows[0][i]) {
				cell.SetAttr(dom.AttrClass, "moin-integer")
			}
			row.Append(cell)
		}
		header.Append(row)
		table.Append(header)
	}

	body := dom.Elem("table-body")
	for _, r := range rows {
		row := dom.Elem("table-row")
		for _, text := range r {
			cell := dom.Elem("table-cell", dom.Text(text))
			switch {
			case IsNumeric(text):
				cell.SetAttr(dom.AttrClass, "moin-integer")
			case len(strings.Fields(text)) == 1 && len(text) > wordBreakLen:
				cell.SetAttr(dom.AttrClass, "moin-wordbreak")
			}
			row.Append(cell)
		}
		body.Append(row)
	}
	table.Append(body)
	return table
}

// IsNumeric reports whether s parses as a number.
func IsNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
