// Package csv parses delimiter separated values into a sortable table. The
// first record is the table header.
package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// TableClass is the class of generated tables.
const TableClass = "moin-csv-table moin-sortable"

// DefaultDelimiter separates fields when no delimiter is given.
const DefaultDelimiter = ';'

// Parser converts CSV text.
type Parser struct {
	delimiter rune
}

// Option configures a Parser.
type Option func(*Parser)

// WithDelimiter sets the default field separator.
func WithDelimiter(r rune) Option {
	return func(p *Parser) { p.delimiter = r }
}

// New returns a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds page/body/table from input. The delimiter may be overridden
// by a delimiter= keyword or a single character first positional argument,
// as in {{{#!csv ,}}}.
func (p *Parser) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	page, body := dom.NewPage()

	r := csv.NewReader(strings.NewReader(input))
	r.Comma = p.delimiterFor(a)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed input keeps what was read so far.
			body.Append(dom.ErrorDiv(err.Error()))
			break
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return page, nil
	}
	table := parse.BuildTable(records[1:], records[0], TableClass)
	body.Children = append([]dom.Node{table}, body.Children...)
	return page, nil
}

func (p *Parser) delimiterFor(a *args.Arguments) rune {
	if a == nil {
		return p.delimiter
	}
	if d, ok := a.Get("delimiter"); ok {
		if r, size := utf8.DecodeRuneInString(d); size > 0 && validDelimiter(r) {
			return r
		}
	}
	if len(a.Positional) > 0 && utf8.RuneCountInString(a.Positional[0]) == 1 {
		if r, _ := utf8.DecodeRuneInString(a.Positional[0]); validDelimiter(r) {
			return r
		}
	}
	return p.delimiter
}

func validDelimiter(r rune) bool {
	return r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}
