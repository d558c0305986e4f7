// Package text parses plain text, and wraps content no parser understands.
package text

import (
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Parser turns plain text into a single code block.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse returns page/body/blockcode holding input with normalized newlines.
// Empty input gives an empty body.
func (*Parser) Parse(input string, _ *args.Arguments) (*dom.Element, error) {
	page, body := dom.NewPage()
	input = strings.ReplaceAll(strings.ReplaceAll(input, "\r\n", "\n"), "\r", "\n")
	input = strings.TrimSuffix(input, "\n")
	if input != "" {
		body.Append(dom.Elem("blockcode", dom.Text(input)))
	}
	return page, nil
}

// Fallback represents content of type t as an opaque object.
type Fallback struct {
	Type mime.Type
}

// Parse returns page/body/object with the content type recorded and the
// input kept as the object's text.
func (f Fallback) Parse(input string, _ *args.Arguments) (*dom.Element, error) {
	page, body := dom.NewPage()
	obj := dom.Elem("object")
	obj.SetAttr(dom.AttrType, f.Type.String())
	obj.AppendText(input)
	body.Append(obj)
	return page, nil
}
