// Package docbook converts DocBook 4 and 5 documents into the document tree.
//
// The document is loaded with xmlquery. Elements with a tree equivalent are
// mapped onto it; DocBook-only inline and block elements become span and div
// elements carrying a db-<name> class; metadata elements are dropped; every
// other element contributes its children.
package docbook

import (
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html/charset"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Parser converts DocBook. It holds configuration only.
type Parser struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger receiving markup warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New returns a configured Parser.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// ErrUnsupportedRoot is the message rendered for documents whose root is not
// a DocBook division.
const ErrUnsupportedRoot = "The root element of the docbook document is not supported by the converter"

var sectionExpr = xpath.MustCompile(
	`//*[local-name()='section' or local-name()='sect1' or local-name()='sect2' or ` +
		`local-name()='sect3' or local-name()='sect4' or local-name()='sect5']`)

// Parse converts input into a page. Documents that are not well formed, or
// whose root element is not a division, give a page holding an error.
// Documents with sections get a table of contents.
func (p *Parser) Parse(input string, _ *args.Arguments) (*dom.Element, error) {
	page, _ := p.convert(input)
	return page, nil
}

// Warnings parses input and returns only the recorded warnings.
func (p *Parser) Warnings(input string) []string {
	_, report := p.convert(input)
	return report.Warnings
}

func (p *Parser) convert(input string) (*dom.Element, *parse.Report) {
	c := &converter{report: &parse.Report{Logger: p.logger}, seen: map[string]bool{}}
	page, body := dom.NewPage()
	if strings.TrimSpace(input) == "" {
		return page, c.report
	}

	doc, err := xmlquery.ParseWithOptions(strings.NewReader(input), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:        true,
			Entity:        xml.HTMLEntity,
			CharsetReader: charset.NewReaderLabel,
		},
	})
	if err != nil {
		c.report.AddWarning("invalid docbook document: %v", err)
		body.Append(dom.ErrorDiv(err.Error()))
		return page, c.report
	}

	root := rootElement(doc)
	switch {
	case root == nil || !blockTags[root.Data]:
		c.report.AddWarning("%s", ErrUnsupportedRoot)
		body.Append(dom.ErrorDiv(ErrUnsupportedRoot))
	case !inDocBook(root):
		c.report.AddWarning("unknown namespace %s", root.NamespaceURI)
		body.Append(dom.ErrorDiv("Unknown namespace " + root.NamespaceURI))
	default:
		if xmlquery.QuerySelector(doc, sectionExpr) != nil {
			body.Append(dom.Elem("table-of-content"))
		}
		body.Append(c.element(root)...)
	}
	return page, c.report
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// inDocBook accepts the DocBook 5 namespace and unqualified DocBook 4
// elements.
func inDocBook(n *xmlquery.Node) bool {
	return n.NamespaceURI == "" || n.NamespaceURI == string(dom.DocBookNS)
}

// attr returns the unqualified attribute key of n.
func attr(n *xmlquery.Node, key string) string {
	for _, a := range n.Attr {
		if a.Name.Local == key && a.NamespaceURI == "" {
			return a.Value
		}
	}
	return ""
}

// nsAttr returns the attribute key of n in namespace ns. Undeclared prefixes
// are matched by name.
func nsAttr(n *xmlquery.Node, ns dom.Namespace, prefix, key string) string {
	for _, a := range n.Attr {
		if a.Name.Local == key && (a.NamespaceURI == string(ns) || a.NamespaceURI == prefix) {
			return a.Value
		}
	}
	return ""
}

// elements returns the element children of n.
func elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			out = append(out, child)
		}
	}
	return out
}
