// Package html converts HTML documents and fragments into the document
// tree.
package html

import (
	"log/slog"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Parser converts HTML. It holds configuration only.
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

// Parse converts a complete document or a fragment. Input that is not well
// formed is repaired the way browsers do.
func (p *Parser) Parse(input string, _ *args.Arguments) (*dom.Element, error) {
	root, err := xhtml.Parse(strings.NewReader(input))
	if err != nil {
		return nil, err
	}
	c := p.newConverter()
	c.base = findBase(root)
	body := dom.Elem("body")
	if b := findElement(root, atom.Body); b != nil {
		body.Append(c.children(b)...)
	}
	return dom.Elem("page", body), nil
}

// Fragment converts an HTML fragment found inside another markup into
// block content. report receives the warnings.
func Fragment(input string, report *parse.Report) ([]dom.Node, error) {
	context := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(input), context)
	if err != nil {
		return nil, err
	}
	c := &converter{report: report, seen: map[string]bool{}}
	var out []dom.Node
	for _, n := range nodes {
		out = append(out, c.node(n, true)...)
	}
	return out, nil
}

func (p *Parser) newConverter() *converter {
	return &converter{report: &parse.Report{Logger: p.logger}, seen: map[string]bool{}}
}

func findElement(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findBase(root *xhtml.Node) string {
	if b := findElement(root, atom.Base); b != nil {
		return attr(b, "href")
	}
	return ""
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
