// Package markdown converts Markdown into the document tree. Parsing is done
// by goldmark with the GFM extensions, footnotes, definition lists, wiki
// links and admonitions; the resulting AST is then walked into tree
// elements.
package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.DefinitionList,
		extension.Footnote,
	),
	goldmark.WithParserOptions(
		parser.WithInlineParsers(util.Prioritized(wikiLinkParser{}, 199)),
		parser.WithBlockParsers(util.Prioritized(admonitionParser{}, 750)),
	),
)

// Parser converts Markdown. It holds configuration only.
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

// Parse converts input into a page. Front matter keys are recorded on the
// page element in the meta namespace.
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
	c := &converter{report: &parse.Report{Logger: p.logger}}
	meta, src := c.frontMatter([]byte(input))
	c.source = src
	doc := md.Parser().Parse(text.NewReader(src))
	c.collectFootnotes(doc)

	page, body := dom.NewPage()
	body.Append(c.blocks(doc)...)
	for key, value := range meta {
		if !metaKeyRe.MatchString(key) {
			c.report.AddWarning("front matter key %q ignored", key)
			continue
		}
		page.SetAttr(dom.Meta.Name(key), fmt.Sprint(value))
	}
	return page, c.report
}

var metaKeyRe = regexp.MustCompile(`^[A-Za-z_][\w.-]*$`)

// frontMatter splits a leading YAML, TOML or JSON header from src. Input
// without a header is returned unchanged.
func (c *converter) frontMatter(src []byte) (map[string]any, []byte) {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		c.report.AddWarning("front matter ignored: %v", err)
		return nil, src
	}
	return meta, body
}
