// Package mediawiki parses MediaWiki markup into the document tree.
//
// List nesting is decided by the marker prefix of each line. Tables run
// from {| to |}, and <nowiki>, <pre>, <code> and <tt> spans may cross
// lines.
package mediawiki

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Parser converts MediaWiki markup. It holds configuration only.
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

// Parse converts input into a page. The style keyword of a is set on the
// body and the legacy _old keyword becomes its class.
func (p *Parser) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	s := p.newState()
	body := dom.Elem("body")
	if a != nil {
		if v, ok := a.Get("style"); ok {
			body.SetAttr(dom.AttrStyle, v)
		}
		if v, ok := a.Get("_old"); ok {
			body.SetAttr(dom.AttrClass, strings.ReplaceAll(v, "/", " "))
		}
	}
	s.lines = parse.NewLines(parse.SplitLines(input))
	s.stack = parse.NewStack(body)
	s.run()
	return dom.Elem("page", body), nil
}

var (
	lineRe      = regexp.MustCompile(`^\s*$`)
	tableRe     = regexp.MustCompile(`^\{\|\s*(?P<table_args>.*?)$`)
	tableEndRe  = regexp.MustCompile(`^\|\}\s*$`)
	tableRowRe  = regexp.MustCompile(`^(?P<marker>[|!])(?:(?P<caption>\+.*)|(?P<newrow>-.*)|(?P<cells>.*))$`)
	headRe      = regexp.MustCompile(`^\s*(?P<head_head>=+)\s*(?P<head_text>.*?)\s*(?P<head_tail>=+)\s*$`)
	separatorRe = regexp.MustCompile(`^\s*-{4,}\s*$`)
	templateRe  = regexp.MustCompile(`^\s*\{\{(?P<template_name>[^{}|]+?)\s*(?P<template_args>\|[^{}]*)?\}\}\s*$`)
	preRe       = regexp.MustCompile(`^ (?P<pre>.*)$`)
	textRe      = regexp.MustCompile(`(?s)^(?P<text>.+)$`)

	indentRe = regexp.MustCompile(`(?s)^(?P<indent>[*#:]*)(?:(?P<list_definition>;)\s*|(?P<list_numbers>#)\s+|(?P<list_bullet>\*)\s+|(?P<list_none>:)\s+)(?P<text>.*?)$`)

	cellSplitRe = regexp.MustCompile(`\s*\|\s*`)
	openTagRe   = regexp.MustCompile(`<(nowiki|pre|code|tt)>`)
)

// List kinds, compared when deciding whether a marker continues an open list.
const (
	kindDefinition = "definition"
	kindOrdered    = "ordered"
	kindUnordered  = "unordered"
	kindNone       = "none"
)

type state struct {
	p      *Parser
	report *parse.Report

	levels map[*dom.Element]int
	kinds  map[*dom.Element]string

	block      []parse.BlockRule
	itemBlock  []parse.BlockRule
	inline     []parse.InlineRule
	inlineDesc []parse.InlineRule

	lines  *parse.Lines
	stack  *parse.Stack
	istack *parse.Stack
}

func (p *Parser) newState() *state {
	s := &state{
		p:      p,
		report: &parse.Report{Logger: p.logger},
		levels: map[*dom.Element]int{},
		kinds:  map[*dom.Element]string{},
	}
	line := parse.BlockRule{Name: "line", Re: lineRe, Handle: func(parse.Match) { s.stack.Clear() }}
	table := parse.BlockRule{Name: "table", Re: tableRe, Handle: s.blockTable}
	head := parse.BlockRule{Name: "head", Re: headRe, Accept: balancedHead, Handle: s.blockHead}
	separator := parse.BlockRule{Name: "separator", Re: separatorRe, Handle: s.blockSeparator}
	template := parse.BlockRule{Name: "template", Re: templateRe, Handle: s.blockTemplate}
	text := parse.BlockRule{Name: "text", Re: textRe, Handle: func(m parse.Match) { s.text(m.Group("text")) }}

	s.block = []parse.BlockRule{line, table, head, separator, template,
		{Name: "pre", Re: preRe, Handle: s.blockPre}, text}
	// Item text never starts preformatted blocks; definition bodies keep the
	// space that follows the colon.
	s.itemBlock = []parse.BlockRule{line, table, head, separator, template, text}
	s.inline = s.inlineRules()
	s.inlineDesc = s.inlineDescRules()
	return s
}

func (s *state) run() {
	for {
		line, ok := s.lines.Next()
		if !ok {
			return
		}
		line = s.joinOpenTags(line)
		if m := indentRe.FindStringSubmatchIndex(line); m != nil {
			s.listItem(parse.NewMatch(indentRe, line, 0, m))
			continue
		}
		if s.stack.Len() > 1 && s.stack.At(1).Is("list") {
			s.stack.Clear()
		}
		parse.Dispatch(line, s.block)
	}
}

// joinOpenTags appends following lines to line while it holds an unclosed
// <nowiki>, <pre>, <code> or <tt> span.
func (s *state) joinOpenTags(line string) string {
	for {
		tag := unclosedTag(line)
		if tag == "" {
			return line
		}
		next, ok := s.lines.Next()
		if !ok {
			return line
		}
		line += "\n" + next
	}
}

func unclosedTag(text string) string {
	for {
		loc := openTagRe.FindStringSubmatchIndex(text)
		if loc == nil {
			return ""
		}
		tag := text[loc[2]:loc[3]]
		rest := text[loc[1]:]
		end := strings.Index(rest, "</"+tag+">")
		if end < 0 {
			return tag
		}
		text = rest[end+len(tag)+3:]
	}
}

func balancedHead(m parse.Match) bool {
	return len(m.Group("head_tail")) >= len(m.Group("head_head"))
}

func (s *state) blockHead(m parse.Match) {
	s.stack.Clear()
	head, tail := m.Group("head_head"), m.Group("head_tail")
	text := m.Group("head_text") + strings.Repeat("=", len(tail)-len(head))
	h := dom.Elem("h", dom.Text(text))
	h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(min(len(head), 6)))
	s.stack.TopAppend(h)
}

func (s *state) blockSeparator(parse.Match) {
	s.stack.Clear()
	s.stack.TopAppend(dom.Elem("separator"))
}

func (s *state) blockTemplate(m parse.Match) {
	s.stack.Clear()
	name := strings.TrimSpace(m.Group("template_name"))
	s.stack.TopAppend(parse.MacroPlaceholder(name, templateArgs(m.Group("template_args")), m.Text(), true))
}

// blockPre collects consecutive lines indented by a space into one code
// block.
func (s *state) blockPre(m parse.Match) {
	s.stack.Clear()
	lines := []string{m.Group("pre")}
	for {
		line, ok := s.lines.Next()
		if !ok {
			break
		}
		pm := preRe.FindStringSubmatch(line)
		if pm == nil || lineRe.MatchString(line) {
			s.lines.Push(line)
			break
		}
		lines = append(lines, pm[1])
	}
	s.stack.TopAppend(dom.Elem("blockcode", dom.Text(strings.Join(lines, "\n"))))
}

func (s *state) text(text string) {
	st := s.stack
	if st.TopCheck("table", "table-body", "list") {
		st.Clear()
	}
	if st.TopCheck("body", "list-item-body") {
		st.Push(dom.Elem("p"))
	} else {
		st.TopAppendText("\n")
	}
	s.parseInline(text, st, s.inline)
}

func (s *state) listItem(m parse.Match) {
	st := s.stack
	level := len(m.Group("indent"))
	kind := kindNone
	switch {
	case m.Has("list_definition"):
		kind = kindDefinition
	case m.Has("list_numbers"):
		kind = kindOrdered
	case m.Has("list_bullet"):
		kind = kindUnordered
	}

	var use *dom.Element
	for st.Len() > 1 {
		cur := st.Top()
		if cur.Is("list-item-body") && level > s.levels[cur] {
			use = cur
			break
		}
		if cur.Is("list") && level >= s.levels[cur] && kind == s.kinds[cur] {
			use = cur
			break
		}
		st.Pop()
	}
	if use == nil {
		use = st.Top()
	}

	if !use.Is("list") {
		list := dom.Elem("list")
		switch kind {
		case kindOrdered, kindUnordered:
			list.SetAttr(dom.AttrItemLabelGenerate, kind)
		case kindNone:
			list.SetAttr(dom.AttrItemLabelGenerate, kindUnordered)
			list.SetAttr(dom.AttrListStyleType, "none")
		}
		s.levels[list], s.kinds[list] = level, kind
		st.Push(list)
	}
	st.Push(dom.Elem("list-item"))

	text := m.Group("text")
	if kind == kindDefinition {
		term, def, _ := strings.Cut(text, ":")
		label := dom.Elem("list-item-label")
		st.TopAppend(label)
		s.parseInline(term, parse.NewStack(label), s.inline)
		text = def
	}

	itemBody := dom.Elem("list-item-body")
	s.levels[itemBody], s.kinds[itemBody] = level, kind
	st.Push(itemBody)

	saved := s.stack
	s.stack = parse.NewStack(itemBody)
	parse.Dispatch(text, s.itemBlock)
	s.stack = saved
}

func (s *state) blockTable(m parse.Match) {
	st := s.stack
	st.Clear()
	table := dom.Elem("table")
	applyTableArgs(table, m.Group("table_args"))
	st.Push(table)
	st.Push(dom.Elem("table-body"))
	st.Push(dom.Elem("table-row"))

	for {
		line, ok := s.lines.Next()
		if !ok || tableEndRe.MatchString(line) {
			break
		}
		line = s.joinOpenTags(line)
		rm := tableRowRe.FindStringSubmatchIndex(line)
		if rm == nil {
			// Continuation of the current cell.
			s.parseInline("\n"+line, st, s.inline)
			continue
		}
		row := parse.NewMatch(tableRowRe, line, 0, rm)
		switch {
		case row.Has("caption"):
			s.report.AddWarning("table caption dropped: %s", line)
		case row.Has("newrow"):
			if st.TopCheck("table-row") && st.Top().Empty() {
				continue
			}
			st.PopName("table-row")
			st.Push(dom.Elem("table-row"))
		default:
			s.tableCells(row.Group("cells"), row.Group("marker") == "!")
		}
	}
	st.Clear()
}

func (s *state) tableCells(cells string, heading bool) {
	st := s.stack
	if heading {
		cells = strings.ReplaceAll(cells, "!!", "||")
	}
	for _, cell := range strings.Split(cells, "||") {
		for st.Len() > 1 && !st.TopCheck("table-row") {
			st.Pop()
		}
		el := dom.Elem("table-cell")
		if heading {
			el.SetAttr(dom.AttrClass, "moin-thead")
		}
		if i := strings.IndexByte(cell, '|'); i >= 0 && !strings.Contains(cell[:i], "[[") && !strings.Contains(cell[:i], "{{") {
			parts := cellSplitRe.Split(cell, 3)
			applyTableArgs(el, parts[0])
			cell = parts[1]
		}
		st.Push(el)
		s.parseInline(cell, st, s.inline)
	}
}

// applyTableArgs copies the presentational attributes of a table or cell.
func applyTableArgs(el *dom.Element, text string) {
	if text == "" {
		return
	}
	a := args.Parse(text)
	for key, value := range a.Keyword {
		switch key {
		case "class":
			el.SetAttr(dom.AttrClass, value)
		case "style":
			el.SetAttr(dom.AttrStyle, value)
		case "colspan":
			if n, err := strconv.Atoi(value); err == nil {
				el.SetAttr(dom.AttrColSpan, strconv.Itoa(n))
			}
		case "rowspan":
			if n, err := strconv.Atoi(value); err == nil {
				el.SetAttr(dom.AttrRowSpan, strconv.Itoa(n))
			}
		}
	}
}
