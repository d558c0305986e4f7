// Package moinwiki parses the baseline wiki markup into the document tree.
//
// Each input line is first matched against the indentation grammar, which
// decides list nesting. The remaining text of the line and its continuation
// lines at the same level are dispatched through the block grammar, and
// paragraph text through the inline grammar.
package moinwiki

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Parser converts wiki markup. A Parser holds configuration only and may be
// used for any number of Parse calls.
type Parser struct {
	formats     format.Lookup
	interwiki   map[string]bool
	logger      *slog.Logger
	lineNumbers bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithFormats sets the resolver for {{{#!name ...}}} blocks.
func WithFormats(l format.Lookup) Option {
	return func(p *Parser) { p.formats = l }
}

// WithInterwiki sets the wiki names recognized in [[Name:Page]] links.
func WithInterwiki(names ...string) Option {
	return func(p *Parser) {
		for _, n := range names {
			p.interwiki[n] = true
		}
	}
}

// WithLogger sets the logger receiving markup warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithLineNumbers records source line numbers on block elements.
func WithLineNumbers(on bool) Option {
	return func(p *Parser) { p.lineNumbers = on }
}

// New returns a configured Parser.
func New(opts ...Option) *Parser {
	p := &Parser{interwiki: map[string]bool{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Parse converts input into a page. The style and class keywords of a
// become attributes of the body. Malformed markup is rendered in place and
// never causes an error.
func (p *Parser) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	s := p.newState()
	body := s.parseBlock(parse.NewLines(parse.SplitLines(input)), a)
	return dom.Elem("page", body), nil
}

// Warnings parses input and returns only the recorded warnings.
func (p *Parser) Warnings(input string) []string {
	s := p.newState()
	s.parseBlock(parse.NewLines(parse.SplitLines(input)), nil)
	return s.report.Warnings
}

var (
	indentRe = regexp.MustCompile(`^(?P<indent>\s*)` +
		`(?P<list_begin>` +
		`(?P<list_definition>(?P<list_definition_text>.*?)::)\s*` +
		`|(?P<list_numbers>[0-9]+\.(?:#(?P<list_start_number>[0-9]+))?)\s+` +
		`|(?P<list_alpha>[aA]\.(?:#(?P<list_start_alpha>[0-9]+))?)\s+` +
		`|(?P<list_roman>[iI]\.(?:#(?P<list_start_roman>[0-9]+))?)\s+` +
		`|(?P<list_bullet>\*)\s*` +
		`|(?P<list_none>\.)\s*` +
		`)?(?P<text>.*?)$`)

	// Unindented bullet runs: "** x" is a second level item.
	starsRe = regexp.MustCompile(`^(?P<stars>\*+)\s+(?P<text>.*)$`)

	lineRe      = regexp.MustCompile(`^\s*$`)
	commentRe   = regexp.MustCompile(`^##.*$`)
	headRe      = regexp.MustCompile(`^\s*(?P<head_head>=+)\s+(?P<head_text>.*?)\s+(?P<head_tail>=+)\s*$`)
	separatorRe = regexp.MustCompile(`^\s*(?P<separator>-{4,})\s*$`)
	macroRe     = regexp.MustCompile(`^\s*(?P<macro><<(?P<macro_name>\w+)(?:\((?P<macro_args>.*?)\))?\s*>>)\s*$`)
	nowikiRe    = regexp.MustCompile(`^\s*(?P<nowiki_marker>\{{3,})\s*` +
		`(?P<nowiki_interpret>#!\s*(?P<nowiki_name>[\w/.-]+)?\s*(?:\((?P<nowiki_args>.*?)\)|(?P<optional_args>.+))?)?\s*$`)
	tableRe     = regexp.MustCompile(`^\s*(?P<table>\|\|.*)\|\|\s*$`)
	textRe      = regexp.MustCompile(`^(?P<text>.+)$`)
	nowikiEndRe = regexp.MustCompile(`^\s*(?P<marker>\}{3,})\s*$`)
	tableSepRe  = regexp.MustCompile(`^\s*===+\s*$`)
)

// source is a line stream with push-back.
type source interface {
	Next() (string, bool)
	Push(line string)
}

// listKind is the label generation and style of a list.
type listKind struct {
	generate string
	style    string
}

// blockCtx is the context block handlers run in.
type blockCtx struct {
	it    source
	outer source
	stack *parse.Stack
}

// state is the per-call parse state.
type state struct {
	p      *Parser
	report *parse.Report
	lines  *parse.Lines

	levels map[*dom.Element]int
	kinds  map[*dom.Element]listKind

	cur    blockCtx
	istack *parse.Stack

	block      []parse.BlockRule
	inline     []parse.InlineRule
	inlineDesc []parse.InlineRule
}

func (p *Parser) newState() *state {
	s := &state{
		p:      p,
		report: &parse.Report{Logger: p.logger},
		levels: map[*dom.Element]int{},
		kinds:  map[*dom.Element]listKind{},
	}
	s.block = []parse.BlockRule{
		{Name: "line", Re: lineRe, Handle: s.blockLine},
		{Name: "comment", Re: commentRe, Handle: s.blockComment},
		{Name: "head", Re: headRe, Accept: sameHeadLength, Handle: s.blockHead},
		{Name: "separator", Re: separatorRe, Handle: s.blockSeparator},
		{Name: "macro", Re: macroRe, Accept: singleMacro, Handle: s.blockMacro},
		{Name: "nowiki", Re: nowikiRe, Handle: s.blockNowiki},
		{Name: "table", Re: tableRe, Handle: s.blockTable},
		{Name: "text", Re: textRe, Handle: s.blockText},
	}
	s.inline = s.inlineRules(true)
	s.inlineDesc = s.inlineRules(false)
	return s
}

func (s *state) newStack(bottom *dom.Element) *parse.Stack {
	st := parse.NewStack(bottom)
	if s.p.lineNumbers && s.lines != nil {
		st.TrackLines(s.lines)
	}
	return st
}

func (s *state) parseBlock(lines *parse.Lines, a *args.Arguments) *dom.Element {
	s.lines = lines
	body := dom.Elem("body")
	if a != nil {
		for _, key := range []string{"style", "class"} {
			if v, ok := a.Get(key); ok {
				body.SetAttr(dom.Moin.Name(key), v)
			}
		}
	}
	stack := s.newStack(body)
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		s.indent(lines, stack, line)
	}
	return body
}

// indentMatch is the result of matching a line against the indentation
// grammar.
type indentMatch struct {
	level     int
	nested    bool
	listBegin bool
	kind      listKind
	defText   string
	isDef     bool
	start     string
	text      string
}

func matchIndent(line string) indentMatch {
	if strings.TrimSpace(line) == "" {
		return indentMatch{text: line}
	}
	if m := starsRe.FindStringSubmatch(line); m != nil {
		return indentMatch{
			level:     len(m[1]),
			nested:    true,
			listBegin: true,
			kind:      listKind{generate: "unordered"},
			text:      m[2],
		}
	}

	m := parse.NewMatch(indentRe, line, 0, indentRe.FindStringSubmatchIndex(line))
	im := indentMatch{
		level: len(m.Group("indent")),
		kind:  listKind{generate: "unordered", style: "no-bullet"},
		text:  m.Group("text"),
	}
	im.nested = im.level > 0
	if !im.nested {
		// Without indentation only the bullet runs above start lists.
		im.text = line
		return im
	}
	if !m.Has("list_begin") || m.Group("list_begin") == "" {
		return im
	}
	im.listBegin = true
	switch {
	case m.Has("list_definition"):
		im.kind = listKind{generate: "definition"}
		im.isDef = true
		im.defText = m.Group("list_definition_text")
	case m.Has("list_numbers"):
		im.kind = listKind{generate: "ordered"}
	case m.Has("list_alpha") && strings.HasPrefix(m.Group("list_alpha"), "A."):
		im.kind = listKind{generate: "ordered", style: "upper-alpha"}
	case m.Has("list_alpha"):
		im.kind = listKind{generate: "ordered", style: "lower-alpha"}
	case m.Has("list_roman") && strings.HasPrefix(m.Group("list_roman"), "I."):
		im.kind = listKind{generate: "ordered", style: "upper-roman"}
	case m.Has("list_roman"):
		im.kind = listKind{generate: "ordered", style: "lower-roman"}
	case m.Has("list_bullet"):
		im.kind = listKind{generate: "unordered"}
	}
	for _, g := range []string{"list_start_number", "list_start_alpha", "list_start_roman"} {
		if v := m.Group(g); v != "" {
			im.start = v
		}
	}
	return im
}

// indent places the content of line according to its indentation and list
// marker, then processes it and every following line of the same level.
func (s *state) indent(lines *parse.Lines, stack *parse.Stack, line string) {
	im := matchIndent(line)

	var use *dom.Element
	for stack.Len() > 1 {
		cur := stack.Top()
		if cur.Is("list-item-body") && im.level > s.levels[cur] {
			use = cur
			break
		}
		if cur.Is("list") && im.level >= s.levels[cur] && s.kinds[cur] == im.kind {
			use = cur
			break
		}
		stack.Pop()
	}
	if use == nil {
		use = stack.Top()
	}

	target := stack
	if im.nested {
		if !use.Is("list") {
			list := dom.Elem("list")
			if !im.isDef {
				list.SetAttr(dom.AttrItemLabelGenerate, im.kind.generate)
			}
			if im.kind.style != "" {
				list.SetAttr(dom.AttrListStyleType, im.kind.style)
			}
			if im.start != "" {
				list.SetAttr(dom.AttrListStart, im.start)
			}
			s.levels[list] = im.level
			s.kinds[list] = im.kind
			stack.Push(list)
		}
		stack.Push(dom.Elem("list-item"))

		if im.defText != "" {
			label := dom.Elem("list-item-label")
			stack.TopAppend(label)
			target = s.newStack(label)
			s.parseInline(im.defText, target, s.inline)
		}
		if im.defText == "" || im.text != "" {
			itemBody := dom.Elem("list-item-body")
			s.levels[itemBody] = im.level
			stack.Push(itemBody)
			target = s.newStack(itemBody)
		}
	}

	it := &indentIter{outer: lines, first: im.text, level: im.level}
	for {
		text, ok := it.Next()
		if !ok {
			return
		}
		s.dispatch(blockCtx{it: it, outer: lines, stack: target}, text)
	}
}

func (s *state) dispatch(ctx blockCtx, line string) {
	saved := s.cur
	s.cur = ctx
	defer func() { s.cur = saved }()
	parse.Dispatch(line, s.block)
}

// indentIter yields the first line of an indented block and then every
// following line at the same level that does not start a new list item.
type indentIter struct {
	outer   source
	first   string
	level   int
	started bool
	done    bool
	pending []string
}

func (it *indentIter) Next() (string, bool) {
	if len(it.pending) > 0 {
		line := it.pending[0]
		it.pending = it.pending[1:]
		return line, true
	}
	if !it.started {
		it.started = true
		return it.first, true
	}
	if it.done {
		return "", false
	}
	line, ok := it.outer.Next()
	if !ok {
		it.done = true
		return "", false
	}
	im := matchIndent(line)
	if im.listBegin || im.level != it.level {
		it.outer.Push(line)
		it.done = true
		return "", false
	}
	return im.text, true
}

func (it *indentIter) Push(line string) {
	it.pending = append(it.pending, line)
}

func sameHeadLength(m parse.Match) bool {
	return len(m.Group("head_head")) == len(m.Group("head_tail"))
}

func singleMacro(m parse.Match) bool {
	return !strings.Contains(m.Group("macro_args"), ">>")
}

func (s *state) blockLine(parse.Match) {
	s.cur.stack.Clear()
}

func (s *state) blockComment(m parse.Match) {
	st := s.cur.stack
	if st.TopCheck("block-comment") {
		st.TopAppendText("\n" + m.Text())
		return
	}
	st.Clear()
	st.Push(dom.Elem("block-comment", dom.Text(m.Text())))
}

func (s *state) blockHead(m parse.Match) {
	st := s.cur.stack
	st.Clear()
	h := dom.Elem("h")
	h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(len(m.Group("head_head"))))
	st.Push(h)
	s.parseInline(m.Group("head_text"), st, s.inline)
	st.Clear()
}

func (s *state) blockSeparator(m parse.Match) {
	st := s.cur.stack
	st.Clear()
	height := min(len(m.Group("separator"))-3, 6)
	height = max(height, 1)
	sep := dom.Elem("separator")
	sep.SetAttr(dom.AttrClass, "moin-hr"+strconv.Itoa(height))
	st.TopAppend(sep)
}

func (s *state) blockText(m parse.Match) {
	st := s.cur.stack
	if st.TopCheck("table", "table-body", "list", "block-comment") {
		st.Clear()
	}
	if st.TopCheck("body") {
		st.Push(dom.Elem("p"))
	} else if st.TopCheck("p") || len(st.Top().Children) > 0 {
		st.TopAppendText("\n")
	}
	s.parseInline(m.Group("text"), st, s.inline)
}
