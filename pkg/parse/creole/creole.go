// Package creole parses Creole 1.0 markup into the document tree.
//
// Only known URI schemes are turned into bare links, and // after a colon
// never starts emphasis, so URLs with unknown schemes stay plain text.
package creole

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// Parser converts Creole markup. It holds configuration only.
type Parser struct {
	formats   format.Lookup
	interwiki map[string]bool
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithFormats sets the resolver for {{{ #!name }}} blocks.
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

// Parse converts input into a page. The style keyword of a is set on the body.
func (p *Parser) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	s := p.newState()
	body := s.parseBlock(parse.NewLines(parse.SplitLines(input)), a)
	return dom.Elem("page", body), nil
}

var (
	lineRe      = regexp.MustCompile(`^\s*$`)
	headRe      = regexp.MustCompile(`^\s*(?P<head_head>=+)\s*(?P<head_text>.*?)\s*=*\s*$`)
	separatorRe = regexp.MustCompile(`^\s*----\s*$`)
	macroRe     = regexp.MustCompile(`^\s*(?P<macro><<(?P<macro_name>\w+)(?:\((?P<macro_args>.*?)\))?\s*>>)\s*$`)
	nowikiRe    = regexp.MustCompile(`^\{\{\{\s*$`)
	listRe      = regexp.MustCompile(`^\s*[*#][^*#].*$`)
	tableRe     = regexp.MustCompile(`^\s*(?P<table>\|.*)$`)
	textRe      = regexp.MustCompile(`^(?P<text>.+)$`)

	listEndRe  = regexp.MustCompile(`^(?:$|=|\||\{\{\{)`)
	listItemRe = regexp.MustCompile(`^\s*(?P<item_head>[#*]+)\s*(?P<item_text>.*?)$`)

	nowikiInterpretRe = regexp.MustCompile(`^#!\s*(?P<nowiki_name>[\w/]+)?\s*(?::?\((?P<nowiki_args>.*?)\))?\s*$`)
	nowikiEndRe       = regexp.MustCompile(`^(?P<escape>~)?(?P<rest>\}\}\}\s*)$`)

	cellRe = regexp.MustCompile(`\|\s*(?P<cell_head>=)?(?P<cell_text>(?:\[\[.*?\]\]|[^|])+)`)
)

// state is the per-call parse state.
type state struct {
	p      *Parser
	report *parse.Report

	levels map[*dom.Element]int
	types  map[*dom.Element]byte

	block      []parse.BlockRule
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
		types:  map[*dom.Element]byte{},
	}
	s.block = []parse.BlockRule{
		{Name: "line", Re: lineRe, Handle: func(parse.Match) { s.stack.Clear() }},
		{Name: "head", Re: headRe, Handle: s.blockHead},
		{Name: "separator", Re: separatorRe, Handle: s.blockSeparator},
		{Name: "macro", Re: macroRe, Accept: singleMacro, Handle: s.blockMacro},
		{Name: "nowiki", Re: nowikiRe, Handle: s.blockNowiki},
		{Name: "list", Re: listRe, Handle: s.blockList},
		{Name: "table", Re: tableRe, Handle: s.blockTable},
		{Name: "text", Re: textRe, Handle: func(m parse.Match) { s.text(m.Group("text")) }},
	}
	s.inline = s.inlineRules()
	s.inlineDesc = s.inlineDescRules()
	return s
}

func singleMacro(m parse.Match) bool {
	return !strings.Contains(m.Group("macro_args"), ">>")
}

func (s *state) parseBlock(lines *parse.Lines, a *args.Arguments) *dom.Element {
	body := dom.Elem("body")
	if a != nil {
		if v, ok := a.Get("style"); ok {
			body.SetAttr(dom.AttrStyle, v)
		}
	}
	saved, savedLines := s.stack, s.lines
	s.stack, s.lines = parse.NewStack(body), lines
	defer func() { s.stack, s.lines = saved, savedLines }()

	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		parse.Dispatch(line, s.block)
	}
	return body
}

func (s *state) blockHead(m parse.Match) {
	s.stack.Clear()
	level := min(len(m.Group("head_head")), 6)
	h := dom.Elem("h", dom.Text(m.Group("head_text")))
	h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(level))
	s.stack.TopAppend(h)
}

func (s *state) blockSeparator(parse.Match) {
	s.stack.Clear()
	sep := dom.Elem("separator")
	sep.SetAttr(dom.AttrClass, "moin-hr3")
	s.stack.TopAppend(sep)
}

func (s *state) blockMacro(m parse.Match) {
	s.stack.Clear()
	if n := s.macros().Node(m.Group("macro_name"), m.Group("macro_args"), m.Group("macro"), true); n != nil {
		s.stack.TopAppend(n)
	}
}

// blockList consumes lines until one ends the list. The ending line is left
// for the block grammar.
func (s *state) blockList(m parse.Match) {
	s.lines.Push(m.Input)
	for {
		line, ok := s.lines.Next()
		if !ok {
			return
		}
		if listEndRe.MatchString(line) {
			s.stack.Clear()
			s.lines.Push(line)
			return
		}
		if im := listItemRe.FindStringSubmatch(line); im != nil {
			s.listItem(im[listItemRe.SubexpIndex("item_head")], im[listItemRe.SubexpIndex("item_text")])
			continue
		}
		if tm := textRe.FindStringSubmatch(line); tm != nil {
			s.text(tm[1])
		}
	}
}

func (s *state) listItem(head, text string) {
	st := s.stack
	level, kind := len(head), head[len(head)-1]

	// Find the open list matching this level and type.
	cur := st.Top()
	for st.Len() > 1 {
		cur = st.Top()
		if cur.Is("list-item-body") && level > s.levels[cur] {
			break
		}
		if cur.Is("list") && level >= s.levels[cur] && kind == s.types[cur] {
			break
		}
		st.Pop()
		cur = st.Top()
	}

	if !cur.Is("list") {
		list := dom.Elem("list")
		if kind == '#' {
			list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
		} else {
			list.SetAttr(dom.AttrItemLabelGenerate, "unordered")
		}
		s.levels[list], s.types[list] = level, kind
		st.Push(list)
	}

	itemBody := dom.Elem("list-item-body")
	s.levels[itemBody], s.types[itemBody] = level, kind
	st.Push(dom.Elem("list-item"))
	st.Push(itemBody)
	s.parseInline(text, st, s.inline)
}

func (s *state) blockNowiki(parse.Match) {
	st := s.stack
	st.Clear()

	first, ok := s.lines.Next()
	if !ok {
		st.TopAppend(dom.Elem("blockcode"))
		return
	}
	if end := nowikiEndRe.FindStringSubmatch(first); end != nil && end[1] == "" {
		st.TopAppend(dom.Elem("blockcode"))
		return
	}

	var lines []string
	for {
		line, ok := s.lines.Next()
		if !ok {
			break
		}
		if end := nowikiEndRe.FindStringSubmatch(line); end != nil {
			if end[1] == "" {
				break
			}
			line = end[2]
		}
		lines = append(lines, line)
	}

	im := nowikiInterpretRe.FindStringSubmatch(first)
	if im == nil {
		st.TopAppend(dom.Elem("blockcode", dom.Text(strings.Join(append([]string{first}, lines...), "\n"))))
		return
	}

	name := im[nowikiInterpretRe.SubexpIndex("nowiki_name")]
	rawArgs := im[nowikiInterpretRe.SubexpIndex("nowiki_args")]
	if name == "" {
		name = "creole"
	}
	content := strings.Join(lines, "\n")
	source := strings.Join(append(append([]string{"{{{", first}, lines...), "}}}"), "\n")

	e := parse.Embedder{
		Formats:     s.p.formats,
		Report:      s.report,
		NativeNames: []string{"creole", mime.Creole.String()},
		Native: func(content, _, rawArgs string) *dom.Element {
			a := args.Parse(rawArgs)
			return s.parseBlock(parse.NewLines(parse.SplitLines(content)), &a)
		},
	}
	st.TopAppend(e.Embed(name, rawArgs, strings.TrimSpace(first), content, source))
}

func (s *state) blockTable(m parse.Match) {
	st := s.stack
	st.Clear()
	st.Push(dom.Elem("table"))
	st.Push(dom.Elem("table-body"))
	s.tableRow(m.Group("table"))
	for {
		line, ok := s.lines.Next()
		if !ok {
			break
		}
		tm := tableRe.FindStringSubmatch(line)
		if tm == nil {
			s.lines.Push(line)
			break
		}
		s.tableRow(tm[1])
	}
	st.Clear()
}

func (s *state) tableRow(content string) {
	st := s.stack
	st.Push(dom.Elem("table-row"))
	for _, cm := range cellRe.FindAllStringSubmatch(content, -1) {
		cell := dom.Elem("table-cell")
		if cm[1] != "" {
			// Heading cells are styled, not moved to a table header.
			cell.SetAttr(dom.AttrClass, "moin-thead")
		}
		st.Push(cell)
		s.parseInline(strings.TrimSpace(cm[2]), st, s.inline)
		st.PopName("table-cell")
	}
	st.Pop()
}

func (s *state) text(text string) {
	st := s.stack
	if st.TopCheck("table", "table-body", "list") {
		st.Clear()
	}
	if st.TopCheck("body") {
		st.Push(dom.Elem("p"))
	} else {
		st.TopAppendText("\n")
	}
	s.parseInline(text, st, s.inline)
}

func (s *state) macros() parse.Macros {
	return parse.Macros{
		Report: s.report,
		Inline: func(text string, parent *dom.Element) {
			s.parseInline(text, parse.NewStack(parent), s.inline)
		},
	}
}
