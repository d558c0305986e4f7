package moinwiki

import (
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

// macro returns the node for <<name(rawArgs)>>, whose source is text. block
// is set when the macro stands alone on its line. A nil result means nothing
// is emitted.
func (s *state) macro(name, rawArgs, text string, block bool) dom.Node {
	m := parse.Macros{
		Report: s.report,
		Inline: func(text string, parent *dom.Element) {
			s.parseInline(text, s.newStack(parent), s.inline)
		},
	}
	return m.Node(name, rawArgs, text, block)
}

func (s *state) blockMacro(m parse.Match) {
	st := s.cur.stack
	st.Clear()
	if n := s.macro(m.Group("macro_name"), m.Group("macro_args"), m.Group("macro"), true); n != nil {
		st.TopAppend(n)
	}
}

func (s *state) blockNowiki(m parse.Match) {
	st := s.cur.stack
	st.Clear()

	marker := m.Group("nowiki_marker")
	var lines []string
	for {
		line, ok := s.cur.outer.Next()
		if !ok {
			break
		}
		if end := nowikiEndRe.FindStringSubmatch(line); end != nil && len(end[1]) == len(marker) {
			break
		}
		lines = append(lines, line)
	}
	content := strings.Join(lines, "\n")

	interpret := strings.TrimSpace(m.Group("nowiki_interpret"))
	if interpret == "" {
		st.TopAppend(dom.Elem("blockcode", dom.Text(content)))
		return
	}

	source := append([]string{strings.TrimSpace(m.Input)}, lines...)
	source = append(source, strings.Repeat("}", len(marker)))

	name := m.Group("nowiki_name")
	rawArgs := m.Group("nowiki_args")
	if m.Has("optional_args") {
		rawArgs = strings.TrimSpace(m.Group("optional_args"))
	}
	st.TopAppend(s.embedded(name, rawArgs, interpret, content, strings.Join(source, "\n")))
}

// embedded resolves a {{{#!name args}}} block. The complete source is kept
// as the alt text of the resulting part.
func (s *state) embedded(name, rawArgs, interpret, content, source string) *dom.Element {
	if name == "" {
		name = "wiki"
	}
	e := parse.Embedder{
		Formats:     s.p.formats,
		Report:      s.report,
		NativeNames: []string{"wiki", mime.MoinWiki.String()},
		Native: func(content, interpret, _ string) *dom.Element {
			// {{{#!wiki solid/orange (style="color: red;")
			a := args.Parse(strings.TrimPrefix(interpret, "#!"))
			if len(a.Positional) > 1 {
				a.Keyword["class"] = strings.Join(a.Positional[1:], " ")
			}
			a.Positional = nil
			nested := s.p.newState()
			body := nested.parseBlock(parse.NewLines(parse.SplitLines(content)), &a)
			s.report.Warnings = append(s.report.Warnings, nested.report.Warnings...)
			return body
		},
	}
	return e.Embed(name, rawArgs, interpret, content, source)
}
