package creole

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var (
	urlRe    = regexp.MustCompile(`(?P<escaped_url>~)?(?P<url_target>(?:` + parse.URISchemePattern + `):\S+)`)
	escapeRe = regexp.MustCompile(`~(?P<escaped_char>\S)`)
	linkRe   = regexp.MustCompile(`\[\[\s*(?:` +
		`(?P<link_url>(?:` + parse.URISchemePattern + `):[^|]+?)` +
		`|(?P<link_interwiki_site>[A-Z][a-zA-Z]+):(?P<link_interwiki_item>[^|]+)` +
		`|(?P<link_item>[^|]+?))\s*` +
		`(?:\|\s*(?P<link_text>.+?)\s*)?\]\]`)
	macroInlineRe = regexp.MustCompile(`<<(?P<macro_name>\w+)(?:\((?P<macro_args>.*?)\))?\s*>>`)
	nowikiInline  = regexp.MustCompile(`\{\{\{(?P<nowiki_text>.*?\}*)\}\}\}`)
	objectRe      = regexp.MustCompile(`\{\{\s*(?:(?P<object_url>[a-zA-Z0-9+.-]+://[^|]+?)|(?P<object_page>[^|]+?))\s*` +
		`(?:\|\s*(?P<object_text>.+?)\s*)?\}\}`)
	strongRe    = regexp.MustCompile(`\*\*`)
	emphRe      = regexp.MustCompile(`//`)
	insertRe    = regexp.MustCompile(`__`)
	lineBreakRe = regexp.MustCompile(`\\\\`)
)

// ObjectFallbackText is the content of object elements for external media.
const ObjectFallbackText = "Your Browser does not support HTML5 audio/video element."

func (s *state) inlineRules() []parse.InlineRule {
	return []parse.InlineRule{
		{Name: "url", Re: urlRe, Accept: urlBoundary, Handle: s.inlineURL},
		{Name: "escape", Re: escapeRe, Handle: s.inlineEscape},
		{Name: "link", Re: linkRe, Handle: s.inlineLink},
		{Name: "macro", Re: macroInlineRe, Handle: s.inlineMacro},
		{Name: "nowiki", Re: nowikiInline, Handle: s.inlineNowiki},
		{Name: "object", Re: objectRe, Handle: s.inlineObject},
		{Name: "strong", Re: strongRe, Handle: s.toggle("strong")},
		{Name: "emph", Re: emphRe, Accept: notAfterColon, Handle: s.toggle("emphasis")},
		{Name: "insert", Re: insertRe, Accept: notAfterColon, Handle: s.toggle("ins")},
		{Name: "linebreak", Re: lineBreakRe, Handle: s.inlineLineBreak},
	}
}

func (s *state) inlineDescRules() []parse.InlineRule {
	return []parse.InlineRule{
		{Name: "macro", Re: macroInlineRe, Handle: s.inlineMacro},
		{Name: "nowiki", Re: nowikiInline, Handle: s.inlineNowiki},
		{Name: "emph", Re: emphRe, Accept: notAfterColon, Handle: s.toggle("emphasis")},
		{Name: "strong", Re: strongRe, Handle: s.toggle("strong")},
		{Name: "object", Re: objectRe, Handle: s.inlineObject},
	}
}

func (s *state) parseInline(text string, stack *parse.Stack, rules []parse.InlineRule) {
	saved := s.istack
	s.istack = stack
	defer func() { s.istack = saved }()
	parse.Scan(text, rules, stack.TopAppendText)
}

func notAfterColon(m parse.Match) bool {
	return !strings.HasSuffix(m.Before(), ":")
}

// urlBoundary requires a bare URL to follow the start of text, whitespace
// or punctuation.
func urlBoundary(m parse.Match) bool {
	before := m.Before()
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r) || strings.ContainsRune(".,:;!?()/=", r)
}

// splitURL separates a trailing punctuation character from a bare URL.
func splitURL(target string) (string, string) {
	colon := strings.IndexByte(target, ':')
	if len(target)-colon > 2 && strings.ContainsRune(",.:;!?()", rune(target[len(target)-1])) {
		return target[:len(target)-1], target[len(target)-1:]
	}
	return target, ""
}

func (s *state) inlineURL(m parse.Match) {
	target, tail := splitURL(m.Group("url_target"))
	if m.Has("escaped_url") {
		s.istack.TopAppendText(target)
	} else {
		a := dom.Elem("a", dom.Text(target))
		a.SetAttr(dom.XLinkHref, target)
		s.istack.TopAppend(a)
	}
	s.istack.TopAppendText(tail)
}

func (s *state) inlineEscape(m parse.Match) {
	s.istack.TopAppendText(m.Group("escaped_char"))
}

func (s *state) inlineLink(m parse.Match) {
	item := m.Group("link_item")
	if site := m.Group("link_interwiki_site"); site != "" {
		wikiItem := m.Group("link_interwiki_item")
		if s.p.interwiki[site] {
			a := dom.Elem("a")
			a.SetAttr(dom.XLinkHref, "wiki://"+site+"/"+parse.EscapePath(wikiItem))
			s.linkBody(a, m.Group("link_text"), wikiItem)
			return
		}
		// A colon inside a word of the local language.
		item = site + ":" + wikiItem
	}

	a := dom.Elem("a")
	if item != "" {
		if rest, ok := strings.CutPrefix(item, "attachment:"); ok {
			item = "/" + rest
		}
		path, fragment, hasFragment := cutLast(item, "#")
		href := "wiki.local:" + parse.EscapePath(path)
		if hasFragment {
			href += "#" + fragment
		}
		a.SetAttr(dom.XLinkHref, href)
		s.linkBody(a, m.Group("link_text"), item)
		return
	}
	target := m.Group("link_url")
	a.SetAttr(dom.XLinkHref, target)
	s.linkBody(a, m.Group("link_text"), target)
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func (s *state) linkBody(a *dom.Element, text, fallback string) {
	st := s.istack
	st.Push(a)
	if text != "" {
		s.parseInline(text, st, s.inlineDesc)
	} else {
		st.TopAppendText(fallback)
	}
	st.PopName("a")
}

func (s *state) inlineMacro(m parse.Match) {
	s.istack.TopAppend(s.macros().Node(m.Group("macro_name"), m.Group("macro_args"), m.Text(), false))
}

func (s *state) inlineNowiki(m parse.Match) {
	s.istack.TopAppend(dom.Elem("code", dom.Text(m.Group("nowiki_text"))))
}

func (s *state) inlineObject(m parse.Match) {
	var el *dom.Element
	if page := m.Group("object_page"); page != "" {
		if rest, ok := strings.CutPrefix(page, "attachment:"); ok {
			page = "/" + rest
		}
		el = dom.New(dom.XIncludeElement, nil)
		el.SetAttr(dom.XIncludeHref, "wiki.local:"+parse.EscapePath(page))
	} else {
		el = dom.Elem("object", dom.Text(ObjectFallbackText))
		el.SetAttr(dom.XLinkHref, m.Group("object_url"))
	}
	if text := m.Group("object_text"); text != "" {
		el.SetAttr(dom.HTMLAlt, text)
	}
	s.istack.TopAppend(el)
}

func (s *state) toggle(name string) func(parse.Match) {
	return func(parse.Match) {
		if s.istack.TopCheck(name) {
			s.istack.PopName(name)
			return
		}
		s.istack.Push(dom.Elem(name))
	}
}

func (s *state) inlineLineBreak(parse.Match) {
	s.istack.TopAppend(dom.Elem("line-break"))
}
