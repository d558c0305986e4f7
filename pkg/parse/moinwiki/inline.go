package moinwiki

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var (
	linkRe = regexp.MustCompile(`\[\[\s*(?:` +
		`(?P<link_url>(?:` + parse.URISchemePattern + `):[^|]+?)` +
		`|(?P<link_interwiki_site>[a-zA-Z][a-zA-Z0-9]+):(?P<link_interwiki_item>[^|]+?)` +
		`|(?P<link_item>[^|]+?))\s*` +
		`(?:\|\s*(?P<link_text>[^|]*?|[^|]*?\{\{.*?\}\}[^|]*?)\s*)?` +
		`(?:\|\s*(?P<link_args>[^|]*?)\s*)?\]\]`)
	inlineMacroRe  = regexp.MustCompile(`<<(?P<macro_name>\w+)(?:\((?P<macro_args>.*?)\))?\s*>>`)
	inlineNowikiRe = regexp.MustCompile(`\{\{\{(?P<nowiki_text>.*?\}*)\}\}\}|` + "`(?P<nowiki_text_backtick>.*?)`")
	objectRe       = regexp.MustCompile(`\{\{\s*(?:(?P<object_url>[a-zA-Z0-9+.-]+://[^|]+?)|(?P<object_item>[^|]+?))\s*` +
		`(?:\|\s*(?P<object_text>[^|]*?)\s*)?(?:\|\s*(?P<object_args>.*?)\s*)?\}\}`)
	emphStrongRe    = regexp.MustCompile(`'{2,6}`)
	inlineCommentRe = regexp.MustCompile(`(?P<comment_begin>/\*\s+)|(?P<comment_end>\s+\*/)`)
	sizeRe          = regexp.MustCompile(`(?P<size_begin>~[-+])|(?P<size_end>[-+]~)`)
	strikeRe        = regexp.MustCompile(`(?P<strike_begin>--\()|\)--`)
	subRe           = regexp.MustCompile(`,,(?P<subscript_text>.*?),,`)
	supRe           = regexp.MustCompile(`\^(?P<superscript_text>.*?)\^`)
	underlineRe     = regexp.MustCompile(`__`)
	entityRe        = regexp.MustCompile(`&(?:[0-9a-zA-Z]{2,6}|#\d{1,5}|#x[0-9a-fA-F]{1,6});`)
)

// inlineRules returns the inline grammar. Link descriptions use the grammar
// without links.
func (s *state) inlineRules(links bool) []parse.InlineRule {
	var rules []parse.InlineRule
	if links {
		rules = append(rules, parse.InlineRule{Name: "link", Re: linkRe, Handle: s.inlineLink})
	}
	return append(rules,
		parse.InlineRule{Name: "macro", Re: inlineMacroRe, Handle: s.inlineMacro},
		parse.InlineRule{Name: "nowiki", Re: inlineNowikiRe, Handle: s.inlineNowiki},
		parse.InlineRule{Name: "object", Re: objectRe, Handle: s.inlineObject},
		parse.InlineRule{Name: "emphstrong", Re: emphStrongRe, Handle: s.inlineEmphStrong},
		parse.InlineRule{Name: "comment", Re: inlineCommentRe, Accept: commentBoundary, Handle: s.inlineComment},
		parse.InlineRule{Name: "size", Re: sizeRe, Handle: s.inlineSize},
		parse.InlineRule{Name: "strike", Re: strikeRe, Handle: s.inlineStrike},
		parse.InlineRule{Name: "subscript", Re: subRe, Handle: s.inlineShift("sub", "subscript_text")},
		parse.InlineRule{Name: "superscript", Re: supRe, Handle: s.inlineShift("super", "superscript_text")},
		parse.InlineRule{Name: "underline", Re: underlineRe, Handle: s.inlineToggle("ins")},
		parse.InlineRule{Name: "entity", Re: entityRe, Handle: s.inlineEntity},
	)
}

func (s *state) parseInline(text string, stack *parse.Stack, rules []parse.InlineRule) {
	saved := s.istack
	s.istack = stack
	defer func() { s.istack = saved }()
	parse.Scan(text, rules, stack.TopAppendText)
}

func (s *state) inlineMacro(m parse.Match) {
	s.istack.TopAppend(s.macro(m.Group("macro_name"), m.Group("macro_args"), m.Text(), false))
}

func (s *state) inlineNowiki(m parse.Match) {
	if m.Has("nowiki_text") {
		s.istack.TopAppend(dom.Elem("samp", dom.Text(m.Group("nowiki_text"))))
		return
	}
	s.istack.TopAppend(dom.Elem("code", dom.Text(m.Group("nowiki_text_backtick"))))
}

// emphFollow returns the length of the quote run that closes the text after
// a five quote run, when it is two or three quotes long.
func emphFollow(after string) int {
	i := strings.IndexByte(after, '\'')
	if i <= 0 {
		return 0
	}
	n := 0
	for i+n < len(after) && after[i+n] == '\'' {
		n++
	}
	if n == 2 || n == 3 {
		return n
	}
	return 0
}

func (s *state) inlineEmphStrong(m parse.Match) {
	st := s.istack
	switch len(m.Text()) {
	case 5:
		switch {
		case st.TopCheck("emphasis"):
			st.Pop()
			if st.TopCheck("strong") {
				st.Pop()
			} else {
				st.Push(dom.Elem("strong"))
			}
		case st.TopCheck("strong"):
			st.Pop()
			if st.TopCheck("emphasis") {
				st.Pop()
			} else {
				st.Push(dom.Elem("emphasis"))
			}
		case emphFollow(m.After()) == 3:
			st.Push(dom.Elem("emphasis"))
			st.Push(dom.Elem("strong"))
		default:
			st.Push(dom.Elem("strong"))
			st.Push(dom.Elem("emphasis"))
		}
	case 3:
		s.inlineToggle("strong")(m)
	case 2:
		s.inlineToggle("emphasis")(m)
	}
}

// inlineToggle opens name, or closes it when it is the innermost element.
func (s *state) inlineToggle(name string) func(parse.Match) {
	return func(parse.Match) {
		if s.istack.TopCheck(name) {
			s.istack.Pop()
			return
		}
		s.istack.Push(dom.Elem(name))
	}
}

// commentBoundary requires whitespace or a line boundary outside /* and */.
func commentBoundary(m parse.Match) bool {
	if m.Has("comment_begin") {
		before := m.Before()
		return before == "" || isSpace(before[len(before)-1])
	}
	after := m.After()
	return after == "" || isSpace(after[0])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func (s *state) inlineComment(m parse.Match) {
	st := s.istack
	if m.Has("comment_begin") {
		span := dom.Elem("span")
		span.SetAttr(dom.AttrClass, "comment")
		st.Push(span)
		return
	}
	if st.TopCheck("span") && st.Top().HasClass("comment") {
		st.Pop()
		return
	}
	st.TopAppendText(m.Text())
}

func (s *state) inlineSize(m parse.Match) {
	st := s.istack
	if m.Has("size_begin") {
		size := "85%"
		if m.Text()[1] == '+' {
			size = "120%"
		}
		span := dom.Elem("span")
		span.SetAttr(dom.AttrFontSize, size)
		st.Push(span)
		return
	}
	if _, ok := st.Top().Lookup(dom.AttrFontSize); ok && st.TopCheck("span") {
		st.Pop()
		return
	}
	st.TopAppendText(m.Text())
}

func (s *state) inlineStrike(m parse.Match) {
	st := s.istack
	if m.Has("strike_begin") {
		st.Push(dom.Elem("del"))
		return
	}
	if st.TopCheck("del") {
		st.Pop()
		return
	}
	st.TopAppendText(m.Text())
}

func (s *state) inlineShift(shift, group string) func(parse.Match) {
	return func(m parse.Match) {
		span := dom.Elem("span", dom.Text(m.Group(group)))
		span.SetAttr(dom.AttrBaselineShift, shift)
		s.istack.TopAppend(span)
	}
}

func (s *state) inlineEntity(m parse.Match) {
	s.istack.TopAppendText(html.UnescapeString(m.Text()))
}

var linkHTMLArgs = map[string]bool{"target": true, "title": true, "download": true, "class": true, "accesskey": true}

func (s *state) inlineLink(m parse.Match) {
	a := dom.Elem("a")

	var query []string
	if raw := m.Group("link_args"); raw != "" {
		la := args.Parse(raw)
		for _, k := range sortedKeys(la.Keyword) {
			v := la.Keyword[k]
			if linkHTMLArgs[k] {
				a.SetAttr(dom.XHTML.Name(k), v)
			}
			if strings.HasPrefix(k, "&") {
				query = append(query, k[1:]+"="+v)
			}
		}
	}

	var text string
	item, isItem := m.Group("link_item"), m.Has("link_item")
	if site := m.Group("link_interwiki_site"); site != "" {
		wikiItem := m.Group("link_interwiki_item")
		if s.p.interwiki[site] {
			a.SetAttr(dom.XLinkHref, "wiki://"+site+"/"+parse.EscapePath(wikiItem))
			s.linkBody(a, m.Group("link_text"), wikiItem)
			return
		}
		// Not a known wiki: the colon belongs to the page name.
		item, isItem = site+":"+wikiItem, true
	}

	if isItem {
		if rest, ok := strings.CutPrefix(item, "attachment:"); ok {
			item = "/" + rest
		}
		var fragment string
		hasFragment := false
		if i := strings.LastIndex(item, "#"); i >= 0 {
			item, fragment, hasFragment = item[:i], item[i+1:], true
		}
		path := item
		if i := strings.LastIndex(item, "?"); i >= 0 {
			path = item[:i]
			query = append([]string{item[i+1:]}, query...)
		}
		href := "wiki.local:" + parse.EscapePath(path)
		if len(query) > 0 {
			href += "?" + strings.Join(query, "&")
		}
		if hasFragment {
			href += "#" + (&url.URL{Fragment: fragment}).EscapedFragment()
		}
		a.SetAttr(dom.XLinkHref, href)
		text = item
	} else {
		target := m.Group("link_url")
		a.SetAttr(dom.XLinkHref, target)
		text = target
	}
	s.linkBody(a, m.Group("link_text"), text)
}

// linkBody pushes a, fills it with the parsed description or the fallback
// text, and closes it.
func (s *state) linkBody(a *dom.Element, description, fallback string) {
	st := s.istack
	st.Push(a)
	if description != "" {
		s.parseInline(description, st, s.inlineDesc)
	} else {
		st.TopAppendText(fallback)
	}
	st.PopName("a")
}

var objectHTMLArgs = map[string]bool{"width": true, "height": true, "class": true}

func (s *state) inlineObject(m parse.Match) {
	attrs := map[dom.QName]string{}
	query := url.Values{}
	if raw := m.Group("object_args"); raw != "" {
		for k, v := range args.ParseObject(raw).Keyword {
			switch {
			case strings.HasPrefix(k, "&"):
				query.Set(k[1:], v)
			case objectHTMLArgs[k]:
				attrs[dom.XHTML.Name(k)] = v
			}
		}
	}
	if alt := m.Group("object_text"); alt != "" {
		attrs[dom.HTMLAlt] = alt
	}

	if m.Has("object_item") {
		item := m.Group("object_item")
		if rest, ok := strings.CutPrefix(item, "attachment:"); ok {
			item = "/" + rest
		}
		href := "wiki.local:" + parse.EscapePath(item)
		if len(query) > 0 {
			href += "?" + query.Encode()
		}
		attrs[dom.XIncludeHref] = href
		s.istack.TopAppend(dom.New(dom.XIncludeElement, attrs))
		return
	}
	attrs[dom.XLinkHref] = m.Group("object_url")
	s.istack.TopAppend(dom.New(dom.Moin.Name("object"), attrs))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
