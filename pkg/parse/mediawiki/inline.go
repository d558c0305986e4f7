package mediawiki

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var (
	linkRe = regexp.MustCompile(`\[\[\s*(?P<link_target>[^|\]]+?)\s*(?P<link_args>\|.*?)?\]\]` +
		`|\[\s*(?P<external_url>(?:` + parse.URISchemePattern + `):[^ \]]*)\s*(?P<alt_text>[^\]]*?)\s*\]`)
	urlRe        = regexp.MustCompile(`(?:` + parse.URISchemePattern + `):[^\s<>\[\]]+`)
	templateInRe = regexp.MustCompile(`\{\{(?P<template_name>[^{}|]+?)\s*(?P<template_args>\|[^{}]*)?\}\}`)
	breakRe      = regexp.MustCompile(`<br\s*/?>`)
	quoteRe      = regexp.MustCompile(`<(?P<quote_close>/)?blockquote(?:\s[^>]*)?>`)
	nowikiRe     = regexp.MustCompile(`(?s)<nowiki>(?P<nowiki_text>.*?)</nowiki>` +
		`|<pre>(?P<pre_text>.*?)</pre>` +
		`|<code>(?P<code_text>.*?)</code>` +
		`|<tt>(?P<tt_text>.*?)</tt>`)
	emphStrongRe = regexp.MustCompile(`'{2,6}`)
	refRe        = regexp.MustCompile(`<(?P<ref_close>/)?ref(?:\s[^>]*)?>`)
	toggleTagRe  = regexp.MustCompile(`<(?P<tag_close>/)?(?P<tag_name>s|del|u|ins)>`)
	subRe        = regexp.MustCompile(`<sub>(?P<shift_text>.*?)</sub>`)
	supRe        = regexp.MustCompile(`<sup>(?P<shift_text>.*?)</sup>`)
	entityRe     = regexp.MustCompile(`&(?:[0-9a-zA-Z]{2,6}|#\d{1,5}|#x[0-9a-fA-F]{1,6});`)

	followRe    = regexp.MustCompile(`^[^']+('+)`)
	keyPrefixRe = regexp.MustCompile(`^\s*[\pL\pN_-]+=$`)
	keyValueRe  = regexp.MustCompile(`(?s)^\s*([\pL\pN_-]+)=(.*)$`)
)

func (s *state) inlineRules() []parse.InlineRule {
	return []parse.InlineRule{
		{Name: "link", Re: linkRe, Handle: s.inlineLink},
		{Name: "template", Re: templateInRe, Handle: s.inlineTemplate},
		{Name: "url", Re: urlRe, Accept: urlBoundary, Handle: s.inlineURL},
		{Name: "breakline", Re: breakRe, Handle: s.inlineBreak},
		{Name: "blockquote", Re: quoteRe, Handle: s.inlineBlockquote},
		{Name: "nowiki", Re: nowikiRe, Handle: s.inlineNowiki},
		{Name: "emphstrong", Re: emphStrongRe, Handle: s.inlineEmphStrong},
		{Name: "footnote", Re: refRe, Handle: s.inlineFootnote},
		{Name: "tag", Re: toggleTagRe, Handle: s.inlineTag},
		{Name: "subscript", Re: subRe, Handle: s.inlineShift("sub")},
		{Name: "superscript", Re: supRe, Handle: s.inlineShift("super")},
		{Name: "entity", Re: entityRe, Handle: s.inlineEntity},
	}
}

// inlineDescRules is the grammar of link captions.
func (s *state) inlineDescRules() []parse.InlineRule {
	return []parse.InlineRule{
		{Name: "breakline", Re: breakRe, Handle: s.inlineBreak},
		{Name: "nowiki", Re: nowikiRe, Handle: s.inlineNowiki},
		{Name: "emphstrong", Re: emphStrongRe, Handle: s.inlineEmphStrong},
	}
}

func (s *state) parseInline(text string, stack *parse.Stack, rules []parse.InlineRule) {
	saved := s.istack
	s.istack = stack
	defer func() { s.istack = saved }()
	parse.Scan(text, rules, stack.TopAppendText)
}

func urlBoundary(m parse.Match) bool {
	before := m.Before()
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r) || strings.ContainsRune("([", r)
}

func (s *state) inlineURL(m parse.Match) {
	target := m.Text()
	tail := ""
	if last := target[len(target)-1]; strings.IndexByte(",.:;!?)", last) >= 0 {
		target, tail = target[:len(target)-1], target[len(target)-1:]
	}
	a := dom.Elem("a", dom.Text(target))
	a.SetAttr(dom.XLinkHref, target)
	s.istack.TopAppend(a)
	s.istack.TopAppendText(tail)
}

// pipeArgs parses link and template arguments, which are separated by pipes
// rather than spaces. A value may be quoted to contain pipes.
func pipeArgs(text string) args.Arguments {
	a := args.New()
	if strings.TrimSpace(text) == "" {
		return a
	}
	for _, seg := range splitPipes(text) {
		if m := keyValueRe.FindStringSubmatch(seg); m != nil {
			a.Keyword[m[1]] = unquote(strings.TrimSpace(m[2]))
			continue
		}
		a.Positional = append(a.Positional, unquote(strings.TrimSpace(seg)))
	}
	return a
}

// splitPipes splits text at pipes outside quoted values. A quote only opens
// a value at the start of a segment or right after key=.
func splitPipes(text string) []string {
	var parts []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(text) {
				cur.WriteByte(c)
				i++
				c = text[i]
			} else if c == quote {
				quote = 0
			}
		case c == '|':
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		case c == '"' || c == '\'':
			if prefix := cur.String(); strings.TrimSpace(prefix) == "" || keyPrefixRe.MatchString(prefix) {
				quote = c
			}
		}
		cur.WriteByte(c)
	}
	return append(parts, cur.String())
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		inner := v[1 : len(v)-1]
		return strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`).Replace(inner)
	}
	return v
}

// templateArgs rewrites |a|k=v template arguments in the argument
// mini-language read by the macro pass.
func templateArgs(text string) string {
	text = strings.TrimPrefix(text, "|")
	if text == "" {
		return ""
	}
	a := pipeArgs(text)
	out, err := args.Unparse(a)
	if err != nil {
		return text
	}
	return out
}

func (s *state) inlineLink(m parse.Match) {
	if ext := m.Group("external_url"); ext != "" {
		a := dom.Elem("a")
		a.SetAttr(dom.XLinkHref, ext)
		s.linkBody(a, m.Group("alt_text"), ext)
		return
	}

	pa := pipeArgs(strings.TrimPrefix(m.Group("link_args"), "|"))
	caption := ""
	if n := len(pa.Positional); n > 0 {
		caption = strings.TrimSpace(pa.Positional[n-1])
	}
	target := m.Group("link_target")

	if scheme, item, ok := strings.Cut(target, ":"); ok && (scheme == "File" || scheme == "Image") {
		s.fileObject(item, pa.Keyword, caption)
		return
	}
	if parse.Scheme(target) != "" && parse.AllowedScheme(target) {
		a := dom.Elem("a")
		a.SetAttr(dom.XLinkHref, target)
		s.linkBody(a, caption, target)
		return
	}

	path, fragment, hasFragment := strings.Cut(target, "#")
	href := "wiki.local:" + parse.EscapePath(path)
	if len(pa.Keyword) > 0 {
		href += "?" + encode(pa.Keyword)
	}
	if hasFragment {
		href += "#" + url.PathEscape(fragment)
	}
	a := dom.Elem("a")
	a.SetAttr(dom.XLinkHref, href)
	s.linkBody(a, caption, target)
}

// fileObject embeds an uploaded item. By default the raw item is fetched.
func (s *state) fileObject(item string, keyword map[string]string, caption string) {
	q := map[string]string{"do": "get"}
	for k, v := range keyword {
		q[k] = v
	}
	if caption == "" {
		caption = item
	}
	obj := dom.Elem("object")
	obj.SetAttr(dom.XLinkHref, "wiki.local:"+parse.EscapePath(item)+"?"+encode(q))
	obj.SetAttr(dom.AttrAlt, caption)
	s.istack.Push(obj)
	s.parseInline(caption, s.istack, s.inlineDesc)
	s.istack.PopName("object")
}

func encode(kv map[string]string) string {
	v := url.Values{}
	for k, val := range kv {
		v.Set(k, val)
	}
	return v.Encode()
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

func (s *state) inlineTemplate(m parse.Match) {
	name := strings.TrimSpace(m.Group("template_name"))
	s.istack.TopAppend(parse.MacroPlaceholder(name, templateArgs(m.Group("template_args")), m.Text(), false))
}

func (s *state) inlineBreak(parse.Match) {
	s.istack.TopAppend(dom.Elem("line-break"))
}

func (s *state) inlineBlockquote(m parse.Match) {
	if m.Has("quote_close") {
		s.close("blockquote")
		return
	}
	s.istack.Push(dom.Elem("blockquote"))
}

func (s *state) inlineFootnote(m parse.Match) {
	if m.Has("ref_close") {
		s.close("note")
		return
	}
	note := dom.Elem("note")
	note.SetAttr(dom.AttrNoteClass, "footnote")
	s.istack.Push(note)
	s.istack.Push(dom.Elem("note-body"))
}

func (s *state) inlineTag(m parse.Match) {
	name := m.Group("tag_name")
	if m.Has("tag_close") {
		s.close(name)
		return
	}
	s.istack.Push(dom.Elem(name))
}

// close pops up to the innermost open element named name. Stray closing
// tags are ignored.
func (s *state) close(name string) {
	st := s.istack
	for i := st.Len() - 1; i > 0; i-- {
		if st.At(i).Is(name) {
			st.PopName(name)
			return
		}
	}
}

func (s *state) inlineNowiki(m parse.Match) {
	switch {
	case m.Has("pre_text"):
		if text := m.Group("pre_text"); text != "" {
			s.istack.TopAppend(dom.Elem("blockcode", dom.Text(text)))
		}
	case m.Has("code_text"):
		s.istack.TopAppend(dom.Elem("code", dom.Text(m.Group("code_text"))))
	case m.Has("tt_text"):
		s.istack.TopAppend(dom.Elem("code", dom.Text(m.Group("tt_text"))))
	default:
		s.istack.TopAppend(dom.Elem("code", dom.Text(m.Group("nowiki_text"))))
	}
}

func (s *state) inlineEmphStrong(m parse.Match) {
	st := s.istack
	toggle := func(name string) {
		if st.TopCheck(name) {
			st.Pop()
		} else {
			st.Push(dom.Elem(name))
		}
	}
	switch len(m.Text()) {
	case 2:
		toggle("emphasis")
	case 3:
		toggle("strong")
	case 5:
		switch {
		case st.TopCheck("emphasis"):
			st.Pop()
			toggle("strong")
		case st.TopCheck("strong"):
			st.Pop()
			toggle("emphasis")
		case follow(m.After()) == 3:
			st.Push(dom.Elem("emphasis"))
			st.Push(dom.Elem("strong"))
		default:
			st.Push(dom.Elem("strong"))
			st.Push(dom.Elem("emphasis"))
		}
	}
}

// follow returns the length of the next quote run when it closes a single
// style, or 0.
func follow(after string) int {
	m := followRe.FindStringSubmatch(after)
	if m == nil || (len(m[1]) != 2 && len(m[1]) != 3) {
		return 0
	}
	return len(m[1])
}

func (s *state) inlineShift(shift string) func(parse.Match) {
	return func(m parse.Match) {
		span := dom.Elem("span", dom.Text(m.Group("shift_text")))
		span.SetAttr(dom.AttrBaselineShift, shift)
		s.istack.TopAppend(span)
	}
}

func (s *state) inlineEntity(m parse.Match) {
	s.istack.TopAppendText(html.UnescapeString(m.Text()))
}
