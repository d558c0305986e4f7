package rst

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var (
	escapeRe     = regexp.MustCompile(`(?s)\\(?P<escaped>.)`)
	literalRe    = regexp.MustCompile("(?s)``(?P<literal>.+?)``")
	strongRe     = regexp.MustCompile(`(?s)\*\*(?P<strong>[^\s*](?:.*?[^\s])??)\*\*`)
	emphasisRe   = regexp.MustCompile(`(?s)\*(?P<emphasis>[^\s*](?:[^*]*?[^\s])??)\*`)
	roleRe       = regexp.MustCompile(":(?P<role>[\\w-]+):`(?P<role_text>[^`]+)`")
	embeddedRe   = regexp.MustCompile("`(?P<link_text>[^`<]*?)\\s*<(?P<link_url>[^`>]+)>`(?P<link_anon>_?)_")
	phraseRe     = regexp.MustCompile("`(?P<phrase>[^`]+)`(?P<phrase_anon>_?)_")
	interpRe     = regexp.MustCompile("`(?P<interpreted>[^`]+)`")
	footRefRe    = regexp.MustCompile(`\[(?P<footnote>#[\w-]*|\*|\d+)\]_`)
	subRefRe     = regexp.MustCompile(`\|(?P<substitution>[^|\s](?:[^|]*[^|\s])?)\|`)
	wordRefRe    = regexp.MustCompile(`(?P<word>[\pL\pN](?:[\pL\pN]|[-.+:][\pL\pN])*)(?P<word_anon>_?)_`)
	standaloneRe = regexp.MustCompile(`(?:` + parse.URISchemePattern + `):[^\s<>"]+`)
)

const (
	startPunct = `'"([{<-/:`
	endPunct   = `'")]}>-/:.,;!?\`
)

// opens reports whether inline markup may start after before.
func opens(before string) bool {
	r, _ := utf8.DecodeLastRuneInString(before)
	return before == "" || unicode.IsSpace(r) || strings.ContainsRune(startPunct, r)
}

// closes reports whether inline markup may end before after.
func closes(after string) bool {
	r, _ := utf8.DecodeRuneInString(after)
	return after == "" || unicode.IsSpace(r) || strings.ContainsRune(endPunct, r)
}

func bounded(m parse.Match) bool { return opens(m.Before()) && closes(m.After()) }

// inlineInto parses text with the inline grammar and appends the result to
// el.
func (s *state) inlineInto(text string, el *dom.Element) {
	saved := s.cur
	s.cur = el
	parse.Scan(text, s.inline, el.AppendText)
	s.cur = saved
}

func (s *state) inlineRules() []parse.InlineRule {
	return []parse.InlineRule{
		{Name: "escape", Re: escapeRe, Handle: s.inlineEscape},
		{Name: "literal", Re: literalRe, Accept: bounded, Handle: func(m parse.Match) {
			s.cur.Append(dom.Elem("code", dom.Text(m.Group("literal"))))
		}},
		{Name: "strong", Re: strongRe, Accept: bounded, Handle: func(m parse.Match) {
			s.cur.Append(dom.Elem("strong", dom.Text(m.Group("strong"))))
		}},
		{Name: "emphasis", Re: emphasisRe, Accept: bounded, Handle: func(m parse.Match) {
			s.cur.Append(dom.Elem("emphasis", dom.Text(m.Group("emphasis"))))
		}},
		{Name: "role", Re: roleRe, Accept: bounded, Handle: s.inlineRole},
		{Name: "embedded", Re: embeddedRe, Accept: bounded, Handle: s.inlineEmbedded},
		{Name: "phrase", Re: phraseRe, Accept: bounded, Handle: s.inlinePhrase},
		{Name: "interpreted", Re: interpRe, Accept: bounded, Handle: func(m parse.Match) {
			s.cur.Append(dom.Elem("emphasis", dom.Text(m.Group("interpreted"))))
		}},
		{Name: "footnote", Re: footRefRe, Accept: func(m parse.Match) bool { return closes(m.After()) }, Handle: s.inlineFootnote},
		{Name: "substitution", Re: subRefRe, Accept: bounded, Handle: s.inlineSubstitution},
		{Name: "word", Re: wordRefRe, Accept: s.knownWord, Handle: s.inlineWord},
		{Name: "url", Re: standaloneRe, Accept: func(m parse.Match) bool { return opens(m.Before()) }, Handle: s.inlineURL},
	}
}

func (s *state) inlineEscape(m parse.Match) {
	switch c := m.Group("escaped"); c {
	case " ", "\n":
	default:
		s.cur.AppendText(c)
	}
}

func (s *state) inlineRole(m parse.Match) {
	text := m.Group("role_text")
	switch m.Group("role") {
	case "sub", "subscript":
		span := dom.Elem("span", dom.Text(text))
		span.SetAttr(dom.AttrBaselineShift, "sub")
		s.cur.Append(span)
	case "sup", "superscript":
		span := dom.Elem("span", dom.Text(text))
		span.SetAttr(dom.AttrBaselineShift, "super")
		s.cur.Append(span)
	case "strong":
		s.cur.Append(dom.Elem("strong", dom.Text(text)))
	case "emphasis", "title-reference", "title", "t":
		s.cur.Append(dom.Elem("emphasis", dom.Text(text)))
	case "literal", "code":
		s.cur.Append(dom.Elem("code", dom.Text(text)))
	default:
		s.report.AddWarning("unknown interpreted text role %q", m.Group("role"))
		s.cur.AppendText(text)
	}
}

// link appends an a element, or just text when the target is not allowed.
func (s *state) link(target, text string) {
	href, ok := resolveURL(target)
	if !ok {
		s.cur.AppendText(text)
		return
	}
	a := dom.Elem("a", dom.Text(text))
	a.SetAttr(dom.XLinkHref, href)
	s.cur.Append(a)
}

func (s *state) inlineEmbedded(m parse.Match) {
	url := m.Group("link_url")
	text := m.Group("link_text")
	if text == "" {
		text = url
	}
	if name, ok := strings.CutSuffix(url, "_"); ok {
		if target, known := s.targets[normalizeName(name)]; known {
			url = target
		}
	}
	s.link(url, text)
}

// nextAnonymous consumes the next anonymous target.
func (s *state) nextAnonymous() (string, bool) {
	if s.anonymousUsed >= len(s.anonymous) {
		return "", false
	}
	s.anonymousUsed++
	return s.anonymous[s.anonymousUsed-1], true
}

func (s *state) reference(name string, anonymous bool) {
	var target string
	var ok bool
	if anonymous {
		target, ok = s.nextAnonymous()
	} else {
		target, ok = s.targets[normalizeName(name)]
	}
	if !ok {
		s.report.AddWarning("unknown target name %q", name)
		s.cur.AppendText(name)
		return
	}
	s.link(target, name)
}

func (s *state) inlinePhrase(m parse.Match) {
	s.reference(m.Group("phrase"), m.Group("phrase_anon") != "")
}

func (s *state) knownWord(m parse.Match) bool {
	if !bounded(m) {
		return false
	}
	if m.Group("word_anon") != "" {
		return s.anonymousUsed < len(s.anonymous)
	}
	_, ok := s.targets[normalizeName(m.Group("word"))]
	return ok
}

func (s *state) inlineWord(m parse.Match) {
	s.reference(m.Group("word"), m.Group("word_anon") != "")
}

func (s *state) inlineFootnote(m parse.Match) {
	label := m.Group("footnote")
	var text string
	var ok bool
	switch label {
	case "#", "*":
		if ok = s.autoUsed < len(s.autoFootnotes); ok {
			text = s.autoFootnotes[s.autoUsed]
			s.autoUsed++
		}
	default:
		text, ok = s.footnotes[label]
	}
	if !ok {
		s.report.AddWarning("footnote %q has no definition", label)
		s.cur.AppendText(m.Text())
		return
	}
	body := dom.Elem("note-body")
	s.inlineInto(text, body)
	note := dom.Elem("note", body)
	note.SetAttr(dom.AttrNoteClass, "footnote")
	s.cur.Append(note)
}

func (s *state) inlineSubstitution(m parse.Match) {
	name := m.Group("substitution")
	sub, ok := s.substitutions[name]
	if !ok {
		s.report.AddWarning("undefined substitution %q", name)
		s.cur.AppendText(m.Text())
		return
	}
	switch sub.directive {
	case "image":
		s.cur.Append(s.image(sub.args, sub.options, name))
	case "macro":
		if n := s.macro(sub.args, false); n != nil {
			s.cur.Append(n)
		}
	default:
		s.cur.AppendText(sub.args)
	}
}

func (s *state) inlineURL(m parse.Match) {
	u := m.Text()
	trimmed := strings.TrimRight(u, ".,;:!?)")
	s.link(trimmed, trimmed)
	s.cur.AppendText(u[len(trimmed):])
}
