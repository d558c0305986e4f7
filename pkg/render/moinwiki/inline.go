package moinwiki

import (
	"net/url"
	"sort"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render"
)

func (s *Serializer) inlines(e *dom.Element) string {
	var sb strings.Builder
	for _, c := range e.Children {
		switch n := c.(type) {
		case dom.Text:
			sb.WriteString(string(n))
		case *dom.Element:
			sb.WriteString(s.inline(n))
		}
	}
	return sb.String()
}

// inlineMarkup maps elements to the symmetric markup around their content.
var inlineMarkup = map[string][2]string{
	"emphasis": {"''", "''"},
	"strong":   {"'''", "'''"},
	"del":      {"--(", ")--"},
	"s":        {"--(", ")--"},
	"ins":      {"__", "__"},
	"u":        {"__", "__"},
}

func (s *Serializer) inline(e *dom.Element) string {
	if e.Name == dom.XIncludeElement {
		return s.include(e)
	}
	if e.Name.Space != dom.Moin {
		return s.inlines(e)
	}
	if m, ok := inlineMarkup[e.Name.Local]; ok {
		return m[0] + s.inlines(e) + m[1]
	}
	switch e.Name.Local {
	case "code":
		text := e.Text()
		if strings.Contains(text, "`") {
			return "{{{" + text + "}}}"
		}
		return "`" + text + "`"
	case "samp":
		return "{{{" + e.Text() + "}}}"
	case "span":
		return s.span(e)
	case "line-break":
		return "<<BR>>"
	case "a":
		return s.link(e)
	case "note":
		body := e.First("note-body")
		if body == nil {
			return "<<FootNote()>>"
		}
		return "<<FootNote(" + s.inlines(body) + ")>>"
	case "inline-part", "part":
		return s.part(e)
	case "object":
		return s.object(e, e.Attr(dom.XLinkHref))
	case "quote":
		return `"` + s.inlines(e) + `"`
	case "p", "div":
		if render.IsError(e) {
			return ""
		}
		return s.inlines(e)
	case "arguments":
		return ""
	}
	return s.inlines(e)
}

func (s *Serializer) span(e *dom.Element) string {
	if render.IsError(e) {
		return ""
	}
	inner := s.inlines(e)
	switch {
	case e.HasClass("comment"):
		return "/* " + inner + " */"
	case e.Attr(dom.AttrBaselineShift) == "super":
		return "^" + inner + "^"
	case e.Attr(dom.AttrBaselineShift) == "sub":
		return ",," + inner + ",,"
	}
	switch e.Attr(dom.AttrFontSize) {
	case "120%":
		return "~+" + inner + "+~"
	case "85%":
		return "~-" + inner + "-~"
	}
	return inner
}

// linkAttrs are the xhtml attributes a link carries in its parameter part.
var linkAttrs = []string{"accesskey", "class", "download", "target", "title"}

// link writes [[target|text|params]]. The text is left out when it is the
// one the parser derives from the target.
func (s *Serializer) link(e *dom.Element) string {
	href := e.Attr(dom.XLinkHref)
	target, fallback := linkTarget(href)
	text := s.inlines(e)

	var params []string
	for _, k := range linkAttrs {
		if v, ok := e.Lookup(dom.XHTML.Name(k)); ok {
			params = append(params, k+"="+quote(v))
		}
	}
	sort.Strings(params)

	out := "[[" + target
	plain := len(e.Elements()) == 0 && text == fallback
	if !plain || len(params) > 0 {
		out += "|" + text
	}
	if len(params) > 0 {
		out += "|" + strings.Join(params, " ")
	}
	return out + "]]"
}

// linkTarget turns an href back into link source, returning the text the
// parser would fill in for a link without description.
func linkTarget(href string) (target, text string) {
	if rest, ok := strings.CutPrefix(href, "wiki.local:"); ok {
		rest, fragment, hasFragment := strings.Cut(rest, "#")
		path, query, hasQuery := strings.Cut(rest, "?")
		if p, err := url.PathUnescape(path); err == nil {
			path = p
		}
		text = path
		if hasQuery {
			text += "?" + query
		}
		target = text
		if hasFragment {
			if f, err := url.PathUnescape(fragment); err == nil {
				fragment = f
			}
			target += "#" + fragment
		}
		return target, text
	}
	if rest, ok := strings.CutPrefix(href, "wiki://"); ok {
		site, page, _ := strings.Cut(rest, "/")
		if p, err := url.PathUnescape(page); err == nil {
			page = p
		}
		return site + ":" + page, page
	}
	return href, href
}
