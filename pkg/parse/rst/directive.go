package rst

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
)

var (
	directiveRe = regexp.MustCompile(`^\.\.\s+(?P<name>[\w-]+)::(?:\s+(?P<args>.*))?$`)
	macroCallRe = regexp.MustCompile(`^(?:<<)?(?P<name>\w+)(?:\((?P<args>.*)\))?(?:>>)?$`)
)

var admonitions = map[string]bool{
	"attention": true, "caution": true, "danger": true, "error": true, "hint": true,
	"important": true, "note": true, "tip": true, "warning": true,
}

// explicit handles the ".." markup block starting at line i: targets,
// footnote and substitution definitions, directives and comments.
func (s *state) explicit(lines []string, i int, parent *dom.Element) int {
	end := indented(lines, i+1, 1)
	first := lines[i]
	rest := lines[i+1 : end]

	switch {
	case footnoteRe.MatchString(first), substitutionRe.MatchString(first), anonTargetRe.MatchString(first):
		return end
	case targetRe.MatchString(first):
		m := targetRe.FindStringSubmatch(first)
		if strings.TrimSpace(m[2]) == "" {
			span := dom.Elem("span")
			span.SetAttr(dom.AttrID, refID(strings.Trim(m[1], "`")))
			parent.Append(span)
		}
		return end
	}

	if m := directiveRe.FindStringSubmatch(first); m != nil {
		source := strings.Join(lines[i:end], "\n")
		s.directive(m[1], strings.TrimSpace(m[2]), rest, parent, source)
		return end
	}

	var text []string
	if t := strings.TrimSpace(first[2:]); t != "" {
		text = append(text, t)
	}
	text = append(text, dedent(rest, minIndent(rest))...)
	div := dom.Elem("div", dom.Text(strings.Join(text, "\n")))
	div.SetAttr(dom.AttrClass, "comment dashed")
	parent.Append(div)
	return end
}

// options splits a directive body into its leading :key: value options and
// the content after them.
func options(body []string) (map[string]string, []string) {
	body = dedent(body, minIndent(body))
	opts := map[string]string{}
	k := 0
	for ; k < len(body) && !blank(body[k]); k++ {
		m := optionRe.FindStringSubmatch(body[k])
		if m == nil {
			break
		}
		opts[m[1]] = strings.TrimSpace(m[2])
	}
	return opts, body[skipBlank(body, k):]
}

func (s *state) directive(name, arg string, body []string, parent *dom.Element, source string) {
	opts, content := options(body)
	name = strings.ToLower(name)

	switch {
	case name == "image" || name == "figure":
		img := s.image(arg, opts, "")
		if name == "figure" && len(content) > 0 {
			caption := dom.Elem("p")
			s.inlineInto(strings.Join(content, "\n"), caption)
			parent.Append(dom.Elem("div", img, caption))
			return
		}
		parent.Append(img)
	case name == "macro":
		if n := s.macro(arg, true); n != nil {
			parent.Append(n)
		}
	case name == "contents":
		toc := dom.Elem("table-of-content")
		if depth, err := strconv.Atoi(opts["depth"]); err == nil && depth > 0 {
			toc.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(min(depth, 6)))
		}
		parent.Append(toc)
	case name == "include":
		m := parse.Macros{Report: s.report}
		if n := m.Node("Include", arg, "<<Include("+arg+")>>", true); n != nil {
			parent.Append(n)
		}
	case name == "parser":
		parent.Append(s.embed(arg, content, source))
	case name == "code-block" || name == "code" || name == "sourcecode":
		code := dom.Elem("blockcode", dom.Text(strings.Join(content, "\n")))
		if arg != "" {
			code.SetAttr(dom.AttrLanguage, strings.Fields(arg)[0])
		}
		parent.Append(code)
	case admonitions[name]:
		if arg != "" {
			content = append([]string{arg, ""}, content...)
		}
		parent.Append(s.admonition(name, content))
	case name == "admonition":
		adm := s.admonition("admonition", content)
		if arg != "" {
			title := dom.Elem("p")
			title.SetAttr(dom.AttrClass, "admonition-title")
			s.inlineInto(arg, title)
			adm.Children = append([]dom.Node{title}, adm.Children...)
		}
		parent.Append(adm)
	default:
		s.report.AddWarning("Unknown directive type %q.", name)
		adm := dom.Elem("admonition", dom.Elem("p", dom.Text(`Unknown directive type "`+name+`".`)))
		adm.SetAttr(dom.AttrType, "error")
		parent.Append(adm)
	}
}

func (s *state) admonition(kind string, content []string) *dom.Element {
	adm := dom.Elem("admonition")
	adm.SetAttr(dom.AttrType, kind)
	s.blocks(content, adm)
	return adm
}

// image builds the node for an image directive or substitution. Local
// targets are transcluded; URLs become objects.
func (s *state) image(target string, opts map[string]string, alt string) *dom.Element {
	target = strings.Join(strings.Fields(target), "")
	var el *dom.Element
	if parse.Scheme(target) != "" && parse.AllowedScheme(target) {
		el = dom.Elem("object")
		el.SetAttr(dom.XLinkHref, target)
	} else {
		el = dom.New(dom.XIncludeElement, nil)
		el.SetAttr(dom.XIncludeHref, "wiki.local:"+parse.EscapePath(target))
	}
	if v, ok := opts["alt"]; ok {
		alt = v
	}
	if alt != "" {
		el.SetAttr(dom.HTMLAlt, alt)
	}

	scale := 100
	if v, err := strconv.Atoi(strings.TrimSuffix(opts["scale"], "%")); err == nil && v > 0 {
		scale = v
	}
	for key, attr := range map[string]dom.QName{"width": dom.HTMLWidth, "height": dom.HTMLHeight} {
		v, err := strconv.Atoi(strings.TrimSuffix(opts[key], "px"))
		if err != nil || v <= 0 {
			continue
		}
		el.SetAttr(attr, strconv.Itoa(v*scale/100))
	}
	return el
}

// macro accepts both <<Name(args)>> and Name(args).
func (s *state) macro(call string, block bool) dom.Node {
	m := macroCallRe.FindStringSubmatch(strings.TrimSpace(call))
	if m == nil {
		s.report.AddWarning("invalid macro call %q", call)
		return dom.ErrorSpan(call)
	}
	alt := "<<" + m[1]
	if strings.Contains(call, "(") {
		alt += "(" + m[2] + ")"
	}
	alt += ">>"
	macros := parse.Macros{
		Report: s.report,
		Inline: func(text string, parent *dom.Element) { s.inlineInto(text, parent) },
	}
	return macros.Node(m[1], m[2], alt, block)
}

// embed handles ".. parser:: name args" blocks.
func (s *state) embed(arg string, content []string, source string) *dom.Element {
	name, rawArgs, _ := strings.Cut(arg, " ")
	e := parse.Embedder{
		Formats:     s.p.formats,
		Report:      s.report,
		NativeNames: []string{"rst", "rest", mime.RST.String()},
		Native: func(content, _, _ string) *dom.Element {
			body := dom.Elem("body")
			s.blocks(splitLines(content), body)
			return body
		},
	}
	return e.Embed(name, strings.TrimSpace(rawArgs), "#!"+arg, strings.Join(content, "\n"), source)
}
