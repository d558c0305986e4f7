package rst

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

var (
	bulletRe       = regexp.MustCompile(`^(?P<marker>[-*+•‣⁃])(?P<space> +|$)`)
	enumRe         = regexp.MustCompile(`^(?P<open>\(?)(?P<seq>\d+|#|[ivxlcdm]+|[IVXLCDM]+|[a-zA-Z])(?P<close>[.)])(?P<space> +|$)`)
	fieldRe        = regexp.MustCompile(`^:(?P<name>[^:\s][^:]*?):(?:\s+(?P<body>.*))?$`)
	lineBlockRe    = regexp.MustCompile(`^\|(?: (?P<text>.*))?$`)
	explicitRe     = regexp.MustCompile(`^\.\.(?:\s|$)`)
	gridRe         = regexp.MustCompile(`^\+[-=]`)
	simpleBorderRe = regexp.MustCompile(`^=+(?: +=+)+$`)
	doctestRe      = regexp.MustCompile(`^>>>(?: |$)`)
	romanLowerRe   = regexp.MustCompile(`^[ivxlcdm]+$`)
	romanUpperRe   = regexp.MustCompile(`^[IVXLCDM]+$`)
)

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func blank(line string) bool { return strings.TrimSpace(line) == "" }

func indentOf(line string) int { return len(line) - len(strings.TrimLeft(line, " ")) }

// indented returns the end of the run of lines from start that are blank or
// indented by at least n. Trailing blank lines are not part of the run.
func indented(lines []string, start, n int) int {
	j := start
	for j < len(lines) && (blank(lines[j]) || indentOf(lines[j]) >= n) {
		j++
	}
	for j > start && blank(lines[j-1]) {
		j--
	}
	return j
}

func dedent(lines []string, n int) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l[min(n, indentOf(l)):]
	}
	return out
}

func minIndent(lines []string) int {
	m := -1
	for _, l := range lines {
		if blank(l) {
			continue
		}
		if n := indentOf(l); m < 0 || n < m {
			m = n
		}
	}
	return max(m, 0)
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && blank(lines[i]) {
		i++
	}
	return i
}

func isAdornment(line string) bool {
	if len(line) < 2 || !strings.ContainsRune(adornmentChars, rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}

// adornmentFits reports whether adornment is long enough for title.
func adornmentFits(adornment, title string) bool {
	return len(adornment) >= 4 || len(adornment) >= utf8.RuneCountInString(strings.TrimSpace(title))
}

// blocks parses lines into children of parent.
func (s *state) blocks(lines []string, parent *dom.Element) {
	for i := 0; i < len(lines); {
		if blank(lines[i]) {
			i++
			continue
		}
		if indentOf(lines[i]) > 0 {
			end := indented(lines, i, 1)
			quote := dom.Elem("blockquote")
			s.blocks(dedent(lines[i:end], minIndent(lines[i:end])), quote)
			parent.Append(quote)
			i = end
			continue
		}
		i = s.block(lines, i, parent)
	}
}

// block parses the construct starting at the unindented line i and returns
// the index of the first line after it.
func (s *state) block(lines []string, i int, parent *dom.Element) int {
	line := lines[i]
	next := ""
	if i+1 < len(lines) {
		next = lines[i+1]
	}

	switch {
	case isAdornment(line) && i+2 < len(lines) && !blank(next) && lines[i+2] == line && adornmentFits(line, next):
		s.heading(parent, next, "o"+line[:1])
		return i + 3
	case isAdornment(line) && len(line) >= 4 && blank(next):
		sep := dom.Elem("separator")
		sep.SetAttr(dom.AttrClass, "moin-hr3")
		parent.Append(sep)
		return i + 1
	case !isAdornment(line) && !explicitRe.MatchString(line) && isAdornment(next) && adornmentFits(next, line):
		s.heading(parent, line, next[:1])
		return i + 2
	case gridRe.MatchString(line):
		return s.gridTable(lines, i, parent)
	case simpleBorderRe.MatchString(line):
		return s.simpleTable(lines, i, parent)
	case explicitRe.MatchString(line):
		return s.explicit(lines, i, parent)
	case anonTargetRe.MatchString(line):
		return i + 1
	case bulletRe.MatchString(line):
		return s.bulletList(lines, i, parent)
	case s.startsEnumList(lines, i):
		return s.enumList(lines, i, parent)
	case fieldRe.MatchString(line):
		return s.fieldList(lines, i, parent)
	case lineBlockRe.MatchString(line):
		return s.lineBlock(lines, i, parent)
	case doctestRe.MatchString(line):
		j := i
		for j < len(lines) && !blank(lines[j]) {
			j++
		}
		parent.Append(dom.Elem("blockcode", dom.Text(strings.Join(lines[i:j], "\n"))))
		return j
	case !blank(next) && indentOf(next) > 0:
		return s.definitionList(lines, i, parent)
	}
	return s.paragraph(lines, i, parent)
}

// plain reports whether line starts no construct of its own.
func (s *state) plain(lines []string, i int) bool {
	line := lines[i]
	return !explicitRe.MatchString(line) && !bulletRe.MatchString(line) && !fieldRe.MatchString(line) &&
		!gridRe.MatchString(line) && !s.startsEnumList(lines, i)
}

func (s *state) heading(parent *dom.Element, text, style string) {
	h := dom.Elem("h")
	s.inlineInto(strings.TrimSpace(text), h)
	s.styles[h] = style
	parent.Append(h)
}

func (s *state) paragraph(lines []string, i int, parent *dom.Element) int {
	j := i
	for j < len(lines) && !blank(lines[j]) && indentOf(lines[j]) == 0 {
		j++
	}
	text := strings.Join(lines[i:j], "\n")

	literal := strings.HasSuffix(text, "::")
	if literal {
		switch {
		case text == "::":
			text = ""
		case strings.HasSuffix(text, " ::"), strings.HasSuffix(text, "\n::"):
			text = strings.TrimRight(text[:len(text)-2], " \n")
		default:
			text = text[:len(text)-1]
		}
	}
	if text != "" {
		p := dom.Elem("p")
		s.inlineInto(text, p)
		parent.Append(p)
	}
	if !literal {
		return j
	}

	k := skipBlank(lines, j)
	if k == len(lines) || indentOf(lines[k]) == 0 {
		s.report.AddWarning("literal block expected; none found (line %d)", j)
		return k
	}
	end := indented(lines, k, 1)
	code := dedent(lines[k:end], minIndent(lines[k:end]))
	parent.Append(dom.Elem("blockcode", dom.Text(strings.Join(code, "\n"))))
	return end
}

func (s *state) definitionList(lines []string, i int, parent *dom.Element) int {
	list := dom.Elem("list")
	for {
		term := lines[i]
		end := indented(lines, i+1, 1)
		body := lines[i+1 : end]

		label := dom.Elem("list-item-label")
		parts := strings.Split(term, " : ")
		s.inlineInto(strings.TrimSpace(parts[0]), label)
		for _, c := range parts[1:] {
			span := dom.Elem("span")
			span.SetAttr(dom.AttrClass, "classifier")
			s.inlineInto(strings.TrimSpace(c), span)
			label.Append(span)
		}
		itemBody := dom.Elem("list-item-body")
		s.blocks(dedent(body, minIndent(body)), itemBody)
		list.Append(dom.Elem("list-item", label, itemBody))

		i = end
		k := skipBlank(lines, i)
		if k+1 < len(lines) && indentOf(lines[k]) == 0 && s.plain(lines, k) &&
			!blank(lines[k+1]) && indentOf(lines[k+1]) > 0 {
			i = k
			continue
		}
		break
	}
	parent.Append(list)
	return i
}

// item parses one list item whose content starts width bytes into line i.
func (s *state) item(lines []string, i, width int) (*dom.Element, int) {
	end := indented(lines, i+1, 1)
	if width >= len(lines[i]) {
		// Marker alone on its line: the content sets the indentation.
		width = max(minIndent(lines[i+1:end]), 1)
	}
	body := dedent(lines[i+1:end], width)
	if width < len(lines[i]) {
		body = append([]string{lines[i][width:]}, body...)
	}
	itemBody := dom.Elem("list-item-body")
	s.blocks(body, itemBody)
	return dom.Elem("list-item", itemBody), end
}

func (s *state) bulletList(lines []string, i int, parent *dom.Element) int {
	marker := bulletRe.FindStringSubmatch(lines[i])[1]
	list := dom.Elem("list")
	list.SetAttr(dom.AttrItemLabelGenerate, "unordered")
	for {
		m := bulletRe.FindStringSubmatch(lines[i])
		li, end := s.item(lines, i, len(m[1])+len(m[2]))
		list.Append(li)
		i = end
		k := skipBlank(lines, i)
		if k < len(lines) {
			if m := bulletRe.FindStringSubmatch(lines[k]); m != nil && m[1] == marker {
				i = k
				continue
			}
		}
		break
	}
	parent.Append(list)
	return i
}

// enumerator is one parsed list enumerator such as "3.", "(b)" or "iv)".
type enumerator struct {
	style  string
	value  int
	format string
	width  int
}

func parseEnumerator(line string) (enumerator, bool) {
	m := enumRe.FindStringSubmatch(line)
	if m == nil {
		return enumerator{}, false
	}
	open, seq, closing := m[1], m[2], m[3]
	if open == "(" && closing != ")" {
		return enumerator{}, false
	}
	e := enumerator{format: open + closing, width: len(m[0])}
	switch {
	case seq == "#":
		e.style = "auto"
	case seq[0] >= '0' && seq[0] <= '9':
		e.style = "arabic"
		e.value, _ = strconv.Atoi(seq)
	case romanLowerRe.MatchString(seq) && (len(seq) > 1 || seq == "i"):
		e.style, e.value = "lower-roman", fromRoman(strings.ToUpper(seq))
	case romanUpperRe.MatchString(seq) && (len(seq) > 1 || seq == "I"):
		e.style, e.value = "upper-roman", fromRoman(seq)
	case len(seq) == 1 && seq[0] >= 'a' && seq[0] <= 'z':
		e.style, e.value = "lower-alpha", int(seq[0]-'a')+1
	case len(seq) == 1 && seq[0] >= 'A' && seq[0] <= 'Z':
		e.style, e.value = "upper-alpha", int(seq[0]-'A')+1
	default:
		return enumerator{}, false
	}
	if e.value == 0 && e.style != "auto" {
		return enumerator{}, false
	}
	return e, true
}

func fromRoman(s string) int {
	values := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v := values[s[i]]
		if i+1 < len(s) && values[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// startsEnumList reports whether line i opens an enumerated list: the
// enumerator must be followed by a blank line, indented text or another
// enumerator.
func (s *state) startsEnumList(lines []string, i int) bool {
	if _, ok := parseEnumerator(lines[i]); !ok {
		return false
	}
	if i+1 == len(lines) || blank(lines[i+1]) || indentOf(lines[i+1]) > 0 {
		return true
	}
	_, ok := parseEnumerator(lines[i+1])
	return ok
}

// continues reports whether next may follow an item numbered like first.
func (e enumerator) continues(next enumerator) bool {
	if next.format != e.format {
		return false
	}
	switch {
	case next.style == "auto", next.style == e.style:
		return true
	case e.style == "lower-roman" && romanLowerRe.MatchString(strings.ToLower(next.styleSeq())):
		return next.style == "lower-alpha"
	case e.style == "upper-roman" && next.style == "upper-alpha":
		return true
	}
	return false
}

func (e enumerator) styleSeq() string {
	if e.style == "lower-alpha" {
		return string(rune('a' + e.value - 1))
	}
	return ""
}

func (s *state) enumList(lines []string, i int, parent *dom.Element) int {
	first, _ := parseEnumerator(lines[i])
	list := dom.Elem("list")
	list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
	switch first.style {
	case "lower-alpha", "upper-alpha", "lower-roman", "upper-roman":
		list.SetAttr(dom.AttrListStyleType, first.style)
	}
	if first.value > 1 {
		list.SetAttr(dom.AttrListStart, strconv.Itoa(first.value))
	}
	for {
		e, _ := parseEnumerator(lines[i])
		li, end := s.item(lines, i, e.width)
		list.Append(li)
		i = end
		k := skipBlank(lines, i)
		if k < len(lines) {
			if next, ok := parseEnumerator(lines[k]); ok && first.continues(next) {
				i = k
				continue
			}
		}
		break
	}
	parent.Append(list)
	return i
}

// fieldList renders :name: body fields as a definition list.
func (s *state) fieldList(lines []string, i int, parent *dom.Element) int {
	list := dom.Elem("list")
	for i < len(lines) {
		m := fieldRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		end := indented(lines, i+1, 1)
		body := dedent(lines[i+1:end], minIndent(lines[i+1:end]))
		if m[2] != "" {
			body = append([]string{m[2]}, body...)
		}
		label := dom.Elem("list-item-label")
		s.inlineInto(m[1], label)
		itemBody := dom.Elem("list-item-body")
		s.blocks(body, itemBody)
		list.Append(dom.Elem("list-item", label, itemBody))
		i = skipBlank(lines, end)
		if i < len(lines) && !fieldRe.MatchString(lines[i]) {
			i = end
			break
		}
	}
	parent.Append(list)
	return i
}

// lineBlock keeps the line structure of | lines with explicit breaks.
func (s *state) lineBlock(lines []string, i int, parent *dom.Element) int {
	p := dom.Elem("p")
	p.SetAttr(dom.AttrClass, "line-block")
	first := true
	for i < len(lines) {
		m := lineBlockRe.FindStringSubmatch(lines[i])
		if m == nil {
			if !blank(lines[i]) && indentOf(lines[i]) > 0 && !first {
				p.AppendText(" ")
				s.inlineInto(strings.TrimSpace(lines[i]), p)
				i++
				continue
			}
			break
		}
		if !first {
			p.Append(dom.Elem("line-break"))
		}
		s.inlineInto(m[1], p)
		first = false
		i++
	}
	parent.Append(p)
	return i
}
