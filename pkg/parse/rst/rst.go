// Package rst parses a subset of reStructuredText into the document tree.
//
// The input is handled as nested blocks of lines: every construct that owns
// indented content (list items, directives, block quotes, table cells) is
// dedented and parsed again with the same grammar. Hyperlink targets,
// footnotes and substitution definitions may appear anywhere in the
// document, so they are collected before the blocks are built.
package rst

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

// Parser converts reStructuredText. It holds configuration only.
type Parser struct {
	formats format.Lookup
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithFormats sets the resolver for parser:: directives.
func WithFormats(l format.Lookup) Option {
	return func(p *Parser) { p.formats = l }
}

// WithLogger sets the logger receiving markup warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New returns a configured Parser.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Parse converts input into a page. The style keyword of a is set on the
// body.
func (p *Parser) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	lines := splitLines(input)
	s := p.newState()
	s.collect(lines)

	body := dom.Elem("body")
	if a != nil {
		if v, ok := a.Get("style"); ok {
			body.SetAttr(dom.AttrStyle, v)
		}
	}
	s.blocks(lines, body)
	s.levelHeadings(body)
	return dom.Elem("page", body), nil
}

// Warnings parses input and returns only the recorded warnings.
func (p *Parser) Warnings(input string) []string {
	s := p.newState()
	lines := splitLines(input)
	s.collect(lines)
	s.blocks(lines, dom.Elem("body"))
	return s.report.Warnings
}

// splitLines expands tabs and drops trailing blanks so that indentation can
// be compared by byte count.
func splitLines(input string) []string {
	lines := parse.SplitLines(input)
	for i, l := range lines {
		lines[i] = strings.TrimRight(strings.ReplaceAll(l, "\t", "        "), " ")
	}
	return lines
}

type substitution struct {
	directive string
	args      string
	options   map[string]string
}

type state struct {
	p      *Parser
	report *parse.Report

	// Collected before the block pass.
	targets       map[string]string
	anonymous     []string
	footnotes     map[string]string
	autoFootnotes []string
	substitutions map[string]substitution

	anonymousUsed int
	autoUsed      int

	styles map[*dom.Element]string
	inline []parse.InlineRule
	// cur receives inline output.
	cur *dom.Element
}

func (p *Parser) newState() *state {
	s := &state{
		p:             p,
		report:        &parse.Report{Logger: p.logger},
		targets:       map[string]string{},
		footnotes:     map[string]string{},
		substitutions: map[string]substitution{},
		styles:        map[*dom.Element]string{},
	}
	s.inline = s.inlineRules()
	return s
}

var (
	targetRe       = regexp.MustCompile(`^\s*\.\.\s+_(?P<name>[^:` + "`" + `]+|` + "`[^`]+`" + `):(?:\s+(?P<url>\S.*))?$`)
	anonTargetRe   = regexp.MustCompile(`^\s*(?:\.\.\s+__:|__)\s+(?P<url>\S.*)$`)
	footnoteRe     = regexp.MustCompile(`^(?P<indent>\s*)\.\.\s+\[(?P<label>[^\]]+)\](?:\s+(?P<text>.*))?$`)
	substitutionRe = regexp.MustCompile(`^(?P<indent>\s*)\.\.\s+\|(?P<name>[^|]+)\|\s+(?P<directive>[\w-]+)::\s*(?P<args>.*)$`)
	optionRe       = regexp.MustCompile(`^\s*:(?P<key>[\w-]+):\s*(?P<value>.*)$`)
	emailRe        = regexp.MustCompile(`^[\w.+-]+@[\w-]+(?:\.[\w-]+)+$`)
)

// collect records hyperlink targets, footnote bodies and substitution
// definitions.
func (s *state) collect(lines []string) {
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if m := anonTargetRe.FindStringSubmatch(line); m != nil {
			s.anonymous = append(s.anonymous, strings.TrimSpace(m[1]))
			continue
		}
		if m := targetRe.FindStringSubmatch(line); m != nil {
			name := normalizeName(strings.Trim(m[1], "`"))
			if url := strings.TrimSpace(m[2]); url != "" {
				s.targets[name] = url
			} else {
				s.targets[name] = "#" + refID(name)
			}
			continue
		}
		if m := footnoteRe.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			text := []string{m[3]}
			j := i + 1
			for ; j < len(lines) && (lines[j] == "" || indentOf(lines[j]) > indent); j++ {
				text = append(text, strings.TrimSpace(lines[j]))
			}
			body := strings.TrimSpace(strings.Join(text, "\n"))
			switch label := m[2]; label {
			case "#", "*":
				s.autoFootnotes = append(s.autoFootnotes, body)
			default:
				s.footnotes[label] = body
			}
			i = j - 1
			continue
		}
		if m := substitutionRe.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			sub := substitution{directive: m[3], args: strings.TrimSpace(m[4]), options: map[string]string{}}
			j := i + 1
			for ; j < len(lines) && lines[j] != "" && indentOf(lines[j]) > indent; j++ {
				if om := optionRe.FindStringSubmatch(lines[j]); om != nil {
					sub.options[om[1]] = strings.TrimSpace(om[2])
				}
			}
			s.substitutions[m[2]] = sub
			i = j - 1
		}
	}
}

// normalizeName folds a reference name the way targets are matched.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// refID turns a reference name into an element id.
func refID(name string) string {
	return strings.ReplaceAll(normalizeName(name), " ", "-")
}

// resolveURL maps a target value to a link href. Values without a scheme,
// and http: values without an authority, name wiki items.
func resolveURL(u string) (string, bool) {
	u = strings.Join(strings.Fields(u), "")
	switch {
	case strings.HasPrefix(u, "#"):
		return "wiki.local:" + u, true
	case emailRe.MatchString(u):
		return "mailto:" + u, true
	}
	if rest, ok := strings.CutPrefix(u, "http:"); ok && !strings.HasPrefix(rest, "//") {
		return "wiki.local:" + rest, true
	}
	if parse.Scheme(u) == "" {
		return "wiki.local:" + u, true
	}
	if !parse.AllowedScheme(u) {
		return "", false
	}
	return u, true
}

// levelHeadings assigns outline levels. A heading that opens the document
// with an adornment used nowhere else is the title (level 1), and a
// heading directly after it with another unique adornment is the subtitle
// (level 2). Other headings take levels 2 and up in order of first
// appearance of their adornment.
func (s *state) levelHeadings(body *dom.Element) {
	heads := dom.Find(body, func(e *dom.Element) bool { _, ok := s.styles[e]; return ok })
	if len(heads) == 0 {
		return
	}
	count := map[string]int{}
	for _, h := range heads {
		count[s.styles[h]]++
	}

	fixed := map[*dom.Element]int{}
	kids := body.Elements()
	if len(kids) > 0 && kids[0] == heads[0] && count[s.styles[heads[0]]] == 1 {
		fixed[heads[0]] = 1
		if len(kids) > 1 && len(heads) > 1 && kids[1] == heads[1] && count[s.styles[heads[1]]] == 1 {
			fixed[heads[1]] = 2
		}
	}

	order := map[string]int{}
	for _, h := range heads {
		level, ok := fixed[h]
		if !ok {
			style := s.styles[h]
			idx, seen := order[style]
			if !seen {
				idx = len(order)
				order[style] = idx
			}
			level = min(idx+2, 6)
		}
		h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(level))
	}
}
