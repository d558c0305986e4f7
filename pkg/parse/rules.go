// rules.go implements prioritized regular expression dispatch for block and
// inline grammars.
package parse

import (
	"regexp"
	"unicode/utf8"
)

// Match is one successful rule match against Input.
type Match struct {
	Input string
	re    *regexp.Regexp
	loc   []int
	base  int
}

// NewMatch builds a Match from submatch indexes relative to input[base:].
func NewMatch(re *regexp.Regexp, input string, base int, loc []int) Match {
	return Match{Input: input, re: re, loc: loc, base: base}
}

// Start returns the absolute offset where the match begins.
func (m Match) Start() int { return m.base + m.loc[0] }

// End returns the absolute offset where the match ends.
func (m Match) End() int { return m.base + m.loc[1] }

// Text returns the whole matched text.
func (m Match) Text() string { return m.Input[m.Start():m.End()] }

// Has reports whether the named group took part in the match.
func (m Match) Has(name string) bool {
	i := m.re.SubexpIndex(name)
	return i > 0 && m.loc[2*i] >= 0
}

// Group returns the text of the named group, or "".
func (m Match) Group(name string) string {
	i := m.re.SubexpIndex(name)
	if i <= 0 || m.loc[2*i] < 0 {
		return ""
	}
	return m.Input[m.base+m.loc[2*i] : m.base+m.loc[2*i+1]]
}

// Before returns the input preceding the match.
func (m Match) Before() string { return m.Input[:m.Start()] }

// After returns the input following the match.
func (m Match) After() string { return m.Input[m.End():] }

// BlockRule is one alternative of a block grammar. Re is matched against
// the start of the line; Accept may veto a match.
type BlockRule struct {
	Name   string
	Re     *regexp.Regexp
	Accept func(m Match) bool
	Handle func(m Match)
}

// Dispatch runs the first rule whose expression matches line at offset 0
// and which accepts the match. It reports whether a rule ran.
func Dispatch(line string, rules []BlockRule) bool {
	for _, r := range rules {
		loc := r.Re.FindStringSubmatchIndex(line)
		if loc == nil || loc[0] != 0 {
			continue
		}
		m := NewMatch(r.Re, line, 0, loc)
		if r.Accept != nil && !r.Accept(m) {
			continue
		}
		r.Handle(m)
		return true
	}
	return false
}

// InlineRule is one alternative of an inline grammar. Accept emulates look
// around assertions by inspecting the text around the match.
type InlineRule struct {
	Name   string
	Re     *regexp.Regexp
	Accept func(m Match) bool
	Handle func(m Match)
}

// Scan walks text left to right. At each step the leftmost match across all
// rules wins, ties going to the earlier rule; text between matches is passed
// to plain verbatim.
func Scan(text string, rules []InlineRule, plain func(string)) {
	next := make([]*Match, len(rules))
	done := make([]bool, len(rules))

	find := func(i, from int) {
		for from <= len(text) {
			loc := rules[i].Re.FindStringSubmatchIndex(text[from:])
			if loc == nil {
				next[i], done[i] = nil, true
				return
			}
			m := NewMatch(rules[i].Re, text, from, loc)
			if loc[0] == loc[1] || (rules[i].Accept != nil && !rules[i].Accept(m)) {
				_, size := utf8.DecodeRuneInString(text[m.Start():])
				from = m.Start() + max(size, 1)
				continue
			}
			next[i] = &m
			return
		}
		next[i], done[i] = nil, true
	}

	pos := 0
	for pos < len(text) {
		best := -1
		for i := range rules {
			if done[i] {
				continue
			}
			if next[i] == nil || next[i].Start() < pos {
				find(i, pos)
				if done[i] {
					continue
				}
			}
			if best < 0 || next[i].Start() < next[best].Start() {
				best = i
			}
		}
		if best < 0 {
			break
		}
		m := *next[best]
		if m.Start() > pos {
			plain(text[pos:m.Start()])
		}
		rules[best].Handle(m)
		pos = m.End()
	}
	if pos < len(text) {
		plain(text[pos:])
	}
}
