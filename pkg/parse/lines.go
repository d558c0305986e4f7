// Package parse holds the machinery shared by the dialect parsers: a line
// iterator with push-back, the build stack of open elements, regular
// expression rule dispatch and table construction.
package parse

import "strings"

// SplitLines normalizes line endings and splits text into lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Lines iterates over input lines. Lines handed back with Push are returned
// again, in the order they were pushed, before the remaining input.
type Lines struct {
	lines   []string
	pos     int
	pending []string
	lineNo  int
}

// NewLines returns an iterator over lines.
func NewLines(lines []string) *Lines {
	return &Lines{lines: lines}
}

// Next returns the next line, or false at end of input.
func (l *Lines) Next() (string, bool) {
	if len(l.pending) > 0 {
		line := l.pending[0]
		l.pending = l.pending[1:]
		l.lineNo++
		return line, true
	}
	if l.pos >= len(l.lines) {
		return "", false
	}
	line := l.lines[l.pos]
	l.pos++
	l.lineNo++
	return line, true
}

// Push returns an already consumed line to the stream.
func (l *Lines) Push(line string) {
	l.pending = append(l.pending, line)
	l.lineNo--
}

// LineNo returns the number of the line last returned by Next.
func (l *Lines) LineNo() int {
	return l.lineNo
}

// Done reports whether the iterator is exhausted.
func (l *Lines) Done() bool {
	return len(l.pending) == 0 && l.pos >= len(l.lines)
}
