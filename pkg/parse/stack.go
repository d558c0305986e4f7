package parse

import (
	"strconv"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// DataLineNo is the attribute carrying the source line of an element when
// line tracking is enabled.
var DataLineNo = dom.XHTML.Name("data-lineno")

// Stack is the chain of currently open elements, from the root down to the
// innermost open block. The bottom element is never popped.
type Stack struct {
	elems []*dom.Element

	lines      *Lines
	lastLineNo int
}

// NewStack returns a stack with bottom as its root.
func NewStack(bottom *dom.Element) *Stack {
	return &Stack{elems: []*dom.Element{bottom}}
}

// TrackLines makes Push and TopAppend record the current line of lines on
// new elements.
func (s *Stack) TrackLines(lines *Lines) {
	s.lines = lines
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	return len(s.elems)
}

// Clear drops everything except the bottom element.
func (s *Stack) Clear() {
	s.elems = s.elems[:1]
}

// Pop removes the top element. The bottom element stays.
func (s *Stack) Pop() {
	if len(s.elems) > 1 {
		s.elems = s.elems[:len(s.elems)-1]
	}
}

// PopName pops up to and including the nearest element named one of names.
func (s *Stack) PopName(names ...string) {
	for len(s.elems) > 2 && !s.TopCheck(names...) {
		s.Pop()
	}
	s.Pop()
}

// Push appends e to the current top and makes it the new top.
func (s *Stack) Push(e *dom.Element) {
	s.TopAppend(e)
	s.elems = append(s.elems, e)
}

// Top returns the innermost open element.
func (s *Stack) Top() *dom.Element {
	return s.elems[len(s.elems)-1]
}

// At returns the element at depth i, counted from the bottom.
func (s *Stack) At(i int) *dom.Element {
	return s.elems[i]
}

// TopAppend appends nodes to the innermost open element.
func (s *Stack) TopAppend(nodes ...dom.Node) {
	for _, n := range nodes {
		if e, ok := n.(*dom.Element); ok {
			s.markLine(e)
		}
	}
	s.Top().Append(nodes...)
}

// TopAppendText appends text to the innermost open element.
func (s *Stack) TopAppendText(text string) {
	s.Top().AppendText(text)
}

// TopAppendIfNotEmpty appends e only when it has children.
func (s *Stack) TopAppendIfNotEmpty(e *dom.Element) {
	if e != nil && !e.Empty() {
		s.TopAppend(e)
	}
}

// TopCheck reports whether the top element is a Moin element named one of names.
func (s *Stack) TopCheck(names ...string) bool {
	top := s.Top()
	for _, n := range names {
		if top.Is(n) {
			return true
		}
	}
	return false
}

// TopCheckAttrs is TopCheck that also requires every attribute in attrs to
// be set to the given value on the top element.
func (s *Stack) TopCheckAttrs(attrs map[dom.QName]string, names ...string) bool {
	if !s.TopCheck(names...) {
		return false
	}
	top := s.Top()
	for k, v := range attrs {
		if got, ok := top.Lookup(k); !ok || got != v {
			return false
		}
	}
	return true
}

func (s *Stack) markLine(e *dom.Element) {
	if s.lines == nil {
		return
	}
	if n := s.lines.LineNo(); n != s.lastLineNo {
		e.SetAttr(DataLineNo, strconv.Itoa(n))
		s.lastLineNo = n
	}
}
