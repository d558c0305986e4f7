// Package dom implements the namespaced document tree shared by every
// parser, transform pass and serializer.
//
// Elements own their attribute maps and child slices. There are no parent
// pointers; code that needs ancestors receives them as an explicit path.
package dom

import "strings"

// Namespace is an XML namespace URI.
type Namespace string

// Namespaces used by the tree.
const (
	Moin      Namespace = "http://moinmo.in/namespaces/page"
	XHTML     Namespace = "http://www.w3.org/1999/xhtml"
	XLink     Namespace = "http://www.w3.org/1999/xlink"
	XInclude  Namespace = "http://www.w3.org/2001/XInclude"
	DocBookNS Namespace = "http://docbook.org/ns/docbook"
	XMLNS     Namespace = "http://www.w3.org/XML/1998/namespace"
	Meta      Namespace = "http://moinmo.in/namespaces/meta"
)

// Name returns the qualified name local in ns.
func (ns Namespace) Name(local string) QName {
	return QName{Space: ns, Local: local}
}

// QName is a namespace-qualified element or attribute name.
type QName struct {
	Space Namespace
	Local string
}

// Node is either Text or *Element.
type Node interface {
	node()
}

// Text is an immutable text leaf.
type Text string

func (Text) node() {}

// Element is a tree node with a qualified name, attributes and ordered children.
type Element struct {
	Name     QName
	Attrs    map[QName]string
	Children []Node
}

func (*Element) node() {}

// New creates an element. attrs may be nil.
func New(name QName, attrs map[QName]string, children ...Node) *Element {
	e := &Element{Name: name, Attrs: make(map[QName]string, len(attrs))}
	for k, v := range attrs {
		e.Attrs[k] = v
	}
	e.Append(children...)
	return e
}

// Elem creates an element in the Moin namespace.
func Elem(local string, children ...Node) *Element {
	return New(Moin.Name(local), nil, children...)
}

// Is reports whether e is the Moin element called local.
func (e *Element) Is(local string) bool {
	return e != nil && e.Name.Space == Moin && e.Name.Local == local
}

// Attr returns the value of attribute q, or "".
func (e *Element) Attr(q QName) string {
	return e.Attrs[q]
}

// Lookup returns the value of attribute q and whether it is set.
func (e *Element) Lookup(q QName) (string, bool) {
	v, ok := e.Attrs[q]
	return v, ok
}

// SetAttr sets attribute q and returns e for chaining.
func (e *Element) SetAttr(q QName, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[QName]string)
	}
	e.Attrs[q] = value
	return e
}

// DelAttr removes attribute q.
func (e *Element) DelAttr(q QName) {
	delete(e.Attrs, q)
}

// AddClass appends class to the space separated class attribute.
func (e *Element) AddClass(class string) {
	cur := e.Attr(AttrClass)
	if cur == "" {
		e.SetAttr(AttrClass, class)
		return
	}
	for _, c := range strings.Fields(cur) {
		if c == class {
			return
		}
	}
	e.SetAttr(AttrClass, cur+" "+class)
}

// HasClass reports whether class is one of e's classes.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attr(AttrClass)) {
		if c == class {
			return true
		}
	}
	return false
}

// Append adds children, merging adjacent text and dropping empty text.
func (e *Element) Append(children ...Node) {
	for _, c := range children {
		switch n := c.(type) {
		case nil:
			continue
		case Text:
			e.AppendText(string(n))
		case *Element:
			if n == nil {
				continue
			}
			e.Children = append(e.Children, n)
		}
	}
}

// AppendText appends s, merging it into a trailing text child.
func (e *Element) AppendText(s string) {
	if s == "" {
		return
	}
	if last := len(e.Children) - 1; last >= 0 {
		if t, ok := e.Children[last].(Text); ok {
			e.Children[last] = t + Text(s)
			return
		}
	}
	e.Children = append(e.Children, Text(s))
}

// Elements returns the element children of e.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// First returns the first Moin child element called local.
func (e *Element) First(local string) *Element {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Is(local) {
			return el
		}
	}
	return nil
}

// Text returns the concatenated text of e's descendants.
func (e *Element) Text() string {
	var sb strings.Builder
	writeText(&sb, e)
	return sb.String()
}

func writeText(sb *strings.Builder, e *Element) {
	for _, c := range e.Children {
		switch n := c.(type) {
		case Text:
			sb.WriteString(string(n))
		case *Element:
			writeText(sb, n)
		}
	}
}

// Empty reports whether e has no children.
func (e *Element) Empty() bool {
	return len(e.Children) == 0
}

// Clone returns a deep copy of e.
func (e *Element) Clone() *Element {
	c := &Element{Name: e.Name, Attrs: make(map[QName]string, len(e.Attrs))}
	for k, v := range e.Attrs {
		c.Attrs[k] = v
	}
	c.Children = make([]Node, 0, len(e.Children))
	for _, child := range e.Children {
		switch n := child.(type) {
		case Text:
			c.Children = append(c.Children, n)
		case *Element:
			c.Children = append(c.Children, n.Clone())
		}
	}
	return c
}

// Body returns the body element of a page root, or nil.
func Body(page *Element) *Element {
	if page == nil {
		return nil
	}
	return page.First("body")
}

// NewPage returns an empty page with a single body.
func NewPage() (*Element, *Element) {
	body := Elem("body")
	return Elem("page", body), body
}
