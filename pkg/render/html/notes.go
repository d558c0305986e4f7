package html

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	xhtml "golang.org/x/net/html"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

type heading struct {
	level int
	text  string
	id    string
}

// toc is a table-of-content placeholder waiting for the headings.
type toc struct {
	node     *xhtml.Node
	maxLevel int
}

// uniqueID derives a heading id from text. Repeated ids get a numeric
// suffix.
func (s *Serializer) uniqueID(text string) string {
	id, err := slug.Normalize(text)
	if err != nil || id == "" {
		id = "heading"
	}
	n := s.ids[id]
	s.ids[id] = n + 1
	if n > 0 {
		id += "-" + strconv.Itoa(n)
	}
	return id
}

// note replaces a footnote by its numbered reference and keeps the body for
// the list written after the document.
func (s *Serializer) note(e *dom.Element) []*xhtml.Node {
	body := e.First("note-body")
	if body == nil {
		// <<FootNote>> without text marks where collected notes go.
		return nil
	}
	num := strconv.Itoa(len(s.notes) + 1)
	li := newElement("li", "id", "note-"+num)
	appendAll(li, s.children(body))
	back := newElement("a", "href", "#note-"+num+"-ref", "class", "moin-footnote-back")
	back.AppendChild(newText("^"))
	li.AppendChild(back)
	s.notes = append(s.notes, li)

	sup := newElement("sup", "id", "note-"+num+"-ref", "class", "moin-footnote")
	ref := newElement("a", "href", "#note-"+num)
	ref.AppendChild(newText(num))
	sup.AppendChild(ref)
	return []*xhtml.Node{sup}
}

func (s *Serializer) footnotes() *xhtml.Node {
	ol := newElement("ol", "class", "moin-footnotes")
	for _, li := range s.notes {
		ol.AppendChild(li)
	}
	return ol
}

func (s *Serializer) tableOfContents(e *dom.Element) []*xhtml.Node {
	maxLevel, err := strconv.Atoi(e.Attr(dom.AttrOutlineLevel))
	if err != nil || maxLevel < 1 {
		maxLevel = 6
	}
	div := newElement("div", "class", "moin-table-of-contents")
	title := newElement("p", "class", "moin-table-of-contents-heading")
	title.AppendChild(newText("Contents"))
	div.AppendChild(title)
	s.tocs = append(s.tocs, toc{node: div, maxLevel: maxLevel})
	return []*xhtml.Node{div}
}

// fillTOCs writes the nested heading lists into every table of contents.
func (s *Serializer) fillTOCs() {
	for _, t := range s.tocs {
		var headings []heading
		for _, h := range s.headings {
			if h.level <= t.maxLevel {
				headings = append(headings, h)
			}
		}
		if len(headings) == 0 {
			continue
		}
		t.node.AppendChild(tocList(headings))
	}
}

// tocList nests headings by level. A heading deeper than its predecessor
// opens a sublist inside the predecessor's item.
func tocList(headings []heading) *xhtml.Node {
	root := newElement("ol")
	type open struct {
		list  *xhtml.Node
		level int
	}
	stack := []open{{list: root, level: headings[0].level}}
	for _, h := range headings {
		for len(stack) > 1 && h.level < stack[len(stack)-1].level {
			stack = stack[:len(stack)-1]
		}
		top := stack[len(stack)-1]
		if h.level > top.level && top.list.LastChild != nil {
			sub := newElement("ol")
			top.list.LastChild.AppendChild(sub)
			stack = append(stack, open{list: sub, level: h.level})
			top = stack[len(stack)-1]
		}
		li := newElement("li")
		a := newElement("a", "href", "#"+h.id)
		a.AppendChild(newText(strings.TrimSpace(h.text)))
		li.AppendChild(a)
		top.list.AppendChild(li)
	}
	return root
}
